// Package rules holds the in-memory rule graph compiled from a skhdrc config
// file: the set of modes, the hotkeys owned by each mode, and the blacklist
// of processes the daemon should never intercept.
package rules

import (
	"fmt"
	"strings"

	"github.com/skhd-go/skhd/internal/keycodes"
	"github.com/skhd-go/skhd/internal/skhderrors"
)

// Action is what a matched hotkey does when triggered.
type Action struct {
	// Command, if non-empty, is the shell command line to run.
	Command string
	// Forward, if non-nil, is the key event to synthesize instead of the
	// original one (the `|` forward form).
	Forward *ForwardKey
	// Activate, if non-empty, names the mode to switch to.
	Activate string
	// Unbound marks a `~` binding: the key is claimed (not passed through)
	// but does nothing.
	Unbound bool
}

// ForwardKey is the modifier set + keycode a forwarded hotkey synthesizes.
type ForwardKey struct {
	Modifiers keycodes.Modifier
	Key       keycodes.KeyCode
}

// IsEmpty reports whether the action does nothing at all (no command, no
// forward, no mode switch, and not explicitly unbound) — a zero-value Action.
func (a Action) IsEmpty() bool {
	return a.Command == "" && a.Forward == nil && a.Activate == "" && !a.Unbound
}

// Hotkey is a single trigger (modifier set + keycode, optionally NX) that
// may be registered in several modes at once.
type Hotkey struct {
	Modifiers keycodes.Modifier
	Key       keycodes.KeyCode
	// Passthrough means the original event still reaches other applications
	// even when the action runs (the `->` arrow form).
	Passthrough bool
	// OnRelease means this hotkey is only considered on key-up events,
	// rather than the default key-down.
	OnRelease bool
	// NX marks a system-defined media-key trigger.
	NX bool
	// Default is the action run when no process override applies.
	Default Action
	// ProcessOverrides maps a lowercased process/bundle name to its
	// override action for this trigger.
	ProcessOverrides map[string]Action
	// ModeSet names every mode this hotkey is registered in, a
	// non-owning back-reference recorded by AddHotkey.
	ModeSet []string
}

// Fingerprint returns the canonical hash used to identify a hotkey's exact
// trigger (including which side, if any, it named): the modifier set with
// side bits folded in but not cleared, in the high bits, the keycode in the
// low 32 bits. Two hotkeys with the same Fingerprint are the same trigger;
// used for duplicate detection and press/release bookkeeping.
func Fingerprint(mods keycodes.Modifier, key keycodes.KeyCode) uint64 {
	return uint64(keycodes.Canonicalize(mods))<<32 | uint64(key)
}

// BucketFingerprint groups hotkeys that can collide on the same incoming
// event: every side-specific bit is folded into its general bit and
// cleared, so "alt - a" and "lalt - a" land in the same bucket. Mode.Lookup
// disambiguates within a bucket with keycodes.Matches.
func BucketFingerprint(mods keycodes.Modifier, key keycodes.KeyCode) uint64 {
	return uint64(keycodes.BucketMask(mods))<<32 | uint64(key)
}

// Mode is a named collection of hotkeys, mirroring spec.md §3's Mode type.
type Mode struct {
	Name string
	// Capture, if true, means every key event is consumed while this mode
	// is active, whether or not a hotkey matches (the `@` marker after a
	// mode declaration's `::`).
	Capture bool
	// OnEnter is an optional shell command run when the mode is entered.
	OnEnter string
	// Hotkeys maps a bucket fingerprint (side bits folded away) to every
	// hotkey registered under it; more than one entry means the bucket
	// holds hotkeys that differ only by modifier side, disambiguated at
	// lookup time by keycodes.Matches.
	Hotkeys map[uint64][]*Hotkey
}

func newMode(name string) *Mode {
	return &Mode{Name: name, Hotkeys: make(map[uint64][]*Hotkey)}
}

// Lookup finds the hotkey in this mode whose trigger matches (mods, key),
// per the side-aware equality in keycodes.Matches: a bucket can hold
// several hotkeys that collide on their general modifier bits (e.g.
// "alt - a" and "lalt - a"), and the most side-specific match wins.
func (mode *Mode) Lookup(mods keycodes.Modifier, key keycodes.KeyCode) *Hotkey {
	var best *Hotkey
	bestSpecificity := -1
	for _, hk := range mode.Hotkeys[BucketFingerprint(mods, key)] {
		if !keycodes.Matches(hk.Modifiers, mods) {
			continue
		}
		if s := keycodes.Specificity(hk.Modifiers); s > bestSpecificity {
			best = hk
			bestSpecificity = s
		}
	}
	return best
}

// Mappings is the full compiled rule graph: every mode, the blacklist, and
// the set of files loaded to build it (for the config watcher to track).
// It is the single owner of every Mode and Hotkey; Mode.Hotkeys and
// Hotkey.ModeSet are non-owning, lookup-only back-references.
type Mappings struct {
	Modes map[string]*Mode
	// Blacklist holds lowercased process/bundle names the dispatcher must
	// never intercept events for, regardless of the active mode.
	Blacklist map[string]bool
	// ShellPath is the interpreter used to run command actions; empty
	// means the platform default ($SHELL, falling back to /bin/bash).
	ShellPath string
	// LoadedFiles lists every file visited while compiling this graph
	// (the root file plus every `.load`ed file), in load order.
	LoadedFiles []string
	// Hotkeys is the owning list of every hotkey in the graph, in the
	// order they were added.
	Hotkeys []*Hotkey
}

// DefaultModeName is the implicit mode every config starts in.
const DefaultModeName = "default"

// NewMappings returns an empty rule graph with only the default mode
// present, matching spec.md §3's "default mode always exists" invariant.
func NewMappings() *Mappings {
	m := &Mappings{
		Modes:     make(map[string]*Mode),
		Blacklist: make(map[string]bool),
	}
	m.Modes[DefaultModeName] = newMode(DefaultModeName)
	return m
}

// GetOrCreateMode returns the named mode, creating it (uncaptured, no
// on-enter command) if it does not yet exist.
func (m *Mappings) GetOrCreateMode(name string) *Mode {
	if mode, ok := m.Modes[name]; ok {
		return mode
	}
	mode := newMode(name)
	m.Modes[name] = mode
	return mode
}

// PutMode declares a mode explicitly (the `::name` / `::name : command`
// config form). It is an error to declare the same mode twice.
func (m *Mappings) PutMode(name string, capture bool, onEnter string) error {
	if _, exists := m.Modes[name]; exists {
		return fmt.Errorf("%w: %s", skhderrors.ErrModeAlreadyExists, name)
	}
	mode := newMode(name)
	mode.Capture = capture
	mode.OnEnter = onEnter
	m.Modes[name] = mode
	return nil
}

// AddHotkey registers hk into every named mode, creating modes that don't
// yet exist. The insert is atomic across the whole list: if any mode
// already has an identity-equal hotkey, nothing is inserted anywhere.
func (m *Mappings) AddHotkey(modeNames []string, hk *Hotkey) error {
	fp := Fingerprint(hk.Modifiers, hk.Key)
	bucket := BucketFingerprint(hk.Modifiers, hk.Key)
	modes := make([]*Mode, len(modeNames))
	for i, name := range modeNames {
		mode := m.GetOrCreateMode(name)
		for _, existing := range mode.Hotkeys[bucket] {
			if Fingerprint(existing.Modifiers, existing.Key) == fp {
				return fmt.Errorf("%w: mode %s", skhderrors.ErrDuplicateHotkey, name)
			}
		}
		modes[i] = mode
	}
	hk.ModeSet = append([]string(nil), modeNames...)
	for _, mode := range modes {
		mode.Hotkeys[bucket] = append(mode.Hotkeys[bucket], hk)
	}
	m.Hotkeys = append(m.Hotkeys, hk)
	return nil
}

// AddBlacklist adds a process name to the blacklist. It is an error to add
// the same name twice.
func (m *Mappings) AddBlacklist(processName string) error {
	key := normalizeProcessName(processName)
	if m.Blacklist[key] {
		return fmt.Errorf("%w: %s", skhderrors.ErrBlacklistDuplicate, processName)
	}
	m.Blacklist[key] = true
	return nil
}

// SetShell records the interpreter path from a `.shell` directive.
func (m *Mappings) SetShell(path string) {
	m.ShellPath = path
}

// Lookup finds the hotkey registered for (mods, key) within modeName, if
// any, returning nil if the mode doesn't exist or has no such binding.
func (m *Mappings) Lookup(modeName string, mods keycodes.Modifier, key keycodes.KeyCode) *Hotkey {
	mode, ok := m.Modes[modeName]
	if !ok {
		return nil
	}
	return mode.Lookup(mods, key)
}

// IsBlacklisted reports whether a process/bundle name is on the blacklist.
func (m *Mappings) IsBlacklisted(processName string) bool {
	return m.Blacklist[normalizeProcessName(processName)]
}

// ResolveAction returns the action that applies to hk for the given
// frontmost process name: a process-specific override if one is registered,
// the wildcard ("*") override if present, otherwise the default action.
func (hk *Hotkey) ResolveAction(processName string) Action {
	key := normalizeProcessName(processName)
	if hk.ProcessOverrides != nil {
		if act, ok := hk.ProcessOverrides[key]; ok {
			return act
		}
		if act, ok := hk.ProcessOverrides["*"]; ok {
			return act
		}
	}
	return hk.Default
}

// SetProcessOverride registers a process-specific action for this hotkey,
// per spec.md §4.2's `[ "app1" : action1 "app2" : action2 ]` list form.
func (hk *Hotkey) SetProcessOverride(processName string, act Action) error {
	if hk.ProcessOverrides == nil {
		hk.ProcessOverrides = make(map[string]Action)
	}
	key := normalizeProcessName(processName)
	if _, exists := hk.ProcessOverrides[key]; exists {
		return fmt.Errorf("%w: process %s", skhderrors.ErrDuplicateModeInList, processName)
	}
	hk.ProcessOverrides[key] = act
	return nil
}

func normalizeProcessName(name string) string {
	return strings.ToLower(name)
}
