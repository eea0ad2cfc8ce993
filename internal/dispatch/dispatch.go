// Package dispatch implements the event-loop hot path: it turns a raw
// keyboard/mouse event into a lookup against the active rule graph and
// decides whether to pass, suppress, or replace it with a synthesized
// event.
package dispatch

import (
	"strings"
	"sync/atomic"

	"github.com/skhd-go/skhd/internal/keycodes"
	"github.com/skhd-go/skhd/internal/rules"
)

// Kind identifies the category of a raw input event.
type Kind int

const (
	KeyDown Kind = iota
	KeyUp
	FlagsChanged
	SystemDefined
)

// Event is the normalized shape of one OS input event.
type Event struct {
	Kind          Kind
	Key           keycodes.KeyCode
	Modifiers     keycodes.Modifier
	SelfGenerated bool
}

// Outcome is what the dispatcher decided to do with an event.
type Outcome int

const (
	Pass Outcome = iota
	Suppress
	Replace
)

// Result is the dispatcher's decision for one event.
type Result struct {
	Outcome Outcome
	Synth   *rules.ForwardKey // set only when Outcome == Replace
}

// Runner runs a matched command line, fire-and-forget.
type Runner interface {
	Run(shellPath, command string)
}

// Synthesizer posts a synthesized key combo to the OS.
type Synthesizer interface {
	Post(mods keycodes.Modifier, key keycodes.KeyCode)
}

// ForegroundProcess returns the lower-cased name of the frontmost process,
// cached and invalidated by the platform's frontmost-app-changed
// notification (see internal/appwatcher).
type ForegroundProcess interface {
	Name() string
}

// Counters tallies early-exit reasons.
type Counters struct {
	SelfGeneratedExits uint64
	NoModeExits        uint64
	BlacklistedExits   uint64
}

// Dispatcher holds the run-loop-owned mutable state described in the
// concurrency model: the current Mappings pointer (swapped whole between
// events), the current mode name, and the set of hotkeys currently
// suppressed-on-press so their matching release can be suppressed too.
type Dispatcher struct {
	mappings atomic.Pointer[rules.Mappings]

	mode    string
	pressed map[uint64]bool

	foreground ForegroundProcess
	runner     Runner
	synth      Synthesizer

	counters Counters
}

// New builds a Dispatcher over the initial Mappings, starting in the
// default mode.
func New(initial *rules.Mappings, foreground ForegroundProcess, runner Runner, synth Synthesizer) *Dispatcher {
	d := &Dispatcher{
		mode:       rules.DefaultModeName,
		pressed:    make(map[uint64]bool),
		foreground: foreground,
		runner:     runner,
		synth:      synth,
	}
	d.mappings.Store(initial)
	return d
}

// Swap installs a new Mappings atomically; it takes effect for the next
// event. The current mode resets to default, per the reload state machine.
func (d *Dispatcher) Swap(m *rules.Mappings) {
	d.mappings.Store(m)
	d.mode = rules.DefaultModeName
}

// Mode reports the currently active mode name.
func (d *Dispatcher) Mode() string { return d.mode }

// Counters returns a snapshot of the early-exit tallies.
func (d *Dispatcher) Counters() Counters { return d.counters }

// Dispatch runs the hot-path algorithm for one event and returns the
// decision. It never blocks: command execution and key synthesis are
// handed off to the Runner/Synthesizer collaborators, which return
// immediately.
func (d *Dispatcher) Dispatch(ev Event) Result {
	if ev.SelfGenerated {
		d.counters.SelfGeneratedExits++
		return Result{Outcome: Pass}
	}

	mappings := d.mappings.Load()
	if mappings == nil || d.mode == "" {
		d.counters.NoModeExits++
		return Result{Outcome: Pass}
	}

	process := ""
	if d.foreground != nil {
		process = strings.ToLower(d.foreground.Name())
	}

	if mappings.IsBlacklisted(process) {
		d.counters.BlacklistedExits++
		return Result{Outcome: Pass}
	}

	if ev.Kind == FlagsChanged {
		return d.dispatchFlagsChanged(mappings, ev, process)
	}

	fp := rules.Fingerprint(ev.Modifiers, ev.Key)
	mode := mappings.Modes[d.mode]
	if mode == nil {
		d.counters.NoModeExits++
		return Result{Outcome: Pass}
	}
	hk := mode.Lookup(ev.Modifiers, ev.Key)

	switch ev.Kind {
	case KeyUp:
		return d.dispatchRelease(mappings, hk, fp, mode.Capture, process)
	default: // KeyDown, SystemDefined
		return d.dispatchPress(mappings, hk, fp, mode.Capture, process)
	}
}

// dispatchPress handles KeyDown and SystemDefined events: hotkeys flagged
// on-release are not considered here, matching spec's "on-release hotkeys
// are only considered on key_up" rule.
func (d *Dispatcher) dispatchPress(mappings *rules.Mappings, hk *rules.Hotkey, fp uint64, capture bool, process string) Result {
	if hk == nil || hk.OnRelease {
		if capture {
			return Result{Outcome: Suppress}
		}
		return Result{Outcome: Pass}
	}
	return d.execute(mappings, hk, fp, process)
}

// dispatchRelease handles KeyUp events: only on-release hotkeys match here;
// a release whose matching press was suppressed is also suppressed, so
// upstream applications never see an orphan key-up.
func (d *Dispatcher) dispatchRelease(mappings *rules.Mappings, hk *rules.Hotkey, fp uint64, capture bool, process string) Result {
	if d.pressed[fp] {
		delete(d.pressed, fp)
		return Result{Outcome: Suppress}
	}
	if hk == nil || !hk.OnRelease {
		if capture {
			return Result{Outcome: Suppress}
		}
		return Result{Outcome: Pass}
	}
	return d.execute(mappings, hk, fp, process)
}

// dispatchFlagsChanged handles a bare modifier press/release: it only
// participates when the mode has a hotkey whose key token is itself a
// modifier bit; everything else passes through untouched.
func (d *Dispatcher) dispatchFlagsChanged(mappings *rules.Mappings, ev Event, process string) Result {
	mode := mappings.Modes[d.mode]
	if mode == nil {
		return Result{Outcome: Pass}
	}
	fp := rules.Fingerprint(0, ev.Key)
	hk := mode.Lookup(0, ev.Key)
	if hk == nil {
		return Result{Outcome: Pass}
	}
	return d.execute(mappings, hk, fp, process)
}

// execute runs the resolved action for a matched hotkey and decides the
// outcome, tracking the press for release-suppression when the command
// path suppresses the original event.
func (d *Dispatcher) execute(mappings *rules.Mappings, hk *rules.Hotkey, fp uint64, process string) Result {
	act := hk.ResolveAction(process)

	switch {
	case act.Command != "":
		if d.runner != nil {
			d.runner.Run(mappings.ShellPath, act.Command)
		}
		if act.Unbound {
			// unreachable: Command and Unbound are mutually exclusive by
			// construction, guarded for clarity only.
		}
		if hk.Passthrough {
			return Result{Outcome: Pass}
		}
		d.pressed[fp] = true
		return Result{Outcome: Suppress}

	case act.Forward != nil:
		if d.synth != nil {
			d.synth.Post(act.Forward.Modifiers, act.Forward.Key)
		}
		d.pressed[fp] = true
		return Result{Outcome: Replace, Synth: act.Forward}

	case act.Activate != "":
		d.mode = act.Activate
		if newMode := mappings.Modes[act.Activate]; newMode != nil && newMode.OnEnter != "" && d.runner != nil {
			d.runner.Run(mappings.ShellPath, newMode.OnEnter)
		}
		d.pressed[fp] = true
		return Result{Outcome: Suppress}

	case act.Unbound:
		d.pressed[fp] = true
		return Result{Outcome: Suppress}

	default:
		// Hit the fingerprint but resolved to an empty action (e.g. a
		// process map with no matching entry and no wildcard): treat like
		// a miss, honoring the enclosing mode's capture flag.
		if mappings.Modes[d.mode] != nil && mappings.Modes[d.mode].Capture {
			return Result{Outcome: Suppress}
		}
		return Result{Outcome: Pass}
	}
}
