// Package keycodes holds the static and layout-dependent lookup tables the
// lexer and parser use to turn modifier and key names into the bitmasks and
// virtual keycodes the dispatcher matches against.
package keycodes

import "sync"

// Modifier is a single bit in a modifier bitmask.
type Modifier uint32

// Modifier bits. Side-specific bits are distinct from their general
// counterpart: Alt is set whenever either LAlt or RAlt is (see Canonicalize),
// but a rule that asks for LAlt only matches the left variant.
const (
	ModAlt Modifier = 1 << iota
	ModLAlt
	ModRAlt
	ModShift
	ModLShift
	ModRShift
	ModCmd
	ModLCmd
	ModRCmd
	ModControl
	ModLControl
	ModRControl
	ModFn
	ModNX
)

// Hyper and Meh are conventional aliases for common four/three-key chords.
const (
	ModHyper = ModCmd | ModAlt | ModShift | ModControl
	ModMeh   = ModControl | ModShift | ModAlt
)

// sideToGeneral maps each side-specific bit to the general bit it folds
// into for canonicalization (hashing and wildcard-side matching).
var sideToGeneral = map[Modifier]Modifier{
	ModLAlt:     ModAlt,
	ModRAlt:     ModAlt,
	ModLShift:   ModShift,
	ModRShift:   ModShift,
	ModLCmd:     ModCmd,
	ModRCmd:     ModCmd,
	ModLControl: ModControl,
	ModRControl: ModControl,
}

// generalBits is the set of bits eligible for side-folding.
var generalBits = []Modifier{ModAlt, ModShift, ModCmd, ModControl}

// sideBitsOf lists, for each general bit, the side-specific bits that imply it.
var sideBitsOf = map[Modifier][]Modifier{
	ModAlt:     {ModLAlt, ModRAlt},
	ModShift:   {ModLShift, ModRShift},
	ModCmd:     {ModLCmd, ModRCmd},
	ModControl: {ModLControl, ModRControl},
}

// Canonicalize folds every side-specific bit present in m into its general
// bit, for use as a lookup-hash component. The original mask (with side bits
// intact) must be kept separately for the side-aware equality check.
func Canonicalize(m Modifier) Modifier {
	out := m
	for side, general := range sideToGeneral {
		if m&side != 0 {
			out |= general
		}
	}
	return out
}

// Matches implements the side-agnostic-by-default comparison from the data
// model: a rule mask matches an event mask if every bit the rule asks for is
// satisfied — a general bit by either side being held, a side-specific bit
// only by that exact side.
func Matches(ruleMask, eventMask Modifier) bool {
	for _, general := range generalBits {
		if ruleMask&general == 0 {
			continue
		}
		sides := sideBitsOf[general]
		if eventMask&general == 0 && eventMask&sides[0] == 0 && eventMask&sides[1] == 0 {
			return false
		}
	}
	// Side-specific requirements: the rule's side bit must be held exactly.
	for side := range sideToGeneral {
		if ruleMask&side != 0 && eventMask&side == 0 {
			return false
		}
	}
	nonModifierBits := ^Modifier(0)
	for _, g := range generalBits {
		nonModifierBits &^= g
		nonModifierBits &^= sideBitsOf[g][0]
		nonModifierBits &^= sideBitsOf[g][1]
	}
	rest := ruleMask & nonModifierBits
	return eventMask&rest == rest
}

// BucketMask folds every side-specific bit into its general bit and clears
// the side bit, so two masks that differ only by side specificity (e.g.
// ModAlt and ModLAlt) land in the same bucket. Used to group hotkeys that
// can collide on the same key before Matches disambiguates among them.
func BucketMask(m Modifier) Modifier {
	out := m
	for side, general := range sideToGeneral {
		if out&side != 0 {
			out |= general
			out &^= side
		}
	}
	return out
}

// Specificity counts the side-specific bits set in m, used to rank
// colliding hotkeys: a rule naming a side (lalt) outranks one that doesn't
// (alt) when both match the same event.
func Specificity(m Modifier) int {
	n := 0
	for side := range sideToGeneral {
		if m&side != 0 {
			n++
		}
	}
	return n
}

// ModifierNames maps a recognized modifier identifier (as it appears in a
// config file) to its bit.
var ModifierNames = map[string]Modifier{
	"alt":      ModAlt,
	"lalt":     ModLAlt,
	"ralt":     ModRAlt,
	"shift":    ModShift,
	"lshift":   ModLShift,
	"rshift":   ModRShift,
	"cmd":      ModCmd,
	"lcmd":     ModLCmd,
	"rcmd":     ModRCmd,
	"control":  ModControl,
	"lcontrol": ModLControl,
	"rcontrol": ModRControl,
	"fn":       ModFn,
	"hyper":    ModHyper,
	"meh":      ModMeh,
	"nx":       ModNX,
}

// KeyCode is a 32-bit layout-independent virtual keycode.
type KeyCode uint32

// LiteralKeys maps a named literal key (as written in a config file) to its
// virtual keycode, using the standard macOS ANSI layout keycode assignment.
// Keys tagged ImplicitNX carry the NX ("system-defined", media key) flag
// automatically when referenced by name.
var LiteralKeys = map[string]KeyCode{
	"return":   0x24,
	"tab":      0x30,
	"space":    0x31,
	"backspace": 0x33,
	"escape":   0x35,
	"delete":   0x75,
	"home":     0x73,
	"end":      0x77,
	"pageup":   0x74,
	"pagedown": 0x79,
	"left":     0x7B,
	"right":    0x7C,
	"down":     0x7D,
	"up":       0x7E,

	"f1": 0x7A, "f2": 0x78, "f3": 0x63, "f4": 0x76,
	"f5": 0x60, "f6": 0x61, "f7": 0x62, "f8": 0x64,
	"f9": 0x65, "f10": 0x6D, "f11": 0x67, "f12": 0x6F,
	"f13": 0x69, "f14": 0x6B, "f15": 0x71, "f16": 0x6A,
	"f17": 0x40, "f18": 0x4F, "f19": 0x50, "f20": 0x5A,

	// Media / system-defined keys. These arrive through the NX subsystem
	// keycode space (not the normal ADB keycode space) and are tagged below.
	"sound_up":           0x48,
	"sound_down":         0x49,
	"mute":                0x4A,
	"play":                0x10,
	"previous":            0x11,
	"next":                0x12,
	"rewind":              0x13,
	"fast":                0x14,
	"brightness_up":       0x90,
	"brightness_down":     0x91,
	"illumination_up":     0x15,
	"illumination_down":   0x16,
}

// ImplicitNXKeys names literal keys that always carry the NX flag.
var ImplicitNXKeys = map[string]bool{
	"sound_up": true, "sound_down": true, "mute": true,
	"play": true, "previous": true, "next": true, "rewind": true, "fast": true,
	"brightness_up": true, "brightness_down": true,
	"illumination_up": true, "illumination_down": true,
}

// layoutMap is the layout-dependent character -> keycode table, built at
// startup (and rebuilt on layout-change notifications) by querying the
// active ASCII-capable keyboard layout through BuildLayoutMapFunc, which
// internal/bridge replaces with its CGO-backed query.
var (
	layoutMu  sync.RWMutex
	layoutMap map[string]KeyCode
)

// BuildLayoutMapFunc queries the OS for the active keyboard layout's
// character -> keycode mapping. It is a package variable so platform glue
// (internal/bridge) can install the real implementation; until then it is
// the US-ANSI fallback below.
var BuildLayoutMapFunc = defaultLayoutMap

// defaultLayoutMap returns the conventional US-ANSI QWERTY layout mapping.
// It is used as a fallback when no platform layout query is wired in (tests,
// or a build without the darwin bridge).
func defaultLayoutMap() map[string]KeyCode {
	// US ANSI physical key -> keycode assignment, independent of any
	// particular OS layout remap. This is the fallback table; the real
	// bridge queries TISCopyCurrentKeyboardLayoutInputSource at runtime.
	rows := []struct {
		chars string
		codes []KeyCode
	}{
		{"a", []KeyCode{0x00}}, {"s", []KeyCode{0x01}}, {"d", []KeyCode{0x02}},
		{"f", []KeyCode{0x03}}, {"h", []KeyCode{0x04}}, {"g", []KeyCode{0x05}},
		{"z", []KeyCode{0x06}}, {"x", []KeyCode{0x07}}, {"c", []KeyCode{0x08}},
		{"v", []KeyCode{0x09}}, {"b", []KeyCode{0x0B}}, {"q", []KeyCode{0x0C}},
		{"w", []KeyCode{0x0D}}, {"e", []KeyCode{0x0E}}, {"r", []KeyCode{0x0F}},
		{"y", []KeyCode{0x10}}, {"t", []KeyCode{0x11}}, {"1", []KeyCode{0x12}},
		{"2", []KeyCode{0x13}}, {"3", []KeyCode{0x14}}, {"4", []KeyCode{0x15}},
		{"6", []KeyCode{0x16}}, {"5", []KeyCode{0x17}}, {"=", []KeyCode{0x18}},
		{"9", []KeyCode{0x19}}, {"7", []KeyCode{0x1A}}, {"-", []KeyCode{0x1B}},
		{"8", []KeyCode{0x1C}}, {"0", []KeyCode{0x1D}}, {"]", []KeyCode{0x1E}},
		{"o", []KeyCode{0x1F}}, {"u", []KeyCode{0x20}}, {"[", []KeyCode{0x21}},
		{"i", []KeyCode{0x22}}, {"p", []KeyCode{0x23}}, {"l", []KeyCode{0x25}},
		{"j", []KeyCode{0x26}}, {"'", []KeyCode{0x27}}, {"k", []KeyCode{0x28}},
		{";", []KeyCode{0x29}}, {"\\", []KeyCode{0x2A}}, {",", []KeyCode{0x2B}},
		{"/", []KeyCode{0x2C}}, {"n", []KeyCode{0x2D}}, {"m", []KeyCode{0x2E}},
		{".", []KeyCode{0x2F}}, {"`", []KeyCode{0x32}},
	}
	m := make(map[string]KeyCode, len(rows))
	for _, r := range rows {
		m[r.chars] = r.codes[0]
	}
	return m
}

// EnsureLayoutMap lazily builds (or rebuilds) the layout-dependent table.
func EnsureLayoutMap() {
	layoutMu.Lock()
	defer layoutMu.Unlock()
	if layoutMap == nil {
		layoutMap = BuildLayoutMapFunc()
	}
}

// RebuildLayoutMap forces a rebuild, for use on a layout-change notification.
func RebuildLayoutMap() {
	layoutMu.Lock()
	defer layoutMu.Unlock()
	layoutMap = BuildLayoutMapFunc()
}

// ResolveChar resolves a single character to a keycode via the active
// layout map. ok is false if the character has no key on this layout.
func ResolveChar(ch string) (KeyCode, bool) {
	EnsureLayoutMap()
	layoutMu.RLock()
	defer layoutMu.RUnlock()
	code, ok := layoutMap[ch]
	return code, ok
}
