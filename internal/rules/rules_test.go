package rules

import (
	"testing"

	"github.com/skhd-go/skhd/internal/keycodes"
)

func TestNewMappingsHasDefaultMode(t *testing.T) {
	m := NewMappings()
	if _, ok := m.Modes[DefaultModeName]; !ok {
		t.Fatalf("expected default mode to exist")
	}
}

func TestPutModeRejectsDuplicate(t *testing.T) {
	m := NewMappings()
	if err := m.PutMode("resize", false, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.PutMode("resize", false, ""); err == nil {
		t.Fatalf("expected duplicate mode error")
	}
}

func TestAddHotkeyRejectsDuplicateFingerprint(t *testing.T) {
	m := NewMappings()
	hk1 := &Hotkey{Modifiers: keycodes.ModAlt, Key: 0x00, Default: Action{Command: "echo 1"}}
	hk2 := &Hotkey{Modifiers: keycodes.ModAlt, Key: 0x00, Default: Action{Command: "echo 2"}}

	if err := m.AddHotkey([]string{DefaultModeName}, hk1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.AddHotkey([]string{DefaultModeName}, hk2); err == nil {
		t.Fatalf("expected duplicate hotkey error")
	}
}

func TestLookupSideAgnosticMatch(t *testing.T) {
	m := NewMappings()
	hk := &Hotkey{Modifiers: keycodes.ModAlt, Key: 0x00, Default: Action{Command: "echo hi"}}
	if err := m.AddHotkey([]string{DefaultModeName}, hk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A general "alt" rule must still fire for a real lalt-only event: the
	// bucket fingerprint folds both sides into ModAlt, and keycodes.Matches
	// treats a general rule as satisfied by either side.
	found := m.Lookup(DefaultModeName, keycodes.ModLAlt, 0x00)
	if found == nil {
		t.Fatalf("expected side-agnostic fingerprint match")
	}
}

func TestLookupPrefersSideSpecificOverGeneral(t *testing.T) {
	m := NewMappings()
	general := &Hotkey{Modifiers: keycodes.ModAlt, Key: 0x00, Default: Action{Command: "general"}}
	specific := &Hotkey{Modifiers: keycodes.ModLAlt, Key: 0x00, Default: Action{Command: "specific"}}
	if err := m.AddHotkey([]string{DefaultModeName}, general); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.AddHotkey([]string{DefaultModeName}, specific); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// An event carrying both the general and the side bit (as a real
	// left-alt key press does) must resolve to the more specific rule.
	found := m.Lookup(DefaultModeName, keycodes.ModAlt|keycodes.ModLAlt, 0x00)
	if found != specific {
		t.Fatalf("expected the lalt-specific hotkey to win, got %+v", found)
	}

	// ralt alone doesn't satisfy the lalt-specific rule, so it falls back
	// to the general one.
	found = m.Lookup(DefaultModeName, keycodes.ModAlt|keycodes.ModRAlt, 0x00)
	if found != general {
		t.Fatalf("expected the general hotkey to win for ralt, got %+v", found)
	}
}

func TestBlacklistDuplicateRejected(t *testing.T) {
	m := NewMappings()
	if err := m.AddBlacklist("com.apple.Terminal"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.AddBlacklist("COM.APPLE.TERMINAL"); err == nil {
		t.Fatalf("expected duplicate blacklist error (case-insensitive)")
	}
	if !m.IsBlacklisted("com.apple.terminal") {
		t.Fatalf("expected normalized blacklist lookup to match")
	}
}

func TestHotkeyResolveActionPrecedence(t *testing.T) {
	hk := &Hotkey{Default: Action{Command: "default"}}
	if err := hk.SetProcessOverride("Finder", Action{Command: "finder-specific"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := hk.SetProcessOverride("*", Action{Command: "wildcard"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := hk.ResolveAction("finder"); got.Command != "finder-specific" {
		t.Errorf("expected process-specific override, got %q", got.Command)
	}
	if got := hk.ResolveAction("safari"); got.Command != "wildcard" {
		t.Errorf("expected wildcard override, got %q", got.Command)
	}
}

func TestHotkeyResolveActionFallsBackToDefault(t *testing.T) {
	hk := &Hotkey{Default: Action{Command: "default"}}
	if got := hk.ResolveAction("anything"); got.Command != "default" {
		t.Errorf("expected default action, got %q", got.Command)
	}
}
