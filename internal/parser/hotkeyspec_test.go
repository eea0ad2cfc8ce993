package parser

import (
	"testing"

	"github.com/skhd-go/skhd/internal/keycodes"
)

func TestParseHotkeySpecSimple(t *testing.T) {
	mods, key, err := ParseHotkeySpec("cmd - a")
	if err != nil {
		t.Fatalf("ParseHotkeySpec: %v", err)
	}
	if mods != keycodes.ModCmd {
		t.Errorf("mods = %v, want ModCmd", mods)
	}
	if want, _ := keycodes.ResolveChar("a"); key != want {
		t.Errorf("key = %v, want 'a' keycode", key)
	}
}

func TestParseHotkeySpecMultipleModifiers(t *testing.T) {
	mods, _, err := ParseHotkeySpec("cmd + shift - a")
	if err != nil {
		t.Fatalf("ParseHotkeySpec: %v", err)
	}
	want := keycodes.ModCmd | keycodes.ModShift
	if mods != want {
		t.Errorf("mods = %v, want %v", mods, want)
	}
}

func TestParseHotkeySpecNoModifier(t *testing.T) {
	mods, key, err := ParseHotkeySpec("return")
	if err != nil {
		t.Fatalf("ParseHotkeySpec: %v", err)
	}
	if mods != 0 {
		t.Errorf("mods = %v, want 0", mods)
	}
	if key != keycodes.LiteralKeys["return"] {
		t.Errorf("key = %v, want 'return' keycode", key)
	}
}

func TestParseHotkeySpecHex(t *testing.T) {
	_, key, err := ParseHotkeySpec("0x0B")
	if err != nil {
		t.Fatalf("ParseHotkeySpec: %v", err)
	}
	if key != 0x0B {
		t.Errorf("key = 0x%x, want 0x0B", key)
	}
}

func TestParseHotkeySpecUnknownModifier(t *testing.T) {
	_, _, err := ParseHotkeySpec("bogus - a")
	if err == nil {
		t.Fatalf("expected error for unknown modifier")
	}
}

func TestParseHotkeySpecTrailingGarbage(t *testing.T) {
	_, _, err := ParseHotkeySpec("cmd - a extra")
	if err == nil {
		t.Fatalf("expected error for trailing token")
	}
}
