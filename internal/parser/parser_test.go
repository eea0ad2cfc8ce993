package parser

import (
	"errors"
	"testing"

	"github.com/skhd-go/skhd/internal/keycodes"
	"github.com/skhd-go/skhd/internal/rules"
	"github.com/skhd-go/skhd/internal/skhderrors"
)

func parseSrc(t *testing.T, src string) (*rules.Mappings, error) {
	t.Helper()
	reader := func(path string) (string, error) {
		if path != "root" {
			return "", errors.New("no such file: " + path)
		}
		return src, nil
	}
	return ParseWithReader("root", reader)
}

// charKey resolves a single-character key through the layout table, the way
// the parser does for lexer.Key tokens.
func charKey(t *testing.T, ch string) keycodes.KeyCode {
	t.Helper()
	code, ok := keycodes.ResolveChar(ch)
	if !ok {
		t.Fatalf("expected %q to resolve in the fallback layout", ch)
	}
	return code
}

func TestParseSimpleCommand(t *testing.T) {
	m, err := parseSrc(t, "cmd - space : echo hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hk := m.Lookup(rules.DefaultModeName, keycodes.ModCmd, keycodes.LiteralKeys["space"])
	if hk == nil {
		t.Fatalf("expected hotkey to be registered")
	}
	if hk.Default.Command != "echo hi" {
		t.Errorf("expected command 'echo hi', got %q", hk.Default.Command)
	}
}

func TestParseDigitKey(t *testing.T) {
	m, err := parseSrc(t, "cmd - 1 : echo one")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	code, ok := keycodes.ResolveChar("1")
	if !ok {
		t.Fatalf("expected '1' to resolve in the fallback layout")
	}
	hk := m.Lookup(rules.DefaultModeName, keycodes.ModCmd, code)
	if hk == nil {
		t.Fatalf("expected digit hotkey to be registered")
	}
	if hk.Default.Command != "echo one" {
		t.Errorf("expected command 'echo one', got %q", hk.Default.Command)
	}
}

func TestParsePunctuationKeyAfterModifier(t *testing.T) {
	m, err := parseSrc(t, "cmd - = : echo plus")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	code, ok := keycodes.ResolveChar("=")
	if !ok {
		t.Fatalf("expected '=' to resolve in the fallback layout")
	}
	hk := m.Lookup(rules.DefaultModeName, keycodes.ModCmd, code)
	if hk == nil {
		t.Fatalf("expected '=' hotkey to be registered")
	}
}

func TestParseBarePunctuationKey(t *testing.T) {
	m, err := parseSrc(t, "- : echo dash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	code, ok := keycodes.ResolveChar("-")
	if !ok {
		t.Fatalf("expected '-' to resolve in the fallback layout")
	}
	hk := m.Lookup(rules.DefaultModeName, 0, code)
	if hk == nil {
		t.Fatalf("expected bare '-' hotkey to be registered")
	}
}

func TestParseEmptyConfigHasOnlyDefaultMode(t *testing.T) {
	m, err := parseSrc(t, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Modes) != 1 {
		t.Fatalf("expected exactly one mode, got %d", len(m.Modes))
	}
	if _, ok := m.Modes[rules.DefaultModeName]; !ok {
		t.Fatalf("expected default mode present")
	}
}

func TestParsePassthrough(t *testing.T) {
	m, err := parseSrc(t, "cmd - s -> : sync")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hk := m.Lookup(rules.DefaultModeName, keycodes.ModCmd, charKey(t, "s"))
	if hk == nil {
		t.Fatalf("expected hotkey")
	}
	if !hk.Passthrough {
		t.Errorf("expected passthrough flag set")
	}
	if hk.Default.Command != "sync" {
		t.Errorf("expected command 'sync', got %q", hk.Default.Command)
	}
}

func TestParseModeActivationSequence(t *testing.T) {
	src := ":: window\n" +
		"cmd - w ; window\n" +
		"window < h : echo left\n" +
		"window < escape ; default\n"
	m, err := parseSrc(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	activate := m.Lookup(rules.DefaultModeName, keycodes.ModCmd, charKey(t, "w"))
	if activate == nil || activate.Default.Activate != "window" {
		t.Fatalf("expected cmd-w to activate window mode")
	}
	left := m.Lookup("window", 0, charKey(t, "h"))
	if left == nil || left.Default.Command != "echo left" {
		t.Fatalf("expected window<h to run 'echo left'")
	}
	esc := m.Lookup("window", 0, keycodes.LiteralKeys["escape"])
	if esc == nil || esc.Default.Activate != "default" {
		t.Fatalf("expected window<escape to activate default")
	}
}

func TestParseModeNotFoundIsStrict(t *testing.T) {
	_, err := parseSrc(t, "window < h : echo left\n")
	if err == nil {
		t.Fatalf("expected ModeNotFound error for undeclared mode prefix")
	}
	if !errors.Is(err, skhderrors.ErrModeNotFound) {
		t.Errorf("expected ErrModeNotFound, got %v", err)
	}
}

func TestParseDuplicateHotkeyRejected(t *testing.T) {
	_, err := parseSrc(t, "cmd - a : echo one\ncmd - a : echo two\n")
	if err == nil {
		t.Fatalf("expected duplicate hotkey error")
	}
	if !errors.Is(err, skhderrors.ErrDuplicateHotkey) {
		t.Errorf("expected ErrDuplicateHotkey, got %v", err)
	}
}

func TestParseErrorResumesAtNextForm(t *testing.T) {
	src := "cmd - bogus_garbled : echo bad\ncmd - a : echo good\n"
	m, err := parseSrc(t, src)
	if err == nil {
		t.Fatalf("expected an error from the first malformed line")
	}
	hk := m.Lookup(rules.DefaultModeName, keycodes.ModCmd, charKey(t, "a"))
	if hk == nil || hk.Default.Command != "echo good" {
		t.Fatalf("expected parser to resume and still register the second hotkey")
	}
}

func TestParseProcessMap(t *testing.T) {
	src := "cmd - t [\n" +
		`  "terminal" : open -a Terminal` + "\n" +
		"  * : echo other\n" +
		"]\n"
	m, err := parseSrc(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hk := m.Lookup(rules.DefaultModeName, keycodes.ModCmd, charKey(t, "t"))
	if hk == nil {
		t.Fatalf("expected hotkey registered")
	}
	if got := hk.ResolveAction("terminal").Command; got != "open -a Terminal" {
		t.Errorf("expected terminal-specific command, got %q", got)
	}
	if got := hk.ResolveAction("safari").Command; got != "echo other" {
		t.Errorf("expected wildcard command, got %q", got)
	}
}

func TestParseBlacklist(t *testing.T) {
	m, err := parseSrc(t, `.blacklist [ "password-manager" ]`+"\ncmd - v : echo pasted\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.IsBlacklisted("Password-Manager") {
		t.Errorf("expected blacklist entry to match case-insensitively")
	}
}

func TestParseUnknownModifier(t *testing.T) {
	_, err := parseSrc(t, "bogusmod - a : echo hi\n")
	if err == nil {
		t.Fatalf("expected an error")
	}
}

func TestParseUnboundAction(t *testing.T) {
	m, err := parseSrc(t, "cmd - a ~\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hk := m.Lookup(rules.DefaultModeName, keycodes.ModCmd, charKey(t, "a"))
	if hk == nil || !hk.Default.Unbound {
		t.Fatalf("expected unbound action")
	}
}
