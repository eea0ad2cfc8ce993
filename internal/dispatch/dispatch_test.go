package dispatch

import (
	"testing"

	"github.com/skhd-go/skhd/internal/keycodes"
	"github.com/skhd-go/skhd/internal/rules"
)

type fakeRunner struct {
	shell, command string
	calls          int
}

func (f *fakeRunner) Run(shell, command string) {
	f.shell, f.command = shell, command
	f.calls++
}

type fakeSynth struct {
	mods keycodes.Modifier
	key  keycodes.KeyCode
	posts int
}

func (f *fakeSynth) Post(mods keycodes.Modifier, key keycodes.KeyCode) {
	f.mods, f.key = mods, key
	f.posts++
}

type fakeForeground struct{ name string }

func (f *fakeForeground) Name() string { return f.name }

func buildMappings(t *testing.T) *rules.Mappings {
	t.Helper()
	m := rules.NewMappings()
	hk := &rules.Hotkey{Modifiers: keycodes.ModCmd, Key: 0x31, Default: rules.Action{Command: "echo hi"}}
	if err := m.AddHotkey([]string{rules.DefaultModeName}, hk); err != nil {
		t.Fatalf("setup error: %v", err)
	}
	return m
}

func TestDispatchSimpleCommand(t *testing.T) {
	m := buildMappings(t)
	runner := &fakeRunner{}
	d := New(m, &fakeForeground{name: "finder"}, runner, &fakeSynth{})

	res := d.Dispatch(Event{Kind: KeyDown, Key: 0x31, Modifiers: keycodes.ModCmd})
	if res.Outcome != Suppress {
		t.Errorf("expected Suppress, got %v", res.Outcome)
	}
	if runner.calls != 1 || runner.command != "echo hi" {
		t.Errorf("expected runner invoked with 'echo hi', got %q (%d calls)", runner.command, runner.calls)
	}
}

func TestDispatchSelfGeneratedAlwaysPasses(t *testing.T) {
	m := buildMappings(t)
	runner := &fakeRunner{}
	d := New(m, &fakeForeground{name: "finder"}, runner, &fakeSynth{})

	res := d.Dispatch(Event{Kind: KeyDown, Key: 0x31, Modifiers: keycodes.ModCmd, SelfGenerated: true})
	if res.Outcome != Pass {
		t.Errorf("expected Pass for self-generated event, got %v", res.Outcome)
	}
	if runner.calls != 0 {
		t.Errorf("expected no command run for self-generated event")
	}
	if d.Counters().SelfGeneratedExits != 1 {
		t.Errorf("expected self-generated counter incremented")
	}
}

func TestDispatchBlacklistPrecedence(t *testing.T) {
	m := buildMappings(t)
	if err := m.AddBlacklist("password-manager"); err != nil {
		t.Fatalf("setup error: %v", err)
	}
	runner := &fakeRunner{}
	d := New(m, &fakeForeground{name: "password-manager"}, runner, &fakeSynth{})

	res := d.Dispatch(Event{Kind: KeyDown, Key: 0x31, Modifiers: keycodes.ModCmd})
	if res.Outcome != Pass {
		t.Errorf("expected Pass for blacklisted process, got %v", res.Outcome)
	}
	if runner.calls != 0 {
		t.Errorf("expected no command run for blacklisted process")
	}
}

func TestDispatchSideAgnosticMatch(t *testing.T) {
	m := rules.NewMappings()
	hk := &rules.Hotkey{Modifiers: keycodes.ModAlt, Key: 0x00, Default: rules.Action{Command: "echo alt"}}
	if err := m.AddHotkey([]string{rules.DefaultModeName}, hk); err != nil {
		t.Fatalf("setup error: %v", err)
	}
	runner := &fakeRunner{}
	d := New(m, &fakeForeground{}, runner, &fakeSynth{})

	res := d.Dispatch(Event{Kind: KeyDown, Key: 0x00, Modifiers: keycodes.ModLAlt})
	if res.Outcome != Suppress || runner.calls != 1 {
		t.Errorf("expected a general 'alt' rule to match an lalt-only event")
	}
}

func TestDispatchPassthroughCommand(t *testing.T) {
	m := rules.NewMappings()
	hk := &rules.Hotkey{Modifiers: keycodes.ModCmd, Key: 0x01, Passthrough: true, Default: rules.Action{Command: "sync"}}
	if err := m.AddHotkey([]string{rules.DefaultModeName}, hk); err != nil {
		t.Fatalf("setup error: %v", err)
	}
	runner := &fakeRunner{}
	d := New(m, &fakeForeground{}, runner, &fakeSynth{})

	res := d.Dispatch(Event{Kind: KeyDown, Key: 0x01, Modifiers: keycodes.ModCmd})
	if res.Outcome != Pass {
		t.Errorf("expected Pass for passthrough command hotkey, got %v", res.Outcome)
	}
	if runner.calls != 1 || runner.command != "sync" {
		t.Errorf("expected command still run on passthrough hotkey")
	}
}

func TestDispatchOnReleaseHonorsProcessOverride(t *testing.T) {
	m := rules.NewMappings()
	hk := &rules.Hotkey{Modifiers: keycodes.ModCmd, Key: 0x00, OnRelease: true, Default: rules.Action{Command: "default"}}
	if err := hk.SetProcessOverride("safari", rules.Action{Command: "safari-specific"}); err != nil {
		t.Fatalf("setup error: %v", err)
	}
	if err := m.AddHotkey([]string{rules.DefaultModeName}, hk); err != nil {
		t.Fatalf("setup error: %v", err)
	}
	runner := &fakeRunner{}
	d := New(m, &fakeForeground{name: "Safari"}, runner, &fakeSynth{})

	d.Dispatch(Event{Kind: KeyUp, Key: 0x00, Modifiers: keycodes.ModCmd})

	if runner.command != "safari-specific" {
		t.Errorf("expected the Safari-specific on-release action to run, got %q", runner.command)
	}
}

func TestDispatchModeActivationAndSuppressedRelease(t *testing.T) {
	m := rules.NewMappings()
	if err := m.PutMode("window", false, ""); err != nil {
		t.Fatalf("setup error: %v", err)
	}
	activate := &rules.Hotkey{Modifiers: keycodes.ModCmd, Key: 0x0D, Default: rules.Action{Activate: "window"}}
	if err := m.AddHotkey([]string{rules.DefaultModeName}, activate); err != nil {
		t.Fatalf("setup error: %v", err)
	}
	d := New(m, &fakeForeground{}, &fakeRunner{}, &fakeSynth{})

	downRes := d.Dispatch(Event{Kind: KeyDown, Key: 0x0D, Modifiers: keycodes.ModCmd})
	if downRes.Outcome != Suppress {
		t.Fatalf("expected Suppress on activation key-down")
	}
	if d.Mode() != "window" {
		t.Fatalf("expected mode to switch to 'window', got %q", d.Mode())
	}

	upRes := d.Dispatch(Event{Kind: KeyUp, Key: 0x0D, Modifiers: keycodes.ModCmd})
	if upRes.Outcome != Suppress {
		t.Errorf("expected the matching key-up to be suppressed too, got %v", upRes.Outcome)
	}
}

func TestDispatchCaptureModeSwallowsUnmatched(t *testing.T) {
	m := rules.NewMappings()
	if err := m.PutMode("trap", true, ""); err != nil {
		t.Fatalf("setup error: %v", err)
	}
	d := New(m, &fakeForeground{}, &fakeRunner{}, &fakeSynth{})
	d.mode = "trap"

	res := d.Dispatch(Event{Kind: KeyDown, Key: 0x63, Modifiers: 0})
	if res.Outcome != Suppress {
		t.Errorf("expected capture mode to suppress an unmatched key, got %v", res.Outcome)
	}
}

func TestDispatchNonCaptureModePassesUnmatched(t *testing.T) {
	m := buildMappings(t)
	d := New(m, &fakeForeground{}, &fakeRunner{}, &fakeSynth{})

	res := d.Dispatch(Event{Kind: KeyDown, Key: 0x63, Modifiers: 0})
	if res.Outcome != Pass {
		t.Errorf("expected non-capture mode to pass an unmatched key, got %v", res.Outcome)
	}
}

func TestDispatchForwardRemapsKey(t *testing.T) {
	m := rules.NewMappings()
	hk := &rules.Hotkey{
		Key: 0x69, // F13
		Default: rules.Action{Forward: &rules.ForwardKey{Key: keycodes.LiteralKeys["escape"]}},
	}
	if err := m.AddHotkey([]string{rules.DefaultModeName}, hk); err != nil {
		t.Fatalf("setup error: %v", err)
	}
	synth := &fakeSynth{}
	d := New(m, &fakeForeground{}, &fakeRunner{}, synth)

	res := d.Dispatch(Event{Kind: KeyDown, Key: 0x69})
	if res.Outcome != Replace {
		t.Errorf("expected Replace outcome, got %v", res.Outcome)
	}
	if synth.posts != 1 || synth.key != keycodes.LiteralKeys["escape"] {
		t.Errorf("expected synthesizer to post escape key, got key=%#x posts=%d", synth.key, synth.posts)
	}
}
