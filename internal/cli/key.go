package cli

import (
	"fmt"

	"github.com/skhd-go/skhd/internal/parser"
	"github.com/skhd-go/skhd/internal/synth"
)

// runKey implements -k/--key: parse SPEC as a hotkey trigger, synthesize it
// once, and exit. Exit code reflects parse success, per spec.md §6.2.
func runKey(spec string) error {
	mods, key, err := parser.ParseHotkeySpec(spec)
	if err != nil {
		return fmt.Errorf("%s: %w", spec, err)
	}

	s := synth.New()
	s.Post(mods, key)
	return nil
}
