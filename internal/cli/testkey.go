package cli

import (
	"fmt"

	"github.com/skhd-go/skhd/internal/parser"
	"github.com/skhd-go/skhd/internal/rules"
)

// runTestKey implements --test-key: parse SPEC with the same grammar as a
// config trigger and print its canonical fingerprint, without touching the
// event tap or a running daemon.
func runTestKey(spec string) error {
	mods, key, err := parser.ParseHotkeySpec(spec)
	if err != nil {
		return fmt.Errorf("%s: %w", spec, err)
	}

	fp := rules.Fingerprint(mods, key)
	fmt.Printf("%s -> modifiers=0x%x key=0x%x fingerprint=0x%016x\n", spec, uint32(mods), uint32(key), fp)
	return nil
}
