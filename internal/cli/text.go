package cli

import (
	"errors"

	"github.com/skhd-go/skhd/internal/synth"
)

// runText implements -t/--text: type the given string (or, with
// --from-clipboard, the current clipboard contents) as Unicode keystrokes,
// then exit.
func runText(text string, fromClipboard bool) error {
	if fromClipboard {
		clip, err := readClipboard()
		if err != nil {
			return err
		}
		text = clip
	}
	if text == "" {
		return errors.New("--text requires a non-empty STRING, or --from-clipboard with non-empty clipboard contents")
	}

	synth.New().PostText(text)
	return nil
}
