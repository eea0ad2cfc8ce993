package cli

import "testing"

func TestRunTextEmptyWithoutClipboardIsError(t *testing.T) {
	if err := runText("", false); err == nil {
		t.Errorf("expected error for empty text without --from-clipboard")
	}
}
