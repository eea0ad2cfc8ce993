package cli

import "github.com/atotto/clipboard"

// readClipboard reads the system clipboard's current text contents, backing
// --text's --from-clipboard flag.
func readClipboard() (string, error) {
	return clipboard.ReadAll()
}
