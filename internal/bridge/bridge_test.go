package bridge

import "testing"

// TestPackageImports is a smoke test: it exercises package init (which
// links against Cocoa/Carbon via cgo) without requiring a logged-in window
// server session, which CI doesn't have.
func TestPackageImports(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("package import caused panic: %v", r)
		}
	}()
	_ = printableASCII
}
