package eventtap

import "testing"

// TestPackageImports is a smoke test: it exercises package init (which
// links against ApplicationServices via cgo) without requiring Accessibility
// permissions or a running window server, which CI doesn't have.
func TestPackageImports(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("package import caused panic: %v", r)
		}
	}()
	_ = KindKeyDown
	_ = KindKeyUp
	_ = KindFlagsChanged
	_ = KindSystemDefined
}
