package reload

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/skhd-go/skhd/internal/keycodes"
	"github.com/skhd-go/skhd/internal/rules"
)

type fakeSwapper struct {
	swaps []*rules.Mappings
}

func (f *fakeSwapper) Swap(m *rules.Mappings) {
	f.swaps = append(f.swaps, m)
}

func (f *fakeSwapper) last() *rules.Mappings {
	if len(f.swaps) == 0 {
		return nil
	}
	return f.swaps[len(f.swaps)-1]
}

func waitForCondition(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "skhdrc")
	if err := os.WriteFile(path, []byte("cmd - a : echo one\n"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	swapper := &fakeSwapper{}
	w, err := New(path, swapper, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForCondition(t, time.Second, func() bool { return swapper.last() != nil })

	if err := os.WriteFile(path, []byte("cmd - b : echo two\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	waitForCondition(t, 2*time.Second, func() bool {
		m := swapper.last()
		return m != nil && m.Lookup(rules.DefaultModeName, keycodes.ModCmd, 0x0B) != nil
	})
}

func TestWatcherKeepsOldConfigOnParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "skhdrc")
	if err := os.WriteFile(path, []byte("cmd - a : echo one\n"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	swapper := &fakeSwapper{}
	w, err := New(path, swapper, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForCondition(t, time.Second, func() bool { return swapper.last() != nil })
	goodCount := len(swapper.swaps)

	if err := os.WriteFile(path, []byte("bogusmod - a : echo bad\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	if len(swapper.swaps) != goodCount {
		t.Errorf("expected no additional swap after a parse failure, got %d swaps (started with %d)", len(swapper.swaps), goodCount)
	}
}
