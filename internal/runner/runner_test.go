package runner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRunExecutesCommand(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")

	r := New(zap.NewNop())
	r.Run("/bin/sh", "touch "+marker)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(marker); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected marker file to be created by spawned command")
}

func TestResolveShellFallsBackToEnv(t *testing.T) {
	t.Setenv("SHELL", "/bin/zsh")
	if got := resolveShell(""); got != "/bin/zsh" {
		t.Errorf("expected $SHELL fallback, got %q", got)
	}
}

func TestResolveShellDefaultWhenUnset(t *testing.T) {
	t.Setenv("SHELL", "")
	if got := resolveShell(""); got != DefaultShell {
		t.Errorf("expected default shell, got %q", got)
	}
}

func TestResolveShellExplicitOverridesEnv(t *testing.T) {
	t.Setenv("SHELL", "/bin/zsh")
	if got := resolveShell("/bin/fish"); got != "/bin/fish" {
		t.Errorf("expected explicit shell path to win, got %q", got)
	}
}
