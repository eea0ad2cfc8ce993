// Package runner spawns shell commands matched by a hotkey, without
// blocking the event dispatcher that triggered them.
package runner

import (
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// DefaultShell is used when a Mappings carries no `.shell` override and
// $SHELL is unset.
const DefaultShell = "/bin/bash"

// Runner fire-and-forgets shell commands and reaps their children so they
// never accumulate as zombies.
type Runner struct {
	logger *zap.Logger
}

// New returns a Runner that logs spawn failures to logger.
func New(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// Run spawns `shellPath -c command`, non-blocking. An empty shellPath falls
// back to $SHELL, then DefaultShell. Exit status is ignored; a failure to
// even start the process is logged with the command string.
func (r *Runner) Run(shellPath, command string) {
	shell := resolveShell(shellPath)
	cmd := exec.Command(shell, "-c", command)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		r.logger.Error("failed to spawn command",
			zap.String("shell", shell),
			zap.String("command", command),
			zap.Error(err))
		return
	}

	go func() {
		// Reap in the background; we don't care about the result.
		_ = cmd.Wait()
	}()
}

func resolveShell(shellPath string) string {
	if shellPath != "" {
		return shellPath
	}
	if env := os.Getenv("SHELL"); env != "" {
		return env
	}
	return DefaultShell
}
