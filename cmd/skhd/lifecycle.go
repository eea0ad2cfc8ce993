package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"github.com/skhd-go/skhd/internal/daemon"
	"github.com/skhd-go/skhd/internal/logger"
)

// printStartupInfo prints a short summary of the running daemon to stdout.
func printStartupInfo(d *daemon.Daemon) {
	fmt.Println("✓ skhd is running")
	if path := d.ConfigPath(); path != "" {
		fmt.Printf("  config: %s\n", path)
	} else {
		fmt.Println("  config: none found, no hotkeys bound")
	}
}

// waitForShutdown waits for a shutdown signal with force-quit support,
// mirroring the double-Ctrl-C idiom of an interactive daemon: the first
// signal starts a graceful teardown, the second (or a stall past the
// timeout) force-quits.
func waitForShutdown(d *daemon.Daemon) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("received shutdown signal, starting graceful shutdown")
	fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force quit)")

	done := make(chan struct{})
	go func() {
		cleanup(d)
		systray.Quit()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("graceful shutdown completed")
	case <-sigChan:
		logger.Warn("received second signal, forcing shutdown")
		fmt.Println("Force quitting...")
		os.Exit(1)
	case <-time.After(10 * time.Second):
		logger.Error("shutdown timeout exceeded, forcing shutdown")
		fmt.Println("Shutdown timeout, force quitting...")
		os.Exit(1)
	}
}

// cleanup tears the daemon down and flushes the logger. Called once, from
// waitForShutdown or onExit, whichever fires first.
func cleanup(d *daemon.Daemon) {
	cleanupOnce.Do(func() {
		logger.Info("cleaning up")

		if d != nil {
			d.Stop()
		}

		if err := logger.Sync(); err != nil {
			// stdout/stderr don't support fsync; ignore that specific failure.
			if !strings.Contains(err.Error(), "inappropriate ioctl for device") {
				logger.Error("failed to sync logger", zap.Error(err))
			}
		}

		if err := logger.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close logger: %v\n", err)
		}
	})
}

var cleanupOnce sync.Once
