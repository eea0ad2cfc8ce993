// Command skhd is a user-space hotkey daemon for macOS.
package main

import (
	"fmt"
	"os"

	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"github.com/skhd-go/skhd/internal/bridge"
	"github.com/skhd-go/skhd/internal/cli"
	"github.com/skhd-go/skhd/internal/daemon"
	config "github.com/skhd-go/skhd/internal/daemonopts"
	"github.com/skhd-go/skhd/internal/keycodes"
	"github.com/skhd-go/skhd/internal/logger"
)

var globalDaemon *daemon.Daemon

func main() {
	cli.LaunchFunc = LaunchDaemon
	cli.Execute()
}

// LaunchDaemon is called by the CLI to launch the daemon in the foreground.
// It loads the daemon's own settings, starts structured logging, builds the
// event tap and its collaborators, and blocks on the systray run loop, which
// is what pumps the CFRunLoop the event tap callback needs.
func LaunchDaemon(configPath string, verbose bool) {
	cfgPath := config.FindConfigFile()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logLevel := cfg.Logging.LogLevel
	if verbose {
		logLevel = "debug"
	}
	if err := logger.Init(
		logLevel,
		cfg.Logging.LogFile,
		cfg.Logging.StructuredLogging,
		cfg.Logging.DisableFileLogging,
		cfg.Logging.MaxFileSize,
		cfg.Logging.MaxBackups,
		cfg.Logging.MaxAge,
	); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	keycodes.BuildLayoutMapFunc = bridge.BuildLayoutMap

	rcPath := configPath
	if rcPath == "" {
		rcPath = cfg.General.ConfigPath
	}

	d, err := daemon.New(rcPath, logger.Get())
	if err != nil {
		logger.Error("failed to load skhdrc", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	globalDaemon = d

	if err := d.Start(cfg.General.AutoReload); err != nil {
		logger.Error("failed to start daemon", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error starting skhd: %v\n", err)
		os.Exit(1)
	}

	printStartupInfo(d)

	go waitForShutdown(d)

	systray.Run(onReady, onExit)
}
