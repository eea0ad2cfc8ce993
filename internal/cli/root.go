// Package cli provides the command-line interface for the skhd daemon.
// It uses the Cobra framework to handle command parsing and execution.
package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skhd-go/skhd/internal/ipc"
	"github.com/skhd-go/skhd/internal/logger"
)

var (
	configPath string
	verbose    bool

	// LaunchFunc is set by main to handle daemon launch.
	LaunchFunc func(configPath string, verbose bool)
	// Version information (set via ldflags at build time).
	Version = "dev"
	// GitCommit represents the git commit hash of the build.
	GitCommit = "unknown"
	// BuildDate represents the build date.
	BuildDate = "unknown"
	// timeoutSec controls IPC timeouts via a global flag.
	timeoutSec = 5

	keySpec       string
	textArg       string
	fromClipboard bool
	observeFlag   bool
	testKeySpec   string
	doReload      bool
)

// rootCmd is the base command. With no subcommand and none of the one-shot
// flags (-k/-t/-o/--test-key/-r), it launches the daemon in the foreground,
// per spec.md §6.2.
var rootCmd = &cobra.Command{
	Use:   "skhd",
	Short: "skhd - simple hotkey daemon for macOS",
	Long: `skhd is a user-space hotkey daemon for macOS: it intercepts keyboard
and mouse events system-wide and dispatches them against a textual
configuration of modes, hotkeys, and per-application overrides.`,
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case keySpec != "":
			return runKey(keySpec)
		case textArg != "" || fromClipboard:
			return runText(textArg, fromClipboard)
		case testKeySpec != "":
			return runTestKey(testKeySpec)
		case observeFlag:
			return runObserve()
		case doReload:
			return sendCommand("reload", nil)
		default:
			launchProgram(configPath)
			return nil
		}
	},
}

// Execute initializes and runs the CLI application.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(
		fmt.Sprintf(
			"skhd version %s\nGit commit: %s\nBuild date: %s\n",
			Version,
			GitCommit,
			BuildDate,
		),
	)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "use PATH as primary config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "verbose logging")
	rootCmd.PersistentFlags().IntVar(&timeoutSec, "timeout", 5, "IPC timeout in seconds")

	rootCmd.Flags().StringVarP(&keySpec, "key", "k", "", "parse SPEC as a hotkey, synthesize it, exit")
	rootCmd.Flags().StringVarP(&textArg, "text", "t", "", "type STRING as Unicode keystrokes, exit")
	rootCmd.Flags().BoolVar(&fromClipboard, "from-clipboard", false, "with --text, read the body from the system clipboard instead of the argument")
	rootCmd.Flags().BoolVarP(&observeFlag, "observe", "o", false, "print a human-readable line per keyboard event and exit on Ctrl-C")
	rootCmd.Flags().StringVar(&testKeySpec, "test-key", "", "parse SPEC and print its canonical fingerprint, without running the daemon")
	rootCmd.Flags().BoolVarP(&doReload, "reload", "r", false, "ask the running daemon to reparse its config")
}

// launchProgram starts the main skhd daemon process with the specified
// configuration. It checks if skhd is already running and prevents
// duplicate instances.
func launchProgram(cfgPath string) {
	logger.Debug("launching daemon", zap.String("config_path", cfgPath))

	if ipc.IsServerRunning() {
		logger.Info("skhd is already running")
		os.Exit(0)
	}

	if LaunchFunc != nil {
		logger.Debug("calling launch function")
		LaunchFunc(cfgPath, verbose)
	} else {
		logger.Error("launch function not initialized")
		fmt.Fprintln(os.Stderr, "Error: launch function not initialized")
		os.Exit(1)
	}
}

// sendCommand transmits a command to the running skhd daemon via IPC.
func sendCommand(action string, args []string) error {
	logger.Debug("sending command",
		zap.String("action", action),
		zap.Strings("args", args))

	if !ipc.IsServerRunning() {
		logger.Warn("skhd is not running")
		return errors.New("skhd is not running. Start it first with 'skhd' or 'skhd launch'")
	}

	client := ipc.NewClient()

	response, err := client.SendWithTimeout(
		ipc.Command{Action: action, Args: args},
		time.Duration(timeoutSec)*time.Second,
	)
	if err != nil {
		logger.Error("failed to send command",
			zap.String("action", action),
			zap.Error(err))
		return fmt.Errorf("failed to send command: %w", err)
	}

	if !response.Success {
		logger.Warn("command failed",
			zap.String("action", action),
			zap.String("message", response.Message),
			zap.String("code", response.Code))
		if response.Code != "" {
			return fmt.Errorf("%s (code: %s)", response.Message, response.Code)
		}
		return fmt.Errorf("%s", response.Message)
	}

	logger.Debug("command succeeded",
		zap.String("action", action),
		zap.String("message", response.Message))

	logger.Info(response.Message)
	return nil
}

// requiresRunningInstance verifies that the skhd daemon is currently running.
// If the daemon is not running, it prints an error message and exits.
func requiresRunningInstance() error {
	logger.Debug("checking if skhd is running")
	if !ipc.IsServerRunning() {
		logger.Warn("skhd is not running")
		logger.Error("Error: skhd is not running")
		logger.Info("Start it first with: skhd launch")
		os.Exit(1)
	}

	logger.Debug("skhd is running")
	return nil
}
