// Package daemon wires the event tap, dispatcher, rule watcher, app watcher,
// and IPC server into one running process, and exposes the control surface
// internal/cli and cmd/skhd/tray.go drive over the IPC socket.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/skhd-go/skhd/internal/appwatcher"
	"github.com/skhd-go/skhd/internal/dispatch"
	"github.com/skhd-go/skhd/internal/eventtap"
	"github.com/skhd-go/skhd/internal/ipc"
	"github.com/skhd-go/skhd/internal/keycodes"
	"github.com/skhd-go/skhd/internal/parser"
	"github.com/skhd-go/skhd/internal/reload"
	"github.com/skhd-go/skhd/internal/rules"
	"github.com/skhd-go/skhd/internal/runner"
	"github.com/skhd-go/skhd/internal/synth"
)

// Daemon owns every long-lived component of a running skhd process.
type Daemon struct {
	logger *zap.Logger

	configPath string

	tap      *eventtap.Tap
	watcher  *appwatcher.Watcher
	dispatch *dispatch.Dispatcher
	synth    *synth.Synth
	runner   *runner.Runner
	reload   *reload.Watcher
	ipc      *ipc.Server

	enabled atomic.Bool
}

// New builds every collaborator and performs the initial config parse, but
// does not yet install the event tap or start any background loop. configPath
// is the explicit --config override, or "" to use the skhdrc search order.
func New(configPath string, logger *zap.Logger) (*Daemon, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rootPath := configPath
	if rootPath == "" {
		rootPath = FindRCFile()
	}

	var mappings *rules.Mappings
	if rootPath == "" {
		// No skhdrc anywhere in the search order: run with no hotkeys bound
		// rather than treat an absent config as a startup error.
		mappings = rules.NewMappings()
	} else {
		parsed, err := parser.Parse(rootPath)
		if err != nil {
			return nil, err
		}
		mappings = parsed
	}

	d := &Daemon{
		logger:     logger,
		configPath: rootPath,
		watcher:    appwatcher.New(logger),
		synth:      synth.New(),
		runner:     runner.New(logger),
	}
	d.enabled.Store(true)
	d.dispatch = dispatch.New(mappings, d.watcher, d.runner, d.synth)

	return d, nil
}

// FindRCFile implements the skhdrc search order from spec.md §6.1:
// $XDG_CONFIG_HOME/skhd/skhdrc, $HOME/.config/skhd/skhdrc, $HOME/.skhdrc,
// ./skhdrc, in that order. It returns "" if none exist, in which case New
// starts from an all-default empty Mappings.
func FindRCFile() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		if p := filepath.Join(xdg, "skhd", "skhdrc"); fileExists(p) {
			return p
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		if p := filepath.Join(home, ".config", "skhd", "skhdrc"); fileExists(p) {
			return p
		}
		if p := filepath.Join(home, ".skhdrc"); fileExists(p) {
			return p
		}
	}
	if fileExists("skhdrc") {
		return "skhdrc"
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Start installs the event tap, starts the app watcher, the config reload
// watcher (if autoReload), and the IPC server. It returns once everything is
// listening; the run loop itself lives in the OS's CFRunLoop.
func (d *Daemon) Start(autoReload bool) error {
	tap, err := eventtap.New(d.handleEvent, d.logger)
	if err != nil {
		return err
	}
	d.tap = tap

	d.watcher.Start()

	if autoReload && d.configPath != "" {
		w, err := reload.New(d.configPath, swapperFunc(d.dispatch.Swap), d.logger, nil)
		if err != nil {
			d.logger.Warn("failed to start config watcher", zap.Error(err))
		} else {
			d.reload = w
			if err := w.Start(); err != nil {
				d.logger.Warn("failed initial reload watch", zap.Error(err))
				d.reload = nil
			}
		}
	}

	server, err := ipc.NewServer(d.handleCommand, d.logger)
	if err != nil {
		return fmt.Errorf("failed to start IPC server: %w", err)
	}
	d.ipc = server
	d.ipc.Start()

	return nil
}

// Stop tears every component down in reverse construction order.
func (d *Daemon) Stop() {
	if d.ipc != nil {
		if err := d.ipc.Stop(); err != nil {
			d.logger.Error("failed to stop IPC server", zap.Error(err))
		}
	}
	if d.reload != nil {
		d.reload.Stop()
	}
	d.watcher.Stop()
	if d.tap != nil {
		d.tap.Destroy()
	}
}

// handleEvent is the eventtap.Handler: it translates the tap's primitive
// event shape into a dispatch.Event, and the outcome back into a
// suppress/pass decision. Forwarded ("replace") outcomes have already been
// posted by the Synthesizer inside Dispatch, so the original is suppressed.
func (d *Daemon) handleEvent(kind int, key keycodes.KeyCode, mods keycodes.Modifier, selfGenerated bool) bool {
	if !d.enabled.Load() && !selfGenerated {
		return false
	}

	ev := dispatch.Event{
		Key:           key,
		Modifiers:     mods,
		SelfGenerated: selfGenerated,
	}
	switch kind {
	case eventtap.KindKeyDown:
		ev.Kind = dispatch.KeyDown
	case eventtap.KindKeyUp:
		ev.Kind = dispatch.KeyUp
	case eventtap.KindFlagsChanged:
		ev.Kind = dispatch.FlagsChanged
	case eventtap.KindSystemDefined:
		ev.Kind = dispatch.SystemDefined
	}

	result := d.dispatch.Dispatch(ev)
	switch result.Outcome {
	case dispatch.Suppress, dispatch.Replace:
		return true
	default:
		return false
	}
}

type swapperFunc func(*rules.Mappings)

func (f swapperFunc) Swap(m *rules.Mappings) { f(m) }

// Enabled reports whether the daemon is currently forwarding matched events,
// as opposed to passing everything through unmatched (the "stop"/pause state).
func (d *Daemon) Enabled() bool { return d.enabled.Load() }

// Mode reports the dispatcher's current mode name.
func (d *Daemon) Mode() string { return d.dispatch.Mode() }

// ConfigPath reports the rule file path this daemon was started with.
func (d *Daemon) ConfigPath() string { return d.configPath }
