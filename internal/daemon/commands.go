package daemon

import (
	"github.com/skhd-go/skhd/internal/ipc"
	"github.com/skhd-go/skhd/internal/parser"
	"github.com/skhd-go/skhd/internal/skhderrors"
)

// handleCommand is the ipc.CommandHandler wired into the IPC server. It
// implements the control surface the CLI and the tray icon both use.
func (d *Daemon) handleCommand(cmd ipc.Command) ipc.Response {
	switch cmd.Action {
	case "ping":
		return ipc.Response{Success: true, Message: "pong"}

	case "start":
		d.enabled.Store(true)
		d.logger.Info("daemon resumed")
		return ipc.Response{Success: true, Message: "skhd resumed"}

	case "stop":
		d.enabled.Store(false)
		d.logger.Info("daemon paused")
		return ipc.Response{Success: true, Message: "skhd paused"}

	case "reload":
		return d.handleReload()

	case "status":
		return ipc.Response{Success: true, Data: map[string]any{
			"enabled": d.enabled.Load(),
			"mode":    d.dispatch.Mode(),
			"config":  d.configPath,
		}}

	case "config":
		return ipc.Response{Success: true, Data: map[string]any{
			"config_path": d.configPath,
		}}

	default:
		return ipc.Response{
			Success: false,
			Message: skhderrors.ErrUnknownCommand.Error() + ": " + cmd.Action,
			Code:    "ERR_UNKNOWN_COMMAND",
		}
	}
}

// handleReload reparses d.configPath and swaps it in, mirroring the
// behavior of the background fsnotify watcher but triggered on demand
// (the -r/--reload CLI path).
func (d *Daemon) handleReload() ipc.Response {
	if d.configPath == "" {
		return ipc.Response{
			Success: false,
			Message: "no config file to reload",
			Code:    "ERR_NO_CONFIG",
		}
	}

	mappings, err := parser.Parse(d.configPath)
	if err != nil {
		d.logger.Warn("manual reload failed, keeping previous configuration")
		return ipc.Response{
			Success: false,
			Message: err.Error(),
			Code:    "ERR_INVALID_CONFIG",
		}
	}

	d.dispatch.Swap(mappings)
	d.logger.Info("configuration reloaded on demand")
	return ipc.Response{Success: true, Message: "configuration reloaded"}
}
