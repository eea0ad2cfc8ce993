package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/atotto/clipboard"
	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"github.com/skhd-go/skhd/internal/cli"
	"github.com/skhd-go/skhd/internal/ipc"
	"github.com/skhd-go/skhd/internal/logger"
)

// trayEnabled tracks the daemon's last-known enabled state as reported by
// the status poll, so the toggle handler knows which command to send
// without needing its own round trip first.
var trayEnabled atomic.Bool

// The tray talks to the daemon exclusively through the IPC socket, the same
// one the CLI uses, rather than holding a reference to *daemon.Daemon: it is
// just another client, and would work the same way pointed at a daemon
// started by a different process.

func onReady() {
	trayEnabled.Store(true)

	systray.SetTitle("⌨")
	systray.SetTooltip("skhd - simple hotkey daemon")

	mVersion := systray.AddMenuItem(fmt.Sprintf("Version %s", cli.Version), "Show version")
	mVersion.Disable()
	mVersionCopy := systray.AddMenuItem("Copy version", "Copy version to clipboard")

	systray.AddSeparator()
	mMode := systray.AddMenuItem("Mode: default", "Current mode")
	mMode.Disable()
	mToggle := systray.AddMenuItem("Disable", "Pause/resume skhd without quitting")
	mReload := systray.AddMenuItem("Reload config", "Ask skhd to reparse its config")

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit skhd", "Exit the application")

	go pollStatus(mMode, mToggle)
	go handleTrayEvents(mVersionCopy, mToggle, mReload, mQuit)
}

// pollStatus refreshes the mode label periodically; the tray has no push
// channel from the daemon, so it polls the same "status" command the CLI's
// `skhd status` uses.
func pollStatus(mMode, mToggle *systray.MenuItem) {
	refreshStatus(mMode, mToggle)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		refreshStatus(mMode, mToggle)
	}
}

func refreshStatus(mMode, mToggle *systray.MenuItem) {
	resp, err := ipc.NewClient().Send(ipc.Command{Action: "status"})
	if err != nil || !resp.Success {
		return
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		return
	}
	if mode, ok := data["mode"].(string); ok {
		mMode.SetTitle(fmt.Sprintf("Mode: %s", mode))
	}
	if enabled, ok := data["enabled"].(bool); ok {
		trayEnabled.Store(enabled)
		if enabled {
			mToggle.SetTitle("Disable")
		} else {
			mToggle.SetTitle("Enable")
		}
	}
}

func handleTrayEvents(mVersionCopy, mToggle, mReload, mQuit *systray.MenuItem) {
	for {
		select {
		case <-mVersionCopy.ClickedCh:
			handleVersionCopy()
		case <-mToggle.ClickedCh:
			handleToggle(mToggle)
		case <-mReload.ClickedCh:
			sendTrayCommand("reload")
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func handleVersionCopy() {
	if err := clipboard.WriteAll(cli.Version); err != nil {
		logger.Error("error copying version to clipboard", zap.Error(err))
	}
}

func handleToggle(mToggle *systray.MenuItem) {
	action := "stop"
	if !trayEnabled.Load() {
		action = "start"
	}
	sendTrayCommand(action)
	trayEnabled.Store(action == "start")
	if action == "start" {
		mToggle.SetTitle("Disable")
	} else {
		mToggle.SetTitle("Enable")
	}
}

func sendTrayCommand(action string) {
	resp, err := ipc.NewClient().Send(ipc.Command{Action: action})
	if err != nil {
		logger.Error("tray command failed", zap.String("action", action), zap.Error(err))
		return
	}
	if !resp.Success {
		logger.Warn("tray command rejected", zap.String("action", action), zap.String("message", resp.Message))
	}
}

func onExit() {
	cleanup(globalDaemon)
}
