// Package cli provides the command-line interface for the skhd daemon.
//
// This package implements a Cobra-based CLI that serves both as the
// program's entry point (launching the daemon in the foreground) and as a
// control client for a daemon that is already running, talking to it over
// the Unix-socket IPC protocol in internal/ipc.
//
// Command structure:
//   - skhd: launch the daemon with the config resolved per spec.md §6.1
//   - skhd -k/--key SPEC: synthesize a single hotkey and exit
//   - skhd -t/--text STRING: type a string as Unicode keystrokes and exit
//   - skhd -o/--observe: print every captured event and exit on Ctrl-C
//   - skhd --test-key SPEC: parse a trigger and print its fingerprint
//   - skhd -r/--reload, skhd reload: ask a running daemon to reparse its config
//   - skhd start / skhd stop: resume / pause a running daemon
//   - skhd status: report running state, mode, and config path
//   - skhd config: print the running daemon's loaded skhdrc path as JSON
//
// Error handling: responses from a running daemon carry an optional
// machine-readable Code alongside the human-readable Message, in the shape
// of internal/ipc.Response; CLI commands surface both.
package cli
