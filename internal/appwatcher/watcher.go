// Package appwatcher caches the name of the frontmost process so the
// dispatcher's hot path never blocks on an IPC round-trip to ask the OS
// "what's focused right now" on every single keystroke.
package appwatcher

import (
	"sync"

	"go.uber.org/zap"

	"github.com/skhd-go/skhd/internal/bridge"
)

// ActivateCallback is invoked whenever the frontmost process changes.
type ActivateCallback func(name string, pid int)

// Watcher implements dispatch.ForegroundProcess by keeping a cached copy of
// the frontmost process name, refreshed only on NSWorkspace's
// activation notification rather than polled per-event.
type Watcher struct {
	mu     sync.RWMutex
	name   string
	pid    int
	logger *zap.Logger

	callbacksMu sync.RWMutex
	callbacks   []ActivateCallback
}

// New creates a Watcher and primes its cache with the current frontmost
// process, without yet subscribing to change notifications.
func New(logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{logger: logger}
	w.name = bridge.FrontmostName()
	w.pid = bridge.FrontmostPID()
	return w
}

// Start subscribes to frontmost-application-changed notifications.
func (w *Watcher) Start() {
	w.logger.Debug("app watcher starting")
	bridge.OnFrontmostChanged(w.handleActivate)
}

// Stop tears down the underlying observer.
func (w *Watcher) Stop() {
	w.logger.Debug("app watcher stopping")
	bridge.StopFrontmostObserver()
}

// Name returns the cached frontmost process name, satisfying
// dispatch.ForegroundProcess. It never touches the OS directly.
func (w *Watcher) Name() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.name
}

// PID returns the cached frontmost process id.
func (w *Watcher) PID() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pid
}

// OnActivate registers a callback fired after the cache updates, e.g. so a
// menu-bar icon can reflect the current process.
func (w *Watcher) OnActivate(cb ActivateCallback) {
	w.callbacksMu.Lock()
	defer w.callbacksMu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

func (w *Watcher) handleActivate(name string, pid int) {
	w.mu.Lock()
	w.name = name
	w.pid = pid
	w.mu.Unlock()

	w.logger.Debug("frontmost process changed", zap.String("process", name), zap.Int("pid", pid))

	w.callbacksMu.RLock()
	defer w.callbacksMu.RUnlock()
	for _, cb := range w.callbacks {
		cb(name, pid)
	}
}
