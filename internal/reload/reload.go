// Package reload watches a rule file (and every file it `.load`s) and
// re-parses the whole graph on change, swapping it into the dispatcher only
// if the new parse succeeds — a bad edit never takes the daemon down.
package reload

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/skhd-go/skhd/internal/parser"
	"github.com/skhd-go/skhd/internal/rules"
)

// Swapper receives a freshly parsed Mappings to install.
type Swapper interface {
	Swap(m *rules.Mappings)
}

// Watcher reloads rootPath whenever it, or any file in the load graph of the
// most recent successful parse, changes on disk.
type Watcher struct {
	rootPath string
	swapper  Swapper
	logger   *zap.Logger
	readFile parser.ReadFileFunc

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	watched map[string]bool

	done chan struct{}
}

// New creates a Watcher for rootPath. readFile is forwarded to the parser;
// pass nil to read files from disk.
func New(rootPath string, swapper Swapper, logger *zap.Logger, readFile parser.ReadFileFunc) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		rootPath: rootPath,
		swapper:  swapper,
		logger:   logger,
		readFile: readFile,
		fsw:      fsw,
		watched:  make(map[string]bool),
		done:     make(chan struct{}),
	}
	return w, nil
}

// Start performs an initial parse (to discover the load graph), arms the
// watch list, and begins watching for changes in the background.
func (w *Watcher) Start() error {
	mappings, err := w.parse()
	if err != nil {
		return err
	}
	w.swapper.Swap(mappings)
	w.rearm(mappings.LoadedFiles)
	go w.loop()
	return nil
}

// Stop closes the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	close(w.done)
	w.fsw.Close()
}

func (w *Watcher) parse() (*rules.Mappings, error) {
	if w.readFile != nil {
		return parser.ParseWithReader(w.rootPath, w.readFile)
	}
	return parser.Parse(w.rootPath)
}

// rearm updates the fsnotify watch list to match the file set from the most
// recent successful parse. Files that disappeared from the load graph (e.g.
// a removed `.load` line) are dropped; new ones are added.
func (w *Watcher) rearm(files []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	fresh := make(map[string]bool, len(files))
	for _, f := range files {
		fresh[f] = true
		if !w.watched[f] {
			if err := w.fsw.Add(f); err != nil {
				w.logger.Warn("failed to watch config file", zap.String("path", f), zap.Error(err))
				continue
			}
		}
	}
	for f := range w.watched {
		if !fresh[f] {
			_ = w.fsw.Remove(f)
		}
	}
	w.watched = fresh
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if ev.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				// Many editors save by renaming a temp file over the
				// original, which drops the inode fsnotify was watching.
				w.mu.Lock()
				delete(w.watched, ev.Name)
				w.mu.Unlock()
			}
			w.reload(ev.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload(changed string) {
	mappings, err := w.parse()
	if err != nil {
		w.logger.Error("config reload failed, keeping previous configuration",
			zap.String("changed", changed), zap.Error(err))
		// Re-add a file that an atomic-rename save dropped from the watch,
		// so the save that fixes the error is still seen.
		w.mu.Lock()
		if !w.watched[changed] && w.fsw.Add(changed) == nil {
			w.watched[changed] = true
		}
		w.mu.Unlock()
		return
	}
	w.swapper.Swap(mappings)
	w.rearm(mappings.LoadedFiles)
	w.logger.Info("configuration reloaded", zap.String("changed", changed), zap.Int("files", len(mappings.LoadedFiles)))
}
