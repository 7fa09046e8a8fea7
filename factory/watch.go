package factory

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fiscalkit/bracket-engine/generic"
)

// Registrar receives reloaded tables. *generic.Registry implements it.
type Registrar interface {
	Register(t generic.Table) error
}

// Watcher reloads table files from a directory when they change.
// Editors save in bursts (truncate, write, rename), so events are debounced
// per file and the file is read once it has settled.
type Watcher struct {
	dir      string
	reg      Registrar
	logger   *zap.Logger
	debounce time.Duration

	// OnReload is called after a table has been re-registered. The server
	// uses it to drop cached results.
	OnReload func(generic.Table)

	mu      sync.Mutex
	pending map[string]time.Time
}

func NewWatcher(dir string, reg Registrar, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		reg:      reg,
		logger:   logger.Named("table-watcher"),
		debounce: 300 * time.Millisecond,
		pending:  make(map[string]time.Time),
	}
}

// SetDebounce overrides the settle window.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run watches until ctx is cancelled. It returns nil on cancellation and an
// error only if the watch could not be set up.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching table directory", zap.String("dir", w.dir))

	tick := w.debounce / 3
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", zap.Error(err))

		case <-ticker.C:
			w.processSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !IsTableFile(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		// Removing a file keeps its tables registered: a calculation
		// in flight must not lose its table.
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processSettled() {
	now := time.Now()

	w.mu.Lock()
	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.reload(path)
	}
}

func (w *Watcher) reload(path string) {
	table, err := LoadFile(path)
	if err != nil {
		w.logger.Warn("table file rejected", zap.String("file", filepath.Base(path)), zap.Error(err))
		return
	}
	if err := w.reg.Register(table); err != nil {
		w.logger.Warn("table not registered", zap.String("table", string(table.ID)), zap.Error(err))
		return
	}
	w.logger.Info("table reloaded",
		zap.String("table", string(table.ID)),
		zap.Int("year", table.Year),
		zap.String("file", filepath.Base(path)),
	)
	if w.OnReload != nil {
		w.OnReload(table)
	}
}
