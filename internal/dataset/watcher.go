package dataset

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/starmap/internal/models"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher reloads a dataset whenever its file changes and hands the new dataset to a callback.
// The parent directory is watched so that editors and writers that replace the file by rename
// are seen too.
type Watcher struct {
	source   Source
	onLoad   func(*models.Dataset)
	debounce time.Duration
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	timer    *time.Timer
	ctx      context.Context
	done     chan struct{}
	started  bool
	stopOnce sync.Once
	logger   *zap.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for reload and event output.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long the file must stay quiet before it is reloaded.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher for source. onLoad is called from the watcher's goroutines
// with every successfully reloaded dataset.
func NewWatcher(source Source, onLoad func(*models.Dataset), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		source:   source,
		onLoad:   onLoad,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(w.source.Path())
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return err
	}
	w.watcher = fw
	w.ctx = ctx
	w.started = true
	w.logger.Debug("dataset watcher starting", zap.String("path", w.source.Path()))
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("dataset watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != filepath.Clean(w.source.Path()) {
		return
	}
	w.logger.Debug("dataset watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename) {
		w.scheduleReload()
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	ctx := w.ctx
	w.timer = nil
	w.mu.Unlock()
	select {
	case <-w.done:
		return
	default:
	}

	ds, err := w.source.Load(ctx)
	if err != nil {
		// writers may still be mid-write; the next event retries
		w.logger.Warn("dataset reload failed", zap.String("path", w.source.Path()), zap.Error(err))
		return
	}
	w.logger.Info("dataset reloaded",
		zap.String("path", w.source.Path()),
		zap.Int("points", len(ds.Points)),
		zap.Int("clusters", len(ds.Clusters)))
	if w.onLoad != nil {
		w.onLoad(ds)
	}
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
	})
}
