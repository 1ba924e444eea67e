package production

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/comalice/chartkit/internal/core"
	clog "github.com/comalice/chartkit/internal/log"
)

// Errors returned by Watch.
var (
	ErrWatching      = errors.New("watcher already started")
	ErrWatcherClosed = errors.New("watcher closed")
)

// DefaultDebounce coalesces the bursts of events editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// ReloadFunc is told about every load attempt. def is nil when err is set.
// err wraps ErrExists when the file changed without changing the definition.
type ReloadFunc func(path string, def *core.Definition, err error)

// Watcher loads definition documents into a Catalog and reloads them when
// they change on disk. A document that fails to load leaves the catalog
// unchanged.
type Watcher struct {
	catalog  *Catalog
	binder   core.Binder
	log      zerolog.Logger
	debounce time.Duration
	onReload ReloadFunc

	mu      sync.Mutex
	files   map[string]bool // cleaned paths being watched
	timers  map[string]*time.Timer
	fsw     *fsnotify.Watcher
	started bool // Watch was called
	closed  bool
	done    chan struct{}
	pending sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a changed file is reloaded.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(l zerolog.Logger) WatcherOption {
	return func(w *Watcher) { w.log = l }
}

// WithOnReload registers a callback for every load attempt.
func WithOnReload(fn ReloadFunc) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// NewWatcher creates a Watcher feeding catalog. binder resolves string
// references in the documents.
func NewWatcher(catalog *Catalog, binder core.Binder, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		catalog:  catalog,
		binder:   binder,
		log:      clog.WithComponent("watcher"),
		debounce: DefaultDebounce,
		files:    make(map[string]bool),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Load compiles the document at path and registers it. Loading an unchanged
// document returns the registered definition and an error wrapping
// ErrExists.
func (w *Watcher) Load(path string) (*core.Definition, error) {
	def, err := LoadDefinition(path, w.binder)
	if err == nil {
		if err = w.catalog.Register(def, path); err != nil && errors.Is(err, ErrExists) {
			def, _ = w.catalog.Version(def.ID(), def.Version())
		}
	}
	if err != nil && !errors.Is(err, ErrExists) {
		def = nil
	}
	if w.onReload != nil {
		w.onReload(path, def, err)
	}
	return def, err
}

// Watch loads every path, then reloads each one when it changes until ctx is
// done or Close is called. Directories are watched rather than files so that
// editors replacing the file by rename are seen. A Watcher watches once: later
// calls return ErrWatching.
func (w *Watcher) Watch(ctx context.Context, paths ...string) error {
	w.mu.Lock()
	switch {
	case w.closed:
		w.mu.Unlock()
		return ErrWatcherClosed
	case w.started:
		w.mu.Unlock()
		return ErrWatching
	}
	w.started = true
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.abandon()
		return fmt.Errorf("create watcher: %w", err)
	}
	dirs := make(map[string]bool)
	var loadErrs []error
	for _, p := range paths {
		clean := filepath.Clean(p)
		if _, err := w.Load(clean); err != nil && !errors.Is(err, ErrExists) {
			loadErrs = append(loadErrs, err)
		}
		w.mu.Lock()
		w.files[clean] = true
		w.mu.Unlock()
		dirs[filepath.Dir(clean)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			w.abandon()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		_ = fsw.Close()
		return ErrWatcherClosed
	}
	w.fsw = fsw
	w.mu.Unlock()
	w.log.Info().Strs(clog.FieldPath, paths).Msg("watching definitions")

	go w.loop(ctx, fsw)
	return errors.Join(loadErrs...)
}

// abandon lets Watch be retried after it failed to start.
func (w *Watcher) abandon() {
	w.mu.Lock()
	w.started = false
	clear(w.files)
	w.mu.Unlock()
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.shutdown()
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			path := filepath.Clean(event.Name)
			w.mu.Lock()
			watched := w.files[path]
			w.mu.Unlock()
			if !watched {
				continue
			}
			w.log.Debug().Str(clog.FieldPath, path).Str("op", event.Op.String()).Msg("definition changed")
			w.schedule(path)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.timers[path]; ok && t.Stop() {
		w.pending.Done()
	}
	w.pending.Add(1)
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		defer w.pending.Done()
		w.mu.Lock()
		closed := w.closed
		delete(w.timers, path)
		w.mu.Unlock()
		if closed {
			return
		}
		def, err := w.Load(path)
		switch {
		case err == nil:
			w.log.Info().Str(clog.FieldPath, path).
				Str(clog.FieldDefinition, def.ID()).
				Str(clog.FieldVersion, def.Version()).
				Msg("definition reloaded")
		case errors.Is(err, ErrExists):
			w.log.Debug().Str(clog.FieldPath, path).Msg("definition unchanged")
		default:
			w.log.Error().Err(err).Str(clog.FieldPath, path).Msg("definition reload failed; keeping previous version")
		}
	})
}

// shutdown cancels pending reloads and closes the fsnotify watcher.
func (w *Watcher) shutdown() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	for p, t := range w.timers {
		if t.Stop() {
			w.pending.Done()
		}
		delete(w.timers, p)
	}
	fsw := w.fsw
	w.mu.Unlock()
	if fsw != nil {
		_ = fsw.Close()
	}
}

// Close stops watching and waits for in-flight reloads.
func (w *Watcher) Close() error {
	w.shutdown()
	w.mu.Lock()
	started := w.fsw != nil
	w.mu.Unlock()
	if started {
		<-w.done
	}
	w.pending.Wait()
	return nil
}
