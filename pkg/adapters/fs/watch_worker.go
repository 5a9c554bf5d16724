package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

// Watch starts a watch worker and returns its event channel. The channel is
// closed once ctx is done and the worker has stopped.
func (r *Repository) Watch(ctx context.Context) (<-chan core.Event, error) {
	// Deleted files are named from the index, so it must be current.
	if _, err := r.scan(ctx); err != nil {
		return nil, err
	}

	events := make(chan core.Event, 64)
	w := newWatchWorker(r, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := w.Stop(stopCtx)
		close(events)
		return err
	}, lifecycle.WithErrorHandler(func(err error) {
		r.logger.Error("failed to stop watcher", "error", err)
	}))
	return events, nil
}

type watchWorker struct {
	*worker.BaseWorker
	repo    *Repository
	events  chan<- core.Event
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

func newWatchWorker(repo *Repository, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("vault-watcher"),
		repo:       repo,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.repo.addDirs(watcher, w.repo.Path); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.repo.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"path":              w.repo.Path,
		}
	})
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.repo.logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error("fsnotify error", "error", wErr)
			if w.repo.config.ErrorHandler != nil {
				w.repo.config.ErrorHandler(wErr)
			}
		}
	}
}

// handle maps one fsnotify event to a note event. New directories are
// watched as they appear.
func (w *watchWorker) handle(ctx context.Context, event fsnotify.Event) {
	logger := w.repo.logger
	logger.Debug("fs event", "name", event.Name, "op", event.Op.String())

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.repo.addDirs(w.watcher, event.Name); err != nil {
				logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	rel, ok := w.repo.relPath(event.Name)
	if !ok || w.repo.isSystemPath(rel) {
		return
	}
	if match, _ := doublestar.Match(w.repo.config.Pattern, rel); !match {
		return
	}

	var typ core.EventType
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		typ = core.EventDelete
	case event.Has(fsnotify.Create):
		typ = core.EventCreate
	case event.Has(fsnotify.Write):
		typ = core.EventModify
	default:
		return
	}

	w.send(ctx, core.Event{
		Type:      typ,
		ID:        w.repo.resolveID(rel, typ),
		Timestamp: time.Now().Unix(),
	})
}

func (w *watchWorker) send(ctx context.Context, e core.Event) {
	defer func() {
		// the channel may close under us during shutdown
		_ = recover()
	}()
	select {
	case w.events <- e:
	case <-ctx.Done():
	}
}

// addDirs watches dir and every directory below it, except system ones.
func (r *Repository) addDirs(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != r.Path && (d.Name() == r.config.SystemDir || d.Name() == ".git") {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (r *Repository) relPath(abs string) (string, bool) {
	rel, err := filepath.Rel(r.Path, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// resolveID names the note behind a file. Removed files are looked up in
// the index; live ones are parsed so a frontmatter id wins over the path.
func (r *Repository) resolveID(rel string, typ core.EventType) string {
	if typ != core.EventDelete {
		if e, err := r.parseFile(rel); err == nil {
			return e.ID
		}
	}
	if e, ok := r.index.Lookup(rel); ok {
		return e.ID
	}
	return idFromPath(rel)
}
