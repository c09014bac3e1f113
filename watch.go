package feather

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jward/feather/internal/watcher"
)

// Watch reindexes GML files under roots as they change and removes the
// ones that are deleted, until ctx is cancelled. Each debounced batch of
// changes is indexed as one IndexFiles call.
func (e *Engine) Watch(ctx context.Context, roots ...string) error {
	if len(roots) == 0 {
		return fmt.Errorf("feather: watch: no roots")
	}
	dirs := make([]string, 0, len(skipDirs))
	for name := range skipDirs {
		dirs = append(dirs, name)
	}

	w, err := watcher.New(watcher.Options{
		Debounce:    e.debounce,
		ExcludeDirs: dirs,
		Accept: func(path string) bool {
			for _, root := range roots {
				if within(root, path) {
					return e.accepts(root, path)
				}
			}
			return false
		},
		Logger: e.logger,
	}, func(paths []string) {
		e.applyChanges(ctx, paths)
	})
	if err != nil {
		return fmt.Errorf("feather: watch: %w", err)
	}
	if err := w.Watch(roots); err != nil {
		w.Close()
		return fmt.Errorf("feather: watch: %w", err)
	}
	e.logger.Info("watching", "roots", roots)

	<-ctx.Done()
	if err := w.Close(); err != nil {
		return fmt.Errorf("feather: watch: %w", err)
	}
	return nil
}

// applyChanges indexes the paths that still exist and removes the rest.
func (e *Engine) applyChanges(ctx context.Context, paths []string) {
	if ctx.Err() != nil {
		return
	}
	e.metrics.WatcherEvent(len(paths))

	var changed []string
	for _, path := range paths {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			changed = append(changed, path)
		case errors.Is(err, fs.ErrNotExist):
			if err := e.RemoveFile(filepath.Clean(path)); err != nil {
				e.logger.Error("remove failed", "path", path, "error", err)
			}
		default:
			e.logger.Warn("stat failed", "path", path, "error", err)
		}
	}
	if len(changed) == 0 {
		return
	}
	if err := e.IndexFiles(ctx, changed); err != nil {
		e.logger.Error("reindex failed", "error", err)
		return
	}
	e.logger.Info("reindexed", "files", len(changed))
}
