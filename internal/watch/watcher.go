// Package watch keeps the staging area in step with the working tree: a
// staged file edited outside delta is re-hashed and restaged as the change
// lands, so the next commit freezes what is actually on disk.
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"delta/internal/repo"
)

// Watcher follows filesystem events below the repository root. Only paths
// with a staged entry ever cause an index write; everything else is noise.
type Watcher struct {
	repo    *repo.Repository
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	out     io.Writer
}

// New creates a watcher over the repository's working tree. Every
// directory outside the repository directory and the ignore rules is
// registered; directories created later are picked up from their create
// events.
func New(r *repo.Repository, logger *zap.Logger, out io.Writer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = os.Stdout
	}

	w := &Watcher{
		repo:    r,
		watcher: fsw,
		logger:  logger,
		out:     out,
	}
	if err := w.watchTree(); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching working tree: %w", err)
	}
	return w, nil
}

// watchTree registers the root and every non-ignored subdirectory.
func (w *Watcher) watchTree() error {
	root := w.repo.Root()
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel != "." && w.repo.IsIgnored(rel) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Run processes events until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

// handleEvent processes one filesystem event. Exported effects are
// restaging a changed staged file and warning when a staged file vanishes;
// the staged entry survives a deletion so the next commit still carries
// the last added content.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.repo.Root(), event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)
	if w.repo.IsIgnored(rel) {
		return
	}

	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Error("adding new directory to watcher", zap.Error(err))
			}
			return
		}
		w.restage(rel)

	case event.Op&fsnotify.Write == fsnotify.Write:
		w.restage(rel)

	case event.Op&fsnotify.Remove == fsnotify.Remove,
		event.Op&fsnotify.Rename == fsnotify.Rename:
		staged, err := w.repo.IsStaged(rel)
		if err != nil {
			w.logger.Error("reading index", zap.Error(err))
			return
		}
		if staged {
			fmt.Fprintf(w.out, "Staged file %s was removed; its entry is kept until commit.\n", rel)
		}
	}
}

func (w *Watcher) restage(rel string) {
	changed, err := w.repo.RestageIfStaged(rel)
	if err != nil {
		w.logger.Error("restaging file", zap.String("path", rel), zap.Error(err))
		return
	}
	if changed {
		fmt.Fprintf(w.out, "Restaged %s.\n", rel)
	}
}
