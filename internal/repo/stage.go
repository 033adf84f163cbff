package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"delta/internal/errors"
	"delta/internal/hashing"
	"delta/internal/index"
)

// Add stages the named paths. A directory stages every regular file under
// it; "." stages the whole working tree. Every named path must exist on
// disk, ignored or not; a missing path aborts the whole batch before
// anything is persisted. Ignored paths named explicitly are skipped with a
// notice, ignored paths met while walking are skipped silently.
func (r *Repository) Add(paths []string) error {
	ix, err := r.loadIndex()
	if err != nil {
		return err
	}

	for _, p := range paths {
		rel, err := r.relPath(p)
		if err != nil {
			return err
		}

		abs := filepath.Join(r.root, filepath.FromSlash(rel))
		info, err := os.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				return errors.NotFound(fmt.Sprintf("file not found: %s", p))
			}
			return fmt.Errorf("inspecting %s: %w", p, err)
		}

		if rel != "." && r.IsIgnored(rel) {
			r.notice("Skipped %s (ignored).", p)
			continue
		}

		if info.IsDir() {
			if err := r.stageTree(ix, abs); err != nil {
				return err
			}
			continue
		}
		if err := r.stageFile(ix, rel); err != nil {
			return err
		}
	}

	return ix.Save()
}

// stageTree walks a directory and stages every regular file that is not
// ignored. The repository directory is never entered.
func (r *Repository) stageTree(ix *index.Index, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}

		rel, relErr := filepath.Rel(r.root, path)
		if relErr != nil {
			return fmt.Errorf("resolving %s: %w", path, relErr)
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if r.IsIgnored(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || r.IsIgnored(rel) {
			return nil
		}
		return r.stageFile(ix, rel)
	})
}

// stageFile hashes one file and records it in the index. Restaging the same
// content is a no-op apart from the notice.
func (r *Repository) stageFile(ix *index.Index, rel string) error {
	fp, err := hashing.HashFile(filepath.Join(r.root, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	ix.Set(rel, fp)
	r.logger.Debug("staged file", zap.String("path", rel), zap.String("fingerprint", fp))
	r.notice("Added %s to staging area.", rel)
	return nil
}

// Status returns the staged entries ordered by path.
func (r *Repository) Status() ([]index.Entry, error) {
	ix, err := r.loadIndex()
	if err != nil {
		return nil, err
	}
	return ix.Entries(), nil
}

// IsStaged reports whether the repository-relative path has a staged entry.
func (r *Repository) IsStaged(rel string) (bool, error) {
	ix, err := r.loadIndex()
	if err != nil {
		return false, err
	}
	_, ok := ix.Fingerprint(filepath.ToSlash(filepath.Clean(rel)))
	return ok, nil
}

// RestageIfStaged re-hashes a staged file after an outside change and
// updates its entry. It reports whether the entry actually moved; paths
// that are not staged, unchanged, or already gone leave the index alone.
func (r *Repository) RestageIfStaged(rel string) (bool, error) {
	rel = filepath.ToSlash(filepath.Clean(rel))

	ix, err := r.loadIndex()
	if err != nil {
		return false, err
	}
	old, ok := ix.Fingerprint(rel)
	if !ok {
		return false, nil
	}

	fp, err := hashing.HashFile(filepath.Join(r.root, filepath.FromSlash(rel)))
	if err != nil {
		if errors.IsKind(err, errors.ErrorTypeNotFound) {
			return false, nil
		}
		return false, err
	}
	if fp == old {
		return false, nil
	}

	ix.Set(rel, fp)
	if err := ix.Save(); err != nil {
		return false, err
	}
	r.logger.Debug("restaged file", zap.String("path", rel), zap.String("fingerprint", fp))
	return true, nil
}
