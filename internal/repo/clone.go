package repo

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"delta/internal/config"
	"delta/internal/errors"
	"delta/internal/ignore"
)

// Clone duplicates an initialized repository's directory tree into
// destination, skipping every path the source's ignore rules match. This
// is a structural copy of persisted state; commit fingerprints are not
// re-validated on the destination side.
func Clone(source, destination string) error {
	src, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("resolving source %s: %w", source, err)
	}
	dst, err := filepath.Abs(destination)
	if err != nil {
		return fmt.Errorf("resolving destination %s: %w", destination, err)
	}

	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return errors.NotFound(fmt.Sprintf("source does not exist or is not a directory: %s", source))
	}
	marker, err := os.Stat(filepath.Join(src, config.RepoDir))
	if err != nil || !marker.IsDir() {
		return errors.NotRepository(source)
	}
	if _, err := os.Stat(dst); err == nil {
		return errors.Conflict(fmt.Sprintf("destination already exists: %s", destination))
	}

	rules := ignore.Load(src)

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("walking %s: %w", path, walkErr)
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", path, err)
		}

		if rel != "." && rules.Match(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		fi, err := d.Info()
		if err != nil {
			return fmt.Errorf("inspecting %s: %w", path, err)
		}

		if d.IsDir() {
			if err := os.MkdirAll(target, fi.Mode().Perm()); err != nil {
				return fmt.Errorf("creating %s: %w", target, err)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target, fi.Mode().Perm())
	})
}

func copyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}
