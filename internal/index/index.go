// Package index holds the staging area: the mutable path to fingerprint
// mapping that the next commit freezes.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Entry is one staged file.
type Entry struct {
	Path        string
	Fingerprint string
}

// Index is the staging area bound to its persisted location. An entry's
// fingerprint reflects the file content at the time it was added, never
// re-hashed at commit time.
type Index struct {
	path    string
	entries map[string]string
}

// Load reads the index record at path. A missing file loads as an empty
// index; a fresh repository persists "{}" explicitly at init.
func Load(path string) (*Index, error) {
	ix := &Index{path: path, entries: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ix, nil
		}
		return nil, fmt.Errorf("reading index %s: %w", path, err)
	}
	if len(data) == 0 {
		return ix, nil
	}

	if err := json.Unmarshal(data, &ix.entries); err != nil {
		return nil, fmt.Errorf("decoding index %s: %w", path, err)
	}
	if ix.entries == nil {
		ix.entries = make(map[string]string)
	}
	return ix, nil
}

// Set stages or restages a path with the given content fingerprint.
func (ix *Index) Set(path, fingerprint string) {
	ix.entries[path] = fingerprint
}

// Fingerprint returns the staged fingerprint for path, if any.
func (ix *Index) Fingerprint(path string) (string, bool) {
	fp, ok := ix.entries[path]
	return fp, ok
}

func (ix *Index) Len() int {
	return len(ix.entries)
}

// Entries returns the staged files ordered by path.
func (ix *Index) Entries() []Entry {
	paths := make([]string, 0, len(ix.entries))
	for p := range ix.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]Entry, 0, len(paths))
	for _, p := range paths {
		out = append(out, Entry{Path: p, Fingerprint: ix.entries[p]})
	}
	return out
}

// Files returns a copy of the mapping, suitable for freezing into a commit.
func (ix *Index) Files() map[string]string {
	files := make(map[string]string, len(ix.entries))
	for p, fp := range ix.entries {
		files[p] = fp
	}
	return files
}

// Clear drops every entry. The index is cleared whole or not at all.
func (ix *Index) Clear() {
	ix.entries = make(map[string]string)
}

// Save atomically rewrites the index record, "{}" when clean.
func (ix *Index) Save() error {
	data, err := json.Marshal(ix.entries)
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}

	dir := filepath.Dir(ix.path)
	tmp, err := os.CreateTemp(dir, ".index-tmp-*")
	if err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.Rename(tmpName, ix.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}
