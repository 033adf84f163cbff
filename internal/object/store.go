package object

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"delta/internal/errors"
)

// DefaultCacheSize bounds the in-memory record cache of a FileStore.
const DefaultCacheSize = 1000

// Store persists commit records keyed by their fingerprint. The store is
// append-only: Put with a fingerprint that already exists is a no-op, since
// the key is derived from the record's content.
type Store interface {
	Put(c *Commit) error
	Get(fingerprint string) (*Commit, error)
	Has(fingerprint string) bool
}

// FileStore keeps one JSON record per commit in a flat directory, the file
// name equal to the fingerprint. Reads go through an LRU cache.
type FileStore struct {
	root  string
	cache *lru.Cache[string, *Commit]
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating object store directory: %w", err)
	}
	cache, err := lru.New[string, *Commit](DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating object cache: %w", err)
	}
	return &FileStore{root: root, cache: cache}, nil
}

func (s *FileStore) path(fingerprint string) string {
	return filepath.Join(s.root, fingerprint)
}

// Put writes the record under its fingerprint. Writes are atomic: a temp
// file in the same directory is renamed into place.
func (s *FileStore) Put(c *Commit) error {
	if c.Fingerprint == "" {
		return errors.Internal("commit fingerprint cannot be empty")
	}
	if s.Has(c.Fingerprint) {
		return nil
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding commit %s: %w", c.Fingerprint, err)
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("writing commit %s: %w", c.Fingerprint, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing commit %s: %w", c.Fingerprint, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing commit %s: %w", c.Fingerprint, err)
	}
	if err := os.Rename(tmpName, s.path(c.Fingerprint)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing commit %s: %w", c.Fingerprint, err)
	}

	s.cache.Add(c.Fingerprint, c)
	return nil
}

func (s *FileStore) Get(fingerprint string) (*Commit, error) {
	if c, ok := s.cache.Get(fingerprint); ok {
		return c, nil
	}

	data, err := os.ReadFile(s.path(fingerprint))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(fmt.Sprintf("object not found: %s", fingerprint))
		}
		return nil, fmt.Errorf("reading commit %s: %w", fingerprint, err)
	}

	var c Commit
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Corrupted(fmt.Sprintf("object %s is not a valid commit record", fingerprint), err.Error())
	}

	s.cache.Add(fingerprint, &c)
	return &c, nil
}

func (s *FileStore) Has(fingerprint string) bool {
	if fingerprint == "" {
		return false
	}
	if s.cache.Contains(fingerprint) {
		return true
	}
	_, err := os.Stat(s.path(fingerprint))
	return err == nil
}
