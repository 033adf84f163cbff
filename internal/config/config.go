// Package config defines the on-disk layout names and the per-repository
// configuration record.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Repository layout. Everything delta persists lives under the marker
// directory at the working-tree root.
const (
	RepoDir    = ".delta"
	ObjectsDir = "objects"
	RefsDir    = "refs"
	HeadsDir   = "heads"
	BadgerDir  = "db"
	HeadFile   = "HEAD"
	IndexFile  = "index"
	ConfigFile = "config.json"

	IgnoreFile = ".deltaignore"
)

const DefaultBranch = "master"

// Object-store backends selectable at init time.
const (
	BackendFiles  = "files"
	BackendBadger = "badger"
)

type Config struct {
	RepositoryID  string `json:"repository_id"`
	DefaultBranch string `json:"default_branch"`
	ObjectBackend string `json:"object_backend"`
}

// New returns a config for a fresh repository with a generated identity.
func New(defaultBranch, backend string) *Config {
	if defaultBranch == "" {
		defaultBranch = DefaultBranch
	}
	if backend == "" {
		backend = BackendFiles
	}
	return &Config{
		RepositoryID:  uuid.New().String(),
		DefaultBranch: defaultBranch,
		ObjectBackend: backend,
	}
}

// Load reads the config record from an initialized repository directory.
// Repositories written before the config record existed get the defaults.
func Load(deltaDir string) (*Config, error) {
	path := filepath.Join(deltaDir, ConfigFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{DefaultBranch: DefaultBranch, ObjectBackend: BackendFiles}, nil
		}
		return nil, fmt.Errorf("opening config %s: %w", path, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	if cfg.DefaultBranch == "" {
		cfg.DefaultBranch = DefaultBranch
	}
	if cfg.ObjectBackend == "" {
		cfg.ObjectBackend = BackendFiles
	}
	return &cfg, nil
}

// Save writes the config record into the repository directory.
func (c *Config) Save(deltaDir string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	path := filepath.Join(deltaDir, ConfigFile)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
