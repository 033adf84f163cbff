// Package repo ties the collaborators together behind an explicit
// Repository handle: object store, reference store, staging index and
// ignore predicate, injected so tests can substitute their own.
package repo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"delta/internal/config"
	"delta/internal/errors"
	"delta/internal/ignore"
	"delta/internal/index"
	"delta/internal/object"
	"delta/internal/refs"
)

// Options configures a repository handle. Zero values get working
// defaults: a nop logger, stdout notices, rules loaded from .deltaignore.
type Options struct {
	Logger *zap.Logger
	Output io.Writer
	Ignore ignore.Matcher

	// Init-only knobs.
	DefaultBranch string
	ObjectBackend string
}

// Repository is the handle every operation runs through. All repository
// state lives behind the injected collaborators; there is no package-level
// mutable state.
type Repository struct {
	root    string
	dir     string
	cfg     *config.Config
	objects object.Store
	refs    *refs.Store
	rules   ignore.Matcher
	logger  *zap.Logger
	out     io.Writer
}

// Init creates the repository layout under root and returns an open
// handle. Initializing an already-initialized repository is a reported
// no-op.
func Init(root string, opts Options) (*Repository, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving repository root %s: %w", root, err)
	}
	deltaDir := filepath.Join(absRoot, config.RepoDir)

	if _, err := os.Stat(deltaDir); err == nil {
		r, err := Open(absRoot, opts)
		if err != nil {
			return nil, err
		}
		r.notice("Repository already initialized.")
		return r, nil
	}

	cfg := config.New(opts.DefaultBranch, opts.ObjectBackend)

	dirs := []string{
		filepath.Join(deltaDir, config.ObjectsDir),
		filepath.Join(deltaDir, config.RefsDir, config.HeadsDir),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	head := "ref: refs/heads/" + cfg.DefaultBranch + "\n"
	if err := os.WriteFile(filepath.Join(deltaDir, config.HeadFile), []byte(head), 0644); err != nil {
		return nil, fmt.Errorf("writing HEAD: %w", err)
	}
	if err := os.WriteFile(filepath.Join(deltaDir, config.IndexFile), []byte("{}"), 0644); err != nil {
		return nil, fmt.Errorf("writing index: %w", err)
	}
	if err := cfg.Save(deltaDir); err != nil {
		return nil, err
	}

	r, err := open(absRoot, deltaDir, cfg, opts)
	if err != nil {
		return nil, err
	}
	r.notice("Initialized an empty repository")
	return r, nil
}

// Open binds a handle to an initialized repository at root.
func Open(root string, opts Options) (*Repository, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving repository root %s: %w", root, err)
	}
	deltaDir := filepath.Join(absRoot, config.RepoDir)

	info, err := os.Stat(deltaDir)
	if err != nil || !info.IsDir() {
		return nil, errors.NotInitialized()
	}

	cfg, err := config.Load(deltaDir)
	if err != nil {
		return nil, err
	}
	return open(absRoot, deltaDir, cfg, opts)
}

func open(absRoot, deltaDir string, cfg *config.Config, opts Options) (*Repository, error) {
	var objects object.Store
	switch cfg.ObjectBackend {
	case config.BackendBadger:
		store, err := object.OpenBadgerStore(filepath.Join(deltaDir, config.BadgerDir))
		if err != nil {
			return nil, err
		}
		objects = store
	default:
		store, err := object.NewFileStore(filepath.Join(deltaDir, config.ObjectsDir))
		if err != nil {
			return nil, err
		}
		objects = store
	}

	r := &Repository{
		root:    absRoot,
		dir:     deltaDir,
		cfg:     cfg,
		objects: objects,
		refs:    refs.NewStore(deltaDir),
		rules:   opts.Ignore,
		logger:  opts.Logger,
		out:     opts.Output,
	}
	if r.rules == nil {
		r.rules = ignore.Load(absRoot)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.out == nil {
		r.out = os.Stdout
	}
	return r, nil
}

// Close releases backend resources (the badger object store holds a
// database handle).
func (r *Repository) Close() error {
	if closer, ok := r.objects.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("closing object store: %w", err)
		}
	}
	return nil
}

// Root returns the working-tree root.
func (r *Repository) Root() string {
	return r.root
}

// Config returns the repository configuration record.
func (r *Repository) Config() *config.Config {
	return r.cfg
}

// IsIgnored reports whether the repository-relative path is excluded from
// staging, either by living under the repository directory or by matching
// the ignore rules.
func (r *Repository) IsIgnored(rel string) bool {
	clean := filepath.ToSlash(filepath.Clean(rel))
	if clean == config.RepoDir || strings.HasPrefix(clean, config.RepoDir+"/") {
		return true
	}
	return r.rules.Match(clean)
}

// notice emits a user-visible message. Soft conditions are reported here,
// never raised as errors.
func (r *Repository) notice(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

func (r *Repository) indexPath() string {
	return filepath.Join(r.dir, config.IndexFile)
}

func (r *Repository) loadIndex() (*index.Index, error) {
	return index.Load(r.indexPath())
}

// relPath normalizes a user-supplied path to the repository-relative,
// slash-separated form the index stores.
func (r *Repository) relPath(p string) (string, error) {
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) {
		rel, err := filepath.Rel(r.root, clean)
		if err != nil {
			return "", fmt.Errorf("resolving path %s: %w", p, err)
		}
		clean = rel
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the repository", p)
	}
	return filepath.ToSlash(clean), nil
}
