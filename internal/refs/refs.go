// Package refs owns the mutable pointers of a repository: the HEAD record
// and one tip file per branch under refs/heads/.
package refs

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"delta/internal/config"
	"delta/internal/errors"
)

// symbolicPrefix marks a HEAD that references a branch by name. Anything
// else in HEAD is a detached fingerprint.
const symbolicPrefix = "ref: refs/heads/"

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateName rejects branch names outside the allowed character set.
// Validation happens before any filesystem interaction.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return errors.InvalidName(fmt.Sprintf("invalid branch name %q: use only letters, numbers, dashes, and underscores", name))
	}
	return nil
}

// Branch is a named pointer, flagged when it is the checked-out one.
type Branch struct {
	Name    string
	Current bool
}

// Store reads and writes the reference files under a repository directory.
type Store struct {
	dir string
}

func NewStore(deltaDir string) *Store {
	return &Store{dir: deltaDir}
}

func (s *Store) headPath() string {
	return filepath.Join(s.dir, config.HeadFile)
}

func (s *Store) headsDir() string {
	return filepath.Join(s.dir, config.RefsDir, config.HeadsDir)
}

func (s *Store) branchPath(name string) string {
	return filepath.Join(s.headsDir(), name)
}

// Head returns the raw HEAD content, trimmed. An empty string means HEAD
// has never been set; a missing file in an initialized repository is a
// corruption.
func (s *Store) Head() (string, error) {
	data, err := os.ReadFile(s.headPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Corrupted("HEAD file is missing, repository might be corrupted", nil)
		}
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// CurrentBranch resolves HEAD to a branch name when it is symbolic, and
// returns "" for a detached or never-set HEAD.
func (s *Store) CurrentBranch() (string, error) {
	head, err := s.Head()
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(head, symbolicPrefix) {
		return strings.TrimPrefix(head, symbolicPrefix), nil
	}
	return "", nil
}

// ResolveHead fully dereferences HEAD to a commit fingerprint. A symbolic
// HEAD reads the target branch's tip, which is "" for a branch that has
// never accepted a commit. A detached HEAD is returned as-is.
func (s *Store) ResolveHead() (string, error) {
	head, err := s.Head()
	if err != nil {
		return "", err
	}
	if head == "" {
		return "", nil
	}
	if strings.HasPrefix(head, symbolicPrefix) {
		return s.BranchTip(strings.TrimPrefix(head, symbolicPrefix))
	}
	return head, nil
}

// BranchTip returns the tip fingerprint of a branch, "" when the branch
// file does not exist.
func (s *Store) BranchTip(name string) (string, error) {
	data, err := os.ReadFile(s.branchPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading branch %q: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *Store) BranchExists(name string) bool {
	_, err := os.Stat(s.branchPath(name))
	return err == nil
}

// SetBranchTip creates or overwrites the branch file with the fingerprint.
func (s *Store) SetBranchTip(name, fingerprint string) error {
	if err := os.MkdirAll(s.headsDir(), 0755); err != nil {
		return fmt.Errorf("creating heads directory: %w", err)
	}
	if err := os.WriteFile(s.branchPath(name), []byte(fingerprint+"\n"), 0644); err != nil {
		return fmt.Errorf("writing branch %q: %w", name, err)
	}
	return nil
}

// SetHead rewrites HEAD as a symbolic reference to the branch.
func (s *Store) SetHead(branch string) error {
	if err := os.WriteFile(s.headPath(), []byte(symbolicPrefix+branch+"\n"), 0644); err != nil {
		return fmt.Errorf("writing HEAD: %w", err)
	}
	return nil
}

// SetHeadDetached points HEAD directly at a fingerprint, used to advance a
// detached HEAD after a commit.
func (s *Store) SetHeadDetached(fingerprint string) error {
	if err := os.WriteFile(s.headPath(), []byte(fingerprint+"\n"), 0644); err != nil {
		return fmt.Errorf("writing HEAD: %w", err)
	}
	return nil
}

// List returns all branches sorted by name, the current one flagged.
func (s *Store) List() ([]Branch, error) {
	entries, err := os.ReadDir(s.headsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading heads directory: %w", err)
	}

	current, err := s.CurrentBranch()
	if err != nil {
		return nil, err
	}

	branches := make([]Branch, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		branches = append(branches, Branch{Name: e.Name(), Current: e.Name() == current})
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// Delete removes the branch file. Policy checks (current branch, existence
// notices) belong to the caller.
func (s *Store) Delete(name string) error {
	if err := os.Remove(s.branchPath(name)); err != nil {
		if os.IsNotExist(err) {
			return errors.NotFound(fmt.Sprintf("branch %q does not exist", name))
		}
		return fmt.Errorf("deleting branch %q: %w", name, err)
	}
	return nil
}
