package repo

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"delta/internal/errors"
	"delta/internal/object"
)

// Commit freezes the staging area into a new commit record and advances
// HEAD. The order of effects is fixed: the object is persisted first, the
// current reference moves second, the index is cleared last, so a failure
// partway never leaves a reference pointing at a missing object.
func (r *Repository) Commit(message string) (string, error) {
	ix, err := r.loadIndex()
	if err != nil {
		return "", err
	}
	if ix.Len() == 0 {
		return "", errors.EmptyStagingArea()
	}

	head, err := r.refs.Head()
	if err != nil {
		return "", err
	}
	if head == "" {
		// First commit in a repository whose HEAD was never set: attach
		// HEAD to the default branch before committing.
		if err := r.refs.SetHead(r.cfg.DefaultBranch); err != nil {
			return "", err
		}
	}

	branch, err := r.refs.CurrentBranch()
	if err != nil {
		return "", err
	}

	var parent string
	if branch != "" {
		parent, err = r.refs.BranchTip(branch)
		if err != nil {
			return "", err
		}
	} else {
		// Detached HEAD: the fingerprint in HEAD is the parent.
		parent = head
	}

	c := object.NewCommit(message, parent, time.Now().UnixNano(), ix.Files())
	if err := r.objects.Put(c); err != nil {
		return "", err
	}

	if branch != "" {
		if err := r.refs.SetBranchTip(branch, c.Fingerprint); err != nil {
			return "", err
		}
	} else {
		if err := r.refs.SetHeadDetached(c.Fingerprint); err != nil {
			return "", err
		}
	}

	ix.Clear()
	if err := ix.Save(); err != nil {
		return "", err
	}

	r.logger.Info("commit created",
		zap.String("fingerprint", c.Fingerprint),
		zap.String("branch", branch),
		zap.Int("files", len(c.Files)))
	return c.Fingerprint, nil
}

// Log walks history from the resolved HEAD back to the root commit,
// newest first. A repository with no commits yields a NoCommits error.
// When the chain breaks (a parent object is missing, or the chain loops)
// the commits read so far are returned together with a Corrupted error,
// so callers can show the partial history and still report the damage.
func (r *Repository) Log() ([]*object.Commit, error) {
	tip, err := r.refs.ResolveHead()
	if err != nil {
		return nil, err
	}
	if tip == "" {
		return nil, errors.NoCommits()
	}

	var commits []*object.Commit
	seen := make(map[string]bool)

	for cur := tip; cur != ""; {
		if seen[cur] {
			return commits, errors.Corrupted(
				fmt.Sprintf("commit history loops back to %s", cur), nil)
		}
		seen[cur] = true

		c, err := r.objects.Get(cur)
		if err != nil {
			if errors.IsKind(err, errors.ErrorTypeNotFound) {
				return commits, errors.Corrupted(
					fmt.Sprintf("history is truncated: object %s is missing", cur), nil)
			}
			return commits, err
		}
		commits = append(commits, c)
		cur = c.Parent
	}
	return commits, nil
}
