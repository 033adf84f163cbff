package repo

import (
	"fmt"

	"go.uber.org/zap"

	"delta/internal/errors"
	"delta/internal/refs"
)

// CreateBranch points a new branch at the current resolved HEAD. An
// existing branch of the same name, or a repository with no commit to base
// the branch on, is reported and leaves the references untouched. Only the
// name check is a hard failure.
func (r *Repository) CreateBranch(name string) error {
	if err := refs.ValidateName(name); err != nil {
		return err
	}
	if r.refs.BranchExists(name) {
		r.notice("Branch '%s' already exists.", name)
		return nil
	}

	tip, err := r.refs.ResolveHead()
	if err != nil {
		return err
	}
	if tip == "" {
		r.notice("No commits to base the new branch on. Create a commit first.")
		return nil
	}

	if err := r.refs.SetBranchTip(name, tip); err != nil {
		return err
	}
	r.logger.Info("branch created", zap.String("branch", name), zap.String("tip", tip))
	r.notice("Created branch '%s'.", name)
	return nil
}

// DeleteBranch removes a branch pointer. Deleting the checked-out branch
// or a branch that does not exist is reported, not raised.
func (r *Repository) DeleteBranch(name string) error {
	if err := refs.ValidateName(name); err != nil {
		return err
	}

	current, err := r.refs.CurrentBranch()
	if err != nil {
		return err
	}
	if name == current {
		r.notice("Cannot delete the current branch. Switch to another branch first.")
		return nil
	}
	if !r.refs.BranchExists(name) {
		r.notice("Branch '%s' does not exist.", name)
		return nil
	}

	if err := r.refs.Delete(name); err != nil {
		return err
	}
	r.logger.Info("branch deleted", zap.String("branch", name))
	r.notice("Deleted branch '%s'.", name)
	return nil
}

// Branches lists all branch pointers sorted by name, the checked-out one
// flagged as current.
func (r *Repository) Branches() ([]refs.Branch, error) {
	return r.refs.List()
}

// Checkout rewrites HEAD to a symbolic reference to the branch. Only the
// pointer moves; no working-tree files are materialized. Switching to a
// branch that does not exist is a hard failure, unlike deleting one.
func (r *Repository) Checkout(name string) error {
	if err := refs.ValidateName(name); err != nil {
		return err
	}
	if !r.refs.BranchExists(name) {
		return errors.NotFound(fmt.Sprintf("branch %q does not exist", name))
	}

	if err := r.refs.SetHead(name); err != nil {
		return err
	}
	r.logger.Info("switched branch", zap.String("branch", name))
	r.notice("Switched to branch '%s'.", name)
	return nil
}
