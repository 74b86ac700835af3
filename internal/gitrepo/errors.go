package gitrepo

import (
	"errors"
	"fmt"
	"strings"
)

const (
	branchNotFoundMessageConstant       = "branch not found"
	commitNotFoundMessageConstant       = "commit not found"
	branchAlreadyExistsMessageConstant  = "branch already exists"
	dirtyWorkingTreeMessageConstant     = "working tree has uncommitted changes"
	mergeConflictMessageConstant        = "merge conflict"
	rebaseConflictMessageConstant       = "rebase conflict"
	branchNotFoundTemplateConstant      = "local branch %q does not exist"
	commitNotFoundTemplateConstant      = "commit %q does not exist"
	branchAlreadyExistsTemplateConstant = "branch %q already exists"
	dirtyWorkingTreeTemplateConstant    = "checking out %q would overwrite uncommitted changes"
	mergeConflictTemplateConstant       = "merging %q into %q stopped on conflicts"
	mergeConflictPathsTemplateConstant  = "merging %q into %q stopped on conflicts in %s"
	rebaseConflictTemplateConstant      = "rebasing %q onto %q stopped on conflicts"
	conflictingPathsSeparatorConstant   = ", "
)

var (
	// ErrBranchNotFound matches every BranchNotFoundError.
	ErrBranchNotFound = errors.New(branchNotFoundMessageConstant)

	// ErrCommitNotFound matches every CommitNotFoundError.
	ErrCommitNotFound = errors.New(commitNotFoundMessageConstant)

	// ErrBranchAlreadyExists matches every BranchAlreadyExistsError.
	ErrBranchAlreadyExists = errors.New(branchAlreadyExistsMessageConstant)

	// ErrDirtyWorkingTree matches every DirtyWorkingTreeError.
	ErrDirtyWorkingTree = errors.New(dirtyWorkingTreeMessageConstant)

	// ErrMergeConflict matches every MergeConflictError.
	ErrMergeConflict = errors.New(mergeConflictMessageConstant)

	// ErrRebaseConflict matches every RebaseConflictError.
	ErrRebaseConflict = errors.New(rebaseConflictMessageConstant)
)

// BranchNotFoundError reports a missing local branch.
type BranchNotFoundError struct {
	BranchName string
}

// Error describes the missing branch.
func (lookupError BranchNotFoundError) Error() string {
	return fmt.Sprintf(branchNotFoundTemplateConstant, lookupError.BranchName)
}

// Is reports whether target is ErrBranchNotFound.
func (lookupError BranchNotFoundError) Is(target error) bool {
	return target == ErrBranchNotFound
}

// CommitNotFoundError reports a revision that does not resolve to a commit.
type CommitNotFoundError struct {
	Revision string
}

// Error describes the missing commit.
func (lookupError CommitNotFoundError) Error() string {
	return fmt.Sprintf(commitNotFoundTemplateConstant, lookupError.Revision)
}

// Is reports whether target is ErrCommitNotFound.
func (lookupError CommitNotFoundError) Is(target error) bool {
	return target == ErrCommitNotFound
}

// BranchAlreadyExistsError reports an attempt to create a branch whose name is taken.
type BranchAlreadyExistsError struct {
	BranchName string
}

// Error describes the name collision.
func (creationError BranchAlreadyExistsError) Error() string {
	return fmt.Sprintf(branchAlreadyExistsTemplateConstant, creationError.BranchName)
}

// Is reports whether target is ErrBranchAlreadyExists.
func (creationError BranchAlreadyExistsError) Is(target error) bool {
	return target == ErrBranchAlreadyExists
}

// DirtyWorkingTreeError reports a checkout refused because local changes would be lost.
type DirtyWorkingTreeError struct {
	BranchName string
	Cause      error
}

// Error describes the refused checkout.
func (checkoutError DirtyWorkingTreeError) Error() string {
	return fmt.Sprintf(dirtyWorkingTreeTemplateConstant, checkoutError.BranchName)
}

// Is reports whether target is ErrDirtyWorkingTree.
func (checkoutError DirtyWorkingTreeError) Is(target error) bool {
	return target == ErrDirtyWorkingTree
}

// Unwrap exposes the git failure.
func (checkoutError DirtyWorkingTreeError) Unwrap() error {
	return checkoutError.Cause
}

// MergeConflictError reports a merge left in progress with unmerged paths.
type MergeConflictError struct {
	TargetBranch     string
	SourceBranch     string
	ConflictingPaths []string
	Cause            error
}

// Error describes the conflicted merge.
func (conflictError MergeConflictError) Error() string {
	if len(conflictError.ConflictingPaths) == 0 {
		return fmt.Sprintf(mergeConflictTemplateConstant, conflictError.SourceBranch, conflictError.TargetBranch)
	}
	return fmt.Sprintf(mergeConflictPathsTemplateConstant, conflictError.SourceBranch, conflictError.TargetBranch, strings.Join(conflictError.ConflictingPaths, conflictingPathsSeparatorConstant))
}

// Is reports whether target is ErrMergeConflict.
func (conflictError MergeConflictError) Is(target error) bool {
	return target == ErrMergeConflict
}

// Unwrap exposes the git failure.
func (conflictError MergeConflictError) Unwrap() error {
	return conflictError.Cause
}

// RebaseConflictError reports a rebase left in progress.
type RebaseConflictError struct {
	BranchName string
	OntoBranch string
	Cause      error
}

// Error describes the conflicted rebase.
func (conflictError RebaseConflictError) Error() string {
	return fmt.Sprintf(rebaseConflictTemplateConstant, conflictError.BranchName, conflictError.OntoBranch)
}

// Is reports whether target is ErrRebaseConflict.
func (conflictError RebaseConflictError) Is(target error) bool {
	return target == ErrRebaseConflict
}

// Unwrap exposes the git failure.
func (conflictError RebaseConflictError) Unwrap() error {
	return conflictError.Cause
}
