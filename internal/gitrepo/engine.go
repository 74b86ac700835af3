package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"

	"github.com/temirov/gitflow/internal/execshell"
)

const (
	gitExecutorNotConfiguredMessageConstant  = "git executor not configured"
	repositoryRequiredMessageConstant        = "repository must be provided"
	detachedHeadMessageConstant              = "HEAD is not on a branch"
	branchLookupErrorTemplateConstant        = "unable to look up branch %q: %w"
	commitLookupErrorTemplateConstant        = "unable to look up commit %q: %w"
	headLookupErrorTemplateConstant          = "unable to read HEAD: %w"
	branchCreationErrorTemplateConstant      = "unable to create branch %q: %w"
	checkoutErrorTemplateConstant            = "unable to check out %q: %w"
	branchDeletionErrorTemplateConstant      = "unable to delete branch %q: %w"
	mergeErrorTemplateConstant               = "unable to merge %q into %q: %w"
	rebaseErrorTemplateConstant              = "unable to rebase %q onto %q: %w"
	fastForwardErrorTemplateConstant         = "unable to fast-forward %q to %q: %w"
	tagCreationErrorTemplateConstant         = "unable to create tag %q: %w"
	rebaseStateLookupErrorTemplateConstant   = "unable to inspect rebase state: %w"
	gitCheckoutSubcommandConstant            = "checkout"
	gitBranchSubcommandConstant              = "branch"
	gitMergeSubcommandConstant               = "merge"
	gitRebaseSubcommandConstant              = "rebase"
	gitTagSubcommandConstant                 = "tag"
	gitDiffSubcommandConstant                = "diff"
	gitRevParseSubcommandConstant            = "rev-parse"
	gitForceDeleteFlagConstant               = "-D"
	gitNoFastForwardFlagConstant             = "--no-ff"
	gitNoEditFlagConstant                    = "--no-edit"
	gitFastForwardOnlyFlagConstant           = "--ff-only"
	gitMessageFlagConstant                   = "-m"
	gitAnnotateFlagConstant                  = "-a"
	gitNameOnlyFlagConstant                  = "--name-only"
	gitUnmergedFilterFlagConstant            = "--diff-filter=U"
	gitGitPathFlagConstant                   = "--git-path"
	gitPathSeparatorArgumentConstant         = "--"
	gitRebaseMergeDirectoryConstant          = "rebase-merge"
	gitRebaseApplyDirectoryConstant          = "rebase-apply"
	gitTerminalPromptEnvironmentNameConstant = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValueConstant   = "0"
	gitEditorEnvironmentNameConstant         = "GIT_EDITOR"
	gitEditorNoopValueConstant               = "true"
	overwrittenChangesMarkerConstant         = "would be overwritten"
	alreadyExistsMarkerConstant              = "already exists"
	mergeConflictMarkerConstant              = "CONFLICT"
	branchNotFoundMarkerConstant             = "not found"
	pathspecMismatchMarkerConstant           = "did not match any"
	outputLineSeparatorConstant              = "\n"
	logFieldBranchConstant                   = "branch"
	logFieldTargetBranchConstant             = "target_branch"
	logFieldCommitConstant                   = "commit"
	logFieldTagConstant                      = "tag"
	branchCreatedMessageConstant             = "branch created"
	branchDeletedMessageConstant             = "branch deleted"
	branchesMergedMessageConstant            = "branches merged"
	branchRebasedMessageConstant             = "branch rebased"
	tagCreatedMessageConstant                = "tag created"
)

// ErrGitExecutorNotConfigured indicates the engine was constructed without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)

// ErrRepositoryRequired indicates a nil repository was supplied to the engine.
var ErrRepositoryRequired = errors.New(repositoryRequiredMessageConstant)

// ErrDetachedHead indicates HEAD does not point at a branch.
var ErrDetachedHead = errors.New(detachedHeadMessageConstant)

// GitExecutor exposes the ability to run git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Engine reads repository state through go-git and mutates it through the git executable.
type Engine struct {
	executor GitExecutor
	logger   *zap.Logger
}

// NewEngine constructs an Engine around the provided executor.
func NewEngine(executor GitExecutor, logger *zap.Logger) (*Engine, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{executor: executor, logger: logger}, nil
}

// LookupBranch resolves a local branch and its tip commit.
func (engine *Engine) LookupBranch(executionContext context.Context, repository *Repository, branchName string) (Branch, error) {
	if repository == nil {
		return Branch{}, ErrRepositoryRequired
	}

	var head Commit
	lookupError := repository.withStorage(func(storage *git.Repository) error {
		reference, referenceError := storage.Reference(plumbing.NewBranchReferenceName(branchName), true)
		if referenceError != nil {
			return referenceError
		}
		commitObject, commitError := storage.CommitObject(reference.Hash())
		if commitError != nil {
			return commitError
		}
		head = newCommit(commitObject)
		return nil
	})
	if lookupError != nil {
		if errors.Is(lookupError, plumbing.ErrReferenceNotFound) {
			return Branch{}, BranchNotFoundError{BranchName: branchName}
		}
		return Branch{}, fmt.Errorf(branchLookupErrorTemplateConstant, branchName, lookupError)
	}

	return Branch{Name: branchName, Head: head}, nil
}

// LookupCommit resolves a revision, typically a full or abbreviated hash, to a commit.
func (engine *Engine) LookupCommit(executionContext context.Context, repository *Repository, revision string) (Commit, error) {
	if repository == nil {
		return Commit{}, ErrRepositoryRequired
	}

	trimmedRevision := strings.TrimSpace(revision)
	if len(trimmedRevision) == 0 {
		return Commit{}, CommitNotFoundError{Revision: revision}
	}

	var commit Commit
	lookupError := repository.withStorage(func(storage *git.Repository) error {
		resolvedHash, resolveError := storage.ResolveRevision(plumbing.Revision(trimmedRevision))
		if resolveError != nil {
			return resolveError
		}
		commitObject, commitError := storage.CommitObject(*resolvedHash)
		if commitError != nil {
			return commitError
		}
		commit = newCommit(commitObject)
		return nil
	})
	if lookupError != nil {
		if isMissingObject(lookupError) {
			return Commit{}, CommitNotFoundError{Revision: trimmedRevision}
		}
		return Commit{}, fmt.Errorf(commitLookupErrorTemplateConstant, trimmedRevision, lookupError)
	}

	return commit, nil
}

// CurrentBranch returns the short name of the checked out branch.
func (engine *Engine) CurrentBranch(executionContext context.Context, repository *Repository) (string, error) {
	if repository == nil {
		return "", ErrRepositoryRequired
	}

	var headReference *plumbing.Reference
	headError := repository.withStorage(func(storage *git.Repository) error {
		reference, referenceError := storage.Head()
		headReference = reference
		return referenceError
	})
	if headError != nil {
		return "", fmt.Errorf(headLookupErrorTemplateConstant, headError)
	}
	if !headReference.Name().IsBranch() {
		return "", ErrDetachedHead
	}
	return headReference.Name().Short(), nil
}

// CreateBranch creates branchName at base without checking it out.
func (engine *Engine) CreateBranch(executionContext context.Context, repository *Repository, branchName string, base Commit) (Branch, error) {
	if repository == nil {
		return Branch{}, ErrRepositoryRequired
	}

	_, existingError := engine.LookupBranch(executionContext, repository, branchName)
	if existingError == nil {
		return Branch{}, BranchAlreadyExistsError{BranchName: branchName}
	}
	if !errors.Is(existingError, ErrBranchNotFound) {
		return Branch{}, fmt.Errorf(branchCreationErrorTemplateConstant, branchName, existingError)
	}

	_, executionError := engine.runGit(executionContext, repository, gitBranchSubcommandConstant, branchName, base.ID())
	if executionError != nil {
		if standardErrorContains(executionError, alreadyExistsMarkerConstant) {
			return Branch{}, BranchAlreadyExistsError{BranchName: branchName}
		}
		return Branch{}, fmt.Errorf(branchCreationErrorTemplateConstant, branchName, executionError)
	}

	engine.logger.Debug(branchCreatedMessageConstant, zap.String(logFieldBranchConstant, branchName), zap.String(logFieldCommitConstant, base.ID()))
	return Branch{Name: branchName, Head: base}, nil
}

// CheckoutBranch switches the working tree to branchName.
func (engine *Engine) CheckoutBranch(executionContext context.Context, repository *Repository, branchName string) error {
	if repository == nil {
		return ErrRepositoryRequired
	}

	_, executionError := engine.runGit(executionContext, repository, gitCheckoutSubcommandConstant, branchName, gitPathSeparatorArgumentConstant)
	if executionError == nil {
		return nil
	}

	switch {
	case standardErrorContains(executionError, overwrittenChangesMarkerConstant):
		return DirtyWorkingTreeError{BranchName: branchName, Cause: executionError}
	case standardErrorContains(executionError, pathspecMismatchMarkerConstant):
		return BranchNotFoundError{BranchName: branchName}
	default:
		return fmt.Errorf(checkoutErrorTemplateConstant, branchName, executionError)
	}
}

// DeleteBranch force-deletes the local branch.
func (engine *Engine) DeleteBranch(executionContext context.Context, repository *Repository, branch Branch) error {
	if repository == nil {
		return ErrRepositoryRequired
	}

	_, executionError := engine.runGit(executionContext, repository, gitBranchSubcommandConstant, gitForceDeleteFlagConstant, branch.Name)
	if executionError != nil {
		if standardErrorContains(executionError, branchNotFoundMarkerConstant) {
			return BranchNotFoundError{BranchName: branch.Name}
		}
		return fmt.Errorf(branchDeletionErrorTemplateConstant, branch.Name, executionError)
	}

	engine.logger.Debug(branchDeletedMessageConstant, zap.String(logFieldBranchConstant, branch.Name))
	return nil
}

// MergeBranches records a merge commit of source into target and leaves target checked out.
func (engine *Engine) MergeBranches(executionContext context.Context, repository *Repository, target Branch, source Branch, message string) (Commit, error) {
	if repository == nil {
		return Commit{}, ErrRepositoryRequired
	}

	if checkoutError := engine.CheckoutBranch(executionContext, repository, target.Name); checkoutError != nil {
		return Commit{}, checkoutError
	}

	_, mergeError := engine.runGit(executionContext, repository, gitMergeSubcommandConstant, gitNoFastForwardFlagConstant, gitNoEditFlagConstant, gitMessageFlagConstant, message, source.Name)
	if mergeError != nil {
		if standardErrorContains(mergeError, overwrittenChangesMarkerConstant) {
			return Commit{}, DirtyWorkingTreeError{BranchName: target.Name, Cause: mergeError}
		}
		conflictingPaths := engine.listConflictingPaths(executionContext, repository)
		if len(conflictingPaths) > 0 || outputContains(mergeError, mergeConflictMarkerConstant) {
			return Commit{}, MergeConflictError{
				TargetBranch:     target.Name,
				SourceBranch:     source.Name,
				ConflictingPaths: conflictingPaths,
				Cause:            mergeError,
			}
		}
		return Commit{}, fmt.Errorf(mergeErrorTemplateConstant, source.Name, target.Name, mergeError)
	}

	mergedBranch, lookupError := engine.LookupBranch(executionContext, repository, target.Name)
	if lookupError != nil {
		return Commit{}, lookupError
	}

	engine.logger.Debug(branchesMergedMessageConstant,
		zap.String(logFieldBranchConstant, source.Name),
		zap.String(logFieldTargetBranchConstant, target.Name),
		zap.String(logFieldCommitConstant, mergedBranch.Head.ID()),
	)
	return mergedBranch.Head, nil
}

// RebaseBranches replays branch onto onto, then fast-forwards onto to the rebased tip.
// The repository is left on onto.
func (engine *Engine) RebaseBranches(executionContext context.Context, repository *Repository, onto Branch, branch Branch) (Commit, error) {
	if repository == nil {
		return Commit{}, ErrRepositoryRequired
	}

	_, rebaseError := engine.runGit(executionContext, repository, gitRebaseSubcommandConstant, onto.Name, branch.Name)
	if rebaseError != nil {
		if standardErrorContains(rebaseError, overwrittenChangesMarkerConstant) {
			return Commit{}, DirtyWorkingTreeError{BranchName: branch.Name, Cause: rebaseError}
		}
		rebaseInProgress, stateError := engine.rebaseInProgress(executionContext, repository)
		if stateError != nil {
			return Commit{}, fmt.Errorf(rebaseStateLookupErrorTemplateConstant, stateError)
		}
		if rebaseInProgress {
			return Commit{}, RebaseConflictError{BranchName: branch.Name, OntoBranch: onto.Name, Cause: rebaseError}
		}
		return Commit{}, fmt.Errorf(rebaseErrorTemplateConstant, branch.Name, onto.Name, rebaseError)
	}

	if checkoutError := engine.CheckoutBranch(executionContext, repository, onto.Name); checkoutError != nil {
		return Commit{}, checkoutError
	}

	_, fastForwardError := engine.runGit(executionContext, repository, gitMergeSubcommandConstant, gitFastForwardOnlyFlagConstant, branch.Name)
	if fastForwardError != nil {
		return Commit{}, fmt.Errorf(fastForwardErrorTemplateConstant, onto.Name, branch.Name, fastForwardError)
	}

	rebasedBranch, lookupError := engine.LookupBranch(executionContext, repository, onto.Name)
	if lookupError != nil {
		return Commit{}, lookupError
	}

	engine.logger.Debug(branchRebasedMessageConstant,
		zap.String(logFieldBranchConstant, branch.Name),
		zap.String(logFieldTargetBranchConstant, onto.Name),
		zap.String(logFieldCommitConstant, rebasedBranch.Head.ID()),
	)
	return rebasedBranch.Head, nil
}

// CreateTag creates a tag at target; a non-empty message produces an annotated tag.
func (engine *Engine) CreateTag(executionContext context.Context, repository *Repository, tagName string, target Commit, message string) error {
	if repository == nil {
		return ErrRepositoryRequired
	}

	arguments := []string{gitTagSubcommandConstant}
	if len(strings.TrimSpace(message)) > 0 {
		arguments = append(arguments, gitAnnotateFlagConstant, tagName, gitMessageFlagConstant, message, target.ID())
	} else {
		arguments = append(arguments, tagName, target.ID())
	}

	if _, executionError := engine.runGit(executionContext, repository, arguments...); executionError != nil {
		return fmt.Errorf(tagCreationErrorTemplateConstant, tagName, executionError)
	}

	engine.logger.Debug(tagCreatedMessageConstant, zap.String(logFieldTagConstant, tagName), zap.String(logFieldCommitConstant, target.ID()))
	return nil
}

func (engine *Engine) listConflictingPaths(executionContext context.Context, repository *Repository) []string {
	executionResult, executionError := engine.runGit(executionContext, repository, gitDiffSubcommandConstant, gitNameOnlyFlagConstant, gitUnmergedFilterFlagConstant)
	if executionError != nil {
		return nil
	}

	conflictingPaths := []string{}
	for _, line := range strings.Split(executionResult.StandardOutput, outputLineSeparatorConstant) {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) > 0 {
			conflictingPaths = append(conflictingPaths, trimmedLine)
		}
	}
	return conflictingPaths
}

func (engine *Engine) rebaseInProgress(executionContext context.Context, repository *Repository) (bool, error) {
	for _, stateDirectory := range []string{gitRebaseMergeDirectoryConstant, gitRebaseApplyDirectoryConstant} {
		executionResult, executionError := engine.runGit(executionContext, repository, gitRevParseSubcommandConstant, gitGitPathFlagConstant, stateDirectory)
		if executionError != nil {
			return false, executionError
		}

		statePath := strings.TrimSpace(executionResult.StandardOutput)
		if len(statePath) == 0 {
			continue
		}
		if !filepath.IsAbs(statePath) {
			statePath = filepath.Join(repository.Path(), statePath)
		}
		if _, statError := os.Stat(statePath); statError == nil {
			return true, nil
		}
	}
	return false, nil
}

func (engine *Engine) runGit(executionContext context.Context, repository *Repository, arguments ...string) (execshell.ExecutionResult, error) {
	environmentVariables := execshell.NeutralLocaleEnvironment()
	environmentVariables[gitTerminalPromptEnvironmentNameConstant] = gitTerminalPromptDisabledValueConstant
	environmentVariables[gitEditorEnvironmentNameConstant] = gitEditorNoopValueConstant

	return engine.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     repository.Path(),
		EnvironmentVariables: environmentVariables,
	})
}

// isMissingObject also accepts io.EOF, which go-git returns when an ancestry
// suffix such as HEAD~5 walks past the root commit.
func isMissingObject(lookupError error) bool {
	return errors.Is(lookupError, plumbing.ErrReferenceNotFound) ||
		errors.Is(lookupError, plumbing.ErrObjectNotFound) ||
		errors.Is(lookupError, io.EOF)
}

func standardErrorContains(executionError error, marker string) bool {
	var commandFailure execshell.CommandFailedError
	if !errors.As(executionError, &commandFailure) {
		return false
	}
	return strings.Contains(commandFailure.Result.StandardError, marker)
}

func outputContains(executionError error, marker string) bool {
	var commandFailure execshell.CommandFailedError
	if !errors.As(executionError, &commandFailure) {
		return false
	}
	return strings.Contains(commandFailure.Result.StandardOutput, marker) || strings.Contains(commandFailure.Result.StandardError, marker)
}
