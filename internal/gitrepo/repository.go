package gitrepo

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	repositoryPathRequiredMessageConstant      = "repository path must be provided"
	repositoryResolvePathErrorTemplateConstant = "unable to resolve repository path %q: %w"
	repositoryOpenErrorTemplateConstant        = "unable to open repository at %s: %w"
	repositoryWorktreeErrorTemplateConstant    = "repository at %s has no working tree: %w"
	repositoryConfigReadErrorTemplateConstant  = "unable to read repository configuration: %w"
	repositoryConfigWriteErrorTemplateConstant = "unable to write repository configuration: %w"
	commitShortHashLengthConstant              = 7
)

// ErrRepositoryPathRequired indicates an empty repository path was supplied.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// Repository is an open, non-bare git repository. Reads through the handle are
// serialized; go-git object storage is not safe for concurrent use.
type Repository struct {
	access       sync.Mutex
	storage      *git.Repository
	worktreePath string
}

// Commit identifies a commit by content hash.
type Commit struct {
	Hash         plumbing.Hash
	ParentHashes []plumbing.Hash
}

// ID returns the hexadecimal commit hash.
func (commit Commit) ID() string {
	return commit.Hash.String()
}

// ShortID returns the abbreviated commit hash.
func (commit Commit) ShortID() string {
	return commit.ID()[:commitShortHashLengthConstant]
}

// Equal reports whether both commits share the same hash.
func (commit Commit) Equal(other Commit) bool {
	return commit.Hash == other.Hash
}

// Branch is a local branch and the commit at its tip.
type Branch struct {
	Name string
	Head Commit
}

// Open locates the repository containing repositoryPath.
func Open(repositoryPath string) (*Repository, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return nil, ErrRepositoryPathRequired
	}

	absolutePath, absolutePathError := filepath.Abs(trimmedRepositoryPath)
	if absolutePathError != nil {
		return nil, fmt.Errorf(repositoryResolvePathErrorTemplateConstant, trimmedRepositoryPath, absolutePathError)
	}

	storage, openError := git.PlainOpenWithOptions(absolutePath, &git.PlainOpenOptions{DetectDotGit: true})
	if openError != nil {
		return nil, fmt.Errorf(repositoryOpenErrorTemplateConstant, absolutePath, openError)
	}

	worktree, worktreeError := storage.Worktree()
	if worktreeError != nil {
		return nil, fmt.Errorf(repositoryWorktreeErrorTemplateConstant, absolutePath, worktreeError)
	}

	return &Repository{storage: storage, worktreePath: worktree.Filesystem.Root()}, nil
}

// Path returns the root of the working tree.
func (repository *Repository) Path() string {
	return repository.worktreePath
}

// ReadConfig loads the repository-local git configuration from disk.
func (repository *Repository) ReadConfig() (*config.Config, error) {
	repository.access.Lock()
	defer repository.access.Unlock()

	repositoryConfig, readError := repository.storage.Config()
	if readError != nil {
		return nil, fmt.Errorf(repositoryConfigReadErrorTemplateConstant, readError)
	}
	return repositoryConfig, nil
}

// WriteConfig persists the repository-local git configuration.
func (repository *Repository) WriteConfig(repositoryConfig *config.Config) error {
	repository.access.Lock()
	defer repository.access.Unlock()

	if writeError := repository.storage.SetConfig(repositoryConfig); writeError != nil {
		return fmt.Errorf(repositoryConfigWriteErrorTemplateConstant, writeError)
	}
	return nil
}

func (repository *Repository) withStorage(operation func(storage *git.Repository) error) error {
	repository.access.Lock()
	defer repository.access.Unlock()
	return operation(repository.storage)
}

func newCommit(commitObject *object.Commit) Commit {
	parentHashes := make([]plumbing.Hash, len(commitObject.ParentHashes))
	copy(parentHashes, commitObject.ParentHashes)
	return Commit{Hash: commitObject.Hash, ParentHashes: parentHashes}
}
