package flow_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/temirov/gitflow/internal/flowconfig"
	"github.com/temirov/gitflow/internal/gitrepo"
)

const (
	operationCreateConstant   = "create"
	operationCheckoutConstant = "checkout"
	operationMergeConstant    = "merge"
	operationRebaseConstant   = "rebase"
	operationDeleteConstant   = "delete"
	operationTagConstant      = "tag"
)

func testCommit(seed string, parents ...gitrepo.Commit) gitrepo.Commit {
	parentHashes := make([]plumbing.Hash, 0, len(parents))
	for _, parent := range parents {
		parentHashes = append(parentHashes, parent.Hash)
	}
	return gitrepo.Commit{
		Hash:         plumbing.ComputeHash(plumbing.CommitObject, []byte(seed)),
		ParentHashes: parentHashes,
	}
}

type stubEngine struct {
	mutex          sync.Mutex
	branches       map[string]gitrepo.Commit
	commits        map[string]gitrepo.Commit
	currentBranch  string
	operations     []string
	lookupCount    int
	failures       map[string]error
	mergeCounter   int
	rebasedCommits map[string]gitrepo.Commit
	tags           map[string]stubTag
}

type stubTag struct {
	target  gitrepo.Commit
	message string
}

func newStubEngine(branches map[string]gitrepo.Commit) *stubEngine {
	copiedBranches := map[string]gitrepo.Commit{}
	for branchName, head := range branches {
		copiedBranches[branchName] = head
	}
	return &stubEngine{
		branches:       copiedBranches,
		commits:        map[string]gitrepo.Commit{},
		failures:       map[string]error{},
		rebasedCommits: map[string]gitrepo.Commit{},
		tags:           map[string]stubTag{},
	}
}

func (engine *stubEngine) LookupBranch(_ context.Context, _ *gitrepo.Repository, branchName string) (gitrepo.Branch, error) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.lookupCount++

	head, exists := engine.branches[branchName]
	if !exists {
		return gitrepo.Branch{}, gitrepo.BranchNotFoundError{BranchName: branchName}
	}
	return gitrepo.Branch{Name: branchName, Head: head}, nil
}

func (engine *stubEngine) LookupCommit(_ context.Context, _ *gitrepo.Repository, revision string) (gitrepo.Commit, error) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.lookupCount++

	commit, exists := engine.commits[revision]
	if !exists {
		return gitrepo.Commit{}, gitrepo.CommitNotFoundError{Revision: revision}
	}
	return commit, nil
}

func (engine *stubEngine) CreateBranch(_ context.Context, _ *gitrepo.Repository, branchName string, base gitrepo.Commit) (gitrepo.Branch, error) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	if _, exists := engine.branches[branchName]; exists {
		return gitrepo.Branch{}, gitrepo.BranchAlreadyExistsError{BranchName: branchName}
	}
	if failure := engine.failures[operationCreateConstant]; failure != nil {
		return gitrepo.Branch{}, failure
	}
	engine.record(operationCreateConstant, branchName, base.ShortID())
	engine.branches[branchName] = base
	return gitrepo.Branch{Name: branchName, Head: base}, nil
}

func (engine *stubEngine) CheckoutBranch(_ context.Context, _ *gitrepo.Repository, branchName string) error {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	if failure := engine.failures[operationCheckoutConstant]; failure != nil {
		return failure
	}
	engine.record(operationCheckoutConstant, branchName)
	engine.currentBranch = branchName
	return nil
}

func (engine *stubEngine) MergeBranches(_ context.Context, _ *gitrepo.Repository, target gitrepo.Branch, source gitrepo.Branch, message string) (gitrepo.Commit, error) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	if failure := engine.failures[operationMergeConstant]; failure != nil {
		return gitrepo.Commit{}, failure
	}
	engine.record(operationMergeConstant, target.Name, source.Name)
	engine.mergeCounter++
	mergeCommit := testCommit(fmt.Sprintf("merge-%d-%s", engine.mergeCounter, message), target.Head, source.Head)
	engine.branches[target.Name] = mergeCommit
	engine.currentBranch = target.Name
	return mergeCommit, nil
}

func (engine *stubEngine) RebaseBranches(_ context.Context, _ *gitrepo.Repository, onto gitrepo.Branch, branch gitrepo.Branch) (gitrepo.Commit, error) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	if failure := engine.failures[operationRebaseConstant]; failure != nil {
		return gitrepo.Commit{}, failure
	}
	engine.record(operationRebaseConstant, onto.Name, branch.Name)
	rebasedCommit := testCommit("rebased-"+branch.Name+"-onto-"+onto.Name, onto.Head)
	engine.rebasedCommits[branch.Name] = rebasedCommit
	engine.branches[branch.Name] = rebasedCommit
	engine.branches[onto.Name] = rebasedCommit
	engine.currentBranch = onto.Name
	return rebasedCommit, nil
}

func (engine *stubEngine) DeleteBranch(_ context.Context, _ *gitrepo.Repository, branch gitrepo.Branch) error {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	if failure := engine.failures[operationDeleteConstant]; failure != nil {
		return failure
	}
	engine.record(operationDeleteConstant, branch.Name)
	delete(engine.branches, branch.Name)
	return nil
}

func (engine *stubEngine) CreateTag(_ context.Context, _ *gitrepo.Repository, tagName string, target gitrepo.Commit, message string) error {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	if failure := engine.failures[operationTagConstant]; failure != nil {
		return failure
	}
	engine.record(operationTagConstant, tagName, target.ShortID())
	engine.tags[tagName] = stubTag{target: target, message: message}
	return nil
}

func (engine *stubEngine) record(operation string, values ...string) {
	entry := operation
	for _, value := range values {
		entry += " " + value
	}
	engine.operations = append(engine.operations, entry)
}

func (engine *stubEngine) recordedOperations() []string {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	return append([]string{}, engine.operations...)
}

type stubConfigurationProvider struct {
	mutex        sync.Mutex
	flowConfig   flowconfig.FlowConfig
	resolveError error
	initialized  bool
	resolveCount int
	written      []flowconfig.FlowConfig
}

func newStubConfigurationProvider() *stubConfigurationProvider {
	return &stubConfigurationProvider{flowConfig: flowconfig.DefaultFlowConfig()}
}

func (provider *stubConfigurationProvider) Resolve(context.Context, flowconfig.ConfigurationStore) (flowconfig.FlowConfig, error) {
	provider.mutex.Lock()
	defer provider.mutex.Unlock()
	provider.resolveCount++
	if provider.resolveError != nil {
		return flowconfig.FlowConfig{}, provider.resolveError
	}
	return provider.flowConfig, nil
}

func (provider *stubConfigurationProvider) IsInitialized(context.Context, flowconfig.ConfigurationStore) (bool, error) {
	provider.mutex.Lock()
	defer provider.mutex.Unlock()
	return provider.initialized, nil
}

func (provider *stubConfigurationProvider) Write(_ context.Context, _ flowconfig.ConfigurationStore, flowConfig flowconfig.FlowConfig) error {
	provider.mutex.Lock()
	defer provider.mutex.Unlock()
	provider.written = append(provider.written, flowConfig)
	provider.flowConfig = flowConfig
	provider.initialized = true
	return nil
}

func (provider *stubConfigurationProvider) setFlowConfig(flowConfig flowconfig.FlowConfig) {
	provider.mutex.Lock()
	defer provider.mutex.Unlock()
	provider.flowConfig = flowConfig
}
