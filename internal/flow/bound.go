package flow

import (
	"context"

	"github.com/temirov/gitflow/internal/gitrepo"
)

// Flow binds an orchestrator to one repository. It holds no configuration of its
// own; every call resolves settings afresh.
type Flow struct {
	orchestrator *Orchestrator
	repository   *gitrepo.Repository
}

// Bind returns a Flow forwarding every operation to repository.
func (orchestrator *Orchestrator) Bind(repository *gitrepo.Repository) *Flow {
	return &Flow{orchestrator: orchestrator, repository: repository}
}

// Repository returns the bound repository.
func (flow *Flow) Repository() *gitrepo.Repository {
	return flow.repository
}

// StartFeature starts a feature branch in the bound repository.
func (flow *Flow) StartFeature(executionContext context.Context, name string, options StartOptions) (gitrepo.Branch, error) {
	return flow.orchestrator.StartFeature(executionContext, flow.repository, name, options)
}

// FinishFeature finishes a feature branch in the bound repository.
func (flow *Flow) FinishFeature(executionContext context.Context, name string, options FinishOptions) (*gitrepo.Commit, error) {
	return flow.orchestrator.FinishFeature(executionContext, flow.repository, name, options)
}

// StartRelease starts a release branch in the bound repository.
func (flow *Flow) StartRelease(executionContext context.Context, name string, options StartOptions) (gitrepo.Branch, error) {
	return flow.orchestrator.StartRelease(executionContext, flow.repository, name, options)
}

// FinishRelease finishes a release branch in the bound repository.
func (flow *Flow) FinishRelease(executionContext context.Context, name string, options FinishOptions) (*gitrepo.Commit, error) {
	return flow.orchestrator.FinishRelease(executionContext, flow.repository, name, options)
}

// StartHotfix starts a hotfix branch in the bound repository.
func (flow *Flow) StartHotfix(executionContext context.Context, name string, options StartOptions) (gitrepo.Branch, error) {
	return flow.orchestrator.StartHotfix(executionContext, flow.repository, name, options)
}

// FinishHotfix finishes a hotfix branch in the bound repository.
func (flow *Flow) FinishHotfix(executionContext context.Context, name string, options FinishOptions) (*gitrepo.Commit, error) {
	return flow.orchestrator.FinishHotfix(executionContext, flow.repository, name, options)
}
