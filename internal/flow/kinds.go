package flow

import (
	"context"

	"github.com/temirov/gitflow/internal/gitrepo"
)

// StartFeature starts a feature branch from develop.
func (orchestrator *Orchestrator) StartFeature(executionContext context.Context, repository *gitrepo.Repository, name string, options StartOptions) (gitrepo.Branch, error) {
	return orchestrator.StartSupportBranch(executionContext, repository, KindFeature, name, options)
}

// FinishFeature integrates a feature branch into develop.
func (orchestrator *Orchestrator) FinishFeature(executionContext context.Context, repository *gitrepo.Repository, name string, options FinishOptions) (*gitrepo.Commit, error) {
	return orchestrator.FinishSupportBranch(executionContext, repository, KindFeature, name, options)
}

// StartRelease starts a release branch from develop.
func (orchestrator *Orchestrator) StartRelease(executionContext context.Context, repository *gitrepo.Repository, name string, options StartOptions) (gitrepo.Branch, error) {
	return orchestrator.StartSupportBranch(executionContext, repository, KindRelease, name, options)
}

// FinishRelease merges a release branch into production and develop and tags it.
func (orchestrator *Orchestrator) FinishRelease(executionContext context.Context, repository *gitrepo.Repository, name string, options FinishOptions) (*gitrepo.Commit, error) {
	return orchestrator.FinishSupportBranch(executionContext, repository, KindRelease, name, options)
}

// StartHotfix starts a hotfix branch from production.
func (orchestrator *Orchestrator) StartHotfix(executionContext context.Context, repository *gitrepo.Repository, name string, options StartOptions) (gitrepo.Branch, error) {
	return orchestrator.StartSupportBranch(executionContext, repository, KindHotfix, name, options)
}

// FinishHotfix merges a hotfix branch into production and develop and tags it.
func (orchestrator *Orchestrator) FinishHotfix(executionContext context.Context, repository *gitrepo.Repository, name string, options FinishOptions) (*gitrepo.Commit, error) {
	return orchestrator.FinishSupportBranch(executionContext, repository, KindHotfix, name, options)
}
