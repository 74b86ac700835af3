// Package flow implements the git-flow support branch lifecycle.
//
// An Orchestrator starts feature, release and hotfix branches from their source
// branch and finishes them by merging or rebasing into the integration branches,
// tagging releases and hotfixes on the production branch. Repository primitives
// are delegated to a GitEngine and settings are re-read from a
// ConfigurationProvider on every call. CommandBuilder exposes the lifecycle as
// Cobra commands.
package flow
