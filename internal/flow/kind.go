package flow

import (
	"github.com/temirov/gitflow/internal/flowconfig"
)

const (
	kindFeatureNameConstant = "feature"
	kindReleaseNameConstant = "release"
	kindHotfixNameConstant  = "hotfix"
)

// Kind enumerates the support branch variants.
type Kind int

// Supported support branch kinds.
const (
	KindFeature Kind = iota
	KindRelease
	KindHotfix
)

// Kinds lists every supported kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindFeature, KindRelease, KindHotfix}
}

// String returns the lower-case kind name used on the command line.
func (kind Kind) String() string {
	switch kind {
	case KindFeature:
		return kindFeatureNameConstant
	case KindRelease:
		return kindReleaseNameConstant
	case KindHotfix:
		return kindHotfixNameConstant
	default:
		return ""
	}
}

func (kind Kind) valid() bool {
	return kind == KindFeature || kind == KindRelease || kind == KindHotfix
}

// Prefix returns the branch name prefix configured for the kind.
func (kind Kind) Prefix(flowConfig flowconfig.FlowConfig) string {
	switch kind {
	case KindRelease:
		return flowConfig.ReleasePrefix
	case KindHotfix:
		return flowConfig.HotfixPrefix
	default:
		return flowConfig.FeaturePrefix
	}
}

// SourceBranch returns the branch a new support branch starts from.
func (kind Kind) SourceBranch(flowConfig flowconfig.FlowConfig) string {
	if kind == KindHotfix {
		return flowConfig.ProductionBranch
	}
	return flowConfig.DevelopBranch
}

// TargetBranches returns the integration branches reconciled on finish, in order.
// The production branch always precedes develop.
func (kind Kind) TargetBranches(flowConfig flowconfig.FlowConfig) []string {
	if kind == KindFeature {
		return []string{flowConfig.DevelopBranch}
	}
	return []string{flowConfig.ProductionBranch, flowConfig.DevelopBranch}
}

// Tagged reports whether finishing the kind tags the production branch.
func (kind Kind) Tagged() bool {
	return kind == KindRelease || kind == KindHotfix
}
