package flow

import (
	"strings"

	"github.com/temirov/gitflow/internal/flowconfig"
)

const (
	configurationKeySeparatorConstant        = "."
	repositoryPathConfigurationKeyConstant   = "repository"
	featurePrefixConfigurationKeyConstant    = "feature_prefix"
	releasePrefixConfigurationKeyConstant    = "release_prefix"
	hotfixPrefixConfigurationKeyConstant     = "hotfix_prefix"
	versionTagPrefixConfigurationKeyConstant = "version_tag_prefix"
	developBranchConfigurationKeyConstant    = "develop_branch"
	productionBranchConfigurationKeyConstant = "production_branch"
)

// CommandConfiguration captures application-level defaults for the flow commands.
// Repository git configuration always takes precedence over these values.
type CommandConfiguration struct {
	RepositoryPath   string `mapstructure:"repository"`
	FeaturePrefix    string `mapstructure:"feature_prefix"`
	ReleasePrefix    string `mapstructure:"release_prefix"`
	HotfixPrefix     string `mapstructure:"hotfix_prefix"`
	VersionTagPrefix string `mapstructure:"version_tag_prefix"`
	DevelopBranch    string `mapstructure:"develop_branch"`
	ProductionBranch string `mapstructure:"production_branch"`
}

// DefaultCommandConfiguration mirrors flowconfig.DefaultFlowConfig.
func DefaultCommandConfiguration() CommandConfiguration {
	defaults := flowconfig.DefaultFlowConfig()
	return CommandConfiguration{
		FeaturePrefix:    defaults.FeaturePrefix,
		ReleasePrefix:    defaults.ReleasePrefix,
		HotfixPrefix:     defaults.HotfixPrefix,
		VersionTagPrefix: defaults.VersionTagPrefix,
		DevelopBranch:    defaults.DevelopBranch,
		ProductionBranch: defaults.ProductionBranch,
	}
}

// DefaultConfigurationValues returns viper defaults keyed under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + configurationKeySeparatorConstant + repositoryPathConfigurationKeyConstant:   defaults.RepositoryPath,
		prefix + configurationKeySeparatorConstant + featurePrefixConfigurationKeyConstant:    defaults.FeaturePrefix,
		prefix + configurationKeySeparatorConstant + releasePrefixConfigurationKeyConstant:    defaults.ReleasePrefix,
		prefix + configurationKeySeparatorConstant + hotfixPrefixConfigurationKeyConstant:     defaults.HotfixPrefix,
		prefix + configurationKeySeparatorConstant + versionTagPrefixConfigurationKeyConstant: defaults.VersionTagPrefix,
		prefix + configurationKeySeparatorConstant + developBranchConfigurationKeyConstant:    defaults.DevelopBranch,
		prefix + configurationKeySeparatorConstant + productionBranchConfigurationKeyConstant: defaults.ProductionBranch,
	}
}

// Sanitize trims values and restores defaults for blank branch names.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := CommandConfiguration{
		RepositoryPath:   strings.TrimSpace(configuration.RepositoryPath),
		FeaturePrefix:    strings.TrimSpace(configuration.FeaturePrefix),
		ReleasePrefix:    strings.TrimSpace(configuration.ReleasePrefix),
		HotfixPrefix:     strings.TrimSpace(configuration.HotfixPrefix),
		VersionTagPrefix: strings.TrimSpace(configuration.VersionTagPrefix),
		DevelopBranch:    strings.TrimSpace(configuration.DevelopBranch),
		ProductionBranch: strings.TrimSpace(configuration.ProductionBranch),
	}
	if len(sanitized.DevelopBranch) == 0 {
		sanitized.DevelopBranch = defaults.DevelopBranch
	}
	if len(sanitized.ProductionBranch) == 0 {
		sanitized.ProductionBranch = defaults.ProductionBranch
	}
	return sanitized
}

// FlowDefaults converts the configuration into the defaults used by flowconfig.Provider.
func (configuration CommandConfiguration) FlowDefaults() flowconfig.FlowConfig {
	return flowconfig.FlowConfig{
		FeaturePrefix:    configuration.FeaturePrefix,
		ReleasePrefix:    configuration.ReleasePrefix,
		HotfixPrefix:     configuration.HotfixPrefix,
		VersionTagPrefix: configuration.VersionTagPrefix,
		DevelopBranch:    configuration.DevelopBranch,
		ProductionBranch: configuration.ProductionBranch,
	}
}
