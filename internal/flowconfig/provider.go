package flowconfig

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/config"
	"github.com/go-viper/mapstructure/v2"
)

const (
	sectionNameConstant                = "gitflow"
	prefixSubsectionNameConstant       = "prefix"
	branchSubsectionNameConstant       = "branch"
	featureOptionNameConstant          = "feature"
	releaseOptionNameConstant          = "release"
	hotfixOptionNameConstant           = "hotfix"
	versionTagOptionNameConstant       = "versiontag"
	developOptionNameConstant          = "develop"
	productionOptionNameConstant       = "production"
	legacyProductionOptionNameConstant = "master"
	keySeparatorConstant               = "."

	// FeaturePrefixKey names the feature branch prefix setting.
	FeaturePrefixKey = sectionNameConstant + keySeparatorConstant + prefixSubsectionNameConstant + keySeparatorConstant + featureOptionNameConstant

	// ReleasePrefixKey names the release branch prefix setting.
	ReleasePrefixKey = sectionNameConstant + keySeparatorConstant + prefixSubsectionNameConstant + keySeparatorConstant + releaseOptionNameConstant

	// HotfixPrefixKey names the hotfix branch prefix setting.
	HotfixPrefixKey = sectionNameConstant + keySeparatorConstant + prefixSubsectionNameConstant + keySeparatorConstant + hotfixOptionNameConstant

	// VersionTagPrefixKey names the prefix prepended to release and hotfix tags.
	VersionTagPrefixKey = sectionNameConstant + keySeparatorConstant + prefixSubsectionNameConstant + keySeparatorConstant + versionTagOptionNameConstant

	// DevelopBranchKey names the integration branch setting.
	DevelopBranchKey = sectionNameConstant + keySeparatorConstant + branchSubsectionNameConstant + keySeparatorConstant + developOptionNameConstant

	// ProductionBranchKey names the production branch setting.
	ProductionBranchKey = sectionNameConstant + keySeparatorConstant + branchSubsectionNameConstant + keySeparatorConstant + productionOptionNameConstant

	// LegacyProductionBranchKey is the git-flow AVH name for the production branch setting.
	LegacyProductionBranchKey = sectionNameConstant + keySeparatorConstant + branchSubsectionNameConstant + keySeparatorConstant + legacyProductionOptionNameConstant
)

const (
	defaultFeaturePrefixConstant    = "feature/"
	defaultReleasePrefixConstant    = "release/"
	defaultHotfixPrefixConstant     = "hotfix/"
	defaultVersionTagPrefixConstant = ""
	defaultDevelopBranchConstant    = "develop"
	defaultProductionBranchConstant = "master"

	configurationStoreMissingMessageConstant = "repository configuration store not configured"
	branchNameRequiredTemplateConstant       = "%s must name a branch"
	identicalBranchesTemplateConstant        = "%s and %s must name different branches"
	readConfigurationErrorTemplateConstant   = "unable to read flow configuration: %w"
	decodeConfigurationErrorTemplateConstant = "unable to decode flow configuration: %w"
	writeConfigurationErrorTemplateConstant  = "unable to write flow configuration: %w"
)

// ErrConfigurationStoreRequired indicates a nil repository configuration store was supplied.
var ErrConfigurationStoreRequired = errors.New(configurationStoreMissingMessageConstant)

// ConfigurationStore reads and writes the repository-local git configuration.
type ConfigurationStore interface {
	ReadConfig() (*config.Config, error)
	WriteConfig(repositoryConfig *config.Config) error
}

// FlowConfig is the resolved set of git-flow settings for one repository.
type FlowConfig struct {
	FeaturePrefix    string `mapstructure:"gitflow.prefix.feature" yaml:"feature_prefix"`
	ReleasePrefix    string `mapstructure:"gitflow.prefix.release" yaml:"release_prefix"`
	HotfixPrefix     string `mapstructure:"gitflow.prefix.hotfix" yaml:"hotfix_prefix"`
	VersionTagPrefix string `mapstructure:"gitflow.prefix.versiontag" yaml:"version_tag_prefix"`
	DevelopBranch    string `mapstructure:"gitflow.branch.develop" yaml:"develop_branch"`
	ProductionBranch string `mapstructure:"gitflow.branch.production" yaml:"production_branch"`
}

// DefaultFlowConfig returns the git-flow defaults.
func DefaultFlowConfig() FlowConfig {
	return FlowConfig{
		FeaturePrefix:    defaultFeaturePrefixConstant,
		ReleasePrefix:    defaultReleasePrefixConstant,
		HotfixPrefix:     defaultHotfixPrefixConstant,
		VersionTagPrefix: defaultVersionTagPrefixConstant,
		DevelopBranch:    defaultDevelopBranchConstant,
		ProductionBranch: defaultProductionBranchConstant,
	}
}

// Values flattens the configuration into its git config keys.
func (flowConfig FlowConfig) Values() map[string]string {
	return map[string]string{
		FeaturePrefixKey:    flowConfig.FeaturePrefix,
		ReleasePrefixKey:    flowConfig.ReleasePrefix,
		HotfixPrefixKey:     flowConfig.HotfixPrefix,
		VersionTagPrefixKey: flowConfig.VersionTagPrefix,
		DevelopBranchKey:    flowConfig.DevelopBranch,
		ProductionBranchKey: flowConfig.ProductionBranch,
	}
}

// Validate reports settings that cannot describe a working flow.
func (flowConfig FlowConfig) Validate() error {
	if len(strings.TrimSpace(flowConfig.DevelopBranch)) == 0 {
		return fmt.Errorf(branchNameRequiredTemplateConstant, DevelopBranchKey)
	}
	if len(strings.TrimSpace(flowConfig.ProductionBranch)) == 0 {
		return fmt.Errorf(branchNameRequiredTemplateConstant, ProductionBranchKey)
	}
	if flowConfig.DevelopBranch == flowConfig.ProductionBranch {
		return fmt.Errorf(identicalBranchesTemplateConstant, DevelopBranchKey, ProductionBranchKey)
	}
	return nil
}

// Provider resolves FlowConfig from the repository configuration on every call.
type Provider struct {
	defaults FlowConfig
}

// NewProvider constructs a Provider that fills unset keys from defaults.
func NewProvider(defaults FlowConfig) *Provider {
	return &Provider{defaults: defaults}
}

// Values returns every gitflow.* key stored in the repository configuration.
func (provider *Provider) Values(executionContext context.Context, store ConfigurationStore) (map[string]string, error) {
	if store == nil {
		return nil, ErrConfigurationStoreRequired
	}

	repositoryConfig, readError := store.ReadConfig()
	if readError != nil {
		return nil, fmt.Errorf(readConfigurationErrorTemplateConstant, readError)
	}

	values := map[string]string{}
	section := repositoryConfig.Raw.Section(sectionNameConstant)
	for _, option := range section.Options {
		values[sectionNameConstant+keySeparatorConstant+strings.ToLower(option.Key)] = option.Value
	}
	for _, subsection := range section.Subsections {
		for _, option := range subsection.Options {
			optionKey := sectionNameConstant + keySeparatorConstant + subsection.Name + keySeparatorConstant + strings.ToLower(option.Key)
			values[optionKey] = option.Value
		}
	}
	return values, nil
}

// Resolve overlays the stored gitflow.* keys on the defaults.
func (provider *Provider) Resolve(executionContext context.Context, store ConfigurationStore) (FlowConfig, error) {
	storedValues, valuesError := provider.Values(executionContext, store)
	if valuesError != nil {
		return FlowConfig{}, valuesError
	}

	mergedValues := provider.defaults.Values()
	if legacyProductionBranch, legacyPresent := storedValues[LegacyProductionBranchKey]; legacyPresent {
		mergedValues[ProductionBranchKey] = legacyProductionBranch
	}
	for valueKey, value := range storedValues {
		if _, recognized := mergedValues[valueKey]; recognized {
			mergedValues[valueKey] = value
		}
	}

	var flowConfig FlowConfig
	if decodeError := mapstructure.Decode(mergedValues, &flowConfig); decodeError != nil {
		return FlowConfig{}, fmt.Errorf(decodeConfigurationErrorTemplateConstant, decodeError)
	}
	return flowConfig, nil
}

// IsInitialized reports whether both branch keys are stored in the repository configuration.
func (provider *Provider) IsInitialized(executionContext context.Context, store ConfigurationStore) (bool, error) {
	storedValues, valuesError := provider.Values(executionContext, store)
	if valuesError != nil {
		return false, valuesError
	}

	_, developPresent := storedValues[DevelopBranchKey]
	_, productionPresent := storedValues[ProductionBranchKey]
	_, legacyProductionPresent := storedValues[LegacyProductionBranchKey]
	return developPresent && (productionPresent || legacyProductionPresent), nil
}

// Write stores every FlowConfig key in the repository configuration.
func (provider *Provider) Write(executionContext context.Context, store ConfigurationStore, flowConfig FlowConfig) error {
	if store == nil {
		return ErrConfigurationStoreRequired
	}

	repositoryConfig, readError := store.ReadConfig()
	if readError != nil {
		return fmt.Errorf(writeConfigurationErrorTemplateConstant, readError)
	}

	section := repositoryConfig.Raw.Section(sectionNameConstant)
	flattenedValues := flowConfig.Values()
	for _, valueKey := range sortedKeys(flattenedValues) {
		subsectionName, optionName := splitKey(valueKey)
		section.Subsection(subsectionName).SetOption(optionName, flattenedValues[valueKey])
	}

	if writeError := store.WriteConfig(repositoryConfig); writeError != nil {
		return fmt.Errorf(writeConfigurationErrorTemplateConstant, writeError)
	}
	return nil
}

func splitKey(valueKey string) (string, string) {
	keyParts := strings.SplitN(valueKey, keySeparatorConstant, 3)
	return keyParts[1], keyParts[2]
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for valueKey := range values {
		keys = append(keys, valueKey)
	}
	sort.Strings(keys)
	return keys
}
