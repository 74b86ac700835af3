package flow

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/gitflow/internal/execshell"
	"github.com/temirov/gitflow/internal/flowconfig"
	"github.com/temirov/gitflow/internal/gitrepo"
	"github.com/temirov/gitflow/internal/utils"
	pathutils "github.com/temirov/gitflow/internal/utils/path"
)

const (
	initCommandUseConstant                   = "init"
	initCommandShortDescriptionConstant      = "Configure the repository for git flow"
	initCommandLongDescriptionConstant       = "init stores the gitflow.* settings in the repository configuration and creates the develop branch from the production branch when it does not exist yet."
	configCommandUseConstant                 = "config"
	configCommandShortDescriptionConstant    = "Print the resolved git flow settings"
	kindCommandShortTemplateConstant         = "Start and finish %s branches"
	startCommandUseConstant                  = "start <name>"
	startCommandShortTemplateConstant        = "Create a %s branch and check it out"
	startCommandExampleTemplateConstant      = "gitflow %s start %s"
	finishCommandUseConstant                 = "finish <name>"
	finishCommandShortTemplateConstant       = "Integrate a %s branch and delete it"
	finishCommandExampleTemplateConstant     = "gitflow %s finish %s"
	featureExampleNameConstant               = "login-form"
	releaseExampleNameConstant               = "1.4.0"
	hotfixExampleNameConstant                = "1.4.1"
	forceFlagNameConstant                    = "force"
	forceFlagUsageConstant                   = "Overwrite existing git flow settings."
	baseFlagNameConstant                     = "base"
	baseFlagUsageConstant                    = "Commit to start from instead of the source branch tip."
	keepFlagNameConstant                     = "keep"
	keepFlagUsageConstant                    = "Keep the branch after finishing."
	rebaseFlagNameConstant                   = "rebase"
	rebaseFlagUsageConstant                  = "Rebase onto each integration branch instead of merging."
	messageFlagNameConstant                  = "message"
	messageFlagShorthandConstant             = "m"
	messageFlagUsageConstant                 = "Tag message (defaults to the tag name)."
	developFlagNameConstant                  = "develop"
	developFlagUsageConstant                 = "Name of the develop branch."
	productionFlagNameConstant               = "production"
	productionFlagUsageConstant              = "Name of the production branch."
	featurePrefixFlagNameConstant            = "feature-prefix"
	featurePrefixFlagUsageConstant           = "Prefix for feature branches."
	releasePrefixFlagNameConstant            = "release-prefix"
	releasePrefixFlagUsageConstant           = "Prefix for release branches."
	hotfixPrefixFlagNameConstant             = "hotfix-prefix"
	hotfixPrefixFlagUsageConstant            = "Prefix for hotfix branches."
	versionTagPrefixFlagNameConstant         = "version-tag-prefix"
	versionTagPrefixFlagUsageConstant        = "Prefix for release and hotfix tags."
	initSuccessMessageTemplateConstant       = "INITIALIZED: %s (develop: %s, production: %s)"
	developCreatedSuffixConstant             = " (created develop)"
	startSuccessMessageTemplateConstant      = "STARTED: %s at %s"
	finishMergedMessageTemplateConstant      = "FINISHED: %s -> %s at %s"
	finishSkippedMessageTemplateConstant     = "FINISHED: %s (already integrated into %s)"
	finishKeptSuffixConstant                 = " (kept)"
	outputLineTerminatorConstant             = "\n"
	repositoryPathResolutionTemplateConstant = "unable to resolve repository path: %w"
	configurationRenderErrorTemplateConstant = "unable to render flow configuration: %w"
)

// LoggerProvider yields a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the init, config and per-kind commands.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  gitrepo.GitExecutor
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	PathResolver                 *pathutils.RepositoryPathResolver
}

// Build constructs every flow command in display order.
func (builder *CommandBuilder) Build() ([]*cobra.Command, error) {
	commands := []*cobra.Command{builder.buildInitCommand(), builder.buildConfigCommand()}
	for _, kind := range Kinds() {
		commands = append(commands, builder.buildKindCommand(kind))
	}
	return commands, nil
}

func (builder *CommandBuilder) buildInitCommand() *cobra.Command {
	var force bool
	overrides := CommandConfiguration{}

	command := &cobra.Command{
		Use:   initCommandUseConstant,
		Short: initCommandShortDescriptionConstant,
		Long:  initCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			orchestrator, repository, prepareError := builder.prepare(command)
			if prepareError != nil {
				return prepareError
			}

			flowConfig := builder.resolveConfiguration().FlowDefaults()
			applyStringOverride(command, featurePrefixFlagNameConstant, overrides.FeaturePrefix, &flowConfig.FeaturePrefix)
			applyStringOverride(command, releasePrefixFlagNameConstant, overrides.ReleasePrefix, &flowConfig.ReleasePrefix)
			applyStringOverride(command, hotfixPrefixFlagNameConstant, overrides.HotfixPrefix, &flowConfig.HotfixPrefix)
			applyStringOverride(command, versionTagPrefixFlagNameConstant, overrides.VersionTagPrefix, &flowConfig.VersionTagPrefix)
			applyStringOverride(command, developFlagNameConstant, overrides.DevelopBranch, &flowConfig.DevelopBranch)
			applyStringOverride(command, productionFlagNameConstant, overrides.ProductionBranch, &flowConfig.ProductionBranch)

			result, initializeError := orchestrator.Initialize(command.Context(), repository, flowConfig, InitializeOptions{Force: force})
			if initializeError != nil {
				return initializeError
			}

			message := fmt.Sprintf(initSuccessMessageTemplateConstant, repository.Path(), result.Configuration.DevelopBranch, result.Configuration.ProductionBranch)
			if result.DevelopCreated {
				message += developCreatedSuffixConstant
			}
			fmt.Fprintln(command.OutOrStdout(), message)
			return nil
		},
	}

	flagSet := command.Flags()
	flagSet.BoolVar(&force, forceFlagNameConstant, false, forceFlagUsageConstant)
	flagSet.StringVar(&overrides.DevelopBranch, developFlagNameConstant, "", developFlagUsageConstant)
	flagSet.StringVar(&overrides.ProductionBranch, productionFlagNameConstant, "", productionFlagUsageConstant)
	flagSet.StringVar(&overrides.FeaturePrefix, featurePrefixFlagNameConstant, "", featurePrefixFlagUsageConstant)
	flagSet.StringVar(&overrides.ReleasePrefix, releasePrefixFlagNameConstant, "", releasePrefixFlagUsageConstant)
	flagSet.StringVar(&overrides.HotfixPrefix, hotfixPrefixFlagNameConstant, "", hotfixPrefixFlagUsageConstant)
	flagSet.StringVar(&overrides.VersionTagPrefix, versionTagPrefixFlagNameConstant, "", versionTagPrefixFlagUsageConstant)
	return command
}

func (builder *CommandBuilder) buildConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   configCommandUseConstant,
		Short: configCommandShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			orchestrator, repository, prepareError := builder.prepare(command)
			if prepareError != nil {
				return prepareError
			}

			flowConfig, configurationError := orchestrator.Configuration(command.Context(), repository)
			if configurationError != nil {
				return configurationError
			}

			renderedConfiguration, renderError := yaml.Marshal(flowConfig)
			if renderError != nil {
				return fmt.Errorf(configurationRenderErrorTemplateConstant, renderError)
			}
			_, writeError := command.OutOrStdout().Write(renderedConfiguration)
			return writeError
		},
	}
}

func (builder *CommandBuilder) buildKindCommand(kind Kind) *cobra.Command {
	kindCommand := &cobra.Command{
		Use:   kind.String(),
		Short: fmt.Sprintf(kindCommandShortTemplateConstant, kind.String()),
	}
	kindCommand.AddCommand(builder.buildStartCommand(kind), builder.buildFinishCommand(kind))
	return kindCommand
}

func (builder *CommandBuilder) buildStartCommand(kind Kind) *cobra.Command {
	options := StartOptions{}
	command := &cobra.Command{
		Use:     startCommandUseConstant,
		Short:   fmt.Sprintf(startCommandShortTemplateConstant, kind.String()),
		Example: fmt.Sprintf(startCommandExampleTemplateConstant, kind.String(), exampleName(kind)),
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			orchestrator, repository, prepareError := builder.prepare(command)
			if prepareError != nil {
				return prepareError
			}

			branch, startError := orchestrator.StartSupportBranch(command.Context(), repository, kind, arguments[0], options)
			if startError != nil {
				return startError
			}

			fmt.Fprintf(command.OutOrStdout(), startSuccessMessageTemplateConstant+outputLineTerminatorConstant, branch.Name, branch.Head.ShortID())
			return nil
		},
	}
	command.Flags().StringVar(&options.BaseCommitSHA, baseFlagNameConstant, "", baseFlagUsageConstant)
	return command
}

func (builder *CommandBuilder) buildFinishCommand(kind Kind) *cobra.Command {
	options := FinishOptions{}
	command := &cobra.Command{
		Use:     finishCommandUseConstant,
		Short:   fmt.Sprintf(finishCommandShortTemplateConstant, kind.String()),
		Example: fmt.Sprintf(finishCommandExampleTemplateConstant, kind.String(), exampleName(kind)),
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			orchestrator, repository, prepareError := builder.prepare(command)
			if prepareError != nil {
				return prepareError
			}

			flowConfig, configurationError := orchestrator.Configuration(command.Context(), repository)
			if configurationError != nil {
				return configurationError
			}

			result, finishError := orchestrator.FinishSupportBranch(command.Context(), repository, kind, arguments[0], options)
			if finishError != nil {
				return finishError
			}

			branchName := kind.Prefix(flowConfig) + strings.TrimSpace(arguments[0])
			integrationBranch := kind.TargetBranches(flowConfig)[0]
			message := fmt.Sprintf(finishSkippedMessageTemplateConstant, branchName, integrationBranch)
			if result != nil {
				message = fmt.Sprintf(finishMergedMessageTemplateConstant, branchName, integrationBranch, result.ShortID())
			}
			if options.KeepBranch {
				message += finishKeptSuffixConstant
			}
			fmt.Fprintln(command.OutOrStdout(), message)
			return nil
		},
	}

	flagSet := command.Flags()
	flagSet.BoolVar(&options.KeepBranch, keepFlagNameConstant, false, keepFlagUsageConstant)
	flagSet.BoolVar(&options.IsRebase, rebaseFlagNameConstant, false, rebaseFlagUsageConstant)
	if kind.Tagged() {
		flagSet.StringVarP(&options.TagMessage, messageFlagNameConstant, messageFlagShorthandConstant, "", messageFlagUsageConstant)
	}
	return command
}

func (builder *CommandBuilder) prepare(command *cobra.Command) (*Orchestrator, *gitrepo.Repository, error) {
	configuration := builder.resolveConfiguration()
	logger := builder.resolveLogger()

	gitExecutor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return nil, nil, executorError
	}

	engine, engineError := gitrepo.NewEngine(gitExecutor, logger)
	if engineError != nil {
		return nil, nil, engineError
	}

	orchestrator, orchestratorError := NewOrchestrator(Dependencies{
		GitEngine:             engine,
		ConfigurationProvider: flowconfig.NewProvider(configuration.FlowDefaults()),
		Logger:                logger,
	})
	if orchestratorError != nil {
		return nil, nil, orchestratorError
	}

	candidatePaths := []string{}
	if repositoryPath, repositoryPathAvailable := utils.NewCommandContextAccessor().RepositoryPath(command.Context()); repositoryPathAvailable {
		candidatePaths = append(candidatePaths, repositoryPath)
	}
	candidatePaths = append(candidatePaths, configuration.RepositoryPath)

	resolvedPath, resolveError := builder.resolvePathResolver().Resolve(candidatePaths...)
	if resolveError != nil {
		return nil, nil, fmt.Errorf(repositoryPathResolutionTemplateConstant, resolveError)
	}

	repository, openError := gitrepo.Open(resolvedPath)
	if openError != nil {
		return nil, nil, openError
	}
	return orchestrator, repository, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (gitrepo.GitExecutor, error) {
	if builder.GitExecutor != nil {
		return builder.GitExecutor, nil
	}

	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}
	shellExecutor, shellExecutorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), humanReadableLogging)
	if shellExecutorError != nil {
		return nil, shellExecutorError
	}
	return shellExecutor, nil
}

func (builder *CommandBuilder) resolvePathResolver() *pathutils.RepositoryPathResolver {
	if builder.PathResolver == nil {
		return pathutils.NewRepositoryPathResolver()
	}
	return builder.PathResolver
}

func applyStringOverride(command *cobra.Command, flagName string, value string, target *string) {
	if command.Flags().Changed(flagName) {
		*target = strings.TrimSpace(value)
	}
}

func exampleName(kind Kind) string {
	switch kind {
	case KindRelease:
		return releaseExampleNameConstant
	case KindHotfix:
		return hotfixExampleNameConstant
	default:
		return featureExampleNameConstant
	}
}
