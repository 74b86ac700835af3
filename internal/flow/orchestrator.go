package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/gitflow/internal/flowconfig"
	"github.com/temirov/gitflow/internal/gitrepo"
)

const (
	gitEngineMissingMessageConstant             = "git engine not configured"
	configurationProviderMissingMessageConstant = "flow configuration provider not configured"
	repositoryRequiredMessageConstant           = "repository must be provided"
	nameRequiredMessageConstant                 = "support branch name must be provided"
	unknownKindMessageConstant                  = "unknown support branch kind"
	alreadyInitializedMessageConstant           = "repository is already initialized for git flow"
	resolveConfigurationErrorTemplateConstant   = "unable to resolve flow configuration: %w"
	initializationStateErrorTemplateConstant    = "unable to inspect flow initialization: %w"
	invalidConfigurationErrorTemplateConstant   = "invalid flow configuration: %w"
	storeConfigurationErrorTemplateConstant     = "unable to store flow configuration: %w"
	mergeMessageTemplateConstant                = "Merge branch '%s' into %s"
	logMessageStartingSupportBranchConstant     = "Starting support branch"
	logMessageStartedSupportBranchConstant      = "Started support branch"
	logMessageFinishingSupportBranchConstant    = "Finishing support branch"
	logMessageReconciliationSkippedConstant     = "Support branch already integrated; skipping reconciliation"
	logMessageMergedSupportBranchConstant       = "Merged support branch"
	logMessageRebasedSupportBranchConstant      = "Rebased support branch"
	logMessageTaggedSupportBranchConstant       = "Tagged support branch"
	logMessageDeletedSupportBranchConstant      = "Deleted support branch"
	logMessageFinishedSupportBranchConstant     = "Finished support branch"
	logMessageCreatedDevelopBranchConstant      = "Created develop branch"
	logMessageInitializedRepositoryConstant     = "Initialized git flow"
	logFieldKindConstant                        = "kind"
	logFieldBranchConstant                      = "branch"
	logFieldTargetBranchConstant                = "target_branch"
	logFieldBaseCommitConstant                  = "base_commit"
	logFieldResultCommitConstant                = "result_commit"
	logFieldTagConstant                         = "tag"
	logFieldRepositoryConstant                  = "repository"
	logFieldRebaseConstant                      = "rebase"
	logFieldKeepBranchConstant                  = "keep_branch"
)

var (
	// ErrGitEngineNotConfigured indicates the orchestrator was built without a git engine.
	ErrGitEngineNotConfigured = errors.New(gitEngineMissingMessageConstant)

	// ErrConfigurationProviderNotConfigured indicates the orchestrator was built without a configuration provider.
	ErrConfigurationProviderNotConfigured = errors.New(configurationProviderMissingMessageConstant)

	// ErrRepositoryRequired indicates a nil repository was supplied.
	ErrRepositoryRequired = errors.New(repositoryRequiredMessageConstant)

	// ErrNameRequired indicates a blank support branch name was supplied.
	ErrNameRequired = errors.New(nameRequiredMessageConstant)

	// ErrUnknownKind indicates a Kind outside the supported variants.
	ErrUnknownKind = errors.New(unknownKindMessageConstant)

	// ErrAlreadyInitialized indicates Initialize found existing flow settings without Force.
	ErrAlreadyInitialized = errors.New(alreadyInitializedMessageConstant)
)

// GitEngine performs the repository primitives the orchestrator sequences.
type GitEngine interface {
	LookupBranch(executionContext context.Context, repository *gitrepo.Repository, branchName string) (gitrepo.Branch, error)
	LookupCommit(executionContext context.Context, repository *gitrepo.Repository, revision string) (gitrepo.Commit, error)
	CreateBranch(executionContext context.Context, repository *gitrepo.Repository, branchName string, base gitrepo.Commit) (gitrepo.Branch, error)
	CheckoutBranch(executionContext context.Context, repository *gitrepo.Repository, branchName string) error
	MergeBranches(executionContext context.Context, repository *gitrepo.Repository, target gitrepo.Branch, source gitrepo.Branch, message string) (gitrepo.Commit, error)
	RebaseBranches(executionContext context.Context, repository *gitrepo.Repository, onto gitrepo.Branch, branch gitrepo.Branch) (gitrepo.Commit, error)
	DeleteBranch(executionContext context.Context, repository *gitrepo.Repository, branch gitrepo.Branch) error
	CreateTag(executionContext context.Context, repository *gitrepo.Repository, tagName string, target gitrepo.Commit, message string) error
}

// ConfigurationProvider reads and stores the git-flow settings of a repository.
type ConfigurationProvider interface {
	Resolve(executionContext context.Context, store flowconfig.ConfigurationStore) (flowconfig.FlowConfig, error)
	IsInitialized(executionContext context.Context, store flowconfig.ConfigurationStore) (bool, error)
	Write(executionContext context.Context, store flowconfig.ConfigurationStore, flowConfig flowconfig.FlowConfig) error
}

// Dependencies enumerates the collaborators required by the orchestrator.
type Dependencies struct {
	GitEngine             GitEngine
	ConfigurationProvider ConfigurationProvider
	Logger                *zap.Logger
}

// StartOptions configure a start operation.
type StartOptions struct {
	BaseCommitSHA string
}

// FinishOptions configure a finish operation.
type FinishOptions struct {
	KeepBranch bool
	IsRebase   bool
	TagMessage string
}

// InitializeOptions configure repository initialization.
type InitializeOptions struct {
	Force bool
}

// InitializeResult reports what Initialize changed.
type InitializeResult struct {
	Configuration  flowconfig.FlowConfig
	DevelopCreated bool
}

// Orchestrator drives the start and finish lifecycle of support branches.
type Orchestrator struct {
	engine                GitEngine
	configurationProvider ConfigurationProvider
	logger                *zap.Logger
}

// NewOrchestrator validates dependencies and constructs an Orchestrator.
func NewOrchestrator(dependencies Dependencies) (*Orchestrator, error) {
	if dependencies.GitEngine == nil {
		return nil, ErrGitEngineNotConfigured
	}
	if dependencies.ConfigurationProvider == nil {
		return nil, ErrConfigurationProviderNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		engine:                dependencies.GitEngine,
		configurationProvider: dependencies.ConfigurationProvider,
		logger:                logger,
	}, nil
}

// StartSupportBranch creates prefix(kind)+name at the base commit and checks it out.
func (orchestrator *Orchestrator) StartSupportBranch(executionContext context.Context, repository *gitrepo.Repository, kind Kind, name string, options StartOptions) (gitrepo.Branch, error) {
	trimmedName, validationError := validateRequest(repository, kind, name)
	if validationError != nil {
		return gitrepo.Branch{}, validationError
	}

	flowConfig, configurationError := orchestrator.resolveConfiguration(executionContext, repository)
	if configurationError != nil {
		return gitrepo.Branch{}, configurationError
	}

	branchName := kind.Prefix(flowConfig) + trimmedName
	orchestrator.logger.Debug(
		logMessageStartingSupportBranchConstant,
		zap.String(logFieldKindConstant, kind.String()),
		zap.String(logFieldBranchConstant, branchName),
		zap.String(logFieldRepositoryConstant, repository.Path()),
	)

	baseCommit, baseError := orchestrator.resolveBaseCommit(executionContext, repository, kind, flowConfig, options)
	if baseError != nil {
		return gitrepo.Branch{}, baseError
	}

	createdBranch, createError := orchestrator.engine.CreateBranch(executionContext, repository, branchName, baseCommit)
	if createError != nil {
		return gitrepo.Branch{}, createError
	}

	if checkoutError := orchestrator.engine.CheckoutBranch(executionContext, repository, createdBranch.Name); checkoutError != nil {
		return gitrepo.Branch{}, checkoutError
	}

	orchestrator.logger.Info(
		logMessageStartedSupportBranchConstant,
		zap.String(logFieldKindConstant, kind.String()),
		zap.String(logFieldBranchConstant, createdBranch.Name),
		zap.String(logFieldBaseCommitConstant, baseCommit.ID()),
	)
	return createdBranch, nil
}

// FinishSupportBranch reconciles prefix(kind)+name into its integration branches.
// It returns the commit produced on the first integration branch, or nil when the
// support branch tip already matched it.
func (orchestrator *Orchestrator) FinishSupportBranch(executionContext context.Context, repository *gitrepo.Repository, kind Kind, name string, options FinishOptions) (*gitrepo.Commit, error) {
	trimmedName, validationError := validateRequest(repository, kind, name)
	if validationError != nil {
		return nil, validationError
	}

	flowConfig, configurationError := orchestrator.resolveConfiguration(executionContext, repository)
	if configurationError != nil {
		return nil, configurationError
	}

	branchName := kind.Prefix(flowConfig) + trimmedName
	orchestrator.logger.Debug(
		logMessageFinishingSupportBranchConstant,
		zap.String(logFieldKindConstant, kind.String()),
		zap.String(logFieldBranchConstant, branchName),
		zap.Bool(logFieldRebaseConstant, options.IsRebase),
		zap.Bool(logFieldKeepBranchConstant, options.KeepBranch),
	)

	supportBranch, targetBranches, lookupError := orchestrator.lookupFinishBranches(executionContext, repository, branchName, kind.TargetBranches(flowConfig))
	if lookupError != nil {
		return nil, lookupError
	}

	var firstResult *gitrepo.Commit
	for targetIndex, targetBranch := range targetBranches {
		result, reconcileError := orchestrator.reconcile(executionContext, repository, targetBranch, supportBranch, options)
		if reconcileError != nil {
			return nil, reconcileError
		}
		if targetIndex == 0 {
			firstResult = result
		}
		if options.IsRebase && result != nil && targetIndex < len(targetBranches)-1 {
			rebasedSupportBranch, relookupError := orchestrator.engine.LookupBranch(executionContext, repository, branchName)
			if relookupError != nil {
				return nil, relookupError
			}
			supportBranch = rebasedSupportBranch
		}

		if kind.Tagged() && targetBranch.Name == flowConfig.ProductionBranch {
			tagTarget := targetBranch.Head
			if result != nil {
				tagTarget = *result
			}
			if tagError := orchestrator.tagSupportBranch(executionContext, repository, flowConfig, trimmedName, tagTarget, options); tagError != nil {
				return nil, tagError
			}
		}
	}

	if !options.KeepBranch {
		currentSupportBranch, relookupError := orchestrator.engine.LookupBranch(executionContext, repository, branchName)
		if relookupError != nil {
			return nil, relookupError
		}
		if deleteError := orchestrator.engine.DeleteBranch(executionContext, repository, currentSupportBranch); deleteError != nil {
			return nil, deleteError
		}
		orchestrator.logger.Debug(logMessageDeletedSupportBranchConstant, zap.String(logFieldBranchConstant, branchName))
	}

	finishedFields := []zap.Field{
		zap.String(logFieldKindConstant, kind.String()),
		zap.String(logFieldBranchConstant, branchName),
	}
	if firstResult != nil {
		finishedFields = append(finishedFields, zap.String(logFieldResultCommitConstant, firstResult.ID()))
	}
	orchestrator.logger.Info(logMessageFinishedSupportBranchConstant, finishedFields...)
	return firstResult, nil
}

// Initialize stores flow settings and creates the develop branch from production when missing.
func (orchestrator *Orchestrator) Initialize(executionContext context.Context, repository *gitrepo.Repository, flowConfig flowconfig.FlowConfig, options InitializeOptions) (InitializeResult, error) {
	if repository == nil {
		return InitializeResult{}, ErrRepositoryRequired
	}
	if validationError := flowConfig.Validate(); validationError != nil {
		return InitializeResult{}, fmt.Errorf(invalidConfigurationErrorTemplateConstant, validationError)
	}

	initialized, initializedError := orchestrator.configurationProvider.IsInitialized(executionContext, repository)
	if initializedError != nil {
		return InitializeResult{}, fmt.Errorf(initializationStateErrorTemplateConstant, initializedError)
	}
	if initialized && !options.Force {
		return InitializeResult{}, ErrAlreadyInitialized
	}

	productionBranch, productionError := orchestrator.engine.LookupBranch(executionContext, repository, flowConfig.ProductionBranch)
	if productionError != nil {
		return InitializeResult{}, productionError
	}

	result := InitializeResult{Configuration: flowConfig}
	_, developError := orchestrator.engine.LookupBranch(executionContext, repository, flowConfig.DevelopBranch)
	switch {
	case developError == nil:
	case errors.Is(developError, gitrepo.ErrBranchNotFound):
		if _, createError := orchestrator.engine.CreateBranch(executionContext, repository, flowConfig.DevelopBranch, productionBranch.Head); createError != nil {
			return InitializeResult{}, createError
		}
		result.DevelopCreated = true
		orchestrator.logger.Info(
			logMessageCreatedDevelopBranchConstant,
			zap.String(logFieldBranchConstant, flowConfig.DevelopBranch),
			zap.String(logFieldBaseCommitConstant, productionBranch.Head.ID()),
		)
	default:
		return InitializeResult{}, developError
	}

	if writeError := orchestrator.configurationProvider.Write(executionContext, repository, flowConfig); writeError != nil {
		return InitializeResult{}, fmt.Errorf(storeConfigurationErrorTemplateConstant, writeError)
	}

	orchestrator.logger.Info(logMessageInitializedRepositoryConstant, zap.String(logFieldRepositoryConstant, repository.Path()))
	return result, nil
}

// Configuration resolves the current flow settings of the repository.
func (orchestrator *Orchestrator) Configuration(executionContext context.Context, repository *gitrepo.Repository) (flowconfig.FlowConfig, error) {
	if repository == nil {
		return flowconfig.FlowConfig{}, ErrRepositoryRequired
	}
	return orchestrator.resolveConfiguration(executionContext, repository)
}

func (orchestrator *Orchestrator) resolveConfiguration(executionContext context.Context, repository *gitrepo.Repository) (flowconfig.FlowConfig, error) {
	flowConfig, resolveError := orchestrator.configurationProvider.Resolve(executionContext, repository)
	if resolveError != nil {
		return flowconfig.FlowConfig{}, fmt.Errorf(resolveConfigurationErrorTemplateConstant, resolveError)
	}
	return flowConfig, nil
}

func (orchestrator *Orchestrator) resolveBaseCommit(executionContext context.Context, repository *gitrepo.Repository, kind Kind, flowConfig flowconfig.FlowConfig, options StartOptions) (gitrepo.Commit, error) {
	baseCommitSHA := strings.TrimSpace(options.BaseCommitSHA)
	if len(baseCommitSHA) > 0 {
		return orchestrator.engine.LookupCommit(executionContext, repository, baseCommitSHA)
	}

	sourceBranch, lookupError := orchestrator.engine.LookupBranch(executionContext, repository, kind.SourceBranch(flowConfig))
	if lookupError != nil {
		return gitrepo.Commit{}, lookupError
	}
	return sourceBranch.Head, nil
}

func (orchestrator *Orchestrator) lookupFinishBranches(executionContext context.Context, repository *gitrepo.Repository, branchName string, targetNames []string) (gitrepo.Branch, []gitrepo.Branch, error) {
	var supportBranch gitrepo.Branch
	targetBranches := make([]gitrepo.Branch, len(targetNames))

	lookupGroup, lookupContext := errgroup.WithContext(executionContext)
	lookupGroup.Go(func() error {
		branch, lookupError := orchestrator.engine.LookupBranch(lookupContext, repository, branchName)
		if lookupError != nil {
			return lookupError
		}
		supportBranch = branch
		return nil
	})
	for targetIndex, targetName := range targetNames {
		lookupGroup.Go(func() error {
			branch, lookupError := orchestrator.engine.LookupBranch(lookupContext, repository, targetName)
			if lookupError != nil {
				return lookupError
			}
			targetBranches[targetIndex] = branch
			return nil
		})
	}

	if waitError := lookupGroup.Wait(); waitError != nil {
		return gitrepo.Branch{}, nil, waitError
	}
	return supportBranch, targetBranches, nil
}

// reconcile brings supportBranch into targetBranch. Identical tips short-circuit
// before the rebase flag is consulted.
func (orchestrator *Orchestrator) reconcile(executionContext context.Context, repository *gitrepo.Repository, targetBranch gitrepo.Branch, supportBranch gitrepo.Branch, options FinishOptions) (*gitrepo.Commit, error) {
	same := targetBranch.Head.Equal(supportBranch.Head)
	cancelMerge := same || options.IsRebase

	var result *gitrepo.Commit
	switch {
	case !cancelMerge:
		mergeMessage := fmt.Sprintf(mergeMessageTemplateConstant, supportBranch.Name, targetBranch.Name)
		mergeCommit, mergeError := orchestrator.engine.MergeBranches(executionContext, repository, targetBranch, supportBranch, mergeMessage)
		if mergeError != nil {
			return nil, mergeError
		}
		result = &mergeCommit
		orchestrator.logger.Debug(
			logMessageMergedSupportBranchConstant,
			zap.String(logFieldBranchConstant, supportBranch.Name),
			zap.String(logFieldTargetBranchConstant, targetBranch.Name),
			zap.String(logFieldResultCommitConstant, mergeCommit.ID()),
		)
	case options.IsRebase && !same:
		rebasedCommit, rebaseError := orchestrator.engine.RebaseBranches(executionContext, repository, targetBranch, supportBranch)
		if rebaseError != nil {
			return nil, rebaseError
		}
		result = &rebasedCommit
		orchestrator.logger.Debug(
			logMessageRebasedSupportBranchConstant,
			zap.String(logFieldBranchConstant, supportBranch.Name),
			zap.String(logFieldTargetBranchConstant, targetBranch.Name),
			zap.String(logFieldResultCommitConstant, rebasedCommit.ID()),
		)
	default:
		orchestrator.logger.Debug(
			logMessageReconciliationSkippedConstant,
			zap.String(logFieldBranchConstant, supportBranch.Name),
			zap.String(logFieldTargetBranchConstant, targetBranch.Name),
		)
	}

	if cancelMerge {
		if checkoutError := orchestrator.engine.CheckoutBranch(executionContext, repository, targetBranch.Name); checkoutError != nil {
			return nil, checkoutError
		}
	}
	return result, nil
}

func (orchestrator *Orchestrator) tagSupportBranch(executionContext context.Context, repository *gitrepo.Repository, flowConfig flowconfig.FlowConfig, name string, target gitrepo.Commit, options FinishOptions) error {
	tagName := flowConfig.VersionTagPrefix + name
	tagMessage := strings.TrimSpace(options.TagMessage)
	if len(tagMessage) == 0 {
		tagMessage = tagName
	}

	if tagError := orchestrator.engine.CreateTag(executionContext, repository, tagName, target, tagMessage); tagError != nil {
		return tagError
	}
	orchestrator.logger.Info(
		logMessageTaggedSupportBranchConstant,
		zap.String(logFieldTagConstant, tagName),
		zap.String(logFieldResultCommitConstant, target.ID()),
	)
	return nil
}

func validateRequest(repository *gitrepo.Repository, kind Kind, name string) (string, error) {
	if repository == nil {
		return "", ErrRepositoryRequired
	}
	if !kind.valid() {
		return "", ErrUnknownKind
	}
	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) == 0 {
		return "", ErrNameRequired
	}
	return trimmedName, nil
}
