package flow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitflow/internal/flow"
	"github.com/temirov/gitflow/internal/flowconfig"
	"github.com/temirov/gitflow/internal/gitrepo"
)

const (
	testDevelopBranchConstant    = "develop"
	testProductionBranchConstant = "master"
	testFeatureNameConstant      = "foo"
	testFeatureBranchConstant    = "feature/foo"
	testReleaseNameConstant      = "1.0.0"
	testReleaseBranchConstant    = "release/1.0.0"
	testHotfixNameConstant       = "1.0.1"
	testHotfixBranchConstant     = "hotfix/1.0.1"
)

var (
	testRootCommit    = testCommit("root")
	testDevelopCommit = testCommit("develop", testRootCommit)
	testSupportCommit = testCommit("support", testDevelopCommit)
)

type orchestratorFixture struct {
	orchestrator *flow.Orchestrator
	engine       *stubEngine
	provider     *stubConfigurationProvider
	repository   *gitrepo.Repository
}

func newOrchestratorFixture(testInstance *testing.T, branches map[string]gitrepo.Commit) orchestratorFixture {
	testInstance.Helper()
	engine := newStubEngine(branches)
	provider := newStubConfigurationProvider()
	orchestrator, creationError := flow.NewOrchestrator(flow.Dependencies{GitEngine: engine, ConfigurationProvider: provider})
	require.NoError(testInstance, creationError)
	return orchestratorFixture{orchestrator: orchestrator, engine: engine, provider: provider, repository: &gitrepo.Repository{}}
}

func defaultBranches() map[string]gitrepo.Commit {
	return map[string]gitrepo.Commit{
		testProductionBranchConstant: testRootCommit,
		testDevelopBranchConstant:    testDevelopCommit,
	}
}

func branchesWith(extraBranchName string, extraHead gitrepo.Commit) map[string]gitrepo.Commit {
	branches := defaultBranches()
	branches[extraBranchName] = extraHead
	return branches
}

func TestNewOrchestratorValidatesDependencies(testInstance *testing.T) {
	testCases := []struct {
		name          string
		dependencies  flow.Dependencies
		expectedError error
	}{
		{name: "missing_engine", dependencies: flow.Dependencies{ConfigurationProvider: newStubConfigurationProvider()}, expectedError: flow.ErrGitEngineNotConfigured},
		{name: "missing_provider", dependencies: flow.Dependencies{GitEngine: newStubEngine(nil)}, expectedError: flow.ErrConfigurationProviderNotConfigured},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			orchestrator, creationError := flow.NewOrchestrator(testCase.dependencies)
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
			require.Nil(testInstance, orchestrator)
		})
	}
}

func TestOperationsValidateBeforeTouchingTheEngine(testInstance *testing.T) {
	testCases := []struct {
		name          string
		repository    *gitrepo.Repository
		kind          flow.Kind
		branchName    string
		expectedError error
	}{
		{name: "nil_repository", repository: nil, kind: flow.KindFeature, branchName: testFeatureNameConstant, expectedError: flow.ErrRepositoryRequired},
		{name: "empty_name", repository: &gitrepo.Repository{}, kind: flow.KindFeature, branchName: "", expectedError: flow.ErrNameRequired},
		{name: "blank_name", repository: &gitrepo.Repository{}, kind: flow.KindRelease, branchName: "   ", expectedError: flow.ErrNameRequired},
		{name: "unknown_kind", repository: &gitrepo.Repository{}, kind: flow.Kind(42), branchName: testFeatureNameConstant, expectedError: flow.ErrUnknownKind},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newOrchestratorFixture(testInstance, defaultBranches())

			_, startError := fixture.orchestrator.StartSupportBranch(context.Background(), testCase.repository, testCase.kind, testCase.branchName, flow.StartOptions{})
			require.ErrorIs(testInstance, startError, testCase.expectedError)

			result, finishError := fixture.orchestrator.FinishSupportBranch(context.Background(), testCase.repository, testCase.kind, testCase.branchName, flow.FinishOptions{})
			require.ErrorIs(testInstance, finishError, testCase.expectedError)
			require.Nil(testInstance, result)

			require.Empty(testInstance, fixture.engine.recordedOperations())
			require.Zero(testInstance, fixture.engine.lookupCount)
			require.Zero(testInstance, fixture.provider.resolveCount)
			require.Len(testInstance, fixture.engine.branches, 2)
		})
	}
}

func TestStartSupportBranchFromSourceBranch(testInstance *testing.T) {
	testCases := []struct {
		name               string
		kind               flow.Kind
		branchName         string
		expectedBranchName string
		expectedBase       gitrepo.Commit
	}{
		{name: "feature_from_develop", kind: flow.KindFeature, branchName: testFeatureNameConstant, expectedBranchName: testFeatureBranchConstant, expectedBase: testDevelopCommit},
		{name: "release_from_develop", kind: flow.KindRelease, branchName: testReleaseNameConstant, expectedBranchName: testReleaseBranchConstant, expectedBase: testDevelopCommit},
		{name: "hotfix_from_production", kind: flow.KindHotfix, branchName: testHotfixNameConstant, expectedBranchName: testHotfixBranchConstant, expectedBase: testRootCommit},
		{name: "name_trimmed", kind: flow.KindFeature, branchName: "  foo  ", expectedBranchName: testFeatureBranchConstant, expectedBase: testDevelopCommit},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newOrchestratorFixture(testInstance, defaultBranches())

			branch, startError := fixture.orchestrator.StartSupportBranch(context.Background(), fixture.repository, testCase.kind, testCase.branchName, flow.StartOptions{})
			require.NoError(testInstance, startError)
			require.Equal(testInstance, testCase.expectedBranchName, branch.Name)
			require.True(testInstance, branch.Head.Equal(testCase.expectedBase))
			require.Equal(testInstance, []string{
				"create " + testCase.expectedBranchName + " " + testCase.expectedBase.ShortID(),
				"checkout " + testCase.expectedBranchName,
			}, fixture.engine.recordedOperations())
			require.Equal(testInstance, testCase.expectedBranchName, fixture.engine.currentBranch)
		})
	}
}

func TestStartSupportBranchUsesExplicitBaseCommit(testInstance *testing.T) {
	fixture := newOrchestratorFixture(testInstance, defaultBranches())
	fixture.engine.commits[testRootCommit.ID()] = testRootCommit

	branch, startError := fixture.orchestrator.StartFeature(context.Background(), fixture.repository, testFeatureNameConstant, flow.StartOptions{BaseCommitSHA: testRootCommit.ID()})
	require.NoError(testInstance, startError)
	require.True(testInstance, branch.Head.Equal(testRootCommit))
	require.False(testInstance, branch.Head.Equal(testDevelopCommit))
}

func TestStartSupportBranchFailures(testInstance *testing.T) {
	testCases := []struct {
		name               string
		branches           map[string]gitrepo.Commit
		options            flow.StartOptions
		expectedError      error
		expectedOperations []string
	}{
		{
			name:               "missing_base_commit",
			branches:           defaultBranches(),
			options:            flow.StartOptions{BaseCommitSHA: "deadbeef"},
			expectedError:      gitrepo.ErrCommitNotFound,
			expectedOperations: []string{},
		},
		{
			name:               "missing_source_branch",
			branches:           map[string]gitrepo.Commit{testProductionBranchConstant: testRootCommit},
			expectedError:      gitrepo.ErrBranchNotFound,
			expectedOperations: []string{},
		},
		{
			name:               "branch_already_exists",
			branches:           branchesWith(testFeatureBranchConstant, testSupportCommit),
			expectedError:      gitrepo.ErrBranchAlreadyExists,
			expectedOperations: []string{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newOrchestratorFixture(testInstance, testCase.branches)

			_, startError := fixture.orchestrator.StartFeature(context.Background(), fixture.repository, testFeatureNameConstant, testCase.options)
			require.ErrorIs(testInstance, startError, testCase.expectedError)
			require.Equal(testInstance, testCase.expectedOperations, fixture.engine.recordedOperations())
		})
	}
}

func TestStartSupportBranchSurfacesDirtyWorkingTree(testInstance *testing.T) {
	fixture := newOrchestratorFixture(testInstance, defaultBranches())
	dirtyError := gitrepo.DirtyWorkingTreeError{BranchName: testFeatureBranchConstant}
	fixture.engine.failures[operationCheckoutConstant] = dirtyError

	_, startError := fixture.orchestrator.StartFeature(context.Background(), fixture.repository, testFeatureNameConstant, flow.StartOptions{})
	require.ErrorIs(testInstance, startError, gitrepo.ErrDirtyWorkingTree)

	var typedError gitrepo.DirtyWorkingTreeError
	require.ErrorAs(testInstance, startError, &typedError)
	require.Equal(testInstance, testFeatureBranchConstant, typedError.BranchName)
	require.Contains(testInstance, fixture.engine.branches, testFeatureBranchConstant)
}

func TestFinishFeatureReconciliation(testInstance *testing.T) {
	testCases := []struct {
		name               string
		supportHead        gitrepo.Commit
		options            flow.FinishOptions
		expectResult       bool
		expectedOperations []string
	}{
		{
			name:         "identical_tips_skip_merge",
			supportHead:  testDevelopCommit,
			expectResult: false,
			expectedOperations: []string{
				"checkout " + testDevelopBranchConstant,
				"delete " + testFeatureBranchConstant,
			},
		},
		{
			name:         "identical_tips_skip_rebase",
			supportHead:  testDevelopCommit,
			options:      flow.FinishOptions{IsRebase: true},
			expectResult: false,
			expectedOperations: []string{
				"checkout " + testDevelopBranchConstant,
				"delete " + testFeatureBranchConstant,
			},
		},
		{
			name:         "diverged_tips_merge",
			supportHead:  testSupportCommit,
			expectResult: true,
			expectedOperations: []string{
				"merge " + testDevelopBranchConstant + " " + testFeatureBranchConstant,
				"delete " + testFeatureBranchConstant,
			},
		},
		{
			name:         "diverged_tips_rebase",
			supportHead:  testSupportCommit,
			options:      flow.FinishOptions{IsRebase: true},
			expectResult: true,
			expectedOperations: []string{
				"rebase " + testDevelopBranchConstant + " " + testFeatureBranchConstant,
				"checkout " + testDevelopBranchConstant,
				"delete " + testFeatureBranchConstant,
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newOrchestratorFixture(testInstance, branchesWith(testFeatureBranchConstant, testCase.supportHead))

			result, finishError := fixture.orchestrator.FinishFeature(context.Background(), fixture.repository, testFeatureNameConstant, testCase.options)
			require.NoError(testInstance, finishError)
			require.Equal(testInstance, testCase.expectedOperations, fixture.engine.recordedOperations())
			require.Equal(testInstance, testDevelopBranchConstant, fixture.engine.currentBranch)
			require.NotContains(testInstance, fixture.engine.branches, testFeatureBranchConstant)

			if !testCase.expectResult {
				require.Nil(testInstance, result)
				return
			}
			require.NotNil(testInstance, result)
			require.True(testInstance, result.Equal(fixture.engine.branches[testDevelopBranchConstant]))
		})
	}
}

func TestFinishFeatureMergeCommitHasBothParents(testInstance *testing.T) {
	fixture := newOrchestratorFixture(testInstance, branchesWith(testFeatureBranchConstant, testSupportCommit))

	result, finishError := fixture.orchestrator.FinishFeature(context.Background(), fixture.repository, testFeatureNameConstant, flow.FinishOptions{})
	require.NoError(testInstance, finishError)
	require.NotNil(testInstance, result)
	require.ElementsMatch(testInstance, []string{testDevelopCommit.ID(), testSupportCommit.ID()}, []string{result.ParentHashes[0].String(), result.ParentHashes[1].String()})
}

func TestFinishKeepBranchNeverDeletes(testInstance *testing.T) {
	testCases := []struct {
		name        string
		supportHead gitrepo.Commit
		isRebase    bool
	}{
		{name: "skipped", supportHead: testDevelopCommit},
		{name: "merged", supportHead: testSupportCommit},
		{name: "rebased", supportHead: testSupportCommit, isRebase: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newOrchestratorFixture(testInstance, branchesWith(testFeatureBranchConstant, testCase.supportHead))

			_, finishError := fixture.orchestrator.FinishFeature(context.Background(), fixture.repository, testFeatureNameConstant, flow.FinishOptions{KeepBranch: true, IsRebase: testCase.isRebase})
			require.NoError(testInstance, finishError)
			require.Contains(testInstance, fixture.engine.branches, testFeatureBranchConstant)
			for _, operation := range fixture.engine.recordedOperations() {
				require.NotContains(testInstance, operation, operationDeleteConstant)
			}
		})
	}
}

func TestFinishAbortsBeforeMutationWhenLookupFails(testInstance *testing.T) {
	testCases := []struct {
		name     string
		kind     flow.Kind
		branches map[string]gitrepo.Commit
	}{
		{name: "missing_feature", kind: flow.KindFeature, branches: defaultBranches()},
		{name: "missing_develop", kind: flow.KindFeature, branches: map[string]gitrepo.Commit{testFeatureBranchConstant: testSupportCommit}},
		{name: "missing_production", kind: flow.KindRelease, branches: map[string]gitrepo.Commit{testDevelopBranchConstant: testDevelopCommit, testReleaseBranchConstant: testSupportCommit}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newOrchestratorFixture(testInstance, testCase.branches)
			name := testFeatureNameConstant
			if testCase.kind == flow.KindRelease {
				name = testReleaseNameConstant
			}

			result, finishError := fixture.orchestrator.FinishSupportBranch(context.Background(), fixture.repository, testCase.kind, name, flow.FinishOptions{})
			require.ErrorIs(testInstance, finishError, gitrepo.ErrBranchNotFound)
			require.Nil(testInstance, result)
			require.Empty(testInstance, fixture.engine.recordedOperations())
		})
	}
}

func TestFinishPropagatesConflictsWithoutCleanup(testInstance *testing.T) {
	testCases := []struct {
		name          string
		operation     string
		failure       error
		options       flow.FinishOptions
		expectedError error
	}{
		{
			name:          "merge_conflict",
			operation:     operationMergeConstant,
			failure:       gitrepo.MergeConflictError{TargetBranch: testDevelopBranchConstant, SourceBranch: testFeatureBranchConstant, ConflictingPaths: []string{"README.md"}},
			expectedError: gitrepo.ErrMergeConflict,
		},
		{
			name:          "rebase_conflict",
			operation:     operationRebaseConstant,
			failure:       gitrepo.RebaseConflictError{BranchName: testFeatureBranchConstant, OntoBranch: testDevelopBranchConstant},
			options:       flow.FinishOptions{IsRebase: true},
			expectedError: gitrepo.ErrRebaseConflict,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newOrchestratorFixture(testInstance, branchesWith(testFeatureBranchConstant, testSupportCommit))
			fixture.engine.failures[testCase.operation] = testCase.failure

			result, finishError := fixture.orchestrator.FinishFeature(context.Background(), fixture.repository, testFeatureNameConstant, testCase.options)
			require.ErrorIs(testInstance, finishError, testCase.expectedError)
			require.Equal(testInstance, testCase.failure, finishError)
			require.Nil(testInstance, result)
			require.Contains(testInstance, fixture.engine.branches, testFeatureBranchConstant)
			require.Empty(testInstance, fixture.engine.recordedOperations())
		})
	}
}

func TestFinishReleaseMergesIntoProductionThenDevelopAndTags(testInstance *testing.T) {
	fixture := newOrchestratorFixture(testInstance, branchesWith(testReleaseBranchConstant, testSupportCommit))
	flowConfig := flowconfig.DefaultFlowConfig()
	flowConfig.VersionTagPrefix = "v"
	fixture.provider.setFlowConfig(flowConfig)

	result, finishError := fixture.orchestrator.FinishRelease(context.Background(), fixture.repository, testReleaseNameConstant, flow.FinishOptions{})
	require.NoError(testInstance, finishError)
	require.NotNil(testInstance, result)

	productionHead := fixture.engine.branches[testProductionBranchConstant]
	require.True(testInstance, result.Equal(productionHead))
	require.Equal(testInstance, []string{
		"merge " + testProductionBranchConstant + " " + testReleaseBranchConstant,
		"tag v1.0.0 " + productionHead.ShortID(),
		"merge " + testDevelopBranchConstant + " " + testReleaseBranchConstant,
		"delete " + testReleaseBranchConstant,
	}, fixture.engine.recordedOperations())
	require.Equal(testInstance, testDevelopBranchConstant, fixture.engine.currentBranch)
	require.Equal(testInstance, "v1.0.0", fixture.engine.tags["v1.0.0"].message)
}

func TestFinishHotfixTagsWithMessageAndKeepsBranch(testInstance *testing.T) {
	fixture := newOrchestratorFixture(testInstance, branchesWith(testHotfixBranchConstant, testSupportCommit))

	_, finishError := fixture.orchestrator.FinishHotfix(context.Background(), fixture.repository, testHotfixNameConstant, flow.FinishOptions{TagMessage: "Hotfix 1.0.1", KeepBranch: true})
	require.NoError(testInstance, finishError)

	tag, tagExists := fixture.engine.tags[testHotfixNameConstant]
	require.True(testInstance, tagExists)
	require.Equal(testInstance, "Hotfix 1.0.1", tag.message)
	require.True(testInstance, tag.target.Equal(fixture.engine.branches[testProductionBranchConstant]))
	require.Contains(testInstance, fixture.engine.branches, testHotfixBranchConstant)
}

func TestFinishTaggedKindsRebaseOntoEveryTarget(testInstance *testing.T) {
	testCases := []struct {
		name       string
		kind       flow.Kind
		branchName string
		branch     string
	}{
		{name: "release", kind: flow.KindRelease, branchName: testReleaseNameConstant, branch: testReleaseBranchConstant},
		{name: "hotfix", kind: flow.KindHotfix, branchName: testHotfixNameConstant, branch: testHotfixBranchConstant},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newOrchestratorFixture(testInstance, branchesWith(testCase.branch, testSupportCommit))

			result, finishError := fixture.orchestrator.FinishSupportBranch(context.Background(), fixture.repository, testCase.kind, testCase.branchName, flow.FinishOptions{IsRebase: true})
			require.NoError(testInstance, finishError)
			require.NotNil(testInstance, result)

			productionHead := fixture.engine.branches[testProductionBranchConstant]
			require.True(testInstance, result.Equal(productionHead))
			require.Equal(testInstance, []plumbing.Hash{testRootCommit.Hash}, productionHead.ParentHashes)
			require.Equal(testInstance, []plumbing.Hash{testDevelopCommit.Hash}, fixture.engine.branches[testDevelopBranchConstant].ParentHashes)
			require.Equal(testInstance, []string{
				"rebase " + testProductionBranchConstant + " " + testCase.branch,
				"checkout " + testProductionBranchConstant,
				"tag " + testCase.branchName + " " + productionHead.ShortID(),
				"rebase " + testDevelopBranchConstant + " " + testCase.branch,
				"checkout " + testDevelopBranchConstant,
				"delete " + testCase.branch,
			}, fixture.engine.recordedOperations())
			require.Equal(testInstance, testDevelopBranchConstant, fixture.engine.currentBranch)
			require.True(testInstance, fixture.engine.tags[testCase.branchName].target.Equal(productionHead))
		})
	}
}

func TestConfigurationFailuresAreWrapped(testInstance *testing.T) {
	fixture := newOrchestratorFixture(testInstance, defaultBranches())
	resolveFailure := errors.New("config unreadable")
	fixture.provider.resolveError = resolveFailure

	_, startError := fixture.orchestrator.StartFeature(context.Background(), fixture.repository, testFeatureNameConstant, flow.StartOptions{})
	require.ErrorIs(testInstance, startError, resolveFailure)

	_, finishError := fixture.orchestrator.FinishFeature(context.Background(), fixture.repository, testFeatureNameConstant, flow.FinishOptions{})
	require.ErrorIs(testInstance, finishError, resolveFailure)
	require.Empty(testInstance, fixture.engine.recordedOperations())
}

func TestBoundFlowRereadsConfigurationEveryCall(testInstance *testing.T) {
	fixture := newOrchestratorFixture(testInstance, defaultBranches())
	boundFlow := fixture.orchestrator.Bind(fixture.repository)
	require.Same(testInstance, fixture.repository, boundFlow.Repository())

	firstBranch, firstError := boundFlow.StartFeature(context.Background(), "first", flow.StartOptions{})
	require.NoError(testInstance, firstError)
	require.Equal(testInstance, "feature/first", firstBranch.Name)

	updatedConfig := flowconfig.DefaultFlowConfig()
	updatedConfig.FeaturePrefix = "feat-"
	fixture.provider.setFlowConfig(updatedConfig)

	secondBranch, secondError := boundFlow.StartFeature(context.Background(), "second", flow.StartOptions{})
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, "feat-second", secondBranch.Name)
	require.Equal(testInstance, 2, fixture.provider.resolveCount)
}

func TestBoundFlowForwardsEveryKind(testInstance *testing.T) {
	fixture := newOrchestratorFixture(testInstance, defaultBranches())
	boundFlow := fixture.orchestrator.Bind(fixture.repository)
	executionContext := context.Background()

	releaseBranch, releaseError := boundFlow.StartRelease(executionContext, testReleaseNameConstant, flow.StartOptions{})
	require.NoError(testInstance, releaseError)
	require.Equal(testInstance, testReleaseBranchConstant, releaseBranch.Name)

	hotfixBranch, hotfixError := boundFlow.StartHotfix(executionContext, testHotfixNameConstant, flow.StartOptions{})
	require.NoError(testInstance, hotfixError)
	require.Equal(testInstance, testHotfixBranchConstant, hotfixBranch.Name)

	featureBranch, featureError := boundFlow.StartFeature(executionContext, testFeatureNameConstant, flow.StartOptions{})
	require.NoError(testInstance, featureError)

	_, finishFeatureError := boundFlow.FinishFeature(executionContext, testFeatureNameConstant, flow.FinishOptions{})
	require.NoError(testInstance, finishFeatureError)
	require.NotContains(testInstance, fixture.engine.branches, featureBranch.Name)

	_, finishReleaseError := boundFlow.FinishRelease(executionContext, testReleaseNameConstant, flow.FinishOptions{})
	require.NoError(testInstance, finishReleaseError)
	require.Contains(testInstance, fixture.engine.tags, testReleaseNameConstant)

	_, finishHotfixError := boundFlow.FinishHotfix(executionContext, testHotfixNameConstant, flow.FinishOptions{})
	require.NoError(testInstance, finishHotfixError)
	require.Contains(testInstance, fixture.engine.tags, testHotfixNameConstant)
	require.NotContains(testInstance, fixture.engine.branches, testHotfixBranchConstant)
}

func TestInitialize(testInstance *testing.T) {
	testCases := []struct {
		name                   string
		branches               map[string]gitrepo.Commit
		initialized            bool
		options                flow.InitializeOptions
		flowConfig             flowconfig.FlowConfig
		expectedError          error
		expectError            bool
		expectDevelopCreated   bool
		expectConfigurationSet bool
	}{
		{
			name:                   "creates_missing_develop",
			branches:               map[string]gitrepo.Commit{testProductionBranchConstant: testRootCommit},
			flowConfig:             flowconfig.DefaultFlowConfig(),
			expectDevelopCreated:   true,
			expectConfigurationSet: true,
		},
		{
			name:                   "keeps_existing_develop",
			branches:               defaultBranches(),
			flowConfig:             flowconfig.DefaultFlowConfig(),
			expectConfigurationSet: true,
		},
		{
			name:          "refuses_reinitialization",
			branches:      defaultBranches(),
			initialized:   true,
			flowConfig:    flowconfig.DefaultFlowConfig(),
			expectedError: flow.ErrAlreadyInitialized,
		},
		{
			name:                   "force_reinitialization",
			branches:               defaultBranches(),
			initialized:            true,
			options:                flow.InitializeOptions{Force: true},
			flowConfig:             flowconfig.DefaultFlowConfig(),
			expectConfigurationSet: true,
		},
		{
			name:          "missing_production",
			branches:      map[string]gitrepo.Commit{testDevelopBranchConstant: testDevelopCommit},
			flowConfig:    flowconfig.DefaultFlowConfig(),
			expectedError: gitrepo.ErrBranchNotFound,
		},
		{
			name:        "identical_branch_names",
			branches:    defaultBranches(),
			flowConfig:  flowconfig.FlowConfig{DevelopBranch: testDevelopBranchConstant, ProductionBranch: testDevelopBranchConstant},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newOrchestratorFixture(testInstance, testCase.branches)
			fixture.provider.initialized = testCase.initialized

			result, initializeError := fixture.orchestrator.Initialize(context.Background(), fixture.repository, testCase.flowConfig, testCase.options)
			switch {
			case testCase.expectedError != nil:
				require.ErrorIs(testInstance, initializeError, testCase.expectedError)
			case testCase.expectError:
				require.Error(testInstance, initializeError)
			default:
				require.NoError(testInstance, initializeError)
			}

			require.Equal(testInstance, testCase.expectDevelopCreated, result.DevelopCreated)
			if testCase.expectDevelopCreated {
				require.True(testInstance, fixture.engine.branches[testDevelopBranchConstant].Equal(testRootCommit))
			}
			if testCase.expectConfigurationSet {
				require.Equal(testInstance, []flowconfig.FlowConfig{testCase.flowConfig}, fixture.provider.written)
			} else {
				require.Empty(testInstance, fixture.provider.written)
			}
		})
	}

	orchestratorFixture := newOrchestratorFixture(testInstance, defaultBranches())
	_, nilRepositoryError := orchestratorFixture.orchestrator.Initialize(context.Background(), nil, flowconfig.DefaultFlowConfig(), flow.InitializeOptions{})
	require.ErrorIs(testInstance, nilRepositoryError, flow.ErrRepositoryRequired)
}

func TestFinishLogsOutcome(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	engine := newStubEngine(branchesWith(testFeatureBranchConstant, testSupportCommit))
	orchestrator, creationError := flow.NewOrchestrator(flow.Dependencies{
		GitEngine:             engine,
		ConfigurationProvider: newStubConfigurationProvider(),
		Logger:                zap.New(observedCore),
	})
	require.NoError(testInstance, creationError)

	result, finishError := orchestrator.FinishFeature(context.Background(), &gitrepo.Repository{}, testFeatureNameConstant, flow.FinishOptions{})
	require.NoError(testInstance, finishError)

	finishedEntries := observedLogs.FilterMessage("Finished support branch").All()
	require.Len(testInstance, finishedEntries, 1)
	contextMap := finishedEntries[0].ContextMap()
	require.Equal(testInstance, testFeatureBranchConstant, contextMap["branch"])
	require.Equal(testInstance, result.ID(), contextMap["result_commit"])
	require.Equal(testInstance, 1, observedLogs.FilterMessage("Merged support branch").Len())
}
