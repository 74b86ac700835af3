package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitflow/internal/execshell"
)

const (
	testExecutionSuccessCaseNameConstant         = "success"
	testExecutionFailureCaseNameConstant         = "failure_exit_code"
	testExecutionRunnerErrorCaseNameConstant     = "runner_error"
	testCommandArgumentConstant                  = "--version"
	testWorkingDirectoryConstant                 = "."
	testStandardErrorOutputConstant              = "failure"
	testLoggerInitializationCaseNameConstant     = "logger_validation"
	testRunnerInitializationCaseNameConstant     = "runner_validation"
	testSuccessfulInitializationCaseNameConstant = "successful_initialization"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.executionResult, runner.executionError
}

func TestShellExecutorInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectError   error
		expectSuccess bool
	}{
		{
			name:        testLoggerInitializationCaseNameConstant,
			logger:      nil,
			runner:      &recordingCommandRunner{},
			expectError: execshell.ErrLoggerNotConfigured,
		},
		{
			name:        testRunnerInitializationCaseNameConstant,
			logger:      zap.NewNop(),
			runner:      nil,
			expectError: execshell.ErrCommandRunnerNotConfigured,
		},
		{
			name:          testSuccessfulInitializationCaseNameConstant,
			logger:        zap.NewNop(),
			runner:        &recordingCommandRunner{},
			expectSuccess: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner, false)
			if testCase.expectSuccess {
				require.NoError(testInstance, creationError)
				require.NotNil(testInstance, executor)
			} else {
				require.Error(testInstance, creationError)
				require.ErrorIs(testInstance, creationError, testCase.expectError)
			}
		})
	}
}

func TestShellExecutorExecuteBehavior(testInstance *testing.T) {
	testCases := []struct {
		name             string
		runnerResult     execshell.ExecutionResult
		runnerError      error
		expectErrorType  any
		expectedLogCount int
	}{
		{
			name: testExecutionSuccessCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardOutput: "ok",
				ExitCode:       0,
			},
			expectedLogCount: 2,
		},
		{
			name: testExecutionFailureCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardError: testStandardErrorOutputConstant,
				ExitCode:      1,
			},
			expectErrorType:  execshell.CommandFailedError{},
			expectedLogCount: 2,
		},
		{
			name:             testExecutionRunnerErrorCaseNameConstant,
			runnerError:      errors.New("runner failure"),
			expectErrorType:  execshell.CommandExecutionError{},
			expectedLogCount: 2,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			logger := zap.New(observerCore)

			recordingRunner := &recordingCommandRunner{
				executionResult: testCase.runnerResult,
				executionError:  testCase.runnerError,
			}

			shellExecutor, creationError := execshell.NewShellExecutor(logger, recordingRunner, false)
			require.NoError(testInstance, creationError)

			commandDetails := execshell.CommandDetails{Arguments: []string{testCommandArgumentConstant}, WorkingDirectory: testWorkingDirectoryConstant}
			executionResult, executionError := shellExecutor.ExecuteGit(context.Background(), commandDetails)

			if testCase.expectErrorType != nil {
				require.Error(testInstance, executionError)
				require.IsType(testInstance, testCase.expectErrorType, executionError)
				require.Empty(testInstance, executionResult.StandardOutput)
			} else {
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.runnerResult.StandardOutput, executionResult.StandardOutput)
			}

			require.Len(testInstance, observerLogs.All(), testCase.expectedLogCount)
		})
	}
}

func TestShellExecutorExecuteGitSetsCommandName(testInstance *testing.T) {
	recordingRunner := &recordingCommandRunner{}
	executor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner, false)
	require.NoError(testInstance, creationError)

	_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{testCommandArgumentConstant}})
	require.NoError(testInstance, executionError)
	require.Len(testInstance, recordingRunner.recordedCommands, 1)
	require.Equal(testInstance, execshell.CommandGit, recordingRunner.recordedCommands[0].Name)
	require.Equal(testInstance, []string{testCommandArgumentConstant}, recordingRunner.recordedCommands[0].Details.Arguments)
}

func TestShellExecutorHumanReadableLogging(testInstance *testing.T) {
	testCases := []struct {
		name             string
		runnerResult     execshell.ExecutionResult
		expectedMessages []string
	}{
		{
			name:             testExecutionSuccessCaseNameConstant,
			runnerResult:     execshell.ExecutionResult{},
			expectedMessages: []string{"Switching /tmp/repo to branch develop", "/tmp/repo now on branch develop"},
		},
		{
			name:         testExecutionFailureCaseNameConstant,
			runnerResult: execshell.ExecutionResult{ExitCode: 1, StandardError: testStandardErrorOutputConstant},
			expectedMessages: []string{
				"Switching /tmp/repo to branch develop",
				"Failed to switch /tmp/repo to branch develop (exit code 1: failure)",
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			recordingRunner := &recordingCommandRunner{executionResult: testCase.runnerResult}
			executor, creationError := execshell.NewShellExecutor(zap.New(observerCore), recordingRunner, true)
			require.NoError(testInstance, creationError)

			_, _ = executor.ExecuteGit(context.Background(), execshell.CommandDetails{
				Arguments:        []string{"checkout", "develop"},
				WorkingDirectory: "/tmp/repo",
			})

			recordedMessages := []string{}
			for _, entry := range observerLogs.All() {
				recordedMessages = append(recordedMessages, entry.Message)
			}
			require.Equal(testInstance, testCase.expectedMessages, recordedMessages)
		})
	}
}

func TestCommandFailedErrorIncludesStandardError(testInstance *testing.T) {
	commandError := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: []string{"merge", "feature/foo"}}},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: "CONFLICT (content)\n"},
	}

	require.Equal(testInstance, "git merge feature/foo exited with code 1: CONFLICT (content)", commandError.Error())
}

func TestCommandExecutionErrorUnwrapsCause(testInstance *testing.T) {
	runnerFailure := errors.New("executable not found")
	recordingRunner := &recordingCommandRunner{executionError: runnerFailure}
	executor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner, false)
	require.NoError(testInstance, creationError)

	_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{})
	require.ErrorIs(testInstance, executionError, runnerFailure)
}
