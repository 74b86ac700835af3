package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	commandGitNameConstant                    = "git"
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	commandFailedTemplateConstant             = "%s exited with code %d%s"
	commandExecutionFailedTemplateConstant    = "%s could not be executed: %v"
	commandStartedMessageConstant             = "command started"
	commandCompletedMessageConstant           = "command completed"
	commandFailedMessageConstant              = "command failed"
	commandExecutionFailedMessageConstant     = "command execution failed"
	logFieldCommandNameConstant               = "command_name"
	logFieldCommandArgumentsConstant          = "command_arguments"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldStandardErrorConstant             = "standard_error"
	commandArgumentSeparatorConstant          = " "
)

// CommandName identifies an executable invoked through the shell executor.
type CommandName string

// CommandGit is the git executable.
const CommandGit CommandName = CommandName(commandGitNameConstant)

// CommandDetails describes arguments and environment for a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures process output and exit status.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// ErrLoggerNotConfigured indicates a nil logger was supplied.
var ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

// ErrCommandRunnerNotConfigured indicates a nil runner was supplied.
var ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)

// CommandFailedError reports a command that ran but exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (commandError CommandFailedError) Error() string {
	standardErrorSuffix := ""
	trimmedStandardError := strings.TrimSpace(commandError.Result.StandardError)
	if len(trimmedStandardError) > 0 {
		standardErrorSuffix = fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
	}
	return fmt.Sprintf(commandFailedTemplateConstant, describeCommand(commandError.Command), commandError.Result.ExitCode, standardErrorSuffix)
}

// CommandExecutionError reports a command that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (commandError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionFailedTemplateConstant, describeCommand(commandError.Command), commandError.Cause)
}

// Unwrap exposes the underlying runner failure.
func (commandError CommandExecutionError) Unwrap() error {
	return commandError.Cause
}

// ShellExecutor runs commands through a CommandRunner and logs their lifecycle.
type ShellExecutor struct {
	logger               *zap.Logger
	commandRunner        CommandRunner
	humanReadableLogging bool
	messageFormatter     CommandMessageFormatter
}

// NewShellExecutor validates collaborators and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, humanReadableLogging bool) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{
		logger:               logger,
		commandRunner:        commandRunner,
		humanReadableLogging: humanReadableLogging,
		messageFormatter:     CommandMessageFormatter{},
	}, nil
}

// Execute runs the command and converts non-zero exits into CommandFailedError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.logStarted(command)

	executionResult, runError := executor.commandRunner.Run(executionContext, command)
	if runError != nil {
		executor.logExecutionFailure(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	if executionResult.ExitCode != 0 {
		executor.logFailure(command, executionResult)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logSuccess(command)
	return executionResult, nil
}

// ExecuteGit runs git with the supplied details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

func (executor *ShellExecutor) logStarted(command ShellCommand) {
	if executor.humanReadableLogging {
		executor.logger.Info(executor.messageFormatter.BuildStartedMessage(command))
		return
	}
	executor.logger.Debug(commandStartedMessageConstant, executor.commandFields(command)...)
}

func (executor *ShellExecutor) logSuccess(command ShellCommand) {
	if executor.humanReadableLogging {
		executor.logger.Info(executor.messageFormatter.BuildSuccessMessage(command))
		return
	}
	executor.logger.Debug(commandCompletedMessageConstant, executor.commandFields(command)...)
}

func (executor *ShellExecutor) logFailure(command ShellCommand, result ExecutionResult) {
	if executor.humanReadableLogging {
		executor.logger.Warn(executor.messageFormatter.BuildFailureMessage(command, result))
		return
	}
	fields := append(executor.commandFields(command),
		zap.Int(logFieldExitCodeConstant, result.ExitCode),
		zap.String(logFieldStandardErrorConstant, strings.TrimSpace(result.StandardError)),
	)
	executor.logger.Warn(commandFailedMessageConstant, fields...)
}

func (executor *ShellExecutor) logExecutionFailure(command ShellCommand, failure error) {
	if executor.humanReadableLogging {
		executor.logger.Error(executor.messageFormatter.BuildExecutionFailureMessage(command, failure))
		return
	}
	fields := append(executor.commandFields(command), zap.Error(failure))
	executor.logger.Error(commandExecutionFailedMessageConstant, fields...)
}

func (executor *ShellExecutor) commandFields(command ShellCommand) []zap.Field {
	return []zap.Field{
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldCommandArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	}
}

func describeCommand(command ShellCommand) string {
	if len(command.Details.Arguments) == 0 {
		return string(command.Name)
	}
	return string(command.Name) + commandArgumentSeparatorConstant + strings.Join(command.Details.Arguments, commandArgumentSeparatorConstant)
}
