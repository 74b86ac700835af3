package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
)

const (
	gitCheckoutSubcommandNameConstant = "checkout"
	gitBranchSubcommandNameConstant   = "branch"
	gitMergeSubcommandNameConstant    = "merge"
	gitRebaseSubcommandNameConstant   = "rebase"
	gitTagSubcommandNameConstant      = "tag"
	gitDiffSubcommandNameConstant     = "diff"
	gitRevParseSubcommandNameConstant = "rev-parse"
	gitForceDeleteFlagConstant        = "-D"
	gitDeleteFlagConstant             = "--delete"
	gitFastForwardOnlyFlagConstant    = "--ff-only"
	gitMessageFlagConstant            = "-m"
	gitAbortFlagConstant              = "--abort"
	gitGitPathFlagConstant            = "--git-path"
)

const (
	gitCheckoutStartTemplateConstant                   = "Switching %s to branch %s"
	gitCheckoutSuccessTemplateConstant                 = "%s now on branch %s"
	gitCheckoutFailureTemplateConstant                 = "Failed to switch %s to branch %s (exit code %d%s)"
	gitCheckoutExecutionFailureTemplateConstant        = "Unable to switch %s to branch %s: %s"
	gitBranchDeletionStartTemplateConstant             = "Removing local branch %s in %s"
	gitBranchDeletionSuccessTemplateConstant           = "Removed local branch %s in %s"
	gitBranchDeletionFailureTemplateConstant           = "Failed to remove local branch %s in %s (exit code %d%s)"
	gitBranchDeletionExecutionFailureTemplateConstant  = "Unable to remove local branch %s in %s: %s"
	gitBranchCreationStartTemplateConstant             = "Creating branch %s from %s in %s"
	gitBranchCreationSuccessTemplateConstant           = "Created branch %s from %s in %s"
	gitBranchCreationFailureTemplateConstant           = "Failed to create branch %s from %s in %s (exit code %d%s)"
	gitBranchCreationExecutionFailureTemplateConstant  = "Unable to create branch %s from %s in %s: %s"
	gitMergeStartTemplateConstant                      = "Merging %s into the current branch in %s"
	gitMergeSuccessTemplateConstant                    = "Merged %s in %s"
	gitMergeFailureTemplateConstant                    = "Failed to merge %s in %s (exit code %d%s)"
	gitMergeExecutionFailureTemplateConstant           = "Unable to merge %s in %s: %s"
	gitFastForwardStartTemplateConstant                = "Fast-forwarding the current branch to %s in %s"
	gitFastForwardSuccessTemplateConstant              = "Fast-forwarded to %s in %s"
	gitFastForwardFailureTemplateConstant              = "Failed to fast-forward to %s in %s (exit code %d%s)"
	gitFastForwardExecutionFailureTemplateConstant     = "Unable to fast-forward to %s in %s: %s"
	gitRebaseStartTemplateConstant                     = "Rebasing %s onto %s in %s"
	gitRebaseSuccessTemplateConstant                   = "Rebased %s onto %s in %s"
	gitRebaseFailureTemplateConstant                   = "Failed to rebase %s onto %s in %s (exit code %d%s)"
	gitRebaseExecutionFailureTemplateConstant          = "Unable to rebase %s onto %s in %s: %s"
	gitTagStartTemplateConstant                        = "Tagging %s as %s in %s"
	gitTagSuccessTemplateConstant                      = "Tagged %s as %s in %s"
	gitTagFailureTemplateConstant                      = "Failed to tag %s as %s in %s (exit code %d%s)"
	gitTagExecutionFailureTemplateConstant             = "Unable to tag %s as %s in %s: %s"
	gitConflictListingStartTemplateConstant            = "Listing conflicting paths in %s"
	gitConflictListingSuccessTemplateConstant          = "Listed conflicting paths in %s"
	gitConflictListingFailureTemplateConstant          = "Failed to list conflicting paths in %s (exit code %d%s)"
	gitConflictListingExecutionFailureTemplateConstant = "Unable to list conflicting paths in %s: %s"
	gitPathLookupStartTemplateConstant                 = "Locating %s state for %s"
	gitPathLookupSuccessTemplateConstant               = "Located %s state for %s"
	gitPathLookupFailureTemplateConstant               = "Failed to locate %s state for %s (exit code %d%s)"
	gitPathLookupExecutionFailureTemplateConstant      = "Unable to locate %s state for %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	arguments := command.Details.Arguments
	switch strings.TrimSpace(arguments[0]) {
	case gitCheckoutSubcommandNameConstant:
		branchName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
		return formatter.describeStage(stage, command, result, failure, stageTemplates{
			start:            gitCheckoutStartTemplateConstant,
			success:          gitCheckoutSuccessTemplateConstant,
			failure:          gitCheckoutFailureTemplateConstant,
			executionFailure: gitCheckoutExecutionFailureTemplateConstant,
		}, formatter.describeWorkingDirectory(command), branchName)
	case gitBranchSubcommandNameConstant:
		return formatter.describeGitBranchMessage(command, result, failure, stage)
	case gitMergeSubcommandNameConstant:
		return formatter.describeGitMergeMessage(command, result, failure, stage)
	case gitRebaseSubcommandNameConstant:
		if containsArgument(arguments, gitAbortFlagConstant) {
			return formatter.buildGenericMessage(command, result, failure, stage)
		}
		ontoName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
		branchName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))
		return formatter.describeStage(stage, command, result, failure, stageTemplates{
			start:            gitRebaseStartTemplateConstant,
			success:          gitRebaseSuccessTemplateConstant,
			failure:          gitRebaseFailureTemplateConstant,
			executionFailure: gitRebaseExecutionFailureTemplateConstant,
		}, branchName, ontoName, formatter.describeWorkingDirectory(command))
	case gitTagSubcommandNameConstant:
		tagName, targetName := formatter.extractTagNameAndTarget(arguments[1:])
		return formatter.describeStage(stage, command, result, failure, stageTemplates{
			start:            gitTagStartTemplateConstant,
			success:          gitTagSuccessTemplateConstant,
			failure:          gitTagFailureTemplateConstant,
			executionFailure: gitTagExecutionFailureTemplateConstant,
		}, formatter.ensureValue(targetName), formatter.ensureValue(tagName), formatter.describeWorkingDirectory(command))
	case gitDiffSubcommandNameConstant:
		return formatter.describeStage(stage, command, result, failure, stageTemplates{
			start:            gitConflictListingStartTemplateConstant,
			success:          gitConflictListingSuccessTemplateConstant,
			failure:          gitConflictListingFailureTemplateConstant,
			executionFailure: gitConflictListingExecutionFailureTemplateConstant,
		}, formatter.describeWorkingDirectory(command))
	case gitRevParseSubcommandNameConstant:
		if !containsArgument(arguments, gitGitPathFlagConstant) {
			return formatter.buildGenericMessage(command, result, failure, stage)
		}
		return formatter.describeStage(stage, command, result, failure, stageTemplates{
			start:            gitPathLookupStartTemplateConstant,
			success:          gitPathLookupSuccessTemplateConstant,
			failure:          gitPathLookupFailureTemplateConstant,
			executionFailure: gitPathLookupExecutionFailureTemplateConstant,
		}, formatter.ensureValue(formatter.argumentAtIndex(arguments, len(arguments)-1)), formatter.describeWorkingDirectory(command))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

// describeStage renders the template for the stage; failure templates receive the exit code and
// standard error suffix (or the failure description) after the supplied values.
func (formatter CommandMessageFormatter) describeStage(stage messageStage, command ShellCommand, result ExecutionResult, failure error, templates stageTemplates, values ...any) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, values...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, values...)
	case messageStageFailure:
		failureValues := append(append([]any{}, values...), result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		return fmt.Sprintf(templates.failure, failureValues...)
	case messageStageExecutionFailure:
		failureValues := append(append([]any{}, values...), formatter.describeFailure(failure))
		return fmt.Sprintf(templates.executionFailure, failureValues...)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitBranchMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)

	if containsArgument(arguments, gitForceDeleteFlagConstant) || containsArgument(arguments, gitDeleteFlagConstant) {
		branchName := formatter.ensureValue(formatter.extractLastNonFlagArgument(arguments[1:]))
		return formatter.describeStage(stage, command, result, failure, stageTemplates{
			start:            gitBranchDeletionStartTemplateConstant,
			success:          gitBranchDeletionSuccessTemplateConstant,
			failure:          gitBranchDeletionFailureTemplateConstant,
			executionFailure: gitBranchDeletionExecutionFailureTemplateConstant,
		}, branchName, workingDirectory)
	}

	branchName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
	startPoint := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))
	return formatter.describeStage(stage, command, result, failure, stageTemplates{
		start:            gitBranchCreationStartTemplateConstant,
		success:          gitBranchCreationSuccessTemplateConstant,
		failure:          gitBranchCreationFailureTemplateConstant,
		executionFailure: gitBranchCreationExecutionFailureTemplateConstant,
	}, branchName, startPoint, workingDirectory)
}

func (formatter CommandMessageFormatter) describeGitMergeMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)
	if containsArgument(arguments, gitAbortFlagConstant) {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	sourceName := formatter.ensureValue(formatter.extractLastNonFlagArgument(formatter.withoutFlagValue(arguments[1:], gitMessageFlagConstant)))
	if containsArgument(arguments, gitFastForwardOnlyFlagConstant) {
		return formatter.describeStage(stage, command, result, failure, stageTemplates{
			start:            gitFastForwardStartTemplateConstant,
			success:          gitFastForwardSuccessTemplateConstant,
			failure:          gitFastForwardFailureTemplateConstant,
			executionFailure: gitFastForwardExecutionFailureTemplateConstant,
		}, sourceName, workingDirectory)
	}

	return formatter.describeStage(stage, command, result, failure, stageTemplates{
		start:            gitMergeStartTemplateConstant,
		success:          gitMergeSuccessTemplateConstant,
		failure:          gitMergeFailureTemplateConstant,
		executionFailure: gitMergeExecutionFailureTemplateConstant,
	}, sourceName, workingDirectory)
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	return fmt.Sprintf(commandLabelTemplateConstant, describeCommand(command), formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return arguments[index]
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) extractLastNonFlagArgument(arguments []string) string {
	for index := len(arguments) - 1; index >= 0; index-- {
		argument := strings.TrimSpace(arguments[index])
		if len(argument) == 0 || strings.HasPrefix(argument, flagPrefixConstant) {
			continue
		}
		return argument
	}
	return emptyStringConstant
}

// withoutFlagValue drops the flag and the value that follows it.
func (formatter CommandMessageFormatter) withoutFlagValue(arguments []string, flag string) []string {
	remaining := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag {
			index++
			continue
		}
		remaining = append(remaining, arguments[index])
	}
	return remaining
}

func (formatter CommandMessageFormatter) extractTagNameAndTarget(arguments []string) (string, string) {
	positional := []string{}
	for _, argument := range formatter.withoutFlagValue(arguments, gitMessageFlagConstant) {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		positional = append(positional, trimmed)
	}
	switch len(positional) {
	case 0:
		return emptyStringConstant, emptyStringConstant
	case 1:
		return positional[0], emptyStringConstant
	default:
		return positional[0], positional[1]
	}
}
