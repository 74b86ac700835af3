package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const (
	environmentAssignmentSeparatorConstant = "="
	localeAllEnvironmentNameConstant       = "LC_ALL"
	localeLanguageEnvironmentNameConstant  = "LANGUAGE"
	localeNeutralValueConstant             = "C"
)

// OSCommandRunner executes commands using the operating system facilities.
// Every command inherits the process environment overlaid with the runner's
// base environment, which pins the message locale so that callers can match
// tool diagnostics reliably.
type OSCommandRunner struct {
	baseEnvironment map[string]string
}

// NewOSCommandRunner constructs a runner backed by os/exec with the neutral C locale.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{baseEnvironment: NeutralLocaleEnvironment()}
}

// NeutralLocaleEnvironment returns the variables that force untranslated tool output.
func NeutralLocaleEnvironment() map[string]string {
	return map[string]string{
		localeAllEnvironmentNameConstant:      localeNeutralValueConstant,
		localeLanguageEnvironmentNameConstant: "",
	}
}

// Run executes the supplied command using os/exec.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.CommandContext(executionContext, string(command.Name), commandArguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}
	executable.Env = runner.environment(command.Details.EnvironmentVariables)

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer

	if len(command.Details.StandardInput) > 0 {
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	runError := executable.Run()
	if runError != nil {
		exitError := &exec.ExitError{}
		if errors.As(runError, &exitError) {
			return ExecutionResult{
				StandardOutput: standardOutputBuffer.String(),
				StandardError:  standardErrorBuffer.String(),
				ExitCode:       exitError.ExitCode(),
			}, nil
		}
		return ExecutionResult{}, runError
	}

	return ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		ExitCode:       0,
	}, nil
}

// environment layers the process environment, the base environment and the
// command's own variables, later layers replacing earlier values of the same name.
func (runner *OSCommandRunner) environment(commandVariables map[string]string) []string {
	mergedVariables := map[string]string{}
	for _, assignment := range os.Environ() {
		variableName, variableValue, assignmentValid := strings.Cut(assignment, environmentAssignmentSeparatorConstant)
		if assignmentValid {
			mergedVariables[variableName] = variableValue
		}
	}
	for variableName, variableValue := range runner.baseEnvironment {
		mergedVariables[variableName] = variableValue
	}
	for variableName, variableValue := range commandVariables {
		mergedVariables[variableName] = variableValue
	}

	variableNames := make([]string, 0, len(mergedVariables))
	for variableName := range mergedVariables {
		variableNames = append(variableNames, variableName)
	}
	sort.Strings(variableNames)

	assignments := make([]string, 0, len(variableNames))
	for _, variableName := range variableNames {
		assignments = append(assignments, variableName+environmentAssignmentSeparatorConstant+mergedVariables[variableName])
	}
	return assignments
}
