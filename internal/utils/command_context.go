package utils

import (
	"context"
	"strings"
)

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	repositoryPathContextKeyConstant        = commandContextKey("repositoryPath")
)

type commandContextKey string

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return withValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	return stringValue(executionContext, configurationFilePathContextKeyConstant)
}

// WithRepositoryPath attaches the repository path selected on the command line.
func (accessor CommandContextAccessor) WithRepositoryPath(parentContext context.Context, repositoryPath string) context.Context {
	return withValue(parentContext, repositoryPathContextKeyConstant, strings.TrimSpace(repositoryPath))
}

// RepositoryPath extracts a non-empty repository path from the provided context.
func (accessor CommandContextAccessor) RepositoryPath(executionContext context.Context) (string, bool) {
	repositoryPath, repositoryPathAvailable := stringValue(executionContext, repositoryPathContextKeyConstant)
	if !repositoryPathAvailable || len(repositoryPath) == 0 {
		return "", false
	}
	return repositoryPath, true
}

func withValue(parentContext context.Context, key commandContextKey, value string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, key, value)
}

func stringValue(executionContext context.Context, key commandContextKey) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	value, valueAvailable := executionContext.Value(key).(string)
	return value, valueAvailable
}
