package pathutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	tildeSymbolConstant                   = "~"
	workingDirectoryErrorTemplateConstant = "unable to determine working directory: %w"
	homeDirectoryErrorTemplateConstant    = "unable to expand %q: %w"
	directoryProviderMissingMessage       = "directory provider not configured"
)

// DirectoryProvider resolves a well-known directory such as the user home or the working directory.
type DirectoryProvider func() (string, error)

// RepositoryPathResolver turns user-supplied repository locations into absolute paths.
type RepositoryPathResolver struct {
	homeDirectoryProvider    DirectoryProvider
	workingDirectoryProvider DirectoryProvider
}

// NewRepositoryPathResolver constructs a resolver backed by the operating system.
func NewRepositoryPathResolver() *RepositoryPathResolver {
	return NewRepositoryPathResolverWithProviders(os.UserHomeDir, os.Getwd)
}

// NewRepositoryPathResolverWithProviders constructs a resolver with custom directory lookups.
func NewRepositoryPathResolverWithProviders(homeDirectoryProvider DirectoryProvider, workingDirectoryProvider DirectoryProvider) *RepositoryPathResolver {
	return &RepositoryPathResolver{
		homeDirectoryProvider:    homeDirectoryProvider,
		workingDirectoryProvider: workingDirectoryProvider,
	}
}

// Resolve returns the first non-blank candidate with a leading ~ expanded, made absolute
// against the working directory. With no usable candidate the working directory is returned.
func (resolver *RepositoryPathResolver) Resolve(candidates ...string) (string, error) {
	workingDirectory, workingDirectoryError := resolver.lookup(resolver.workingDirectoryProvider)
	if workingDirectoryError != nil {
		return "", fmt.Errorf(workingDirectoryErrorTemplateConstant, workingDirectoryError)
	}

	for _, candidate := range candidates {
		trimmedCandidate := strings.TrimSpace(candidate)
		if len(trimmedCandidate) == 0 {
			continue
		}

		expandedCandidate, expandError := resolver.expandHome(trimmedCandidate)
		if expandError != nil {
			return "", expandError
		}
		if filepath.IsAbs(expandedCandidate) {
			return filepath.Clean(expandedCandidate), nil
		}
		return filepath.Join(workingDirectory, expandedCandidate), nil
	}

	return workingDirectory, nil
}

func (resolver *RepositoryPathResolver) expandHome(candidate string) (string, error) {
	if !strings.HasPrefix(candidate, tildeSymbolConstant) {
		return candidate, nil
	}

	remainder := strings.TrimPrefix(candidate, tildeSymbolConstant)
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return candidate, nil
	}

	homeDirectory, homeError := resolver.lookup(resolver.homeDirectoryProvider)
	if homeError != nil {
		return "", fmt.Errorf(homeDirectoryErrorTemplateConstant, candidate, homeError)
	}
	return filepath.Join(homeDirectory, remainder), nil
}

func (resolver *RepositoryPathResolver) lookup(provider DirectoryProvider) (string, error) {
	if provider == nil {
		return "", errors.New(directoryProviderMissingMessage)
	}
	return provider()
}
