// Package pathutils resolves user supplied filesystem locations found in configuration.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant             = "~"
	tildeForwardSlashPrefixConstant = "~/"
	sqliteFileSchemePrefixConstant  = "file:"
)

var tildeWithPathSeparatorPrefix = tildeSymbolConstant + string(os.PathSeparator)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// EnvironmentLookup resolves one environment variable.
type EnvironmentLookup func(name string) string

// HomeExpander rewrites configured paths so that home shortcuts and environment
// references point at concrete locations.
type HomeExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
	environmentLookup     EnvironmentLookup
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewHomeExpander uses the operating system lookups.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProviders(os.UserHomeDir, os.Getenv)
}

// NewHomeExpanderWithProviders constructs a HomeExpander with custom lookups. Nil
// lookups fall back to the operating system.
func NewHomeExpanderWithProviders(homeProvider HomeDirectoryProvider, environmentLookup EnvironmentLookup) *HomeExpander {
	if homeProvider == nil {
		homeProvider = os.UserHomeDir
	}
	if environmentLookup == nil {
		environmentLookup = os.Getenv
	}
	return &HomeExpander{homeDirectoryProvider: homeProvider, environmentLookup: environmentLookup}
}

// Expand resolves $VAR and ${VAR} references, then a leading tilde. Empty input stays empty.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil || len(candidatePath) == 0 {
		return candidatePath
	}

	expandedPath := os.Expand(candidatePath, expander.environmentLookup)
	if !strings.HasPrefix(expandedPath, tildeSymbolConstant) {
		return expandedPath
	}

	resolvedHomeDirectory := expander.resolveHomeDirectory()
	if len(resolvedHomeDirectory) == 0 {
		return expandedPath
	}

	switch {
	case expandedPath == tildeSymbolConstant:
		return resolvedHomeDirectory
	case strings.HasPrefix(expandedPath, tildeForwardSlashPrefixConstant):
		return filepath.Join(resolvedHomeDirectory, strings.TrimPrefix(expandedPath, tildeForwardSlashPrefixConstant))
	case tildeWithPathSeparatorPrefix != tildeForwardSlashPrefixConstant && strings.HasPrefix(expandedPath, tildeWithPathSeparatorPrefix):
		return filepath.Join(resolvedHomeDirectory, strings.TrimPrefix(expandedPath, tildeWithPathSeparatorPrefix))
	default:
		return expandedPath
	}
}

// ExpandDSN expands plain paths and "file:" URIs. Network DSNs such as
// redis:// or mysql user@tcp(...) strings are returned untouched.
func (expander *HomeExpander) ExpandDSN(dataSourceName string) string {
	if strings.HasPrefix(dataSourceName, sqliteFileSchemePrefixConstant) {
		return sqliteFileSchemePrefixConstant + expander.Expand(strings.TrimPrefix(dataSourceName, sqliteFileSchemePrefixConstant))
	}
	if strings.Contains(dataSourceName, "://") || strings.Contains(dataSourceName, "@") {
		return dataSourceName
	}
	return expander.Expand(dataSourceName)
}

func (expander *HomeExpander) resolveHomeDirectory() string {
	expander.initializationGuard.Do(func() {
		expander.homeDirectory, expander.homeDirectoryError = expander.homeDirectoryProvider()
	})
	if expander.homeDirectoryError != nil {
		return ""
	}
	return expander.homeDirectory
}
