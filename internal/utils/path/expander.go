// Package pathutils normalizes user supplied directory settings.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant = "~"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// EnvironmentLookup resolves a single environment variable.
type EnvironmentLookup func(name string) (string, bool)

// Expander resolves a leading tilde and $VARIABLE references in configured paths,
// for example "$ANDROID_BUILD_TOP/out/otatools" or "~/otatools".
type Expander struct {
	homeDirectoryProvider HomeDirectoryProvider
	environmentLookup     EnvironmentLookup
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewExpander constructs an Expander using the operating system lookups.
func NewExpander() *Expander {
	return NewExpanderWithProviders(os.UserHomeDir, os.LookupEnv)
}

// NewExpanderWithProviders constructs an Expander with custom lookups.
func NewExpanderWithProviders(homeProvider HomeDirectoryProvider, environmentLookup EnvironmentLookup) *Expander {
	if homeProvider == nil {
		homeProvider = os.UserHomeDir
	}
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	return &Expander{homeDirectoryProvider: homeProvider, environmentLookup: environmentLookup}
}

// Expand substitutes environment references and then resolves a leading tilde.
// Unset variables expand to the empty string; an unknown home leaves the tilde in place.
func (expander *Expander) Expand(candidatePath string) string {
	if expander == nil || len(candidatePath) == 0 {
		return candidatePath
	}

	expandedPath := os.Expand(candidatePath, func(variableName string) string {
		value, _ := expander.environmentLookup(variableName)
		return value
	})

	if !strings.HasPrefix(expandedPath, tildeSymbolConstant) {
		return expandedPath
	}

	remainder := strings.TrimPrefix(expandedPath, tildeSymbolConstant)
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return expandedPath
	}

	homeDirectory := expander.resolveHomeDirectory()
	if len(homeDirectory) == 0 {
		return expandedPath
	}
	if len(remainder) == 0 {
		return homeDirectory
	}
	return filepath.Join(homeDirectory, remainder[1:])
}

func (expander *Expander) resolveHomeDirectory() string {
	expander.initializationGuard.Do(func() {
		expander.homeDirectory, expander.homeDirectoryError = expander.homeDirectoryProvider()
	})
	if expander.homeDirectoryError != nil {
		return ""
	}
	return expander.homeDirectory
}
