package tools

import (
	"strings"
	"time"

	"github.com/temirov/otatools/internal/execshell"
)

const (
	directoryConfigurationKeyConstant                 = "directory"
	runnerTimeoutConfigurationKeyConstant             = "runner.timeout"
	runnerStrippedEnvironmentConfigurationKeyConstant = "runner.stripped_environment"
	configurationKeySeparatorConstant                 = "."
)

// Configuration captures the tools section of the otatools configuration.
type Configuration struct {
	Directory string              `mapstructure:"directory"`
	Runner    RunnerConfiguration `mapstructure:"runner"`
}

// RunnerConfiguration controls how child processes are launched.
type RunnerConfiguration struct {
	Timeout                      time.Duration `mapstructure:"timeout"`
	StrippedEnvironmentVariables []string      `mapstructure:"stripped_environment"`
}

// DefaultConfiguration returns the built-in tools settings.
func DefaultConfiguration() Configuration {
	return Configuration{
		Runner: RunnerConfiguration{
			StrippedEnvironmentVariables: execshell.DefaultStrippedEnvironmentVariables(),
		},
	}
}

// DefaultConfigurationValues exposes DefaultConfiguration as Viper defaults under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefixedKey(prefix, directoryConfigurationKeyConstant):                 defaults.Directory,
		prefixedKey(prefix, runnerTimeoutConfigurationKeyConstant):             defaults.Runner.Timeout.String(),
		prefixedKey(prefix, runnerStrippedEnvironmentConfigurationKeyConstant): defaults.Runner.StrippedEnvironmentVariables,
	}
}

// Sanitize trims values and drops blank environment names. A nil list
// falls back to the default; an explicitly empty list strips nothing.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.Directory = strings.TrimSpace(configuration.Directory)
	if sanitized.Runner.Timeout < 0 {
		sanitized.Runner.Timeout = 0
	}
	if configuration.Runner.StrippedEnvironmentVariables == nil {
		sanitized.Runner.StrippedEnvironmentVariables = execshell.DefaultStrippedEnvironmentVariables()
		return sanitized
	}
	stripped := make([]string, 0, len(configuration.Runner.StrippedEnvironmentVariables))
	for _, variableName := range configuration.Runner.StrippedEnvironmentVariables {
		trimmedName := strings.TrimSpace(variableName)
		if len(trimmedName) == 0 {
			continue
		}
		stripped = append(stripped, trimmedName)
	}
	sanitized.Runner.StrippedEnvironmentVariables = stripped
	return sanitized
}

func prefixedKey(prefix string, key string) string {
	trimmedPrefix := strings.TrimSpace(prefix)
	if len(trimmedPrefix) == 0 {
		return key
	}
	return trimmedPrefix + configurationKeySeparatorConstant + key
}
