package tools

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/otatools/internal/execshell"
	"github.com/temirov/otatools/internal/toolpath"
	"github.com/temirov/otatools/internal/ui"
	"github.com/temirov/otatools/internal/utils"
)

const (
	resolverCreationErrorTemplateConstant = "unable to prepare tools directory %q: %w"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider yields the current tools configuration.
type ConfigurationProvider func() Configuration

// HumanReadableLoggingProvider reports whether console progress lines are wanted.
type HumanReadableLoggingProvider func() bool

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveConfiguration(provider ConfigurationProvider) Configuration {
	if provider == nil {
		return DefaultConfiguration().Sanitize()
	}
	return provider().Sanitize()
}

func humanReadableLogging(provider HumanReadableLoggingProvider) bool {
	return provider != nil && provider()
}

// toolsDirectory prefers the directory the root command stored on the context.
func toolsDirectory(executionContext context.Context, configuration Configuration) string {
	if contextDirectory, available := utils.NewCommandContextAccessor().ToolsDirectory(executionContext); available {
		return contextDirectory
	}
	return configuration.Directory
}

func newResolver(command *cobra.Command, configuration Configuration, logger *zap.Logger) (*toolpath.Resolver, error) {
	directory := toolsDirectory(command.Context(), configuration)
	resolver, resolverError := toolpath.NewResolver(directory, logger)
	if resolverError != nil {
		return nil, fmt.Errorf(resolverCreationErrorTemplateConstant, directory, resolverError)
	}
	return resolver, nil
}

type executorSettings struct {
	logger               *zap.Logger
	configuration        Configuration
	runner               execshell.CommandRunner
	locator              execshell.ExecutableLocator
	humanReadableLogging bool
}

// newShellExecutor wires the OS runner to the tools resolver unless a runner is injected.
func newShellExecutor(settings executorSettings) (*execshell.ShellExecutor, error) {
	runner := settings.runner
	if runner == nil {
		runner = execshell.NewOSCommandRunnerWithOptions(execshell.OSCommandRunnerOptions{
			Locator:                      settings.locator,
			StrippedEnvironmentVariables: settings.configuration.Runner.StrippedEnvironmentVariables,
		})
	}

	shellExecutor, executorError := execshell.NewShellExecutor(settings.logger, runner)
	if executorError != nil {
		return nil, executorError
	}
	if settings.humanReadableLogging {
		shellExecutor.SetObserver(ui.NewConsoleCommandEventLogger(settings.logger))
	}
	return shellExecutor, nil
}

func displayCommandHelp(command *cobra.Command) error {
	if command == nil {
		return nil
	}
	return command.Help()
}
