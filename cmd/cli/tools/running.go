package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/otatools/internal/execshell"
)

const (
	runningCommandUseConstant              = "running <pattern>"
	runningCommandShortDescriptionConstant = "Report whether a matching process is running"
	runningCommandLongDescriptionConstant  = "running matches pattern against full process command lines with pgrep -af, ignoring otatools itself and its parent, and prints true or false."
	runningMissingPatternMessageConstant   = "process pattern is required"
	runningOutputTemplateConstant          = "%t\n"
)

// RunningCommandBuilder assembles the running command.
type RunningCommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
	CommandRunner                execshell.CommandRunner
}

// Build constructs the running command.
func (builder *RunningCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   runningCommandUseConstant,
		Short: runningCommandShortDescriptionConstant,
		Long:  runningCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}, nil
}

func (builder *RunningCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 || len(strings.TrimSpace(arguments[0])) == 0 {
		if helpError := displayCommandHelp(command); helpError != nil {
			return helpError
		}
		return errors.New(runningMissingPatternMessageConstant)
	}

	configuration := resolveConfiguration(builder.ConfigurationProvider)
	shellExecutor, executorError := newShellExecutor(executorSettings{
		logger:               resolveLogger(builder.LoggerProvider),
		configuration:        configuration,
		runner:               builder.CommandRunner,
		humanReadableLogging: humanReadableLogging(builder.HumanReadableLoggingProvider),
	})
	if executorError != nil {
		return executorError
	}

	running, runningError := shellExecutor.IsCommandRunning(command.Context(), arguments[0])
	if runningError != nil {
		return runningError
	}

	_, writeError := fmt.Fprintf(command.OutOrStdout(), runningOutputTemplateConstant, running)
	return writeError
}
