package tools

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/otatools/internal/toolpath"
)

const (
	resolveCommandUseConstant              = "resolve <tool> [tool...]"
	resolveCommandShortDescriptionConstant = "Print the absolute path of host tools"
	resolveCommandLongDescriptionConstant  = "resolve looks each tool up on the search path and then under <tools-dir>/bin, marking vendored binaries executable, and prints one absolute path per line."
	resolveSourceFlagNameConstant          = "with-source"
	resolveSourceFlagUsageConstant         = "Prefix each path with the location it was found in"
	resolveMissingToolMessageConstant      = "at least one tool name is required"
	resolvedToolMessageConstant            = "Resolved tool"
	resolvedOutputTemplateConstant         = "%s\n"
	resolvedSourceOutputTemplateConstant   = "%s\t%s\n"
	logFieldToolConstant                   = "tool"
	logFieldPathConstant                   = "path"
	logFieldSourceConstant                 = "source"
)

// ResolveCommandBuilder assembles the resolve command.
type ResolveCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the resolve command.
func (builder *ResolveCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   resolveCommandUseConstant,
		Short: resolveCommandShortDescriptionConstant,
		Long:  resolveCommandLongDescriptionConstant,
		RunE:  builder.run,
	}
	command.Flags().Bool(resolveSourceFlagNameConstant, false, resolveSourceFlagUsageConstant)
	return command, nil
}

func (builder *ResolveCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		if helpError := displayCommandHelp(command); helpError != nil {
			return helpError
		}
		return errors.New(resolveMissingToolMessageConstant)
	}

	logger := resolveLogger(builder.LoggerProvider)
	resolver, resolverError := newResolver(command, resolveConfiguration(builder.ConfigurationProvider), logger)
	if resolverError != nil {
		return resolverError
	}

	withSource, _ := command.Flags().GetBool(resolveSourceFlagNameConstant)
	output := command.OutOrStdout()
	for _, toolName := range arguments {
		executableRecord, resolveError := resolver.Resolve(toolpath.ToolName(toolName))
		if resolveError != nil {
			return resolveError
		}

		logger.Info(
			resolvedToolMessageConstant,
			zap.String(logFieldToolConstant, toolName),
			zap.String(logFieldPathConstant, executableRecord.Path),
			zap.String(logFieldSourceConstant, string(executableRecord.Source)),
		)

		if withSource {
			fmt.Fprintf(output, resolvedSourceOutputTemplateConstant, executableRecord.Source, executableRecord.Path)
			continue
		}
		fmt.Fprintf(output, resolvedOutputTemplateConstant, executableRecord.Path)
	}
	return nil
}
