package tools

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/otatools/internal/filesystem"
	"github.com/temirov/otatools/internal/toolpath"
)

const (
	grantCommandUseConstant              = "grant-exec <path> [path...]"
	grantCommandShortDescriptionConstant = "Add read and execute permission for everyone"
	grantCommandLongDescriptionConstant  = "grant-exec adds r-x for owner, group, and others to each file while keeping every permission bit already set."
	grantMissingPathMessageConstant      = "at least one path is required"
	grantFailedTemplateConstant          = "unable to grant execute permission on %s: %w"
	grantedMessageConstant               = "Granted execute permission"
)

// GrantExecCommandBuilder assembles the grant-exec command.
type GrantExecCommandBuilder struct {
	LoggerProvider LoggerProvider
	FileSystem     filesystem.FileSystem
}

// Build constructs the grant-exec command.
func (builder *GrantExecCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   grantCommandUseConstant,
		Short: grantCommandShortDescriptionConstant,
		Long:  grantCommandLongDescriptionConstant,
		RunE:  builder.run,
	}, nil
}

func (builder *GrantExecCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		if helpError := displayCommandHelp(command); helpError != nil {
			return helpError
		}
		return errors.New(grantMissingPathMessageConstant)
	}

	fileSystem := builder.FileSystem
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}
	logger := resolveLogger(builder.LoggerProvider)

	for _, targetPath := range arguments {
		if grantError := toolpath.GrantExecutable(fileSystem, targetPath); grantError != nil {
			return fmt.Errorf(grantFailedTemplateConstant, targetPath, grantError)
		}
		logger.Info(grantedMessageConstant, zap.String(logFieldPathConstant, targetPath))
	}
	return nil
}
