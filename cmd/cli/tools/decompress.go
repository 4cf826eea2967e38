package tools

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/temirov/otatools/internal/archive"
)

const (
	decompressCommandUseConstant              = "decompress <archive> [destination]"
	decompressCommandShortDescriptionConstant = "Extract a .zip or .tar.gz archive"
	decompressCommandLongDescriptionConstant  = "decompress unpacks a .zip, .tar.gz, or .tgz archive into destination, or into the current directory when none is given."
	decompressMissingArchiveMessageConstant   = "archive path is required"
)

// DecompressCommandBuilder assembles the decompress command.
type DecompressCommandBuilder struct {
	LoggerProvider LoggerProvider
}

// Build constructs the decompress command.
func (builder *DecompressCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   decompressCommandUseConstant,
		Short: decompressCommandShortDescriptionConstant,
		Long:  decompressCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(2),
		RunE:  builder.run,
	}, nil
}

func (builder *DecompressCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		if helpError := displayCommandHelp(command); helpError != nil {
			return helpError
		}
		return errors.New(decompressMissingArchiveMessageConstant)
	}

	destinationDirectory := ""
	if len(arguments) > 1 {
		destinationDirectory = arguments[1]
	}

	return archive.NewDecompressor(resolveLogger(builder.LoggerProvider)).Decompress(arguments[0], destinationDirectory)
}
