package cli

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	flagutils "github.com/temirov/otatools/internal/utils/flags"
)

const (
	configCommandUseConstant              = "config"
	configCommandShortDescriptionConstant = "Print the effective configuration"
	configCommandLongDescriptionConstant  = "config prints the configuration otatools resolved from its defaults, the configuration file, OTATOOLS_* environment variables, and flags."
	configFormatFlagNameConstant          = "format"
	configFormatFlagUsageConstant         = "Output format"
	configFormatYAMLConstant              = "yaml"
	configFormatTOMLConstant              = "toml"
	configEncodeErrorTemplateConstant     = "unable to encode configuration as %s: %w"
	yamlIndentationConstant               = 2
)

// ConfigurationDocument is the printable form of ApplicationConfiguration.
type ConfigurationDocument struct {
	Common CommonConfigurationDocument `yaml:"common" toml:"common"`
	Tools  ToolsConfigurationDocument  `yaml:"tools" toml:"tools"`
}

// CommonConfigurationDocument mirrors ApplicationCommonConfiguration.
type CommonConfigurationDocument struct {
	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"`
}

// ToolsConfigurationDocument mirrors tools.Configuration with durations rendered as strings.
type ToolsConfigurationDocument struct {
	Directory string                      `yaml:"directory" toml:"directory"`
	Runner    RunnerConfigurationDocument `yaml:"runner" toml:"runner"`
}

// RunnerConfigurationDocument mirrors tools.RunnerConfiguration.
type RunnerConfigurationDocument struct {
	Timeout             string   `yaml:"timeout" toml:"timeout"`
	StrippedEnvironment []string `yaml:"stripped_environment" toml:"stripped_environment"`
}

// NewConfigurationDocument converts configuration into its printable form.
func NewConfigurationDocument(configuration ApplicationConfiguration) ConfigurationDocument {
	strippedEnvironment := append([]string{}, configuration.Tools.Runner.StrippedEnvironmentVariables...)
	return ConfigurationDocument{
		Common: CommonConfigurationDocument{
			LogLevel:  configuration.Common.LogLevel,
			LogFormat: configuration.Common.LogFormat,
		},
		Tools: ToolsConfigurationDocument{
			Directory: configuration.Tools.Directory,
			Runner: RunnerConfigurationDocument{
				Timeout:             configuration.Tools.Runner.Timeout.String(),
				StrippedEnvironment: strippedEnvironment,
			},
		},
	}
}

// ConfigCommandBuilder assembles the config command.
type ConfigCommandBuilder struct {
	ConfigurationProvider func() ApplicationConfiguration
}

// Build constructs the config command.
func (builder *ConfigCommandBuilder) Build() (*cobra.Command, error) {
	var outputFormat string
	command := &cobra.Command{
		Use:   configCommandUseConstant,
		Short: configCommandShortDescriptionConstant,
		Long:  configCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			var configuration ApplicationConfiguration
			if builder.ConfigurationProvider != nil {
				configuration = builder.ConfigurationProvider()
			}
			return writeConfigurationDocument(command.OutOrStdout(), NewConfigurationDocument(configuration), outputFormat)
		},
	}
	flagutils.AddChoiceFlag(command.Flags(), &outputFormat, configFormatFlagNameConstant, configFormatYAMLConstant, []string{configFormatYAMLConstant, configFormatTOMLConstant}, configFormatFlagUsageConstant)
	return command, nil
}

func writeConfigurationDocument(output io.Writer, document ConfigurationDocument, outputFormat string) error {
	if outputFormat == configFormatTOMLConstant {
		if encodeError := toml.NewEncoder(output).Encode(document); encodeError != nil {
			return fmt.Errorf(configEncodeErrorTemplateConstant, outputFormat, encodeError)
		}
		return nil
	}

	encoder := yaml.NewEncoder(output)
	encoder.SetIndent(yamlIndentationConstant)
	if encodeError := encoder.Encode(document); encodeError != nil {
		return fmt.Errorf(configEncodeErrorTemplateConstant, configFormatYAMLConstant, encodeError)
	}
	return encoder.Close()
}
