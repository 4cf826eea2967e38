package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(testInstance *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "DefaultFirstChoice",
			defaultChoice:  "yaml",
			choices:        []string{"yaml", "toml"},
			description:    "Output encoding.",
			expectedOutput: "`<YAML|toml>` Output encoding.",
		},
		{
			name:           "DefaultSecondChoice",
			defaultChoice:  "console",
			choices:        []string{"structured", "console"},
			description:    "Log format.",
			expectedOutput: "`<structured|CONSOLE>` Log format.",
		},
		{
			name:           "EmptyDescription",
			defaultChoice:  "yaml",
			choices:        []string{"yaml", "toml"},
			expectedOutput: "`<YAML|toml>`",
		},
		{
			name:           "DuplicateChoicesIgnored",
			defaultChoice:  "toml",
			choices:        []string{"toml", "TOML", " yaml "},
			description:    "Output encoding.",
			expectedOutput: "`<TOML|yaml>` Output encoding.",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedOutput, FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description))
		})
	}
}

func TestAddChoiceFlagValidatesValues(testInstance *testing.T) {
	testCases := []struct {
		name          string
		arguments     []string
		expectedValue string
		expectError   bool
	}{
		{name: "Default", arguments: []string{}, expectedValue: "yaml"},
		{name: "Explicit", arguments: []string{"--format", "toml"}, expectedValue: "toml"},
		{name: "CaseInsensitive", arguments: []string{"--format=TOML"}, expectedValue: "toml"},
		{name: "Rejected", arguments: []string{"--format", "json"}, expectedValue: "yaml", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			command := &cobra.Command{}
			var format string
			AddChoiceFlag(command.Flags(), &format, "format", "yaml", []string{"yaml", "toml"}, "Output encoding.")

			parseError := command.ParseFlags(testCase.arguments)
			if testCase.expectError {
				require.Error(testInstance, parseError)
			} else {
				require.NoError(testInstance, parseError)
			}
			require.Equal(testInstance, testCase.expectedValue, format)
		})
	}
}
