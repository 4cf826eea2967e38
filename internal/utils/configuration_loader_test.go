package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/otatools/internal/utils"
)

const (
	testEnvironmentPrefixConstant                  = "TESTOTATOOLS"
	testLogLevelKeyConstant                        = "common.log_level"
	testRunnerTimeoutKeyConstant                   = "tools.runner.timeout"
	testDefaultLogLevelConstant                    = "info"
	testConfiguredLogLevelConstant                 = "debug"
	testOverriddenLogLevelConstant                 = "error"
	testFileLogLevelConstant                       = "warn"
	testConfigFileNameConstant                     = "config.yaml"
	testConfigContentTemplateConstant              = "common:\n  log_level: %s\n"
	testRunnerConfigContentConstant                = "tools:\n  runner:\n    timeout: 90s\n    stripped_environment: [PYTHONPATH]\n"
	testConfigurationNameConstant                  = "config"
	testConfigurationTypeConstant                  = "yaml"
	configurationLoaderSubtestNameTemplateConstant = "%d_%s"
	testUserConfigurationDirectoryNameConstant     = ".otatools"
)

type configurationFixture struct {
	Common configurationCommonFixture `mapstructure:"common"`
	Tools  configurationToolsFixture  `mapstructure:"tools"`
}

type configurationCommonFixture struct {
	LogLevel string `mapstructure:"log_level"`
}

type configurationToolsFixture struct {
	Runner configurationRunnerFixture `mapstructure:"runner"`
}

type configurationRunnerFixture struct {
	Timeout                      time.Duration `mapstructure:"timeout"`
	StrippedEnvironmentVariables []string      `mapstructure:"stripped_environment"`
}

func TestConfigurationLoaderLoadConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name                string
		embeddedLogLevel    string
		fileLogLevel        string
		environmentLogLevel string
		expectedLogLevel    string
	}{
		{name: "embedded configuration merges", embeddedLogLevel: testConfiguredLogLevelConstant, expectedLogLevel: testConfiguredLogLevelConstant},
		{name: "defaults are applied", expectedLogLevel: testDefaultLogLevelConstant},
		{name: "config file overrides embedded", embeddedLogLevel: testDefaultLogLevelConstant, fileLogLevel: testConfiguredLogLevelConstant, expectedLogLevel: testConfiguredLogLevelConstant},
		{name: "environment overrides file", embeddedLogLevel: testDefaultLogLevelConstant, fileLogLevel: testFileLogLevelConstant, environmentLogLevel: testOverriddenLogLevelConstant, expectedLogLevel: testOverriddenLogLevelConstant},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(configurationLoaderSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			tempDirectory := testInstance.TempDir()
			configurationFilePath := ""
			if len(testCase.fileLogLevel) > 0 {
				configurationFilePath = filepath.Join(tempDirectory, testConfigFileNameConstant)
				configurationContent := fmt.Sprintf(testConfigContentTemplateConstant, testCase.fileLogLevel)
				require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o600))
			}

			if len(testCase.environmentLogLevel) > 0 {
				testInstance.Setenv(testEnvironmentPrefixConstant+"_COMMON_LOG_LEVEL", testCase.environmentLogLevel)
			}

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{tempDirectory})
			if len(testCase.embeddedLogLevel) > 0 {
				configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf(testConfigContentTemplateConstant, testCase.embeddedLogLevel)), testConfigurationTypeConstant)
			}

			defaultValues := map[string]any{testLogLevelKeyConstant: testDefaultLogLevelConstant}

			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, defaultValues, &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedLogLevel, loadedConfiguration.Common.LogLevel)
			require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderDecodesDurationsAndLists(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)
	configurationLoader.SetEmbeddedConfiguration([]byte(testRunnerConfigContentConstant), testConfigurationTypeConstant)

	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration("", nil, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, 90*time.Second, loadedConfiguration.Tools.Runner.Timeout)
	require.Equal(testInstance, []string{"PYTHONPATH"}, loadedConfiguration.Tools.Runner.StrippedEnvironmentVariables)

	testInstance.Setenv(testEnvironmentPrefixConstant+"_TOOLS_RUNNER_TIMEOUT", "5m")
	testInstance.Setenv(testEnvironmentPrefixConstant+"_TOOLS_RUNNER_STRIPPED_ENVIRONMENT", "PYTHONPATH,PYTHONHOME")

	overriddenConfiguration := configurationFixture{}
	metadata, overrideError := configurationLoader.LoadConfiguration("", map[string]any{testRunnerTimeoutKeyConstant: "0s"}, &overriddenConfiguration)
	require.NoError(testInstance, overrideError)
	require.Equal(testInstance, 5*time.Minute, overriddenConfiguration.Tools.Runner.Timeout)
	require.Equal(testInstance, []string{"PYTHONPATH", "PYTHONHOME"}, overriddenConfiguration.Tools.Runner.StrippedEnvironmentVariables)
	require.Contains(testInstance, metadata.Settings, "tools")
}

func TestConfigurationLoaderRejectsMissingExplicitFile(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)

	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration(filepath.Join(testInstance.TempDir(), testConfigFileNameConstant), nil, &loadedConfiguration)
	require.Error(testInstance, loadError)
}

func TestConfigurationLoaderSearchPaths(testInstance *testing.T) {
	workingDirectoryPath := testInstance.TempDir()
	userConfigurationDirectoryPath := filepath.Join(testInstance.TempDir(), testUserConfigurationDirectoryNameConstant)
	require.NoError(testInstance, os.MkdirAll(userConfigurationDirectoryPath, 0o755))

	configurationFilePath := filepath.Join(userConfigurationDirectoryPath, testConfigFileNameConstant)
	configurationContent := fmt.Sprintf(testConfigContentTemplateConstant, testConfiguredLogLevelConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o600))

	configurationLoader := utils.NewConfigurationLoader(
		testConfigurationNameConstant,
		testConfigurationTypeConstant,
		testEnvironmentPrefixConstant,
		[]string{workingDirectoryPath, userConfigurationDirectoryPath},
	)

	loadedConfiguration := configurationFixture{}
	metadata, loadError := configurationLoader.LoadConfiguration("", map[string]any{testLogLevelKeyConstant: testDefaultLogLevelConstant}, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, testConfiguredLogLevelConstant, loadedConfiguration.Common.LogLevel)
	require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
}
