package tools_test

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/otatools/cmd/cli/tools"
	"github.com/temirov/otatools/internal/execshell"
	"github.com/temirov/otatools/internal/toolpath"
	"github.com/temirov/otatools/internal/toolplan"
	"github.com/temirov/otatools/internal/utils"
)

const (
	testVendoredToolNameConstant  = "otatools-test-unpack"
	testVendoredScriptConstant    = "#!/bin/sh\necho \"unpacked $1\"\necho warning >&2\n"
	testPlanFileNameConstant      = "plan.yaml"
	testPlanContentConstant       = "steps:\n  - tool: simg2img\n    args: [system.img, system.raw]\n  - tool: lpunpack\n    args: [super.img]\n    timeout: 5s\n"
	testConfiguredTimeoutConstant = 30 * time.Minute
)

type recordingCommandRunner struct {
	results          map[string]execshell.ExecutionResult
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.results[string(command.Name)], nil
}

func configurationProvider(configuration tools.Configuration) tools.ConfigurationProvider {
	return func() tools.Configuration { return configuration }
}

func executeCommand(testInstance *testing.T, command *cobra.Command, arguments ...string) (string, string, error) {
	testInstance.Helper()
	var outputBuffer bytes.Buffer
	var errorBuffer bytes.Buffer
	command.SetOut(&outputBuffer)
	command.SetErr(&errorBuffer)
	command.SilenceErrors = true
	command.SilenceUsage = true
	command.SetContext(context.Background())
	command.SetArgs(arguments)
	executionError := command.Execute()
	return outputBuffer.String(), errorBuffer.String(), executionError
}

func writeVendoredTool(testInstance *testing.T, toolsDirectory string, permissions os.FileMode) string {
	testInstance.Helper()
	binaryDirectory := filepath.Join(toolsDirectory, "bin")
	require.NoError(testInstance, os.MkdirAll(binaryDirectory, 0o755))
	toolPath := filepath.Join(binaryDirectory, testVendoredToolNameConstant)
	require.NoError(testInstance, os.WriteFile(toolPath, []byte(testVendoredScriptConstant), permissions))
	require.NoError(testInstance, os.Chmod(toolPath, permissions))
	return toolPath
}

func TestRunCommandRelaysOutputAndArguments(testInstance *testing.T) {
	testCases := []struct {
		name             string
		arguments        []string
		runnerResult     execshell.ExecutionResult
		expectedCommand  execshell.ShellCommand
		expectedExitCode int
	}{
		{
			name:         "tool_flags_pass_through",
			arguments:    []string{"lpunpack", "--slot=0", "super.img", "out"},
			runnerResult: execshell.ExecutionResult{StandardOutput: "ok\n", StandardError: "note\n"},
			expectedCommand: execshell.ShellCommand{
				Name:    "lpunpack",
				Details: execshell.CommandDetails{Arguments: []string{"--slot=0", "super.img", "out"}, Timeout: testConfiguredTimeoutConstant},
			},
		},
		{
			name:         "runner_flags_before_tool",
			arguments:    []string{"--timeout", "2s", "--dir", "/tmp", "simg2img", "-S"},
			runnerResult: execshell.ExecutionResult{StandardOutput: "ok\n", StandardError: "note\n"},
			expectedCommand: execshell.ShellCommand{
				Name:    "simg2img",
				Details: execshell.CommandDetails{Arguments: []string{"-S"}, WorkingDirectory: "/tmp", Timeout: 2 * time.Second},
			},
		},
		{
			name:         "non_zero_exit",
			arguments:    []string{"avbtool", "verify_image"},
			runnerResult: execshell.ExecutionResult{StandardOutput: "ok\n", StandardError: "note\n", ExitCode: 3},
			expectedCommand: execshell.ShellCommand{
				Name:    "avbtool",
				Details: execshell.CommandDetails{Arguments: []string{"verify_image"}, Timeout: testConfiguredTimeoutConstant},
			},
			expectedExitCode: 3,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			runner := &recordingCommandRunner{results: map[string]execshell.ExecutionResult{string(testCase.expectedCommand.Name): testCase.runnerResult}}
			builder := tools.RunCommandBuilder{
				LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
				ConfigurationProvider: configurationProvider(tools.Configuration{Runner: tools.RunnerConfiguration{Timeout: testConfiguredTimeoutConstant}}),
				CommandRunner:         runner,
			}
			command, buildError := builder.Build()
			require.NoError(testInstance, buildError)

			output, errorOutput, executionError := executeCommand(testInstance, command, testCase.arguments...)
			require.Equal(testInstance, "ok\n", output)
			require.Equal(testInstance, "note\n", errorOutput)

			if testCase.expectedExitCode != 0 {
				var failedError execshell.SubprocessFailedError
				require.ErrorAs(testInstance, executionError, &failedError)
				require.Equal(testInstance, testCase.expectedExitCode, failedError.ExitCode)
			} else {
				require.NoError(testInstance, executionError)
			}

			require.Len(testInstance, runner.recordedCommands, 1)
			require.Equal(testInstance, testCase.expectedCommand, runner.recordedCommands[0])
		})
	}
}

func TestRunCommandEnvironmentFlags(testInstance *testing.T) {
	inheritedEnvironment := []string{"PATH=/usr/bin", "PYTHONPATH=/opt/acloud", "HOME=/home/builder"}

	testCases := []struct {
		name                string
		arguments           []string
		expectedEnvironment map[string]string
	}{
		{name: "inherit", arguments: []string{"mkbootimg"}, expectedEnvironment: nil},
		{
			name:                "assignments_extend_filtered_inheritance",
			arguments:           []string{"--env", "LANG=C", "mkbootimg"},
			expectedEnvironment: map[string]string{"PATH": "/usr/bin", "HOME": "/home/builder", "LANG": "C"},
		},
		{
			name:                "explicit_python_path_kept",
			arguments:           []string{"-e", "PYTHONPATH=/vendored", "mkbootimg"},
			expectedEnvironment: map[string]string{"PATH": "/usr/bin", "HOME": "/home/builder", "PYTHONPATH": "/vendored"},
		},
		{
			name:                "clean_environment",
			arguments:           []string{"--clean-env", "--env", "LANG=C", "mkbootimg"},
			expectedEnvironment: map[string]string{"LANG": "C"},
		},
		{
			name:                "clean_environment_without_assignments",
			arguments:           []string{"--clean-env", "mkbootimg"},
			expectedEnvironment: map[string]string{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			runner := &recordingCommandRunner{}
			builder := tools.RunCommandBuilder{
				CommandRunner:       runner,
				EnvironmentProvider: func() []string { return inheritedEnvironment },
			}
			command, buildError := builder.Build()
			require.NoError(testInstance, buildError)

			_, _, executionError := executeCommand(testInstance, command, testCase.arguments...)
			require.NoError(testInstance, executionError)
			require.Len(testInstance, runner.recordedCommands, 1)
			require.Equal(testInstance, testCase.expectedEnvironment, runner.recordedCommands[0].Details.EnvironmentVariables)
		})
	}
}

func TestRunCommandExecutesPlan(testInstance *testing.T) {
	planPath := filepath.Join(testInstance.TempDir(), testPlanFileNameConstant)
	require.NoError(testInstance, os.WriteFile(planPath, []byte(testPlanContentConstant), 0o644))

	runner := &recordingCommandRunner{results: map[string]execshell.ExecutionResult{
		"simg2img": {StandardOutput: "converted\n"},
		"lpunpack": {StandardOutput: "unpacked\n", StandardError: "extracting system_a\n"},
	}}
	builder := tools.RunCommandBuilder{
		ConfigurationProvider: configurationProvider(tools.Configuration{Runner: tools.RunnerConfiguration{Timeout: testConfiguredTimeoutConstant}}),
		CommandRunner:         runner,
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, errorOutput, executionError := executeCommand(testInstance, command, "--plan", planPath)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "converted\nunpacked\n", output)
	require.Equal(testInstance, "extracting system_a\n", errorOutput)

	require.Len(testInstance, runner.recordedCommands, 2)
	require.Equal(testInstance, testConfiguredTimeoutConstant, runner.recordedCommands[0].Details.Timeout)
	require.Equal(testInstance, 5*time.Second, runner.recordedCommands[1].Details.Timeout)
}

func TestRunCommandPlanStopsAtFailingStep(testInstance *testing.T) {
	planPath := filepath.Join(testInstance.TempDir(), testPlanFileNameConstant)
	require.NoError(testInstance, os.WriteFile(planPath, []byte(testPlanContentConstant), 0o644))

	runner := &recordingCommandRunner{results: map[string]execshell.ExecutionResult{"simg2img": {ExitCode: 2, StandardError: "invalid sparse magic\n"}}}
	command, buildError := (&tools.RunCommandBuilder{CommandRunner: runner}).Build()
	require.NoError(testInstance, buildError)

	_, errorOutput, executionError := executeCommand(testInstance, command, "--plan", planPath)
	require.Equal(testInstance, "invalid sparse magic\n", errorOutput)

	var stepError toolplan.StepError
	require.ErrorAs(testInstance, executionError, &stepError)
	require.Equal(testInstance, 0, stepError.Index)
	var failedError execshell.SubprocessFailedError
	require.ErrorAs(testInstance, executionError, &failedError)
	require.Equal(testInstance, 2, failedError.ExitCode)
	require.Len(testInstance, runner.recordedCommands, 1)
}

func TestRunCommandRequiresTool(testInstance *testing.T) {
	command, buildError := (&tools.RunCommandBuilder{CommandRunner: &recordingCommandRunner{}}).Build()
	require.NoError(testInstance, buildError)

	output, _, executionError := executeCommand(testInstance, command)
	require.Error(testInstance, executionError)
	require.Contains(testInstance, output, "Usage:")

	_, _, combinedError := executeCommand(testInstance, command, "--plan", "plan.yaml", "lpunpack")
	require.Error(testInstance, combinedError)
}

func TestRunCommandExecutesVendoredTool(testInstance *testing.T) {
	toolsDirectory := testInstance.TempDir()
	writeVendoredTool(testInstance, toolsDirectory, 0o600)

	builder := tools.RunCommandBuilder{
		ConfigurationProvider: configurationProvider(tools.Configuration{Directory: toolsDirectory}),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, errorOutput, executionError := executeCommand(testInstance, command, testVendoredToolNameConstant, "super.img")
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "unpacked super.img\n", output)
	require.Equal(testInstance, "warning\n", errorOutput)
}

func TestResolveCommandPrintsPaths(testInstance *testing.T) {
	toolsDirectory := testInstance.TempDir()
	toolPath := writeVendoredTool(testInstance, toolsDirectory, 0o640)

	builder := tools.ResolveCommandBuilder{ConfigurationProvider: configurationProvider(tools.Configuration{Directory: toolsDirectory})}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, _, executionError := executeCommand(testInstance, command, testVendoredToolNameConstant)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, toolPath+"\n", output)

	fileInfo, statError := os.Stat(toolPath)
	require.NoError(testInstance, statError)
	require.Equal(testInstance, os.FileMode(0o755), fileInfo.Mode().Perm())

	sourceOutput, _, sourceError := executeCommand(testInstance, command, "--with-source", testVendoredToolNameConstant)
	require.NoError(testInstance, sourceError)
	require.Equal(testInstance, string(toolpath.SourceToolsDirectory)+"\t"+toolPath+"\n", sourceOutput)
}

func TestResolveCommandUsesContextToolsDirectory(testInstance *testing.T) {
	toolsDirectory := testInstance.TempDir()
	toolPath := writeVendoredTool(testInstance, toolsDirectory, 0o755)

	command, buildError := (&tools.ResolveCommandBuilder{}).Build()
	require.NoError(testInstance, buildError)

	var outputBuffer bytes.Buffer
	command.SetOut(&outputBuffer)
	command.SetContext(utils.NewCommandContextAccessor().WithToolsDirectory(context.Background(), toolsDirectory))
	command.SetArgs([]string{testVendoredToolNameConstant})
	require.NoError(testInstance, command.Execute())
	require.Equal(testInstance, toolPath+"\n", outputBuffer.String())
}

func TestResolveCommandReportsMissingTool(testInstance *testing.T) {
	builder := tools.ResolveCommandBuilder{ConfigurationProvider: configurationProvider(tools.Configuration{Directory: testInstance.TempDir()})}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	_, _, executionError := executeCommand(testInstance, command, "otatools-test-absent-tool")
	var notFoundError toolpath.ToolNotFoundError
	require.ErrorAs(testInstance, executionError, &notFoundError)
}

func TestGrantExecCommandAddsPermissions(testInstance *testing.T) {
	targetPath := filepath.Join(testInstance.TempDir(), "fastboot")
	require.NoError(testInstance, os.WriteFile(targetPath, []byte("binary"), 0o600))
	require.NoError(testInstance, os.Chmod(targetPath, 0o600))

	command, buildError := (&tools.GrantExecCommandBuilder{}).Build()
	require.NoError(testInstance, buildError)

	_, _, executionError := executeCommand(testInstance, command, targetPath)
	require.NoError(testInstance, executionError)

	fileInfo, statError := os.Stat(targetPath)
	require.NoError(testInstance, statError)
	require.Equal(testInstance, os.FileMode(0o755), fileInfo.Mode().Perm())

	_, _, missingError := executeCommand(testInstance, command, filepath.Join(testInstance.TempDir(), "missing"))
	require.ErrorIs(testInstance, missingError, os.ErrNotExist)
}

func TestDecompressCommandExtractsArchive(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	archivePath := filepath.Join(workingDirectory, "otatools.zip")
	archiveFile, createError := os.Create(archivePath)
	require.NoError(testInstance, createError)
	zipWriter := zip.NewWriter(archiveFile)
	entryWriter, entryError := zipWriter.Create("bin/simg2img")
	require.NoError(testInstance, entryError)
	_, writeError := entryWriter.Write([]byte("binary"))
	require.NoError(testInstance, writeError)
	require.NoError(testInstance, zipWriter.Close())
	require.NoError(testInstance, archiveFile.Close())

	command, buildError := (&tools.DecompressCommandBuilder{}).Build()
	require.NoError(testInstance, buildError)

	destinationDirectory := filepath.Join(workingDirectory, "otatools")
	_, _, executionError := executeCommand(testInstance, command, archivePath, destinationDirectory)
	require.NoError(testInstance, executionError)

	content, readError := os.ReadFile(filepath.Join(destinationDirectory, "bin", "simg2img"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "binary", string(content))
}

func TestRunningCommandPrintsState(testInstance *testing.T) {
	testCases := []struct {
		name           string
		exitCode       int
		standardOutput string
		expectedOutput string
	}{
		{name: "running", exitCode: 0, standardOutput: "999999 fuse-ext2 -f system.img mnt\n", expectedOutput: "true\n"},
		{name: "only_self_matches", exitCode: 0, standardOutput: fmt.Sprintf("%d otatools running fuse-ext2\n", os.Getpid()), expectedOutput: "false\n"},
		{name: "not_running", exitCode: 1, expectedOutput: "false\n"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			runner := &recordingCommandRunner{results: map[string]execshell.ExecutionResult{"pgrep": {ExitCode: testCase.exitCode, StandardOutput: testCase.standardOutput}}}
			command, buildError := (&tools.RunningCommandBuilder{CommandRunner: runner}).Build()
			require.NoError(testInstance, buildError)

			output, _, executionError := executeCommand(testInstance, command, "fuse-ext2")
			require.NoError(testInstance, executionError)
			require.Equal(testInstance, testCase.expectedOutput, output)
			require.Equal(testInstance, []string{"-af", "fuse-ext2"}, runner.recordedCommands[0].Details.Arguments)
		})
	}
}

func TestConfigurationSanitize(testInstance *testing.T) {
	sanitized := tools.Configuration{Directory: "  /opt/otatools ", Runner: tools.RunnerConfiguration{Timeout: -time.Second}}.Sanitize()
	require.Equal(testInstance, "/opt/otatools", sanitized.Directory)
	require.Zero(testInstance, sanitized.Runner.Timeout)
	require.Equal(testInstance, execshell.DefaultStrippedEnvironmentVariables(), sanitized.Runner.StrippedEnvironmentVariables)

	explicit := tools.Configuration{Runner: tools.RunnerConfiguration{StrippedEnvironmentVariables: []string{" ", "PYTHONHOME"}}}.Sanitize()
	require.Equal(testInstance, []string{"PYTHONHOME"}, explicit.Runner.StrippedEnvironmentVariables)

	defaults := tools.DefaultConfigurationValues("tools")
	require.Contains(testInstance, defaults, "tools.runner.timeout")
	require.Contains(testInstance, defaults, "tools.directory")
}
