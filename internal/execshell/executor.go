package execshell

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	executingCommandMessageConstant       = "Execute command"
	runningCommandDebugMessageConstant    = "Running command"
	standardOutputMessageConstant         = "Command standard output"
	standardErrorMessageConstant          = "Command standard error"
	commandExecutionFailedMessageConstant = "Command execution failed"
	logFieldCommandConstant               = "command"
	logFieldCommandLineConstant           = "command_line"
	logFieldStandardOutputConstant        = "stdout"
	logFieldStandardErrorConstant         = "stderr"
	logFieldExitCodeConstant              = "exit_code"
	logFieldWorkingDirectoryConstant      = "working_directory"
	logFieldStateConstant                 = "state"
	pgrepAllFieldsFlagConstant            = "-af"
	pgrepNoMatchExitCodeConstant          = 1
)

// ShellExecutor runs commands through a CommandRunner and reports every invocation to a logger.
type ShellExecutor struct {
	logger   *zap.Logger
	runner   CommandRunner
	observer CommandEventObserver
	// selfProcessIdentifiers are ignored in pgrep matches; their command lines contain the pattern.
	selfProcessIdentifiers []int
}

// NewShellExecutor validates dependencies and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{
		logger:                 logger,
		runner:                 runner,
		observer:               noopCommandEventObserver{},
		selfProcessIdentifiers: []int{os.Getpid(), os.Getppid()},
	}, nil
}

// SetObserver registers an observer for command lifecycle events. A nil observer disables notifications.
func (executor *ShellExecutor) SetObserver(observer CommandEventObserver) {
	if observer == nil {
		executor.observer = noopCommandEventObserver{}
		return
	}
	executor.observer = observer
}

// Execute runs the command and classifies its outcome.
//
// Non-zero exits return SubprocessFailedError together with the captured result.
// Lookup and interruption failures keep their types; other runner failures are
// wrapped in CommandExecutionError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandLine := CommandLine(command)
	executor.logger.Debug(
		runningCommandDebugMessageConstant,
		zap.String(logFieldCommandLineConstant, commandLine),
		zap.String(logFieldStateConstant, string(StateRunning)),
	)
	executor.logger.Info(
		executingCommandMessageConstant,
		zap.String(logFieldCommandLineConstant, commandLine),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	)
	executor.observer.CommandStarted(command)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.logCapturedStreams(command, executionResult)
		executor.logger.Warn(
			commandExecutionFailedMessageConstant,
			zap.String(logFieldCommandLineConstant, commandLine),
			zap.String(logFieldStateConstant, string(classifyRunError(runError))),
			zap.Error(runError),
		)
		executor.observer.CommandExecutionFailed(command, runError)
		return executionResult, classifyExecutionError(command, runError)
	}

	executor.logCapturedStreams(command, executionResult)
	executor.observer.CommandCompleted(command, executionResult)

	if ClassifyResult(executionResult) == StateFailedNonZeroExit {
		return executionResult, SubprocessFailedError{
			Command:       command,
			ExitCode:      executionResult.ExitCode,
			StandardError: executionResult.StandardError,
		}
	}

	return executionResult, nil
}

// ExecuteTool runs the named tool with the provided details.
func (executor *ShellExecutor) ExecuteTool(executionContext context.Context, toolName CommandName, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: toolName, Details: details})
}

// Output runs the command and returns its standard output.
func (executor *ShellExecutor) Output(executionContext context.Context, command ShellCommand) (string, error) {
	executionResult, executionError := executor.Execute(executionContext, command)
	if executionError != nil {
		return "", executionError
	}
	return executionResult.StandardOutput, nil
}

// IsCommandRunning reports whether a process other than this one and its parent
// has a command line matching the pattern, using pgrep.
func (executor *ShellExecutor) IsCommandRunning(executionContext context.Context, pattern string) (bool, error) {
	executionResult, executionError := executor.ExecuteTool(executionContext, CommandPgrep, CommandDetails{
		Arguments: []string{pgrepAllFieldsFlagConstant, pattern},
	})
	if executionError == nil {
		return executor.containsForeignProcess(executionResult.StandardOutput), nil
	}

	var failedError SubprocessFailedError
	if errors.As(executionError, &failedError) && failedError.ExitCode == pgrepNoMatchExitCodeConstant {
		return false, nil
	}
	return false, executionError
}

// containsForeignProcess scans "PID command line" rows printed by pgrep -af.
func (executor *ShellExecutor) containsForeignProcess(pgrepOutput string) bool {
	for _, outputLine := range strings.Split(pgrepOutput, "\n") {
		lineFields := strings.Fields(outputLine)
		if len(lineFields) == 0 {
			continue
		}
		processIdentifier, parseError := strconv.Atoi(lineFields[0])
		if parseError != nil {
			return true
		}
		if !executor.isSelfProcess(processIdentifier) {
			return true
		}
	}
	return false
}

func (executor *ShellExecutor) isSelfProcess(processIdentifier int) bool {
	for _, selfIdentifier := range executor.selfProcessIdentifiers {
		if selfIdentifier == processIdentifier {
			return true
		}
	}
	return false
}

func (executor *ShellExecutor) logCapturedStreams(command ShellCommand, executionResult ExecutionResult) {
	executor.logger.Info(
		standardOutputMessageConstant,
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
		zap.String(logFieldStandardOutputConstant, executionResult.StandardOutput),
	)
	executor.logger.Info(
		standardErrorMessageConstant,
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
		zap.String(logFieldStandardErrorConstant, executionResult.StandardError),
	)
}

func classifyRunError(runError error) ExecutionState {
	var terminatedError ProcessTerminatedError
	if errors.As(runError, &terminatedError) {
		return StateTerminated
	}
	return StateNotStarted
}

func classifyExecutionError(command ShellCommand, runError error) error {
	var notFoundError ProcessNotFoundError
	if errors.As(runError, &notFoundError) {
		return notFoundError
	}
	var terminatedError ProcessTerminatedError
	if errors.As(runError, &terminatedError) {
		return terminatedError
	}
	return CommandExecutionError{Command: command, Cause: runError}
}
