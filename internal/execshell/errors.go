package execshell

import (
	"errors"
	"fmt"
	"strings"
)

const (
	loggerNotConfiguredMessageConstant         = "logger not configured"
	commandRunnerNotConfiguredMessageConstant  = "command runner not configured"
	processNotFoundTemplateConstant            = "unable to locate %s"
	processNotFoundWithCauseTemplateConstant   = "unable to locate %s: %s"
	subprocessFailedTemplateConstant           = "%s returned %d"
	subprocessFailedWithStderrTemplateConstant = "%s returned %d: %s"
	commandExecutionFailedTemplateConstant     = "%s failed: %s"
	processTerminatedTemplateConstant          = "%s terminated: %s"
	unknownFailureMessageConstant              = "unknown error"
)

var (
	// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// ProcessNotFoundError reports that the executable could not be located before spawning.
type ProcessNotFoundError struct {
	Name  CommandName
	Cause error
}

// Error describes the missing executable.
func (notFoundError ProcessNotFoundError) Error() string {
	if notFoundError.Cause == nil {
		return fmt.Sprintf(processNotFoundTemplateConstant, notFoundError.Name)
	}
	return fmt.Sprintf(processNotFoundWithCauseTemplateConstant, notFoundError.Name, notFoundError.Cause.Error())
}

// Unwrap exposes the lookup failure.
func (notFoundError ProcessNotFoundError) Unwrap() error {
	return notFoundError.Cause
}

// SubprocessFailedError reports a child process that exited with a non-zero status.
type SubprocessFailedError struct {
	Command       ShellCommand
	ExitCode      int
	StandardError string
}

// Error describes the failing command and its exit code.
func (failedError SubprocessFailedError) Error() string {
	commandName := string(failedError.Command.Name)
	trimmedStandardError := strings.TrimSpace(failedError.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(subprocessFailedTemplateConstant, commandName, failedError.ExitCode)
	}
	return fmt.Sprintf(subprocessFailedWithStderrTemplateConstant, commandName, failedError.ExitCode, trimmedStandardError)
}

// ProcessTerminatedError reports a child that was force-killed because the invocation was interrupted.
type ProcessTerminatedError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the interrupted command.
func (terminatedError ProcessTerminatedError) Error() string {
	return fmt.Sprintf(processTerminatedTemplateConstant, terminatedError.Command.Name, describeFailure(terminatedError.Cause))
}

// Unwrap exposes the interruption cause, typically a context error.
func (terminatedError ProcessTerminatedError) Unwrap() error {
	return terminatedError.Cause
}

// CommandExecutionError wraps failures that prevented a command from producing a result.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionFailedTemplateConstant, executionError.Command.Name, describeFailure(executionError.Cause))
}

// Unwrap exposes the underlying failure.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

func describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}
