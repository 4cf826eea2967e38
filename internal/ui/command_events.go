package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/otatools/internal/execshell"
)

const (
	commandStartedMessageTemplateConstant          = "Running %s"
	commandCompletedMessageTemplateConstant        = "Completed %s in %s"
	commandFailedExitCodeMessageTemplateConstant   = "%s exited with code %d after %s"
	commandTerminatedMessageTemplateConstant       = "%s terminated after %s: %s"
	commandExecutionFailureMessageTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant         = " (in %s)"
	standardErrorSuffixTemplateConstant            = ": %s"
	unknownFailureMessageConstant                  = "unknown error"
	maximumStandardErrorLinesConstant              = 5
)

// Clock reports the current time.
type Clock func() time.Time

// CommandEventFormatter builds human-readable messages for tool lifecycle events.
type CommandEventFormatter struct{}

// BuildStartedMessage formats the message describing a tool about to run.
func (formatter CommandEventFormatter) BuildStartedMessage(command execshell.ShellCommand) string {
	return fmt.Sprintf(commandStartedMessageTemplateConstant, formatter.formatCommandLabel(command))
}

// BuildSuccessMessage formats the message describing a tool that exited with code zero.
func (formatter CommandEventFormatter) BuildSuccessMessage(command execshell.ShellCommand, elapsed time.Duration) string {
	return fmt.Sprintf(commandCompletedMessageTemplateConstant, formatter.formatCommandLabel(command), formatElapsed(elapsed))
}

// BuildFailureMessage formats the message describing a tool that exited with a non-zero code.
// Only the last lines of standard error are kept.
func (formatter CommandEventFormatter) BuildFailureMessage(command execshell.ShellCommand, result execshell.ExecutionResult, elapsed time.Duration) string {
	baseMessage := fmt.Sprintf(commandFailedExitCodeMessageTemplateConstant, formatter.formatCommandLabel(command), result.ExitCode, formatElapsed(elapsed))
	trimmedStandardError := tailLines(strings.TrimSpace(result.StandardError), maximumStandardErrorLinesConstant)
	if len(trimmedStandardError) == 0 {
		return baseMessage
	}
	return baseMessage + fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

// BuildExecutionFailureMessage formats the message describing a tool that produced no exit code.
func (formatter CommandEventFormatter) BuildExecutionFailureMessage(command execshell.ShellCommand, failure error, elapsed time.Duration) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}

	var terminatedError execshell.ProcessTerminatedError
	if errors.As(failure, &terminatedError) {
		causeMessage := unknownFailureMessageConstant
		if terminatedError.Cause != nil {
			causeMessage = terminatedError.Cause.Error()
		}
		return fmt.Sprintf(commandTerminatedMessageTemplateConstant, formatter.formatCommandLabel(command), formatElapsed(elapsed), causeMessage)
	}

	return fmt.Sprintf(commandExecutionFailureMessageTemplateConstant, formatter.formatCommandLabel(command), failureMessage)
}

func (formatter CommandEventFormatter) formatCommandLabel(command execshell.ShellCommand) string {
	commandLabel := execshell.CommandLine(command)
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return commandLabel
	}
	return commandLabel + fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func formatElapsed(elapsed time.Duration) string {
	return elapsed.Round(time.Millisecond).String()
}

func tailLines(text string, lineCount int) string {
	if len(text) == 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= lineCount {
		return text
	}
	return strings.Join(lines[len(lines)-lineCount:], "\n")
}

// ConsoleCommandEventLogger reports tool lifecycle events through a human-readable zap logger.
// It implements execshell.CommandEventObserver for sequential use.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter CommandEventFormatter
	clock     Clock
	startedAt time.Time
}

// NewConsoleCommandEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	return NewConsoleCommandEventLoggerWithClock(logger, time.Now)
}

// NewConsoleCommandEventLoggerWithClock constructs a console event logger with an injected clock.
func NewConsoleCommandEventLoggerWithClock(logger *zap.Logger, clock Clock) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &ConsoleCommandEventLogger{logger: logger, formatter: CommandEventFormatter{}, clock: clock}
}

// CommandStarted logs the start notification and records the start time.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	if eventLogger == nil {
		return
	}
	eventLogger.startedAt = eventLogger.clock()
	eventLogger.logger.Info(eventLogger.formatter.BuildStartedMessage(command))
}

// CommandCompleted logs the exit of a tool, warning on non-zero codes.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if eventLogger == nil {
		return
	}
	elapsed := eventLogger.elapsed()
	if execshell.ClassifyResult(result) == execshell.StateSucceeded {
		eventLogger.logger.Info(eventLogger.formatter.BuildSuccessMessage(command, elapsed))
		return
	}
	eventLogger.logger.Warn(eventLogger.formatter.BuildFailureMessage(command, result, elapsed))
}

// CommandExecutionFailed logs tools that could not be located, started, or were terminated.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Error(eventLogger.formatter.BuildExecutionFailureMessage(command, failure, eventLogger.elapsed()))
}

func (eventLogger *ConsoleCommandEventLogger) elapsed() time.Duration {
	if eventLogger.startedAt.IsZero() {
		return 0
	}
	return eventLogger.clock().Sub(eventLogger.startedAt)
}
