package execshell

import (
	"context"
	"strings"
	"time"
)

const (
	commandPartsJoinSeparatorConstant = " "
	commandPgrepStringConstant        = "pgrep"
)

// CommandName identifies the executable to invoke, either a bare tool name or a path.
type CommandName string

// Well-known commands invoked by the executor itself.
const (
	CommandPgrep CommandName = CommandName(commandPgrepStringConstant)
)

// CommandDetails describes how a command should be invoked.
//
// A nil EnvironmentVariables map inherits the current process environment with
// the runner's stripped variables removed. A non-nil map, including an empty one,
// is used as the complete child environment.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
	Timeout              time.Duration
}

// ShellCommand combines a command name with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a finished command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// ExecutionState classifies how a single invocation ended.
type ExecutionState string

// Invocation states.
const (
	StateNotStarted        ExecutionState = ExecutionState("not_started")
	StateRunning           ExecutionState = ExecutionState("running")
	StateSucceeded         ExecutionState = ExecutionState("succeeded")
	StateFailedNonZeroExit ExecutionState = ExecutionState("failed_non_zero_exit")
	StateTerminated        ExecutionState = ExecutionState("terminated")
)

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// ExecutableLocator resolves a command name to an executable path.
type ExecutableLocator interface {
	LocateExecutable(commandName string) (string, error)
}

// CommandLine renders the command and its arguments as a single line.
func CommandLine(command ShellCommand) string {
	commandParts := make([]string, 0, len(command.Details.Arguments)+1)
	commandParts = append(commandParts, string(command.Name))
	commandParts = append(commandParts, command.Details.Arguments...)
	return strings.Join(commandParts, commandPartsJoinSeparatorConstant)
}

// ClassifyResult maps a completed result to its terminal state.
func ClassifyResult(result ExecutionResult) ExecutionState {
	if result.ExitCode == 0 {
		return StateSucceeded
	}
	return StateFailedNonZeroExit
}
