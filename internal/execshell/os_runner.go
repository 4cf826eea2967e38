package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	terminatedExitCodeConstant             = -1
	pipeDrainWaitDelayConstant             = 5 * time.Second
	searchPathLookupMissingMessageConstant = "search path lookup not configured"
)

// SearchPathLocator resolves commands through the host search path.
type SearchPathLocator struct {
	lookPath func(string) (string, error)
}

// NewSearchPathLocator constructs a locator backed by exec.LookPath.
func NewSearchPathLocator() SearchPathLocator {
	return SearchPathLocator{lookPath: exec.LookPath}
}

// LocateExecutable returns the absolute path of the named executable.
func (locator SearchPathLocator) LocateExecutable(commandName string) (string, error) {
	lookPath := locator.lookPath
	if lookPath == nil {
		return "", errors.New(searchPathLookupMissingMessageConstant)
	}
	executablePath, lookupError := lookPath(commandName)
	if lookupError != nil {
		return "", lookupError
	}
	return filepath.Abs(executablePath)
}

// OSCommandRunnerOptions configures an OSCommandRunner.
type OSCommandRunnerOptions struct {
	// Locator resolves command names; defaults to the host search path.
	Locator ExecutableLocator
	// StrippedEnvironmentVariables are removed from inherited environments.
	// A nil slice selects DefaultStrippedEnvironmentVariables.
	StrippedEnvironmentVariables []string
	// EnvironmentProvider supplies the inherited environment; defaults to os.Environ.
	EnvironmentProvider func() []string
}

// OSCommandRunner executes commands using the operating system facilities.
type OSCommandRunner struct {
	locator                      ExecutableLocator
	strippedEnvironmentVariables []string
	environmentProvider          func() []string
}

// NewOSCommandRunner constructs a runner backed by os/exec with default options.
func NewOSCommandRunner() *OSCommandRunner {
	return NewOSCommandRunnerWithOptions(OSCommandRunnerOptions{})
}

// NewOSCommandRunnerWithOptions constructs a runner backed by os/exec.
func NewOSCommandRunnerWithOptions(options OSCommandRunnerOptions) *OSCommandRunner {
	locator := options.Locator
	if locator == nil {
		locator = NewSearchPathLocator()
	}

	strippedEnvironmentVariables := DefaultStrippedEnvironmentVariables()
	if options.StrippedEnvironmentVariables != nil {
		strippedEnvironmentVariables = append([]string{}, options.StrippedEnvironmentVariables...)
	}

	environmentProvider := options.EnvironmentProvider
	if environmentProvider == nil {
		environmentProvider = os.Environ
	}

	return &OSCommandRunner{
		locator:                      locator,
		strippedEnvironmentVariables: strippedEnvironmentVariables,
		environmentProvider:          environmentProvider,
	}
}

// Run executes the supplied command and blocks until it exits or is killed.
//
// A non-zero exit is reported through ExecutionResult.ExitCode with a nil error.
// When the context ends first, the child's process group is killed and reaped
// before ProcessTerminatedError is returned alongside any partial output.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	executablePath, locateError := runner.locator.LocateExecutable(string(command.Name))
	if locateError != nil {
		return ExecutionResult{}, ProcessNotFoundError{Name: command.Name, Cause: locateError}
	}

	if command.Details.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		executionContext, cancelTimeout = context.WithTimeout(executionContext, command.Details.Timeout)
		defer cancelTimeout()
	}

	if contextError := executionContext.Err(); contextError != nil {
		return ExecutionResult{}, contextError
	}

	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.Command(executablePath, commandArguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	executable.Env = BuildEnvironment(command.Details.EnvironmentVariables, runner.environmentProvider(), runner.strippedEnvironmentVariables)

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer
	executable.WaitDelay = pipeDrainWaitDelayConstant

	if len(command.Details.StandardInput) > 0 {
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	configureProcessGroup(executable)

	if startError := executable.Start(); startError != nil {
		return ExecutionResult{}, startError
	}

	processExited := false
	defer func() {
		if !processExited {
			_ = terminateProcessGroup(executable.Process)
		}
	}()

	waitResults := make(chan error, 1)
	go func() {
		waitResults <- executable.Wait()
	}()

	var waitError error
	interrupted := false
	select {
	case waitError = <-waitResults:
	case <-executionContext.Done():
		interrupted = true
		_ = terminateProcessGroup(executable.Process)
		<-waitResults
	}
	processExited = true

	if interrupted {
		return ExecutionResult{
			StandardOutput: standardOutputBuffer.String(),
			StandardError:  standardErrorBuffer.String(),
			ExitCode:       terminatedExitCodeConstant,
		}, ProcessTerminatedError{Command: command, Cause: executionContext.Err()}
	}

	if waitError != nil && !errors.Is(waitError, exec.ErrWaitDelay) {
		exitError := &exec.ExitError{}
		if errors.As(waitError, &exitError) {
			return ExecutionResult{
				StandardOutput: standardOutputBuffer.String(),
				StandardError:  standardErrorBuffer.String(),
				ExitCode:       exitError.ExitCode(),
			}, nil
		}
		return ExecutionResult{}, waitError
	}

	exitCode := 0
	if executable.ProcessState != nil {
		exitCode = executable.ProcessState.ExitCode()
	}

	return ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		ExitCode:       exitCode,
	}, nil
}
