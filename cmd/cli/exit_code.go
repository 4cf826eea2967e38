package cli

import (
	"context"
	"errors"

	"github.com/temirov/otatools/internal/execshell"
)

const (
	successExitCodeConstant        = 0
	genericFailureExitCodeConstant = 1
	timeoutExitCodeConstant        = 124
	interruptedExitCodeConstant    = 130
)

// ExitCode maps a command error onto the process exit status. A failing tool
// passes its own exit code through. Timeouts report 124 and interrupts 130.
func ExitCode(executionError error) int {
	if executionError == nil {
		return successExitCodeConstant
	}

	var failedError execshell.SubprocessFailedError
	if errors.As(executionError, &failedError) && failedError.ExitCode > 0 {
		return failedError.ExitCode
	}

	switch {
	case errors.Is(executionError, context.DeadlineExceeded):
		return timeoutExitCodeConstant
	case errors.Is(executionError, context.Canceled):
		return interruptedExitCodeConstant
	}

	return genericFailureExitCodeConstant
}
