package toolplan

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/otatools/internal/execshell"
)

const (
	planStepStartMessageConstant = "Running plan step"
	planCompletedMessageConstant = "Plan completed"
	logFieldStepConstant         = "step"
	logFieldToolConstant         = "tool"
	logFieldStepCountConstant    = "steps"
)

// ToolExecutor runs a single shell command.
type ToolExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// Dependencies configures collaborators for plan execution.
type Dependencies struct {
	Logger       *zap.Logger
	ToolExecutor ToolExecutor
	Output       io.Writer
	ErrorOutput  io.Writer
}

// Executor runs plan steps sequentially.
type Executor struct {
	dependencies Dependencies
}

// NewExecutor constructs an Executor.
func NewExecutor(dependencies Dependencies) (*Executor, error) {
	if dependencies.ToolExecutor == nil {
		return nil, ErrToolExecutorNotConfigured
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	return &Executor{dependencies: dependencies}, nil
}

// Execute runs every step in order and stops at the first failure, returning
// the results gathered so far together with a StepError.
func (executor *Executor) Execute(executionContext context.Context, plan Plan) ([]execshell.ExecutionResult, error) {
	results := make([]execshell.ExecutionResult, 0, len(plan.Steps))
	for stepIndex, step := range plan.Steps {
		if contextError := executionContext.Err(); contextError != nil {
			return results, StepError{Index: stepIndex, Tool: step.Tool, Cause: contextError}
		}

		executor.dependencies.Logger.Info(
			planStepStartMessageConstant,
			zap.Int(logFieldStepConstant, stepIndex+1),
			zap.String(logFieldToolConstant, step.Tool),
		)

		executionResult, executionError := executor.dependencies.ToolExecutor.Execute(executionContext, step.ShellCommand())
		results = append(results, executionResult)
		if writeError := relay(executor.dependencies.Output, executionResult.StandardOutput); writeError != nil {
			return results, StepError{Index: stepIndex, Tool: step.Tool, Cause: writeError}
		}
		if writeError := relay(executor.dependencies.ErrorOutput, executionResult.StandardError); writeError != nil {
			return results, StepError{Index: stepIndex, Tool: step.Tool, Cause: writeError}
		}
		if executionError != nil {
			return results, StepError{Index: stepIndex, Tool: step.Tool, Cause: executionError}
		}
	}

	executor.dependencies.Logger.Info(planCompletedMessageConstant, zap.Int(logFieldStepCountConstant, len(plan.Steps)))
	return results, nil
}

func relay(destination io.Writer, capturedStream string) error {
	if destination == nil || len(capturedStream) == 0 {
		return nil
	}
	_, writeError := io.WriteString(destination, capturedStream)
	return writeError
}
