package toolplan

import (
	"errors"
	"fmt"
)

const (
	planPathRequiredMessageConstant = "plan path must be provided"
	planEmptyMessageConstant        = "plan must define at least one step"
	stepToolMissingMessageConstant  = "plan step missing tool name"
	executorMissingMessageConstant  = "plan executor requires a tool executor"
	stepFailedTemplateConstant      = "plan step %d (%s) failed: %v"
	stepInvalidTemplateConstant     = "plan step %d: %w"
)

var (
	// ErrPlanPathRequired indicates LoadPlan was called without a path.
	ErrPlanPathRequired = errors.New(planPathRequiredMessageConstant)
	// ErrPlanEmpty indicates a plan without steps.
	ErrPlanEmpty = errors.New(planEmptyMessageConstant)
	// ErrStepToolMissing indicates a step without a tool name.
	ErrStepToolMissing = errors.New(stepToolMissingMessageConstant)
	// ErrToolExecutorNotConfigured indicates the executor was constructed without a tool executor.
	ErrToolExecutorNotConfigured = errors.New(executorMissingMessageConstant)
)

// StepError reports the plan step that stopped execution.
type StepError struct {
	Index int
	Tool  string
	Cause error
}

// Error describes the failing step.
func (stepError StepError) Error() string {
	return fmt.Sprintf(stepFailedTemplateConstant, stepError.Index+1, stepError.Tool, stepError.Cause)
}

// Unwrap exposes the step failure.
func (stepError StepError) Unwrap() error {
	return stepError.Cause
}
