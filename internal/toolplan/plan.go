package toolplan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/temirov/otatools/internal/execshell"
)

const (
	planLoadErrorTemplateConstant  = "failed to load plan: %w"
	planParseErrorTemplateConstant = "failed to parse plan: %w"
)

// Plan is an ordered list of tool invocations.
type Plan struct {
	Timeout time.Duration `yaml:"timeout"`
	Steps   []Step        `yaml:"steps"`
}

// Step describes a single tool invocation.
//
// A missing env block inherits the caller's environment; an empty one runs the
// tool with no environment at all.
type Step struct {
	Tool        string            `yaml:"tool"`
	Arguments   []string          `yaml:"args"`
	Directory   string            `yaml:"dir"`
	Environment map[string]string `yaml:"env"`
	Timeout     time.Duration     `yaml:"timeout"`
}

// ShellCommand converts the step into an executor command.
func (step Step) ShellCommand() execshell.ShellCommand {
	return execshell.ShellCommand{
		Name: execshell.CommandName(step.Tool),
		Details: execshell.CommandDetails{
			Arguments:            append([]string{}, step.Arguments...),
			WorkingDirectory:     step.Directory,
			EnvironmentVariables: step.Environment,
			Timeout:              step.Timeout,
		},
	}
}

// LoadPlan reads a plan file from disk. Relative step directories are
// resolved against the directory holding the plan file.
func LoadPlan(filePath string) (Plan, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Plan{}, ErrPlanPathRequired
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Plan{}, fmt.Errorf(planLoadErrorTemplateConstant, readError)
	}

	return ParsePlan(contentBytes, filepath.Dir(trimmedPath))
}

// ParsePlan decodes and validates plan content. Either a top-level steps list
// or a document nested under a plan key is accepted.
func ParsePlan(contentBytes []byte, baseDirectory string) (Plan, error) {
	var plan Plan
	if unmarshalError := yaml.Unmarshal(contentBytes, &plan); unmarshalError != nil {
		return Plan{}, fmt.Errorf(planParseErrorTemplateConstant, unmarshalError)
	}

	if len(plan.Steps) == 0 {
		var wrapper struct {
			Plan Plan `yaml:"plan"`
		}
		if nestedError := yaml.Unmarshal(contentBytes, &wrapper); nestedError == nil && len(wrapper.Plan.Steps) > 0 {
			plan = wrapper.Plan
		}
	}

	if len(plan.Steps) == 0 {
		return Plan{}, ErrPlanEmpty
	}

	for stepIndex := range plan.Steps {
		step := &plan.Steps[stepIndex]
		step.Tool = strings.TrimSpace(step.Tool)
		if len(step.Tool) == 0 {
			return Plan{}, fmt.Errorf(stepInvalidTemplateConstant, stepIndex+1, ErrStepToolMissing)
		}
		if step.Timeout == 0 {
			step.Timeout = plan.Timeout
		}
		step.Directory = strings.TrimSpace(step.Directory)
		if len(step.Directory) > 0 && !filepath.IsAbs(step.Directory) && len(baseDirectory) > 0 {
			step.Directory = filepath.Join(baseDirectory, step.Directory)
		}
	}

	return plan, nil
}
