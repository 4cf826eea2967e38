package tools

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/temirov/otatools/internal/execshell"
	"github.com/temirov/otatools/internal/toolplan"
	"github.com/temirov/otatools/internal/utils"
	flagutils "github.com/temirov/otatools/internal/utils/flags"
)

const (
	runCommandUseConstant                  = "run <tool> [arguments...]"
	runCommandShortDescriptionConstant     = "Run a host tool and relay its output"
	runCommandLongDescriptionConstant      = "run resolves tool like resolve does, runs it with the given arguments, and relays its standard output and error. The exit code of the tool becomes the exit code of otatools. With --plan, the steps of a YAML plan run in order instead."
	runTimeoutFlagNameConstant             = "timeout"
	runTimeoutFlagUsageConstant            = "Kill the tool after this duration (0 disables; defaults to tools.runner.timeout)"
	runDirectoryFlagNameConstant           = "dir"
	runDirectoryFlagUsageConstant          = "Working directory for the tool"
	runEnvironmentFlagNameConstant         = "env"
	runEnvironmentFlagShorthandConstant    = "e"
	runEnvironmentFlagUsageConstant        = "Set KEY=VALUE in the tool environment (repeatable); stripped variables are restored when named explicitly"
	runCleanEnvironmentFlagNameConstant    = "clean-env"
	runCleanEnvironmentFlagUsageConstant   = "Start the tool with only the --env assignments"
	runPlanFlagNameConstant                = "plan"
	runPlanFlagUsageConstant               = "Run the steps of a YAML plan file instead of a single tool"
	runMissingToolMessageConstant          = "tool name or --plan is required"
	runPlanWithToolMessageConstant         = "--plan cannot be combined with a tool name"
	runPlanLoadErrorTemplateConstant       = "unable to load plan: %w"
	environmentAssignmentSeparatorConstant = "="
)

// RunCommandBuilder assembles the run command.
type RunCommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
	CommandRunner                execshell.CommandRunner
	EnvironmentProvider          func() []string
}

type runOptions struct {
	environment      flagutils.EnvironmentAssignments
	cleanEnvironment bool
}

// Build constructs the run command.
func (builder *RunCommandBuilder) Build() (*cobra.Command, error) {
	options := &runOptions{}
	command := &cobra.Command{
		Use:   runCommandUseConstant,
		Short: runCommandShortDescriptionConstant,
		Long:  runCommandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments, options)
		},
	}

	command.Flags().SetInterspersed(false)
	command.Flags().Duration(runTimeoutFlagNameConstant, 0, runTimeoutFlagUsageConstant)
	command.Flags().String(runDirectoryFlagNameConstant, "", runDirectoryFlagUsageConstant)
	command.Flags().String(runPlanFlagNameConstant, "", runPlanFlagUsageConstant)
	command.Flags().BoolVar(&options.cleanEnvironment, runCleanEnvironmentFlagNameConstant, false, runCleanEnvironmentFlagUsageConstant)
	flagutils.AddEnvironmentFlag(command.Flags(), &options.environment, runEnvironmentFlagNameConstant, runEnvironmentFlagShorthandConstant, runEnvironmentFlagUsageConstant)

	return command, nil
}

func (builder *RunCommandBuilder) run(command *cobra.Command, arguments []string, options *runOptions) error {
	planPath, _ := command.Flags().GetString(runPlanFlagNameConstant)
	planPath = strings.TrimSpace(planPath)
	if len(planPath) == 0 && len(arguments) == 0 {
		if helpError := displayCommandHelp(command); helpError != nil {
			return helpError
		}
		return errors.New(runMissingToolMessageConstant)
	}
	if len(planPath) > 0 && len(arguments) > 0 {
		return errors.New(runPlanWithToolMessageConstant)
	}

	logger := resolveLogger(builder.LoggerProvider)
	configuration := resolveConfiguration(builder.ConfigurationProvider)

	resolver, resolverError := newResolver(command, configuration, logger)
	if resolverError != nil {
		return resolverError
	}

	shellExecutor, executorError := newShellExecutor(executorSettings{
		logger:               logger,
		configuration:        configuration,
		runner:               builder.CommandRunner,
		locator:              resolver,
		humanReadableLogging: humanReadableLogging(builder.HumanReadableLoggingProvider),
	})
	if executorError != nil {
		return executorError
	}

	timeout := configuration.Runner.Timeout
	if command.Flags().Changed(runTimeoutFlagNameConstant) {
		timeout, _ = command.Flags().GetDuration(runTimeoutFlagNameConstant)
	}

	standardOutput := utils.NewFlushingWriter(command.OutOrStdout())
	standardError := utils.NewFlushingWriter(command.ErrOrStderr())
	if len(planPath) > 0 {
		return builder.runPlan(command, planPath, timeout, shellExecutor, standardOutput, standardError)
	}

	workingDirectory, _ := command.Flags().GetString(runDirectoryFlagNameConstant)
	shellCommand := execshell.ShellCommand{
		Name: execshell.CommandName(arguments[0]),
		Details: execshell.CommandDetails{
			Arguments:            append([]string{}, arguments[1:]...),
			WorkingDirectory:     strings.TrimSpace(workingDirectory),
			EnvironmentVariables: builder.environment(options, configuration),
			Timeout:              timeout,
		},
	}

	executionResult, executionError := shellExecutor.Execute(command.Context(), shellCommand)
	if _, writeError := io.WriteString(standardOutput, executionResult.StandardOutput); writeError != nil && executionError == nil {
		executionError = writeError
	}
	if _, writeError := io.WriteString(standardError, executionResult.StandardError); writeError != nil && executionError == nil {
		executionError = writeError
	}
	return executionError
}

func (builder *RunCommandBuilder) runPlan(command *cobra.Command, planPath string, timeout time.Duration, shellExecutor *execshell.ShellExecutor, output io.Writer, errorOutput io.Writer) error {
	plan, planError := toolplan.LoadPlan(planPath)
	if planError != nil {
		return fmt.Errorf(runPlanLoadErrorTemplateConstant, planError)
	}
	for stepIndex := range plan.Steps {
		if plan.Steps[stepIndex].Timeout == 0 {
			plan.Steps[stepIndex].Timeout = timeout
		}
	}

	planExecutor, planExecutorError := toolplan.NewExecutor(toolplan.Dependencies{
		Logger:       resolveLogger(builder.LoggerProvider),
		ToolExecutor: shellExecutor,
		Output:       output,
		ErrorOutput:  errorOutput,
	})
	if planExecutorError != nil {
		return planExecutorError
	}

	_, executionError := planExecutor.Execute(command.Context(), plan)
	return executionError
}

// environment returns nil to inherit the filtered process environment. Any
// --env assignment or --clean-env switches to an explicit environment built
// from the filtered inheritance (or nothing) plus the assignments.
func (builder *RunCommandBuilder) environment(options *runOptions, configuration Configuration) map[string]string {
	if options.environment.Variables == nil && !options.cleanEnvironment {
		return nil
	}

	explicitEnvironment := map[string]string{}
	if !options.cleanEnvironment {
		environmentProvider := builder.EnvironmentProvider
		if environmentProvider == nil {
			environmentProvider = os.Environ
		}
		inherited := execshell.BuildEnvironment(nil, environmentProvider(), configuration.Runner.StrippedEnvironmentVariables)
		for _, assignment := range inherited {
			key, value, found := strings.Cut(assignment, environmentAssignmentSeparatorConstant)
			if found {
				explicitEnvironment[key] = value
			}
		}
	}
	for key, value := range options.environment.Variables {
		explicitEnvironment[key] = value
	}
	return explicitEnvironment
}
