package toolpath

import "fmt"

const (
	toolNotFoundTemplateConstant              = "unable to locate %s on the search path"
	toolNotFoundWithDirectoryTemplateConstant = "unable to locate %s on the search path or in %s"
	toolNotFoundCauseSuffixTemplateConstant   = "%s: %s"
)

// ToolNotFoundError reports that a tool exists neither on the search path nor in the tools directory.
type ToolNotFoundError struct {
	ToolName       ToolName
	ToolsDirectory string
	Cause          error
}

// Error describes where the tool was searched for.
func (notFoundError ToolNotFoundError) Error() string {
	message := fmt.Sprintf(toolNotFoundTemplateConstant, notFoundError.ToolName)
	if len(notFoundError.ToolsDirectory) > 0 {
		message = fmt.Sprintf(toolNotFoundWithDirectoryTemplateConstant, notFoundError.ToolName, notFoundError.ToolsDirectory)
	}
	if notFoundError.Cause != nil {
		return fmt.Sprintf(toolNotFoundCauseSuffixTemplateConstant, message, notFoundError.Cause.Error())
	}
	return message
}

// Unwrap exposes the underlying cause, when one was recorded.
func (notFoundError ToolNotFoundError) Unwrap() error {
	return notFoundError.Cause
}
