package execshell

import (
	"fmt"
	"sort"
	"strings"
)

const (
	environmentAssignmentSeparatorConstant = "="
	environmentAssignmentTemplateConstant  = "%s%s%s"
	// PythonPathEnvironmentVariable is stripped from inherited environments by default.
	PythonPathEnvironmentVariable = "PYTHONPATH"
)

// DefaultStrippedEnvironmentVariables lists variables removed from inherited environments.
func DefaultStrippedEnvironmentVariables() []string {
	return []string{PythonPathEnvironmentVariable}
}

// BuildEnvironment computes the child environment.
//
// An explicit map is rendered as-is in sorted order. Without one, the inherited
// assignments are copied and any variable named in strippedVariables is removed.
func BuildEnvironment(explicitVariables map[string]string, inheritedAssignments []string, strippedVariables []string) []string {
	if explicitVariables != nil {
		environmentKeys := make([]string, 0, len(explicitVariables))
		for environmentKey := range explicitVariables {
			environmentKeys = append(environmentKeys, environmentKey)
		}
		sort.Strings(environmentKeys)

		explicitAssignments := make([]string, 0, len(environmentKeys))
		for _, environmentKey := range environmentKeys {
			explicitAssignments = append(explicitAssignments, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentAssignmentSeparatorConstant, explicitVariables[environmentKey]))
		}
		return explicitAssignments
	}

	strippedLookup := make(map[string]struct{}, len(strippedVariables))
	for _, strippedVariable := range strippedVariables {
		strippedLookup[strippedVariable] = struct{}{}
	}

	inheritedCopy := make([]string, 0, len(inheritedAssignments))
	for _, assignment := range inheritedAssignments {
		environmentKey, _, _ := strings.Cut(assignment, environmentAssignmentSeparatorConstant)
		if _, stripped := strippedLookup[environmentKey]; stripped {
			continue
		}
		inheritedCopy = append(inheritedCopy, assignment)
	}
	return inheritedCopy
}
