package flags

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"
)

const (
	environmentAssignmentSeparatorConstant = "="
	environmentInvalidTemplateConstant     = "environment assignment %q must look like KEY=VALUE"
	environmentValueTypeConstant           = "KEY=VALUE"
)

// EnvironmentAssignments collects repeatable KEY=VALUE flags.
//
// Values may contain commas and equals signs; only the first '=' separates the key.
// Variables stays nil until the flag is used so callers can tell "inherit" from "explicit".
type EnvironmentAssignments struct {
	Variables map[string]string
}

// AddEnvironmentFlag registers a repeatable KEY=VALUE flag on flagSet.
func AddEnvironmentFlag(flagSet *pflag.FlagSet, target *EnvironmentAssignments, name string, shorthand string, usage string) {
	if flagSet == nil || target == nil || len(name) == 0 {
		return
	}
	flagSet.VarP(target, name, shorthand, usage)
}

// Set parses one KEY=VALUE assignment.
func (assignments *EnvironmentAssignments) Set(rawAssignment string) error {
	key, value, found := strings.Cut(rawAssignment, environmentAssignmentSeparatorConstant)
	key = strings.TrimSpace(key)
	if !found || len(key) == 0 {
		return fmt.Errorf(environmentInvalidTemplateConstant, rawAssignment)
	}
	if assignments.Variables == nil {
		assignments.Variables = map[string]string{}
	}
	assignments.Variables[key] = value
	return nil
}

// String renders the assignments sorted by key.
func (assignments *EnvironmentAssignments) String() string {
	if assignments == nil || len(assignments.Variables) == 0 {
		return ""
	}
	keys := make([]string, 0, len(assignments.Variables))
	for key := range assignments.Variables {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	rendered := make([]string, 0, len(keys))
	for _, key := range keys {
		rendered = append(rendered, key+environmentAssignmentSeparatorConstant+assignments.Variables[key])
	}
	return strings.Join(rendered, ",")
}

// Type describes the flag value in help output.
func (assignments *EnvironmentAssignments) Type() string {
	return environmentValueTypeConstant
}
