package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentAssignmentsParsing(testInstance *testing.T) {
	testCases := []struct {
		name              string
		arguments         []string
		expectedVariables map[string]string
		expectError       bool
	}{
		{name: "Unset", arguments: []string{}, expectedVariables: nil},
		{name: "Single", arguments: []string{"--env", "LANG=C"}, expectedVariables: map[string]string{"LANG": "C"}},
		{name: "CommasAndEquals", arguments: []string{"-e", "PYTHONPATH=/a,/b", "-e", "OPTS=x=y"}, expectedVariables: map[string]string{"PYTHONPATH": "/a,/b", "OPTS": "x=y"}},
		{name: "EmptyValue", arguments: []string{"--env", "PYTHONPATH="}, expectedVariables: map[string]string{"PYTHONPATH": ""}},
		{name: "MissingSeparator", arguments: []string{"--env", "LANG"}, expectError: true},
		{name: "MissingKey", arguments: []string{"--env", "=C"}, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			command := &cobra.Command{}
			var assignments EnvironmentAssignments
			AddEnvironmentFlag(command.Flags(), &assignments, "env", "e", "Environment assignment")

			parseError := command.ParseFlags(testCase.arguments)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedVariables, assignments.Variables)
		})
	}
}

func TestEnvironmentAssignmentsString(testInstance *testing.T) {
	assignments := EnvironmentAssignments{Variables: map[string]string{"LANG": "C", "HOME": "/root"}}
	require.Equal(testInstance, "HOME=/root,LANG=C", assignments.String())
}
