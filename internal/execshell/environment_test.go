package execshell_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/otatools/internal/execshell"
)

func TestBuildEnvironment(testInstance *testing.T) {
	inheritedAssignments := []string{"HOME=/home/builder", "PYTHONPATH=/opt/acloud", "PATH=/usr/bin", "PYTHONPATHX=kept"}

	testCases := []struct {
		name                string
		explicitVariables   map[string]string
		strippedVariables   []string
		expectedAssignments []string
	}{
		{
			name:                "inherited_strips_python_path",
			strippedVariables:   execshell.DefaultStrippedEnvironmentVariables(),
			expectedAssignments: []string{"HOME=/home/builder", "PATH=/usr/bin", "PYTHONPATHX=kept"},
		},
		{
			name:                "inherited_without_stripping",
			strippedVariables:   []string{},
			expectedAssignments: inheritedAssignments,
		},
		{
			name:                "explicit_passed_unmodified",
			explicitVariables:   map[string]string{"PYTHONPATH": "/vendored", "LANG": "C"},
			strippedVariables:   execshell.DefaultStrippedEnvironmentVariables(),
			expectedAssignments: []string{"LANG=C", "PYTHONPATH=/vendored"},
		},
		{
			name:                "explicit_empty_map_clears_environment",
			explicitVariables:   map[string]string{},
			strippedVariables:   execshell.DefaultStrippedEnvironmentVariables(),
			expectedAssignments: []string{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			environment := execshell.BuildEnvironment(testCase.explicitVariables, inheritedAssignments, testCase.strippedVariables)
			require.Equal(testInstance, testCase.expectedAssignments, environment)
		})
	}

	require.Contains(testInstance, inheritedAssignments, "PYTHONPATH=/opt/acloud")
}
