// Package toolplan loads ordered tool invocation plans from YAML and runs them
// one step at a time through the shell executor.
package toolplan
