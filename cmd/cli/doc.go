// Package cli constructs the otatools command-line interface, wiring the
// Cobra command hierarchy, configuration loader, and structured logging
// primitives around the tool commands in cmd/cli/tools.
package cli
