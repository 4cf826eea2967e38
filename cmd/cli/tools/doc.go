// Package tools builds the otatools subcommands that resolve, run, and unpack
// vendored host tools.
package tools
