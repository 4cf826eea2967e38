// Package toolpath resolves logical tool names to executable paths.
//
// Resolution consults the host search path first and then the vendored
// <tools_dir>/bin directory, marking vendored binaries executable on the way.
package toolpath
