// Package execshell runs external tools as child processes.
//
// OSCommandRunner spawns a located executable, captures both output streams,
// and kills the child's process group when the calling context ends.
// ShellExecutor layers logging, lifecycle observers, and typed failures
// (ProcessNotFoundError, SubprocessFailedError, ProcessTerminatedError) on top
// of any CommandRunner.
package execshell
