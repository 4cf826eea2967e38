//go:build unix

package execshell

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureProcessGroup places the child in its own process group so that
// termination reaches any grandchildren it spawned.
func configureProcessGroup(executable *exec.Cmd) {
	executable.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminateProcessGroup(process *os.Process) error {
	if process == nil {
		return nil
	}

	killError := unix.Kill(-process.Pid, unix.SIGKILL)
	if killError == nil || errors.Is(killError, unix.ESRCH) {
		return nil
	}

	processKillError := process.Kill()
	if processKillError != nil && !errors.Is(processKillError, os.ErrProcessDone) {
		return processKillError
	}
	return nil
}
