//go:build !unix

package execshell

import (
	"errors"
	"os"
	"os/exec"
)

func configureProcessGroup(*exec.Cmd) {}

func terminateProcessGroup(process *os.Process) error {
	if process == nil {
		return nil
	}
	killError := process.Kill()
	if killError != nil && !errors.Is(killError, os.ErrProcessDone) {
		return killError
	}
	return nil
}
