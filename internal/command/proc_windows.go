//go:build windows

package command

import (
	"os/exec"
	"strconv"
)

// setupProcessGroup makes cancellation kill the whole process tree through taskkill.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if err := killProcessGroup(cmd.Process.Pid); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}

func killProcessGroup(pid int) error {
	return exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).Run()
}

// processGroupAlive cannot inspect a tree whose root has exited; taskkill /T is trusted.
func processGroupAlive(int) bool { return false }
