//go:build !unix && !windows

package command

import "os/exec"

func setupProcessGroup(*exec.Cmd) {}

func killProcessGroup(int) error { return nil }

func processGroupAlive(int) bool { return false }
