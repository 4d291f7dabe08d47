// Package command wraps external process invocation behind an immutable Command
// whose result is always a Status, never an error.
package command

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Sentinel exit codes for outcomes where the process never produced its own code.
const (
	// ExitLaunchFailed means the process could not be started.
	ExitLaunchFailed = -1
	// ExitTimeout means the process was killed after its deadline expired.
	ExitTimeout = -2
	// ExitSignaled means the process was terminated by a signal it did not handle.
	ExitSignaled = -3
)

// ErrEmptyCommand is returned when a command has no executable.
var ErrEmptyCommand = errors.New("command: empty argument list")

// Command is an executable unit built once and executed by its caller.
type Command interface {
	// Execute blocks until the command completes and its output is drained.
	Execute(ctx context.Context) Status
	// String renders the command for logs with secrets masked.
	String() string
}

// Status is the immutable result of executing a Command.
type Status struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	// Orphaned is set when part of a killed process tree could not be confirmed dead.
	Orphaned bool
}

// LaunchFailed reports whether the process could not be started.
func (s Status) LaunchFailed() bool { return s.ExitCode == ExitLaunchFailed }

// TimedOut reports whether the process was killed on timeout.
func (s Status) TimedOut() bool { return s.ExitCode == ExitTimeout }

// Completed reports whether the process ran to completion with its own exit code.
func (s Status) Completed() bool { return s.ExitCode >= 0 }

// Static is a no-op command returning a predetermined status without spawning a process.
type Static struct {
	status Status
	label  string
}

var _ Command = (*Static)(nil)

// NewStatic creates a no-op command.
func NewStatic(status Status) *Static {
	return &Static{status: status, label: "static"}
}

// NewStaticLabeled creates a no-op command with a descriptive label for logs.
func NewStaticLabeled(label string, status Status) *Static {
	return &Static{status: status, label: label}
}

// Execute returns the predetermined status.
func (s *Static) Execute(_ context.Context) Status { return s.status }

func (s *Static) String() string { return "<" + s.label + ">" }

const mask = "****"

func redact(args []string, secrets []string) string {
	joined := strings.Join(args, " ")
	for _, sec := range secrets {
		if sec == "" {
			continue
		}
		joined = strings.ReplaceAll(joined, sec, mask)
	}
	return joined
}
