package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	// waitDelay bounds how long Execute waits for output pipes after the process is killed.
	waitDelay = 5 * time.Second
	// reapTimeout bounds how long Execute waits for a killed process tree to disappear.
	reapTimeout = 2 * time.Second
)

// Config describes an external process invocation.
type Config struct {
	// Args holds the executable followed by its arguments.
	Args []string
	// Stdin is written to the process standard input when non-empty.
	Stdin string
	Dir   string
	// Env extends the inherited environment (KEY=VALUE).
	Env []string
	// Timeout kills the process when exceeded; zero means no timeout.
	Timeout time.Duration
	// Secrets are masked in String().
	Secrets []string
}

// Process runs an external program.
type Process struct {
	args    []string
	stdin   string
	dir     string
	env     []string
	timeout time.Duration
	secrets []string
}

var _ Command = (*Process)(nil)

// New validates cfg and creates an immutable Process.
func New(cfg Config) (*Process, error) {
	if len(cfg.Args) == 0 || strings.TrimSpace(cfg.Args[0]) == "" {
		return nil, ErrEmptyCommand
	}
	return &Process{
		args:    append([]string(nil), cfg.Args...),
		stdin:   cfg.Stdin,
		dir:     cfg.Dir,
		env:     append([]string(nil), cfg.Env...),
		timeout: cfg.Timeout,
		secrets: append([]string(nil), cfg.Secrets...),
	}, nil
}

// Args returns a copy of the argument list.
func (p *Process) Args() []string {
	return append([]string(nil), p.args...)
}

// Stdin returns the standard input payload.
func (p *Process) Stdin() string { return p.stdin }

func (p *Process) String() string { return redact(p.args, p.secrets) }

// Execute runs the process. Launch failures and timeouts are reported in the
// returned Status via sentinel exit codes with the cause in Stderr.
func (p *Process) Execute(ctx context.Context) Status {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.args[0], p.args[1:]...)
	cmd.Dir = p.dir
	cmd.WaitDelay = waitDelay
	setupProcessGroup(cmd)
	if len(p.env) > 0 {
		cmd.Env = append(cmd.Environ(), p.env...)
	}
	if p.stdin != "" {
		cmd.Stdin = strings.NewReader(p.stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	status := Status{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		status.ExitCode = 0
	case ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		status.ExitCode = ExitTimeout
		status.Stderr = appendLine(status.Stderr, fmt.Sprintf("killed: timeout after %s", p.timeout))
	case ctx.Err() != nil:
		status.ExitCode = ExitTimeout
		status.Stderr = appendLine(status.Stderr, fmt.Sprintf("killed: %v", ctx.Err()))
	case errors.Is(err, exec.ErrWaitDelay):
		status.ExitCode = ExitTimeout
		status.Stderr = appendLine(status.Stderr, "killed: output still held open after exit")
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status.ExitCode = exitErr.ExitCode()
			if status.ExitCode < 0 {
				status.ExitCode = ExitSignaled
			}
		} else {
			status.ExitCode = ExitLaunchFailed
			status.Stderr = appendLine(status.Stderr, err.Error())
		}
	}

	// A killed or output-holding run may leave descendants behind.
	if err != nil && cmd.Process != nil && (ctx.Err() != nil || errors.Is(err, exec.ErrWaitDelay)) {
		if !reap(cmd.Process.Pid) {
			status.Orphaned = true
			status.Stderr = appendLine(status.Stderr, "process tree still running after kill")
		}
	}
	return status
}

// reap kills the process group rooted at pid and waits for it to vanish.
func reap(pid int) bool {
	deadline := time.Now().Add(reapTimeout)
	for {
		_ = killProcessGroup(pid)
		if !processGroupAlive(pid) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func appendLine(s, line string) string {
	if s == "" {
		return line
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s + line
}
