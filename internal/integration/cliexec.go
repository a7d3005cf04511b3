package integration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ToolError describes a failed or timed-out external command.
type ToolError struct {
	Tool     string
	Args     []string
	Dir      string
	ExitCode int
	Stderr   string
	Timeout  bool
	Err      error
}

func (e *ToolError) Error() string {
	cmd := strings.TrimSpace(e.Tool + " " + strings.Join(e.Args, " "))
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s: timed out", cmd)
	case e.Stderr != "":
		return fmt.Sprintf("%s: exit %d: %s", cmd, e.ExitCode, e.Stderr)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", cmd, e.Err)
	default:
		return fmt.Sprintf("%s: exit %d", cmd, e.ExitCode)
	}
}

func (e *ToolError) Unwrap() error { return e.Err }

// CommandRunner runs an external command in a directory and returns its
// standard output.
type CommandRunner interface {
	Run(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (string, error)
}

// execRunner implements CommandRunner with os/exec.
type execRunner struct{}

// NewCommandRunner creates a CommandRunner that executes real processes.
func NewCommandRunner() CommandRunner {
	return &execRunner{}
}

// Run executes name with args in dir. A positive timeout bounds the call;
// expiry kills the process and yields a ToolError with Timeout set.
// Non-zero exits and start failures are also returned as *ToolError.
func (r *execRunner) Run(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	// Never block on a credential prompt.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GH_PROMPT_DISABLED=1")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	toolErr := &ToolError{
		Tool:     name,
		Args:     args,
		Dir:      dir,
		ExitCode: -1,
		Stderr:   strings.TrimSpace(stderr.String()),
		Err:      err,
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		toolErr.Timeout = true
		toolErr.Err = ctx.Err()
		return stdout.String(), toolErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		toolErr.ExitCode = exitErr.ExitCode()
	}
	return stdout.String(), toolErr
}

// splitLines returns the non-empty trimmed lines of out.
func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
