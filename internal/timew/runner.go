package timew

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ajkarlsson/stint/internal/repository"
)

// Runner executes a backend command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// CommandRunner invokes the external tracker binary. Every invocation
// is bounded by a timeout so a hung backend cannot block the control
// loop.
type CommandRunner struct {
	command string
	timeout time.Duration
}

// NewCommandRunner creates a runner for the given binary and timeout.
func NewCommandRunner(command string, timeout time.Duration) *CommandRunner {
	if command == "" {
		command = "timew"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CommandRunner{command: command, timeout: timeout}
}

func (r *CommandRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	argLine := strings.Join(args, " ")
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s %s timed out after %s: %w", r.command, argLine, r.timeout, repository.ErrBackendUnavailable)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = exitErr.String()
		}
		return nil, fmt.Errorf("%s %s: %s: %w", r.command, argLine, detail, repository.ErrCommandFailed)
	}

	return nil, fmt.Errorf("%s %s: %v: %w", r.command, argLine, err, repository.ErrBackendUnavailable)
}
