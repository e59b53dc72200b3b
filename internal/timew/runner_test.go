package timew_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ajkarlsson/stint/internal/repository"
	"github.com/ajkarlsson/stint/internal/timew"
)

func TestCommandRunnerCapturesStdout(t *testing.T) {
	runner := timew.NewCommandRunner("echo", time.Second)

	out, err := runner.Run(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "hello", strings.TrimSpace(string(out)))
}

func TestCommandRunnerExitFailure(t *testing.T) {
	runner := timew.NewCommandRunner("false", time.Second)

	_, err := runner.Run(context.Background())
	require.ErrorIs(t, err, repository.ErrCommandFailed)
}

func TestCommandRunnerMissingBinary(t *testing.T) {
	runner := timew.NewCommandRunner("definitely-not-a-real-binary", time.Second)

	_, err := runner.Run(context.Background())
	require.ErrorIs(t, err, repository.ErrBackendUnavailable)
}

func TestCommandRunnerTimeout(t *testing.T) {
	runner := timew.NewCommandRunner("sleep", 50*time.Millisecond)

	_, err := runner.Run(context.Background(), "5")
	require.ErrorIs(t, err, repository.ErrBackendUnavailable)
}
