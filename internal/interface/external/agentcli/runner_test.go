//go:build !windows

package agentcli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shRunner runs the "agent" as a shell script: the prompt argument carries
// the script, proving the prompt is always the final argument.
func shRunner() *Runner {
	return &Runner{
		Bin:         "/bin/sh",
		BaseArgs:    []string{"-c"},
		IdleTimeout: 30 * time.Second,
	}
}

func TestRunCapturesCombinedOutput(t *testing.T) {
	r := shRunner()
	res, err := r.Run(context.Background(), Request{
		Role:    "DEVELOPER",
		Prompt:  `echo "working on the parser"; echo "to stderr" 1>&2; echo "DEV_STATUS: DONE"`,
		WorkDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Output, "working on the parser")
	assert.Contains(t, res.Output, "to stderr")
	assert.Contains(t, res.Output, "DEV_STATUS: DONE")
	assert.Greater(t, res.Duration, time.Duration(0))
}

func TestRunNonZeroExitWithOutputIsNotAnError(t *testing.T) {
	r := shRunner()
	res, err := r.Run(context.Background(), Request{
		Role:    "TESTER",
		Prompt:  `echo "TEST_STATUS: FAIL"; exit 3`,
		WorkDir: t.TempDir(),
	})
	require.NoError(t, err, "output was produced, markers may still parse")
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Output, "TEST_STATUS: FAIL")
}

func TestRunNonZeroExitWithoutOutputIsAnError(t *testing.T) {
	r := shRunner()
	res, err := r.Run(context.Background(), Request{
		Role:    "TESTER",
		Prompt:  `exit 7`,
		WorkDir: t.TempDir(),
	})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrIdleTimeout))
	assert.False(t, errors.Is(err, ErrOutputLoop))
	assert.Equal(t, 7, res.ExitCode)
}

func TestRunIdleTimeoutKillsProcessGroup(t *testing.T) {
	r := shRunner()
	r.IdleTimeout = time.Second

	start := time.Now()
	res, err := r.Run(context.Background(), Request{
		Role:    "DEVELOPER",
		Prompt:  `echo "started"; sleep 60`,
		WorkDir: t.TempDir(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIdleTimeout))
	assert.Contains(t, res.Output, "started", "output before the stall is kept")
	assert.Less(t, time.Since(start), 20*time.Second, "the sleep was terminated, not awaited")
}

func TestRunContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	r := shRunner()
	_, err := r.Run(ctx, Request{
		Role:    "DEVELOPER",
		Prompt:  `sleep 60`,
		WorkDir: t.TempDir(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, ErrIdleTimeout))
}

func TestRunLoopDetection(t *testing.T) {
	r := shRunner()
	r.RepeatWindow = 2
	r.RepeatLimit = 3

	// Alternating lines defeat consecutive-duplicate suppression, so the
	// window {alpha, beta} repeats until the tracker trips.
	script := `i=0; while [ $i -lt 50 ]; do echo "alpha step"; echo "beta step"; i=$((i+1)); done; sleep 60`
	start := time.Now()
	_, err := r.Run(context.Background(), Request{
		Role:    "DEVELOPER",
		Prompt:  script,
		WorkDir: t.TempDir(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutputLoop))
	assert.Less(t, time.Since(start), 20*time.Second)
}

func TestRunStartFailure(t *testing.T) {
	r := &Runner{Bin: "/nonexistent/agent-binary"}
	_, err := r.Run(context.Background(), Request{Role: "PLANNER", Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start")
}
