// Package agentcli runs the external agent CLI for one role invocation:
// prompt and working directory in, exit status and captured text out.
// The orchestration core does not care which concrete tool is behind this
// boundary as long as it honors that contract.
package agentcli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Invocation failure modes the scheduler maps to gate outcomes.
var (
	// ErrIdleTimeout: the process produced no output for the configured
	// idle-silence duration and its process group was terminated.
	ErrIdleTimeout = errors.New("agent idle timeout")
	// ErrOutputLoop: the process kept emitting the same progress lines,
	// indicating the tool is stuck rather than producing new work.
	ErrOutputLoop = errors.New("agent output loop detected")
)

// Runner invokes the agent binary. The prompt is always appended as the
// final argument after BaseArgs.
type Runner struct {
	Bin          string
	BaseArgs     []string
	IdleTimeout  time.Duration
	RepeatWindow int // progress-line window for loop detection
	RepeatLimit  int // consecutive repeats of that window before aborting
	Logf         func(format string, args ...interface{})
}

// Request describes one role invocation
type Request struct {
	Role    string
	Prompt  string
	WorkDir string
}

// Result is the bounded-wait outcome of an invocation.
// Output is the captured combined stdout/stderr text; it is never filtered,
// only progress reporting is.
type Result struct {
	Output   string
	ExitCode int
	Duration time.Duration
}

func (r *Runner) logf(format string, args ...interface{}) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}

// Run executes the agent and blocks until it finishes, fails, or is
// cancelled. Cancellation (context or idle timeout) terminates the whole
// process group, not just the read loop, so no child processes leak.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	args := append(append([]string{}, r.BaseArgs...), req.Prompt)
	cmd := exec.CommandContext(ctx, r.Bin, args...)
	cmd.Dir = req.WorkDir
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return killProcessGroup(cmd)
	}
	cmd.WaitDelay = 5 * time.Second

	// Merge stderr into the captured stream, mirroring what a terminal user
	// of the tool would see.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return Result{}, fmt.Errorf("failed to start %s: %w", r.Bin, err)
	}

	var lastOutput atomic.Int64
	lastOutput.Store(time.Now().UnixNano())

	var timedOut atomic.Bool
	var loopDetected atomic.Bool

	// Idle watchdog
	watchdogDone := make(chan struct{})
	var watchdogWG sync.WaitGroup
	if r.IdleTimeout > 0 {
		watchdogWG.Add(1)
		go func() {
			defer watchdogWG.Done()
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-watchdogDone:
					return
				case <-ticker.C:
					idle := time.Since(time.Unix(0, lastOutput.Load()))
					if idle >= r.IdleTimeout {
						r.logf("[%s] timeout: no output for %s; terminating process group", req.Role, idle.Round(time.Second))
						timedOut.Store(true)
						killProcessGroup(cmd)
						return
					}
				}
			}
		}()
	}

	// Capture loop. The collector accumulates the unfiltered text while the
	// filter decides what is worth reporting as progress.
	collector := newStreamCollector(req.Role, r.logf)
	progress := newProgressTracker(r.RepeatWindow, r.RepeatLimit)

	readerErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			lastOutput.Store(time.Now().UnixNano())
			line := scanner.Text()
			update := collector.consume(line)
			if update == "" {
				continue
			}
			r.logf("[%s] %s", req.Role, update)
			if progress.record(update) {
				r.logf("[%s] loop detected: repeating progress updates; terminating process group", req.Role)
				loopDetected.Store(true)
				killProcessGroup(cmd)
				return
			}
		}
		readerErr <- scanner.Err()
	}()

	waitErr := cmd.Wait()
	pw.Close()

	select {
	case <-readerErr:
	case <-time.After(time.Second):
		// Reader is drained through the pipe close; don't block on it
	}
	pr.Close()
	close(watchdogDone)
	watchdogWG.Wait()

	res := Result{
		Output:   collector.text(),
		Duration: time.Since(start),
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
	}

	switch {
	case timedOut.Load():
		return res, fmt.Errorf("%w after %s of silence", ErrIdleTimeout, r.IdleTimeout)
	case loopDetected.Load():
		return res, fmt.Errorf("%w (window=%d repeats=%d)", ErrOutputLoop, r.RepeatWindow, r.RepeatLimit)
	case ctx.Err() != nil:
		return res, ctx.Err()
	case waitErr != nil && strings.TrimSpace(res.Output) == "":
		return res, fmt.Errorf("%s exited with code %d and no output: %w", r.Bin, res.ExitCode, waitErr)
	}
	return res, nil
}
