// Package command runs external tools with retries and graceful termination.
package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"
)

// Runner executes external commands. Failed commands are retried up to
// Attempts times with Interval between tries. On context cancellation the
// process receives SIGTERM and is force-killed after Grace.
// A Runner is immutable and safe for concurrent use.
type Runner struct {
	Attempts int
	Interval time.Duration
	Grace    time.Duration

	// secrets are masked in log output.
	secrets []string
}

// Result holds the captured output of the last attempt.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Log returns the combined stdout and stderr of the command.
func (r *Result) Log() string {
	if r.Stdout == "" {
		return r.Stderr
	}
	if r.Stderr == "" {
		return r.Stdout
	}
	return r.Stdout + "\n" + r.Stderr
}

// NewRunner creates a runner with the given retry policy.
func NewRunner(attempts int, interval, grace time.Duration) *Runner {
	if attempts < 1 {
		attempts = 1
	}
	return &Runner{Attempts: attempts, Interval: interval, Grace: grace}
}

// WithRedaction returns a copy of the runner that masks the given secret
// in every log line it writes.
func (r *Runner) WithRedaction(secret string) *Runner {
	if secret == "" {
		return r
	}
	clone := *r
	clone.secrets = append(append([]string(nil), r.secrets...), secret)
	return &clone
}

// Run executes name with args in dir (empty dir means the current one).
// The result always carries the output of the last attempt, also when the
// command failed.
func (r *Runner) Run(ctx context.Context, dir, name string, args ...string) (*Result, error) {
	var result *Result
	var err error

	for attempt := 1; attempt <= r.Attempts; attempt++ {
		result, err = r.runOnce(ctx, dir, name, args...)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			// No point retrying a cancelled command.
			return result, err
		}

		if attempt < r.Attempts {
			logger.Debugf("Command %s failed (attempt %d/%d), retrying in %s: %v",
				r.redact(name), attempt, r.Attempts, r.Interval, err)
			select {
			case <-time.After(r.Interval):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
	}

	return result, err
}

func (r *Runner) runOnce(ctx context.Context, dir, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Ask nicely first; the grace period gives the build a chance to
	// clean up before the kill.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.Grace

	logger.Debugf("Executing: %s %s", name, r.redact(strings.Join(args, " ")))
	err := cmd.Run()

	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	}
	return result, err
}

func (r *Runner) redact(s string) string {
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, "***")
	}
	return s
}
