// Package execx runs captured commands through the shell and reports how
// they ended. It makes no parsing or storage decisions; callers get the
// combined output and an exit disposition.
package execx

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"time"
)

// Result describes one finished command.
type Result struct {
	// Output is the combined stdout+stderr, in arrival order.
	Output string

	// ExitCode is nil when the process was killed on timeout; a run that
	// ended on its own always has one, including non-zero.
	ExitCode *int64

	TimedOut  bool
	StartedAt time.Time
	Duration  time.Duration
}

// Options tunes a single Run.
type Options struct {
	// Dir is the working directory; empty means inherit.
	Dir string

	// Env entries in "KEY=value" form appended to the inherited environment.
	Env []string

	// Timeout kills the process after the given duration. Zero means no
	// limit beyond ctx.
	Timeout time.Duration

	// Stream, when set, receives output as it arrives in addition to the
	// captured copy. Used by the CLI to keep the terminal live.
	Stream io.Writer

	// Now supplies the clock; nil means time.Now.
	Now func() time.Time
}

// Run executes command via `sh -c` and captures its combined output. The
// command failing is not an error: a non-zero exit comes back in the
// Result. An error return means the command could not be run at all.
func Run(ctx context.Context, command string, opts Options) (Result, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), opts.Env...)
	}

	var capture capturedOutput
	var sink io.Writer = &capture
	if opts.Stream != nil {
		sink = io.MultiWriter(&capture, opts.Stream)
	}
	cmd.Stdout = sink
	cmd.Stderr = sink

	started := now()
	err := cmd.Run()
	res := Result{
		Output:    capture.String(),
		StartedAt: started,
		Duration:  now().Sub(started),
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		return res, nil
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if err != nil {
		var ee *exec.ExitError
		if !errors.As(err, &ee) {
			return res, err
		}
	}
	code := exitCode(err)
	res.ExitCode = &code
	return res, nil
}

type capturedOutput struct {
	buf []byte
}

func (c *capturedOutput) Write(p []byte) (int, error) {
	c.buf = append(c.buf, p...)
	return len(p), nil
}

func (c *capturedOutput) String() string { return string(c.buf) }
