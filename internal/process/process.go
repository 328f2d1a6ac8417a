// Package process is the single place where cvutie starts child processes.
// The compiler, the binary under test and external pipeline stages all go
// through an Invoker so timeouts, cancellation and output capture behave
// the same everywhere.
package process

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	cverrors "github.com/cvutie/cvutie/internal/errors"
	"github.com/cvutie/cvutie/internal/output"
)

// waitDelay bounds how long Wait blocks on output pipes held open by
// grandchildren after the direct child is gone.
const waitDelay = 2 * time.Second

// Spec describes one child process invocation.
type Spec struct {
	Path    string
	Args    []string
	Dir     string
	Env     []string  // appended to the inherited environment
	Stdin   io.Reader // nil means empty input (immediate EOF)
	Echo    io.Writer // if set, stdout is also copied here as it arrives
	Timeout time.Duration
}

// String renders the command line for logs and error messages.
func (s Spec) String() string {
	return strings.Join(append([]string{s.Path}, s.Args...), " ")
}

// Result is the observed outcome of a child process.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
	TimedOut bool
	Signaled bool
	Signal   string
}

// Combined returns stdout followed by stderr.
func (r *Result) Combined() string {
	return string(r.Stdout) + string(r.Stderr)
}

// Invoker runs child processes.
//
// Invoke returns a non-nil Result whenever the process was started, even
// alongside an error. Errors are LaunchFailed (never started), TimedOut
// (killed after Spec.Timeout) or Canceled (ctx done). A non-zero exit is
// not an error; callers inspect Result.ExitCode.
type Invoker interface {
	Invoke(ctx context.Context, spec Spec) (*Result, error)
}

// Exec is the os/exec backed Invoker.
type Exec struct {
	log *output.Writer
}

// NewExec creates an Exec. log may be nil.
func NewExec(log *output.Writer) *Exec {
	return &Exec{log: log}
}

// Invoke implements Invoker.
func (e *Exec) Invoke(ctx context.Context, spec Spec) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, cverrors.Canceled(err)
	}

	runCtx := ctx
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.WaitDelay = waitDelay
	configureProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if spec.Echo != nil {
		cmd.Stdout = io.MultiWriter(&stdout, spec.Echo)
	}
	cmd.Stderr = &stderr
	cmd.Stdin = spec.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = bytes.NewReader(nil)
	}

	e.debug("exec %s (dir %s, timeout %s)", spec, spec.Dir, spec.Timeout)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, cverrors.LaunchFailed(spec.Path, err)
	}
	waitErr := waitAndSweep(cmd)

	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
		res.Signal, res.Signaled = signalOf(cmd.ProcessState)
	}

	switch {
	case waitErr == nil:
	case ctx.Err() != nil:
		return res, cverrors.Canceled(ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.TimedOut = true
		return res, cverrors.TimedOut(spec.Path, spec.Timeout)
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
		return res, cverrors.Wrap(waitErr, "waiting for "+spec.Path)
	}

	e.debug("exit %d after %s: %s", res.ExitCode, res.Duration.Round(time.Millisecond), spec.Path)
	return res, nil
}

func (e *Exec) debug(format string, args ...interface{}) {
	if e.log != nil {
		e.log.Debug(format, args...)
	}
}

// IsTransient reports whether a launch failure is worth one retry
// (resource temporarily unavailable).
func IsTransient(err error) bool {
	return errors.Is(err, syscall.EAGAIN)
}
