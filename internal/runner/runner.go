// Package runner executes a compiled binary with a given input and a
// time limit.
package runner

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	cverrors "github.com/cvutie/cvutie/internal/errors"
	"github.com/cvutie/cvutie/internal/process"
)

// Runner runs binaries under test through a process.Invoker.
type Runner struct {
	invoker process.Invoker
}

// New creates a Runner.
func New(invoker process.Invoker) *Runner {
	return &Runner{invoker: invoker}
}

// Run executes binaryPath with stdin fed then closed, capturing stdout and
// stderr separately.
//
// A non-zero exit is not an error here; callers read Result.ExitCode and
// Result.Signaled. Errors are LaunchFailed, TimedOut (the partial Result is
// still returned) or Canceled.
func (r *Runner) Run(ctx context.Context, binaryPath string, stdin []byte, timeout time.Duration) (*process.Result, error) {
	return r.Stream(ctx, binaryPath, bytes.NewReader(stdin), nil, timeout)
}

// Stream is Run with a caller-supplied input reader; stdout is copied to
// echo as it arrives when echo is non-nil. The binary runs in its own
// directory, so relative files it creates stay next to it.
func (r *Runner) Stream(ctx context.Context, binaryPath string, in io.Reader, echo io.Writer, timeout time.Duration) (*process.Result, error) {
	if err := checkArtifact(binaryPath); err != nil {
		return nil, err
	}
	// A bare name like "out" must not be looked up in PATH.
	if abs, err := filepath.Abs(binaryPath); err == nil {
		binaryPath = abs
	}
	return r.invoker.Invoke(ctx, process.Spec{
		Path:    binaryPath,
		Dir:     filepath.Dir(binaryPath),
		Stdin:   in,
		Echo:    echo,
		Timeout: timeout,
	})
}

// checkArtifact rejects paths that cannot be a runnable program so the
// error names the artifact rather than an exec detail.
func checkArtifact(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return cverrors.LaunchFailed(path, err)
	}
	if info.IsDir() {
		return cverrors.LaunchFailed(path, cverrors.Newf("%s is a directory", path))
	}
	if info.Mode().Perm()&0111 == 0 {
		return cverrors.LaunchFailed(path, os.ErrPermission)
	}
	return nil
}
