// Package errors provides structured error types and exit codes for cvutie.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/cvutie/cvutie/pkg/cvutie"
)

// Exit codes, mirrored from pkg/cvutie so internal callers need one import.
const (
	ExitSuccess          = cvutie.ExitSuccess
	ExitRuntimeError     = cvutie.ExitFailure
	ExitConfigError      = cvutie.ExitConfigError
	ExitEnvironmentError = cvutie.ExitEnvError
	ExitCompileError     = cvutie.ExitCompileError
	ExitTestFailure      = cvutie.ExitTestFailure
	ExitPipelineError    = cvutie.ExitPipelineError
	ExitProgramFailed    = cvutie.ExitProgramFailed
	ExitInterrupted      = cvutie.ExitInterrupted
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindValidation
	KindEnvironment
	KindUnknownTarget
	KindRegionExists
	KindNoSourceFound
	KindCompilerError
	KindArtifactMissing
	KindLaunchFailed
	KindTimedOut
	KindMalformedFixture
	KindPipelineStageFailed
	KindConfigUnreadable
	KindConfigUnwritable
	KindTestsFailed
	KindProgramFailed
	KindCanceled
)

var kindNames = map[ErrorKind]string{
	KindRuntime:             "runtime",
	KindConfig:              "config",
	KindValidation:          "validation",
	KindEnvironment:         "environment",
	KindUnknownTarget:       "unknown target",
	KindRegionExists:        "region exists",
	KindNoSourceFound:       "no source found",
	KindCompilerError:       "compiler error",
	KindArtifactMissing:     "artifact missing",
	KindLaunchFailed:        "launch failed",
	KindTimedOut:            "timed out",
	KindMalformedFixture:    "malformed fixture",
	KindPipelineStageFailed: "pipeline stage failed",
	KindConfigUnreadable:    "config unreadable",
	KindConfigUnwritable:    "config unwritable",
	KindTestsFailed:         "tests failed",
	KindProgramFailed:       "program failed",
	KindCanceled:            "canceled",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// CvutieError is the base error type for cvutie.
//
// Target is the directory or region the error concerns, Command the
// subcommand or pipeline stage label. Diagnostics carries captured
// compiler or process output and is never truncated.
type CvutieError struct {
	Kind        ErrorKind
	Message     string
	Target      string
	Command     string
	Path        string
	Stage       int // 1-based pipeline stage index, 0 if not applicable
	Diagnostics string
	Cause       error
}

func (e *CvutieError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Cause != nil && !strings.Contains(msg, e.Cause.Error()) {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Target != "" && e.Command != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Target, e.Command, msg)
	}
	if e.Target != "" {
		return fmt.Sprintf("[%s] %s", e.Target, msg)
	}
	if e.Command != "" {
		return fmt.Sprintf("%s: %s", e.Command, msg)
	}
	return msg
}

func (e *CvutieError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *CvutieError) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation, KindUnknownTarget, KindRegionExists, KindConfigUnreadable, KindConfigUnwritable:
		return ExitConfigError
	case KindEnvironment, KindLaunchFailed:
		return ExitEnvironmentError
	case KindNoSourceFound, KindCompilerError, KindArtifactMissing:
		return ExitCompileError
	case KindTestsFailed, KindMalformedFixture:
		return ExitTestFailure
	case KindPipelineStageFailed:
		return ExitPipelineError
	case KindProgramFailed:
		return ExitProgramFailed
	case KindCanceled:
		return ExitInterrupted
	default:
		return ExitRuntimeError
	}
}

// New creates a new runtime error.
func New(message string) *CvutieError {
	return &CvutieError{Kind: KindRuntime, Message: message}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *CvutieError {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *CvutieError {
	return &CvutieError{Kind: KindConfig, Message: message}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *CvutieError {
	return Config(fmt.Sprintf(format, args...))
}

// Validationf creates a validation error for bad user input.
func Validationf(format string, args ...interface{}) *CvutieError {
	return &CvutieError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *CvutieError {
	return &CvutieError{Kind: KindRuntime, Message: message, Cause: err}
}

// UnknownTarget reports an identifier that is neither a region nor a path.
func UnknownTarget(identifier string) *CvutieError {
	return &CvutieError{
		Kind:    KindUnknownTarget,
		Message: fmt.Sprintf("unknown target %q: not a region and not a readable path", identifier),
		Target:  identifier,
	}
}

// RegionExists reports an overwrite attempt without force.
func RegionExists(name string) *CvutieError {
	return &CvutieError{
		Kind:    KindRegionExists,
		Message: fmt.Sprintf("region %q already exists (use --add to extend or --force to overwrite)", name),
		Target:  name,
	}
}

// NoSourceFound reports that none of the candidate source files exist.
func NoSourceFound(dir string, candidates []string) *CvutieError {
	return &CvutieError{
		Kind:    KindNoSourceFound,
		Message: fmt.Sprintf("no source file found (looked for %s)", strings.Join(candidates, ", ")),
		Target:  dir,
		Command: "compile",
	}
}

// CompilerError reports a non-zero compiler exit with its diagnostics.
func CompilerError(dir string, exitCode int, diagnostics string) *CvutieError {
	return &CvutieError{
		Kind:        KindCompilerError,
		Message:     fmt.Sprintf("compiler exited with status %d", exitCode),
		Target:      dir,
		Command:     "compile",
		Diagnostics: diagnostics,
	}
}

// ArtifactMissing reports a successful compiler exit without an artifact on disk.
func ArtifactMissing(dir, artifact string) *CvutieError {
	return &CvutieError{
		Kind:    KindArtifactMissing,
		Message: "compiler exited successfully but produced no artifact",
		Target:  dir,
		Command: "compile",
		Path:    artifact,
	}
}

// LaunchFailed reports a process that could not be started.
func LaunchFailed(path string, cause error) *CvutieError {
	return &CvutieError{
		Kind:    KindLaunchFailed,
		Message: "failed to launch process",
		Path:    path,
		Cause:   cause,
	}
}

// TimedOut reports a process killed after exceeding its time limit.
func TimedOut(path string, limit fmt.Stringer) *CvutieError {
	return &CvutieError{
		Kind:    KindTimedOut,
		Message: fmt.Sprintf("timed out after %s", limit),
		Path:    path,
	}
}

// MalformedFixture reports a fixture set that cannot be paired.
func MalformedFixture(path, message string) *CvutieError {
	return &CvutieError{
		Kind:    KindMalformedFixture,
		Message: message,
		Path:    path,
	}
}

// PipelineStageFailed reports the first failing stage of a pipeline.
func PipelineStageFailed(index int, stage string, cause error) *CvutieError {
	e := &CvutieError{
		Kind:    KindPipelineStageFailed,
		Message: fmt.Sprintf("stage %d (%s) failed", index, stage),
		Stage:   index,
		Command: "pipe",
		Cause:   cause,
	}
	var ce *CvutieError
	if stderrors.As(cause, &ce) {
		e.Diagnostics = ce.Diagnostics
	}
	return e
}

// ConfigUnreadable reports a config file that could not be used; callers fall back to defaults.
func ConfigUnreadable(path string, cause error) *CvutieError {
	return &CvutieError{
		Kind:    KindConfigUnreadable,
		Message: "config unreadable, using defaults",
		Path:    path,
		Cause:   cause,
	}
}

// ConfigUnwritable reports a config file that could not be written; callers continue in memory.
func ConfigUnwritable(path string, cause error) *CvutieError {
	return &CvutieError{
		Kind:    KindConfigUnwritable,
		Message: "config could not be written, continuing with in-memory settings",
		Path:    path,
		Cause:   cause,
	}
}

// TestsFailed reports a test run with at least one non-passing fixture.
func TestsFailed(failed, total int) *CvutieError {
	return &CvutieError{
		Kind:    KindTestsFailed,
		Message: fmt.Sprintf("%d of %d tests did not pass", failed, total),
		Command: "test-all",
	}
}

// ProgramFailed reports an executed binary that exited non-zero or was
// killed by a signal (signal is empty otherwise).
func ProgramFailed(path string, status int, signal string) *CvutieError {
	msg := fmt.Sprintf("program exited with status %d", status)
	if signal != "" {
		msg = "program killed by signal " + signal
	}
	return &CvutieError{Kind: KindProgramFailed, Message: msg, Path: path, Command: "execute"}
}

// Canceled reports a user-requested interruption.
func Canceled(cause error) *CvutieError {
	return &CvutieError{Kind: KindCanceled, Message: "interrupted", Cause: cause}
}

// IsKind reports whether err is or wraps a CvutieError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		var ce *CvutieError
		if !stderrors.As(err, &ce) {
			return false
		}
		if ce.Kind == kind {
			return true
		}
		err = ce.Cause
	}
	return false
}

// DiagnosticsOf returns the first non-empty diagnostics in err's chain.
func DiagnosticsOf(err error) string {
	for err != nil {
		var ce *CvutieError
		if !stderrors.As(err, &ce) {
			return ""
		}
		if ce.Diagnostics != "" {
			return ce.Diagnostics
		}
		err = ce.Cause
	}
	return ""
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ce *CvutieError
	if stderrors.As(err, &ce) {
		return ce.ExitCode()
	}
	return ExitRuntimeError
}
