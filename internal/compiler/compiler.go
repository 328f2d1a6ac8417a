// Package compiler drives the configured external C/C++ compiler.
package compiler

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cvutie/cvutie/internal/config"
	cverrors "github.com/cvutie/cvutie/internal/errors"
	"github.com/cvutie/cvutie/internal/process"
)

// Settings are the compile parameters for one invocation. They are built
// once from the config snapshot and never mutated.
type Settings struct {
	Compiler          string
	Flags             []string
	OutputFlag        string // empty omits the flag and passes the artifact name bare
	SourceFilenames   []string
	DefaultOutputName string
	Timeout           time.Duration
}

// SettingsFrom extracts compile settings from cfg.
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		Compiler:          cfg.CCompiler,
		Flags:             append([]string(nil), cfg.CCompilerOpts...),
		OutputFlag:        cfg.OutputFlagValue(),
		SourceFilenames:   append([]string(nil), cfg.SourceCodeFilenames...),
		DefaultOutputName: cfg.DefaultBinOutputName,
		Timeout:           cfg.CompileTimeoutDuration(),
	}
}

// Outcome is the coarse result of a compile.
type Outcome int

const (
	Success Outcome = iota
	CompilerError
)

func (o Outcome) String() string {
	if o == Success {
		return "success"
	}
	return "compiler error"
}

// Result describes one compiler run.
type Result struct {
	Outcome     Outcome
	Artifact    string // absolute path, set on success
	Source      string
	Diagnostics string // compiler stdout then stderr, verbatim
	ExitCode    int
	Duration    time.Duration
	Args        []string
}

// Driver compiles source directories through a process.Invoker.
type Driver struct {
	invoker process.Invoker
}

// NewDriver creates a Driver.
func NewDriver(invoker process.Invoker) *Driver {
	return &Driver{invoker: invoker}
}

// Compile builds the first candidate source file found in sourceDir.
//
// On a non-zero compiler exit both a Result with Outcome CompilerError and a
// CompilerError error carrying the diagnostics are returned. A successful
// exit that leaves no artifact on disk is ArtifactMissing.
func (d *Driver) Compile(ctx context.Context, sourceDir string, settings Settings, outputName string) (*Result, error) {
	source, err := FindSource(sourceDir, settings.SourceFilenames)
	if err != nil {
		return nil, err
	}

	name := outputName
	if name == "" {
		name = settings.DefaultOutputName
	}
	artifact := filepath.Join(sourceDir, name)
	args := Args(settings, name, filepath.Base(source))

	spec := process.Spec{
		Path:    settings.Compiler,
		Args:    args,
		Dir:     sourceDir,
		Timeout: settings.Timeout,
	}
	res, err := d.invoker.Invoke(ctx, spec)
	if err != nil && process.IsTransient(err) {
		res, err = d.invoker.Invoke(ctx, spec)
	}
	if err != nil {
		if cverrors.IsKind(err, cverrors.KindTimedOut) {
			return nil, &cverrors.CvutieError{
				Kind:        cverrors.KindCompilerError,
				Message:     "compiler " + err.Error(),
				Target:      sourceDir,
				Command:     "compile",
				Diagnostics: diagnostics(res),
				Cause:       err,
			}
		}
		return nil, err
	}

	result := &Result{
		Outcome:     Success,
		Source:      source,
		Diagnostics: res.Combined(),
		ExitCode:    res.ExitCode,
		Duration:    res.Duration,
		Args:        args,
	}
	if res.ExitCode != 0 {
		result.Outcome = CompilerError
		return result, cverrors.CompilerError(sourceDir, res.ExitCode, result.Diagnostics)
	}
	if _, err := os.Stat(artifact); err != nil {
		return nil, cverrors.ArtifactMissing(sourceDir, artifact)
	}
	result.Artifact = artifact
	return result, nil
}

// Args builds the compiler argument list:
// flags, then the output flag and artifact name, then the source file.
func Args(settings Settings, outputName, source string) []string {
	args := make([]string, 0, len(settings.Flags)+3)
	args = append(args, settings.Flags...)
	if settings.OutputFlag != "" {
		args = append(args, settings.OutputFlag)
	}
	return append(args, outputName, source)
}

// FindSource returns the first candidate that exists as a regular file in dir.
func FindSource(dir string, candidates []string) (string, error) {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", cverrors.NoSourceFound(dir, candidates)
}

func diagnostics(res *process.Result) string {
	if res == nil {
		return ""
	}
	return res.Combined()
}
