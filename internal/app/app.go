// Package app implements the cvutie operations on top of one config
// snapshot: compile, execute, test-all and pipe. It is also the pipeline's
// runner for internal stages.
package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cvutie/cvutie/internal/compiler"
	"github.com/cvutie/cvutie/internal/config"
	cverrors "github.com/cvutie/cvutie/internal/errors"
	"github.com/cvutie/cvutie/internal/orchestrator"
	"github.com/cvutie/cvutie/internal/output"
	"github.com/cvutie/cvutie/internal/pipeline"
	"github.com/cvutie/cvutie/internal/process"
	"github.com/cvutie/cvutie/internal/region"
	"github.com/cvutie/cvutie/internal/report"
	"github.com/cvutie/cvutie/internal/runner"
)

// App runs operations against a read-only config snapshot.
type App struct {
	cfg     *config.Config
	log     *output.Writer
	invoker process.Invoker
	driver  *compiler.Driver
	runner  *runner.Runner
}

// New creates an App. The config is cloned so later changes to cfg do not
// affect operations in progress.
func New(cfg *config.Config, log *output.Writer, invoker process.Invoker) *App {
	return &App{
		cfg:     cfg.Clone(),
		log:     log,
		invoker: invoker,
		driver:  compiler.NewDriver(invoker),
		runner:  runner.New(invoker),
	}
}

// Config returns the snapshot in use.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Resolve maps a target to its directories.
func (a *App) Resolve(target string) ([]string, error) {
	return region.Resolve(target, a.cfg.Regions)
}

// Compile compiles every directory of target. Every directory is attempted;
// the first failure is returned.
func (a *App) Compile(ctx context.Context, target, outputName string) ([]*compiler.Result, error) {
	dirs, err := a.Resolve(target)
	if err != nil {
		return nil, err
	}
	settings := compiler.SettingsFrom(a.cfg)

	var results []*compiler.Result
	var firstErr error
	for _, dir := range dirs {
		a.log.TargetStart(dir, "compile")
		res, err := a.driver.Compile(ctx, dir, settings, outputName)
		if res != nil {
			a.log.Debug("%s %v", settings.Compiler, res.Args)
		}
		if err != nil {
			a.log.TargetFailed(dir, "compile", errMessage(err))
			a.log.Diagnostics(cverrors.DiagnosticsOf(err))
			if firstErr == nil {
				firstErr = err
			}
			if cverrors.IsKind(err, cverrors.KindCanceled) {
				return results, err
			}
			continue
		}
		if res.Diagnostics != "" {
			a.log.Diagnostics(res.Diagnostics)
		}
		a.log.TargetSuccess(dir, "compile")
		results = append(results, res)
	}
	return results, firstErr
}

// ExecuteOptions configure Execute.
type ExecuteOptions struct {
	Input   io.Reader // nil means empty input
	Echo    io.Writer // receives stdout as it is produced
	Timeout time.Duration
}

// Execute runs the artifact of target. A target naming a regular file runs
// that file; a directory runs its default output binary. Regions must
// resolve to exactly one directory.
func (a *App) Execute(ctx context.Context, target string, opts ExecuteOptions) (*process.Result, error) {
	artifact, err := a.artifactFor(target)
	if err != nil {
		return nil, err
	}
	in := opts.Input
	if in == nil {
		in = bytes.NewReader(nil)
	}
	a.log.Debug("execute %s (timeout %s)", artifact, opts.Timeout)
	return a.runner.Stream(ctx, artifact, in, opts.Echo, opts.Timeout)
}

func (a *App) artifactFor(target string) (string, error) {
	dirs, err := a.Resolve(target)
	if err != nil {
		return "", err
	}
	if len(dirs) != 1 {
		return "", cverrors.Validationf("execute needs a single directory, %q has %d", target, len(dirs))
	}
	path := dirs[0]
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return path, nil
	}
	return filepath.Join(path, a.cfg.DefaultBinOutputName), nil
}

// TestOptions override config values for one test-all run. Zero values
// keep the configured setting.
type TestOptions struct {
	Workers    int
	Comparator string
	RunTimeout time.Duration
	OutputName string
	ReportPath string
	Observer   orchestrator.Observer
}

// TestAll runs the fixtures of every directory of target. The report is
// returned even when tests fail; the error is then TestsFailed.
func (a *App) TestAll(ctx context.Context, target string, opts TestOptions) (*report.Report, error) {
	dirs, err := a.Resolve(target)
	if err != nil {
		return nil, err
	}
	settings, err := orchestrator.SettingsFrom(a.cfg)
	if err != nil {
		return nil, err
	}
	if opts.Comparator != "" {
		cfg := a.cfg.Clone()
		cfg.Comparison = opts.Comparator
		if settings, err = orchestrator.SettingsFrom(cfg); err != nil {
			return nil, err
		}
	}
	if opts.Workers > 0 {
		settings.Workers = opts.Workers
	}
	if opts.RunTimeout > 0 {
		settings.RunTimeout = opts.RunTimeout
	}
	settings.OutputName = opts.OutputName

	observer := opts.Observer
	if observer == nil {
		observer = &progress{log: a.log}
	}
	rep := orchestrator.New(a.driver, a.runner).WithObserver(observer).RunAll(ctx, dirs, settings)

	if opts.ReportPath != "" {
		if err := report.Export(rep, opts.ReportPath); err != nil {
			return rep, err
		}
		a.log.Debug("report %s written to %s", rep.RunID, opts.ReportPath)
	}
	if err := ctx.Err(); err != nil {
		return rep, cverrors.Canceled(err)
	}
	if !rep.OK() {
		return rep, cverrors.TestsFailed(rep.Problems(), max(rep.Totals().Total, rep.Problems()))
	}
	return rep, nil
}

// progress logs orchestrator events in verbose mode.
type progress struct {
	log *output.Writer
}

func (p *progress) DirectoryStarted(dir string) {
	p.log.Debug("testing %s", dir)
}

func (p *progress) Compiled(dir string, res *compiler.Result, err error) {
	if err != nil {
		p.log.Debug("compile %s: %v", dir, err)
		return
	}
	p.log.Debug("compiled %s in %s", res.Artifact, res.Duration.Round(time.Millisecond))
}

func (p *progress) CaseFinished(dir string, c report.CaseResult) {
	p.log.Debug("%s %s: %s", dir, c.Name(), c.Verdict)
}

func (p *progress) DirectoryFinished(dir string, d *report.DirectoryReport) {
	counts := d.Counts()
	p.log.Debug("%s: %d/%d passed", dir, counts.Pass, counts.Total)
}

// Pipe parses and runs a pipeline. defaultTarget fills in internal stages
// given without a target.
func (a *App) Pipe(ctx context.Context, commands []string, finalOutput, defaultTarget string, stdout io.Writer) (*pipeline.Result, error) {
	stages, err := pipeline.Parse(commands, a.cfg.Pipes)
	if err != nil {
		return nil, err
	}
	eng := pipeline.NewEngine(&internalRunner{app: a, defaultTarget: defaultTarget}, a.invoker, stdout).
		WithTimeout(a.cfg.RunTimeoutDuration()).
		WithLog(a.log)
	return eng.Run(ctx, stages, finalOutput)
}

// errMessage drops the [target] prefix for lines that already name the target.
func errMessage(err error) error {
	var ce *cverrors.CvutieError
	if errors.As(err, &ce) {
		cp := *ce
		cp.Target, cp.Command = "", ""
		return &cp
	}
	return err
}

// withLog returns a copy of a that logs to w.
func (a *App) withLog(w *output.Writer) *App {
	cp := *a
	cp.log = w
	return &cp
}
