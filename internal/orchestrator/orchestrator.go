// Package orchestrator compiles each target directory, runs its binary
// against every discovered fixture and aggregates the results.
package orchestrator

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/cvutie/cvutie/internal/compiler"
	"github.com/cvutie/cvutie/internal/config"
	cverrors "github.com/cvutie/cvutie/internal/errors"
	"github.com/cvutie/cvutie/internal/fixtures"
	"github.com/cvutie/cvutie/internal/report"
	"github.com/cvutie/cvutie/internal/runner"
)

// MaxWorkers caps directory-level parallelism.
const MaxWorkers = config.MaxWorkers

// Settings are the read-only parameters of one test run.
type Settings struct {
	Compile    compiler.Settings
	OutputName string // empty uses Compile.DefaultOutputName
	Folders    []string
	Naming     fixtures.Naming
	Comparator fixtures.Comparator
	RunTimeout time.Duration
	Workers    int
}

// SettingsFrom builds run settings from a config snapshot.
func SettingsFrom(cfg *config.Config) (Settings, error) {
	cmp, err := fixtures.ComparatorByName(cfg.Comparison)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Compile:    compiler.SettingsFrom(cfg),
		Folders:    append([]string(nil), cfg.TestFolderNames...),
		Naming:     fixtures.NamingFrom(cfg),
		Comparator: cmp,
		RunTimeout: cfg.RunTimeoutDuration(),
		Workers:    cfg.Workers,
	}, nil
}

// Observer receives progress events. With more than one worker, events for
// different directories arrive concurrently.
type Observer interface {
	DirectoryStarted(dir string)
	Compiled(dir string, res *compiler.Result, err error)
	CaseFinished(dir string, c report.CaseResult)
	DirectoryFinished(dir string, d *report.DirectoryReport)
}

type nopObserver struct{}

func (nopObserver) DirectoryStarted(string)                           {}
func (nopObserver) Compiled(string, *compiler.Result, error)          {}
func (nopObserver) CaseFinished(string, report.CaseResult)            {}
func (nopObserver) DirectoryFinished(string, *report.DirectoryReport) {}

// Orchestrator runs test passes.
type Orchestrator struct {
	driver   *compiler.Driver
	runner   *runner.Runner
	observer Observer
}

// New creates an Orchestrator.
func New(driver *compiler.Driver, r *runner.Runner) *Orchestrator {
	return &Orchestrator{driver: driver, runner: r, observer: nopObserver{}}
}

// WithObserver sets the progress observer.
func (o *Orchestrator) WithObserver(obs Observer) *Orchestrator {
	if obs == nil {
		obs = nopObserver{}
	}
	o.observer = obs
	return o
}

// RunAll tests every target directory and returns the merged report.
//
// Failures are contained to their directory: a compile or discovery error is
// recorded on that directory's report and the run moves on. Directories run
// concurrently up to settings.Workers; each fills its own partial report and
// the parts are merged in target order once all are done. Cancelling ctx
// stops dispatching, kills running children, and records every unfinished
// fixture as canceled.
func (o *Orchestrator) RunAll(ctx context.Context, targets []string, settings Settings) *report.Report {
	s := settings.snapshot()
	rep := report.New()
	parts := make([]report.DirectoryReport, len(targets))

	workers := min(max(s.Workers, 1), MaxWorkers, max(len(targets), 1))
	if workers == 1 {
		for i, dir := range targets {
			parts[i] = o.runDirectory(ctx, dir, s)
		}
		rep.Merge(parts)
		return rep
	}

	var wg sync.WaitGroup
	// Bounded parallelism: a slot in sem is held while a directory runs.
	sem := make(chan struct{}, workers)
	for i, dir := range targets {
		wg.Add(1)
		go func(i int, dir string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				parts[i] = o.runDirectory(ctx, dir, s)
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()

			parts[i] = o.runDirectory(ctx, dir, s)
		}(i, dir)
	}
	wg.Wait()

	rep.Merge(parts)
	return rep
}

func (s Settings) snapshot() Settings {
	cp := s
	cp.Compile.Flags = append([]string(nil), s.Compile.Flags...)
	cp.Compile.SourceFilenames = append([]string(nil), s.Compile.SourceFilenames...)
	cp.Folders = append([]string(nil), s.Folders...)
	if cp.Comparator == nil {
		cp.Comparator = fixtures.Exact{}
	}
	return cp
}

func (o *Orchestrator) runDirectory(ctx context.Context, dir string, s Settings) report.DirectoryReport {
	o.observer.DirectoryStarted(dir)
	d := report.DirectoryReport{Dir: dir, Cases: []report.CaseResult{}}
	defer func() { o.observer.DirectoryFinished(dir, &d) }()

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		d.Error = "not a readable directory"
		d.Compile.Error = d.Error
		return d
	}

	if ctx.Err() != nil {
		d.Compile.Error = "canceled before compile"
		o.failAll(dir, &d, s, report.ReasonCanceled)
		return d
	}

	res, err := o.driver.Compile(ctx, dir, s.Compile, s.OutputName)
	o.observer.Compiled(dir, res, err)
	if res != nil {
		d.Compile.Duration = res.Duration
	}
	if err != nil {
		d.Compile.Error = message(err)
		d.Compile.Diagnostics = cverrors.DiagnosticsOf(err)
		reason := report.ReasonCompileFailed
		if cverrors.IsKind(err, cverrors.KindCanceled) {
			reason = report.ReasonCanceled
		}
		o.failAll(dir, &d, s, reason)
		return d
	}
	d.Compile.OK = true
	d.Compile.Artifact = res.Artifact
	if res.Diagnostics != "" {
		d.Compile.Diagnostics = res.Diagnostics
	}

	for f, err := range fixtures.Discover(dir, s.Folders, s.Naming) {
		var c report.CaseResult
		switch {
		case err != nil && f.ID == "":
			d.Error = joinError(d.Error, message(err))
			continue
		case err != nil:
			c = runError(f, report.ReasonMalformed, message(err))
		case ctx.Err() != nil:
			c = runError(f, report.ReasonCanceled, "")
		default:
			c = o.runCase(ctx, res.Artifact, f, s)
		}
		d.Add(c)
		o.observer.CaseFinished(dir, c)
	}
	return d
}

// failAll records every fixture of dir as a RunError with reason, without
// running anything.
func (o *Orchestrator) failAll(dir string, d *report.DirectoryReport, s Settings, reason string) {
	for f, err := range fixtures.Discover(dir, s.Folders, s.Naming) {
		if err != nil && f.ID == "" {
			d.Error = joinError(d.Error, message(err))
			continue
		}
		c := runError(f, reason, "")
		if err != nil {
			c.Detail = message(err)
		}
		d.Add(c)
		o.observer.CaseFinished(dir, c)
	}
}

func (o *Orchestrator) runCase(ctx context.Context, artifact string, f fixtures.Fixture, s Settings) report.CaseResult {
	res, err := o.runner.Run(ctx, artifact, f.Input, s.RunTimeout)

	c := report.CaseResult{ID: f.ID, Folder: f.Folder, Expected: f.Expected}
	if res != nil {
		c.ExitCode = res.ExitCode
		c.Duration = res.Duration
		c.Actual = res.Stdout
	}

	switch {
	case cverrors.IsKind(err, cverrors.KindCanceled):
		c.Verdict, c.Reason = report.RunError, report.ReasonCanceled
	case cverrors.IsKind(err, cverrors.KindTimedOut):
		c.Verdict, c.Reason = report.RunError, report.ReasonTimedOut
	case cverrors.IsKind(err, cverrors.KindLaunchFailed):
		c.Verdict, c.Reason, c.Detail = report.RunError, report.ReasonLaunchFailed, message(err)
	case err != nil:
		c.Verdict, c.Reason = report.RunError, message(err)
	case res.Signaled:
		c.Verdict, c.Reason, c.Detail = report.RunError, report.ReasonCrashed, "killed by signal "+res.Signal
	default:
		if ok, diff := s.Comparator.Compare(f.Expected, res.Stdout); ok {
			c.Verdict = report.Pass
		} else {
			c.Verdict, c.Diff = report.Fail, diff
		}
	}
	return c
}

func runError(f fixtures.Fixture, reason, detail string) report.CaseResult {
	return report.CaseResult{
		ID:       f.ID,
		Folder:   f.Folder,
		Verdict:  report.RunError,
		Reason:   reason,
		Detail:   detail,
		Expected: f.Expected,
	}
}

// message returns the error text without the [target] prefix, since the
// directory is already the report's heading.
func message(err error) string {
	var ce *cverrors.CvutieError
	if !errors.As(err, &ce) {
		return err.Error()
	}
	cp := *ce
	cp.Target = ""
	cp.Command = ""
	return cp.Error()
}

func joinError(existing, msg string) string {
	if existing == "" {
		return msg
	}
	return existing + "; " + msg
}
