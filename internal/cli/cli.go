// Package cli provides the cvutie command-line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cvutie/cvutie/internal/app"
	"github.com/cvutie/cvutie/internal/config"
	cverrors "github.com/cvutie/cvutie/internal/errors"
	"github.com/cvutie/cvutie/internal/output"
	"github.com/cvutie/cvutie/internal/process"
)

// Version is set at build time.
var Version = "dev"

// globalOptions holds the persistent flags.
type globalOptions struct {
	configPath string
	region     string
	quiet      bool
	verbose    bool
}

// env is the per-invocation state shared by all commands.
type env struct {
	opts   globalOptions
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	out    *output.Writer

	store  *config.Store
	loaded *config.LoadResult
}

// reportedError marks an error whose details were already printed.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// Run executes the CLI with the given arguments and returns an exit code.
// SIGINT and SIGTERM cancel the running operation and kill its children.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	e := &env{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		out:    output.NewWithWriters(stdout, stderr, output.ColorEnabled(stdout)),
	}

	root := newRootCommand(e)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return cverrors.ExitSuccess
	}
	if ctx.Err() != nil && !cverrors.IsKind(err, cverrors.KindCanceled) {
		err = cverrors.Canceled(err)
	}

	var ce *cverrors.CvutieError
	if !errors.As(err, &ce) {
		// Flag and argument errors from cobra itself.
		e.out.ErrorPrefix("%v", err)
		e.out.Hint("Run 'cvutie --help' for usage.")
		return cverrors.ExitConfigError
	}

	var reported reportedError
	if !errors.As(err, &reported) {
		e.out.ErrorPrefix("%v", err)
		e.out.Diagnostics(cverrors.DiagnosticsOf(err))
		printHint(e.out, ce)
	}
	if cverrors.IsKind(err, cverrors.KindCanceled) {
		return cverrors.ExitInterrupted
	}
	return cverrors.GetExitCode(err)
}

func printHint(w *output.Writer, ce *cverrors.CvutieError) {
	switch ce.Kind {
	case cverrors.KindUnknownTarget:
		w.Hint("Define a region with 'cvutie region -r <name> <dirs...>' or pass an existing path.")
	case cverrors.KindLaunchFailed:
		if ce.Path != "" {
			w.Hint("Check that %s exists and is executable.", ce.Path)
		}
	}
}

func newRootCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cvutie",
		Short: "Compile, run and test C/C++ assignments against fixture folders",
		Long: `cvutie compiles a C/C++ source file with a configurable compiler, runs
the binary, checks it against the sample data in test folders (CZE, ENG by
default) and chains commands into pipelines.

A target is either a region name (a saved list of directories) or a path.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if e.opts.quiet && e.opts.verbose {
				return cverrors.Validationf("--quiet and --verbose are mutually exclusive")
			}
			e.out.SetQuiet(e.opts.quiet)
			e.out.SetVerbose(e.opts.verbose)
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cverrors.Validationf("%v", err)
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&e.opts.configPath, "config", "", "config file (default: nearest .cvutie, or $"+config.EnvConfigPath+")")
	flags.StringVarP(&e.opts.region, "region", "r", "", "region to operate on")
	flags.BoolVarP(&e.opts.quiet, "quiet", "q", false, "only print errors and results")
	flags.BoolVarP(&e.opts.verbose, "verbose", "v", false, "print commands and progress details")

	cmd.AddCommand(newCompileCommand(e))
	cmd.AddCommand(newExecuteCommand(e))
	cmd.AddCommand(newTestAllCommand(e))
	cmd.AddCommand(newPipeCommand(e))
	cmd.AddCommand(newRegionCommand(e))
	cmd.AddCommand(newConfigCommand(e))
	cmd.AddCommand(newVersionCommand(e))

	return cmd
}

// loadConfig locates and loads the config file once per invocation.
// Fallbacks and unknown fields are reported as warnings.
func (e *env) loadConfig() (*config.LoadResult, error) {
	if e.loaded != nil {
		return e.loaded, nil
	}
	path, err := config.Locate(e.opts.configPath)
	if err != nil {
		return nil, cverrors.Wrap(err, "cannot determine config location")
	}
	e.store = config.NewStore(path)
	res, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		e.out.Warning("%s: %s", path, w)
	}
	if res.Fallback != nil {
		e.out.Warning("%v", res.Fallback)
	}
	if res.Created {
		e.out.Debug("wrote default config to %s", path)
	} else {
		e.out.Debug("config %s", path)
	}
	e.loaded = res
	return res, nil
}

func (e *env) app() (*app.App, error) {
	res, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(res.Config, e.out, process.NewExec(e.out)), nil
}

// target picks the positional target, falling back to --region.
func (e *env) target(args []string) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case len(args) > 1:
		return "", cverrors.Validationf("expected one target, got %d", len(args))
	case e.opts.region != "":
		return e.opts.region, nil
	default:
		return "", cverrors.Validationf("a target is required (a path, a region name, or --region)")
	}
}
