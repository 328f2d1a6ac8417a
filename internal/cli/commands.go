package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cvutie/cvutie/internal/app"
	"github.com/cvutie/cvutie/internal/config"
	cverrors "github.com/cvutie/cvutie/internal/errors"
	"github.com/cvutie/cvutie/internal/report"
)

// maxTargets accepts an optional single target.
func maxTargets(_ *cobra.Command, args []string) error {
	if len(args) > 1 {
		return cverrors.Validationf("expected at most one target, got %d", len(args))
	}
	return nil
}

func newCompileCommand(e *env) *cobra.Command {
	var outputName string
	cmd := &cobra.Command{
		Use:   "compile [target]",
		Short: "Compile the source file of every directory in a target",
		Long: `Compile the first existing source file of each directory of the target
with the configured compiler. Compiler diagnostics are shown verbatim.`,
		Args: maxTargets,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := e.target(args)
			if err != nil {
				return err
			}
			a, err := e.app()
			if err != nil {
				return err
			}
			results, err := a.Compile(cmd.Context(), target, outputName)
			if err != nil {
				// Per-directory failures and diagnostics are already printed.
				if cverrors.IsKind(err, cverrors.KindCanceled) {
					return err
				}
				return reportedError{err}
			}
			for _, res := range results {
				e.out.Debug("artifact %s (%s)", res.Artifact, res.Duration.Round(time.Millisecond))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputName, "output", "o", "", "artifact name (default from config)")
	return cmd
}

func newExecuteCommand(e *env) *cobra.Command {
	var (
		inputPath string
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "execute [target]",
		Short: "Run the compiled binary of a target",
		Long: `Run the compiled binary of a single directory, or a binary given by path.
Standard input is forwarded unless --input names a file. The binary runs
in its own directory. If it exits non-zero or is killed by a signal,
cvutie reports the status and exits with 7, so scripts can tell it apart
from compile (4) or test (5) failures.`,
		Args: maxTargets,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := e.target(args)
			if err != nil {
				return err
			}
			a, err := e.app()
			if err != nil {
				return err
			}

			input := e.stdin
			if inputPath != "" {
				f, err := os.Open(inputPath)
				if err != nil {
					return cverrors.Validationf("cannot open input: %v", err)
				}
				defer f.Close()
				input = f
			}
			if timeout == 0 {
				timeout = a.Config().RunTimeoutDuration()
			}

			res, err := a.Execute(cmd.Context(), target, app.ExecuteOptions{
				Input:   input,
				Echo:    e.stdout,
				Timeout: timeout,
			})
			if res != nil && len(res.Stderr) > 0 {
				_, _ = e.stderr.Write(res.Stderr)
			}
			if err != nil {
				return err
			}
			if res.Signaled || res.ExitCode != 0 {
				return cverrors.ProgramFailed(target, res.ExitCode, res.Signal)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "read standard input from file")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "run time limit (default from config)")
	return cmd
}

func newTestAllCommand(e *env) *cobra.Command {
	var (
		opts       app.TestOptions
		reportPath string
	)
	cmd := &cobra.Command{
		Use:   "test-all [target]",
		Short: "Compile and check every directory of a target against its fixtures",
		Long: `Compile each directory of the target, then run the binary on every
fixture pair (<name>` + config.DefaultInputSuffix + ` / <name>` + config.DefaultOutputSuffix + `) in the configured test
folders and compare its output with the expected output.

Directories are processed by up to --jobs workers; the report keeps their
input order. A JSON or YAML copy of the report is written with --report.`,
		Args: maxTargets,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := e.target(args)
			if err != nil {
				return err
			}
			a, err := e.app()
			if err != nil {
				return err
			}
			if reportPath != "" {
				if _, err := report.FormatFor(reportPath); err != nil {
					return err
				}
			}
			opts.ReportPath = reportPath

			rep, err := a.TestAll(cmd.Context(), target, opts)
			if rep != nil {
				report.Render(e.out, rep)
			}
			if err != nil && cverrors.IsKind(err, cverrors.KindTestsFailed) {
				return reportedError{err}
			}
			return err
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&opts.Workers, "jobs", "j", 0, "directories tested in parallel (default from config)")
	flags.StringVar(&opts.Comparator, "comparator", "", "output comparison: exact or whitespace")
	flags.DurationVar(&opts.RunTimeout, "timeout", 0, "per-fixture time limit (default from config)")
	flags.StringVarP(&opts.OutputName, "output", "o", "", "artifact name (default from config)")
	flags.StringVar(&reportPath, "report", "", "write the report to a .json, .yaml or .yml file")
	return cmd
}

func newPipeCommand(e *env) *cobra.Command {
	var (
		finalOutput string
		target      string
	)
	cmd := &cobra.Command{
		Use:   "pipe <command>...",
		Short: "Chain commands, feeding each one's output to the next",
		Long: `Run commands in sequence. Each argument is one stage: an internal command
(compile, execute, test-all), a preset from the config's pipes, or an
external program with arguments. The output of each stage is the input of
the next; the last stage's output goes to stdout or to --output.

Internal stages without a target use --target or --region.`,
		Example: `  cvutie pipe "compile hw01" "execute hw01" "sort -n"
  cvutie pipe -r hw --output result.txt "cat input.txt" execute`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.app()
			if err != nil {
				return err
			}
			if target == "" {
				target = e.opts.region
			}
			_, err = a.Pipe(cmd.Context(), args, finalOutput, target, e.stdout)
			return err
		},
	}
	cmd.Flags().StringVarP(&finalOutput, "output", "o", "", "write the final output to a file instead of stdout")
	cmd.Flags().StringVarP(&target, "target", "t", "", "default target for internal stages")
	return cmd
}

func newVersionCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cvutie version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e.out.Println("cvutie %s", Version)
			return nil
		},
	}
}
