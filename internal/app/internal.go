package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	cverrors "github.com/cvutie/cvutie/internal/errors"
	"github.com/cvutie/cvutie/internal/output"
	"github.com/cvutie/cvutie/internal/pipeline"
	"github.com/cvutie/cvutie/internal/report"
)

// internalRunner runs compile, execute and test-all as pipeline stages.
// Stage output is plain text: compile prints one "compiled <artifact>" line
// per directory, execute passes the binary's stdout through, and test-all
// prints the text report.
type internalRunner struct {
	app           *App
	defaultTarget string
}

// RunInternal implements pipeline.InternalRunner.
func (r *internalRunner) RunInternal(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	// Progress lines would mix with the piped data on stdout.
	stderr := io.Discard
	if r.app.log.Verbose() {
		stderr = r.app.log.Err()
	}
	log := output.NewWithWriters(io.Discard, stderr, false)
	log.SetVerbose(r.app.log.Verbose())
	a := r.app.withLog(log)

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	switch name {
	case pipeline.CmdCompile:
		outName := fs.StringP("output", "o", "", "artifact name")
		if err := fs.Parse(args); err != nil {
			return nil, cverrors.Validationf("%s: %v", name, err)
		}
		target, err := r.target(name, fs)
		if err != nil {
			return nil, err
		}
		results, err := a.Compile(ctx, target, *outName)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		for _, res := range results {
			fmt.Fprintf(&buf, "compiled %s\n", res.Artifact)
		}
		return buf.Bytes(), nil

	case pipeline.CmdExecute:
		timeout := fs.Duration("timeout", a.cfg.RunTimeoutDuration(), "time limit")
		if err := fs.Parse(args); err != nil {
			return nil, cverrors.Validationf("%s: %v", name, err)
		}
		target, err := r.target(name, fs)
		if err != nil {
			return nil, err
		}
		res, err := a.Execute(ctx, target, ExecuteOptions{Input: bytes.NewReader(stdin), Timeout: *timeout})
		if err != nil {
			return nil, err
		}
		if res.Signaled {
			return nil, &cverrors.CvutieError{
				Kind:        cverrors.KindRuntime,
				Message:     "binary killed by signal " + res.Signal,
				Diagnostics: string(res.Stderr),
			}
		}
		return res.Stdout, nil

	case pipeline.CmdTestAll:
		workers := fs.IntP("jobs", "j", 0, "parallel directories")
		comparator := fs.String("comparator", "", "comparison policy")
		if err := fs.Parse(args); err != nil {
			return nil, cverrors.Validationf("%s: %v", name, err)
		}
		target, err := r.target(name, fs)
		if err != nil {
			return nil, err
		}
		rep, err := a.TestAll(ctx, target, TestOptions{Workers: *workers, Comparator: *comparator})
		if rep == nil {
			return nil, err
		}
		var buf bytes.Buffer
		report.Render(output.NewWithWriters(&buf, io.Discard, false), rep)
		if err != nil {
			var ce *cverrors.CvutieError
			if errors.As(err, &ce) {
				ce.Diagnostics = buf.String()
			}
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, cverrors.Validationf("unknown internal command %q", name)
}

func (r *internalRunner) target(name string, fs *pflag.FlagSet) (string, error) {
	if fs.NArg() > 1 {
		return "", cverrors.Validationf("%s: expected one target, got %d", name, fs.NArg())
	}
	if fs.NArg() == 1 {
		return fs.Arg(0), nil
	}
	if r.defaultTarget == "" {
		return "", cverrors.Validationf("%s: no target given (pass one or use pipe --target)", name)
	}
	return r.defaultTarget, nil
}
