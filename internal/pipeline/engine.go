package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	cverrors "github.com/cvutie/cvutie/internal/errors"
	"github.com/cvutie/cvutie/internal/filelock"
	"github.com/cvutie/cvutie/internal/output"
	"github.com/cvutie/cvutie/internal/process"
)

// InternalRunner executes internal subcommands as pipeline stages. The
// returned bytes are the stage's stdout.
type InternalRunner interface {
	RunInternal(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)
}

// StageResult records one completed stage.
type StageResult struct {
	Stage    Stage
	Output   int // bytes written to stdout
	Stderr   string
	Duration time.Duration
}

// Result is the outcome of a successful pipeline.
type Result struct {
	Output []byte
	Stages []StageResult
	Target string // file the output was written to; empty for stdout
}

// Engine runs pipelines.
type Engine struct {
	internal InternalRunner
	invoker  process.Invoker
	stdout   io.Writer
	timeout  time.Duration
	log      *output.Writer
}

// NewEngine creates an Engine writing final output to stdout unless a file
// is named.
func NewEngine(internal InternalRunner, invoker process.Invoker, stdout io.Writer) *Engine {
	return &Engine{internal: internal, invoker: invoker, stdout: stdout}
}

// WithTimeout sets the time limit of each external stage; zero disables it.
func (e *Engine) WithTimeout(d time.Duration) *Engine {
	e.timeout = d
	return e
}

// WithLog sets the writer used for verbose stage tracing.
func (e *Engine) WithLog(w *output.Writer) *Engine {
	e.log = w
	return e
}

// Run executes stages strictly in order, stage i+1 reading stage i's
// complete stdout. The first failing stage stops the pipeline with
// PipelineStageFailed and nothing is written. On success the last stage's
// output goes atomically to finalOutput, or to the engine's stdout when
// finalOutput is empty.
func (e *Engine) Run(ctx context.Context, stages []Stage, finalOutput string) (*Result, error) {
	if len(stages) == 0 {
		return nil, cverrors.Validationf("pipeline needs at least one command")
	}

	res := &Result{Target: finalOutput}
	var data []byte
	for i, st := range stages {
		index := i + 1
		if err := ctx.Err(); err != nil {
			return nil, cverrors.PipelineStageFailed(index, st.String(), cverrors.Canceled(err))
		}
		e.debug("stage %d/%d (%s): %s", index, len(stages), st.Kind, st)

		start := time.Now()
		out, stderr, err := e.runStage(ctx, st, data)
		if err != nil {
			return nil, cverrors.PipelineStageFailed(index, st.String(), err)
		}
		res.Stages = append(res.Stages, StageResult{
			Stage:    st,
			Output:   len(out),
			Stderr:   stderr,
			Duration: time.Since(start),
		})
		data = out
	}
	res.Output = data

	if finalOutput != "" {
		if err := filelock.AtomicWrite(finalOutput, data, 0644); err != nil {
			return nil, cverrors.Wrap(err, "writing pipeline output")
		}
		return res, nil
	}
	if e.stdout != nil {
		if _, err := e.stdout.Write(data); err != nil {
			return nil, cverrors.Wrap(err, "writing pipeline output")
		}
	}
	return res, nil
}

func (e *Engine) runStage(ctx context.Context, st Stage, stdin []byte) ([]byte, string, error) {
	if st.Kind == Internal {
		if e.internal == nil {
			return nil, "", cverrors.Newf("internal command %q is not available here", st.Name)
		}
		out, err := e.internal.RunInternal(ctx, st.Name, st.Args, stdin)
		return out, "", err
	}

	pr, err := e.invoker.Invoke(ctx, process.Spec{
		Path:    st.Name,
		Args:    st.Args,
		Stdin:   bytes.NewReader(stdin),
		Timeout: e.timeout,
	})
	if err != nil {
		return nil, "", err
	}
	if pr.ExitCode != 0 {
		return nil, string(pr.Stderr), &cverrors.CvutieError{
			Kind:        cverrors.KindRuntime,
			Message:     exitMessage(pr),
			Diagnostics: string(pr.Stderr),
		}
	}
	return pr.Stdout, string(pr.Stderr), nil
}

func exitMessage(pr *process.Result) string {
	if pr.Signaled {
		return "killed by signal " + pr.Signal
	}
	return fmt.Sprintf("exited with status %d", pr.ExitCode)
}

func (e *Engine) debug(format string, args ...interface{}) {
	if e.log != nil {
		e.log.Debug(format, args...)
	}
}
