package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cverrors "github.com/cvutie/cvutie/internal/errors"
	"github.com/cvutie/cvutie/internal/process"
	"github.com/cvutie/cvutie/internal/testing/mocks"
)

func TestParse_SplitsWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"echo done", []string{"echo", "done"}},
		{"  grep  -v   x ", []string{"grep", "-v", "x"}},
		{`sed 's/a b/c/'`, []string{"sed", "s/a b/c/"}},
		{`printf "%s\n" "a \"b\""`, []string{"printf", `%s\n`, `a "b"`}},
		{`echo a\ b`, []string{"echo", "a b"}},
		{`echo ''`, []string{"echo", ""}},
		{`echo '$HOME' "*"`, []string{"echo", "$HOME", "*"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			stages, err := Parse([]string{tt.in}, nil)
			require.NoError(t, err)
			require.Len(t, stages, 1)
			assert.Equal(t, tt.want, append([]string{stages[0].Name}, stages[0].Args...))
		})
	}
}

func TestParse_BadQuoting_ValidationError(t *testing.T) {
	for _, in := range []string{`echo 'x`, `echo "x`, `echo x\`, "", "   "} {
		_, err := Parse([]string{in}, nil)
		assert.True(t, cverrors.IsKind(err, cverrors.KindValidation), "%q: got %v", in, err)
	}
}

func TestStage_String_RoundTrips(t *testing.T) {
	for _, st := range []Stage{
		{Kind: External, Name: "printf", Args: []string{"%s\n", "a 'b'", ""}},
		{Kind: External, Name: "sed", Args: []string{"s/a b/c/", "-n"}},
		{Kind: Internal, Name: "execute", Args: []string{"/tmp/with space/hw01"}},
	} {
		stages, err := Parse([]string{st.String()}, nil)
		require.NoError(t, err, st.String())
		assert.Equal(t, []Stage{st}, stages)
	}
}

func TestParse_InternalAndExternal(t *testing.T) {
	stages, err := Parse([]string{"compile hw01", "execute hw01", "sort -n"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []Stage{
		{Kind: Internal, Name: "compile", Args: []string{"hw01"}},
		{Kind: Internal, Name: "execute", Args: []string{"hw01"}},
		{Kind: External, Name: "sort", Args: []string{"-n"}},
	}, stages)
}

func TestParse_PresetExpandsOneLevel(t *testing.T) {
	presets := map[string][]string{"check": {"compile .", "test-all ."}}

	stages, err := Parse([]string{"check", "echo ok"}, presets)
	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, "compile", stages[0].Name)
	assert.Equal(t, "test-all", stages[1].Name)
	assert.Equal(t, "echo", stages[2].Name)
}

func TestParse_NestedPresetRejected(t *testing.T) {
	presets := map[string][]string{"a": {"b"}, "b": {"echo x"}}

	_, err := Parse([]string{"a"}, presets)
	assert.True(t, cverrors.IsKind(err, cverrors.KindValidation))
}

func TestParse_InternalNameNotShadowedByPreset(t *testing.T) {
	stages, err := Parse([]string{"compile"}, map[string][]string{"compile": {"echo hijacked"}})
	require.NoError(t, err)
	assert.Equal(t, Internal, stages[0].Kind)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(nil, nil)
	assert.Error(t, err)

	_, err = Parse([]string{"   "}, nil)
	assert.Error(t, err)
}

func TestStage_String_PlainWordsUnquoted(t *testing.T) {
	assert.Equal(t, "sort -n -r", Stage{Name: "sort", Args: []string{"-n", "-r"}}.String())
}

func TestEngine_Run_CompileThenEcho(t *testing.T) {
	internal := mocks.NewInternalRunner().WithRunFunc(func(_ context.Context, name string, args []string, _ []byte) ([]byte, error) {
		return []byte("compiled /tmp/hw01/out\n"), nil
	})
	var stdout bytes.Buffer
	eng := NewEngine(internal, process.NewExec(nil), &stdout)

	stages, err := Parse([]string{"compile hw01", "echo done"}, nil)
	require.NoError(t, err)
	res, err := eng.Run(context.Background(), stages, "")
	require.NoError(t, err)

	assert.Equal(t, "done\n", stdout.String())
	assert.Equal(t, "done\n", string(res.Output))
	assert.EqualValues(t, 1, internal.Count())
	require.Len(t, res.Stages, 2)
}

func TestEngine_Run_ChainsStdout(t *testing.T) {
	inv := mocks.NewInvoker()
	internal := mocks.NewInternalRunner().WithRunFunc(func(_ context.Context, _ string, _ []string, stdin []byte) ([]byte, error) {
		return append(stdin, "+internal"...), nil
	})
	eng := NewEngine(internal, inv, nil)

	stages := []Stage{
		{Kind: Internal, Name: "execute"},
		{Kind: External, Name: "cat"},
		{Kind: Internal, Name: "execute"},
	}
	res, err := eng.Run(context.Background(), stages, "")
	require.NoError(t, err)

	assert.Equal(t, "+internal+internal", string(res.Output))
	calls := internal.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "+internal", string(calls[1].Stdin))
	assert.EqualValues(t, 1, inv.Count())
}

func TestEngine_Run_FailFast_NothingWritten(t *testing.T) {
	internal := mocks.NewInternalRunner().WithRunFunc(func(context.Context, string, []string, []byte) ([]byte, error) {
		return nil, cverrors.CompilerError("hw01", 1, "main.c:1: error")
	})
	inv := mocks.NewInvoker()
	target := filepath.Join(t.TempDir(), "result.txt")

	stages := []Stage{{Kind: Internal, Name: "compile", Args: []string{"hw01"}}, {Kind: External, Name: "echo", Args: []string{"done"}}}
	_, err := NewEngine(internal, inv, nil).Run(context.Background(), stages, target)

	var ce *cverrors.CvutieError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, cverrors.KindPipelineStageFailed, ce.Kind)
	assert.Equal(t, 1, ce.Stage)
	assert.Equal(t, "main.c:1: error", ce.Diagnostics)
	assert.True(t, cverrors.IsKind(err, cverrors.KindCompilerError))
	assert.Equal(t, cverrors.ExitPipelineError, cverrors.GetExitCode(err))
	assert.Zero(t, inv.Count(), "later stages must not run")
	assert.NoFileExists(t, target)
}

func TestEngine_Run_ExternalNonZeroExit(t *testing.T) {
	inv := mocks.NewInvoker().WithResult(&process.Result{ExitCode: 2, Stderr: []byte("grep: bad\n")}, nil)

	_, err := NewEngine(nil, inv, nil).Run(context.Background(), []Stage{{Kind: External, Name: "grep"}}, "")

	var ce *cverrors.CvutieError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.Stage)
	assert.Contains(t, err.Error(), "exited with status 2")
	assert.Equal(t, "grep: bad\n", ce.Diagnostics)
}

func TestEngine_Run_WritesFinalOutputAtomically(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out", "result.txt")
	var stdout bytes.Buffer

	stages := []Stage{{Kind: External, Name: "sh", Args: []string{"-c", "printf 'a\\nb\\n'"}}}
	_, err := NewEngine(nil, process.NewExec(nil), &stdout).Run(context.Background(), stages, target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
	assert.Empty(t, stdout.String(), "stdout unused when writing to a file")
}

func TestEngine_Run_MissingExecutable(t *testing.T) {
	stages := []Stage{{Kind: External, Name: "definitely-not-a-real-program-xyz"}}

	_, err := NewEngine(nil, process.NewExec(nil), nil).Run(context.Background(), stages, "")
	assert.True(t, cverrors.IsKind(err, cverrors.KindPipelineStageFailed))
	assert.True(t, cverrors.IsKind(err, cverrors.KindLaunchFailed))
}

func TestEngine_Run_Empty(t *testing.T) {
	_, err := NewEngine(nil, nil, nil).Run(context.Background(), nil, "")
	assert.True(t, cverrors.IsKind(err, cverrors.KindValidation))
}

func TestEngine_Run_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	internal := mocks.NewInternalRunner()

	_, err := NewEngine(internal, nil, nil).Run(ctx, []Stage{{Kind: Internal, Name: "compile"}}, "")
	assert.True(t, cverrors.IsKind(err, cverrors.KindCanceled))
	assert.Zero(t, internal.Count())
}
