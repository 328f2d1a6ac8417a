//go:build unix

package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cvutie/cvutie/internal/app"
	cverrors "github.com/cvutie/cvutie/internal/errors"
	"github.com/cvutie/cvutie/internal/report"
)

func TestTestAll_RealCompiler(t *testing.T) {
	cc := requireCompiler(t)
	root := copyAssignment(t, "pa1")
	alice, bob, carol := filepath.Join(root, "alice"), filepath.Join(root, "bob"), filepath.Join(root, "carol")

	cfg := cConfig(cc)
	cfg.Regions = map[string][]string{"pa1": {alice, bob, carol}}
	cfg.Workers = 3
	s := newSession(cfg)

	rep, err := s.app.TestAll(context.Background(), "pa1", app.TestOptions{})

	if !cverrors.IsKind(err, cverrors.KindTestsFailed) {
		t.Fatalf("TestAll() error = %v, want tests failed", err)
	}
	if len(rep.Directories) != 3 {
		t.Fatalf("got %d directories, want 3", len(rep.Directories))
	}
	for i, want := range []string{alice, bob, carol} {
		if rep.Directories[i].Dir != want {
			t.Errorf("Directories[%d] = %s, want %s", i, rep.Directories[i].Dir, want)
		}
	}

	if c := rep.Directories[0].Counts(); c.Pass != 3 || c.Total != 3 {
		t.Errorf("alice counts = %+v, want 3 passed", c)
	}

	bobCases := rep.Directories[1].Cases
	if c := rep.Directories[1].Counts(); c.Pass != 2 || c.Fail != 1 {
		t.Errorf("bob counts = %+v, want 2 pass 1 fail", c)
	}
	for _, c := range bobCases {
		if c.Folder == "ENG" && c.Verdict != report.Fail {
			t.Errorf("bob ENG/%s verdict = %s, want fail (int overflow)", c.ID, c.Verdict)
		}
	}

	carolDir := rep.Directories[2]
	if carolDir.Compile.OK {
		t.Error("carol compile OK = true, want false")
	}
	if carolDir.Compile.Diagnostics == "" {
		t.Error("carol compile diagnostics are empty")
	}
	for _, c := range carolDir.Cases {
		if c.Verdict != report.RunError || c.Reason != report.ReasonCompileFailed {
			t.Errorf("carol %s = %s (%s), want error (compile failed)", c.Name(), c.Verdict, c.Reason)
		}
	}

	totals := rep.Totals()
	if totals.Pass != 5 || totals.Fail != 1 || totals.Error != 3 || totals.Total != 9 {
		t.Errorf("totals = %+v", totals)
	}
}

func TestCompile_RealCompiler_Diagnostics(t *testing.T) {
	cc := requireCompiler(t)
	carol := filepath.Join(copyAssignment(t, "pa1"), "carol")
	s := newSession(cConfig(cc))

	_, err := s.app.Compile(context.Background(), carol, "")

	if cverrors.GetExitCode(err) != cverrors.ExitCompileError {
		t.Fatalf("Compile() exit code = %d, want %d (err %v)", cverrors.GetExitCode(err), cverrors.ExitCompileError, err)
	}
	if !strings.Contains(cverrors.DiagnosticsOf(err), "main.c") {
		t.Errorf("diagnostics do not mention main.c:\n%s", cverrors.DiagnosticsOf(err))
	}
	if _, statErr := os.Stat(filepath.Join(carol, "out")); statErr == nil {
		t.Error("artifact exists after failed compile")
	}
}

func TestExecute_RealCompiler(t *testing.T) {
	cc := requireCompiler(t)
	alice := filepath.Join(copyAssignment(t, "pa1"), "alice")
	s := newSession(cConfig(cc))
	ctx := context.Background()

	if _, err := s.app.Compile(ctx, alice, ""); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	var echo bytes.Buffer
	res, err := s.app.Execute(ctx, alice, app.ExecuteOptions{
		Input: strings.NewReader("40 2\n"),
		Echo:  &echo,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := "Enter two numbers:\nSum: 42\n"
	if string(res.Stdout) != want || echo.String() != want {
		t.Errorf("stdout = %q, echo = %q, want %q", res.Stdout, echo.String(), want)
	}
}

func TestPipe_RealCompiler(t *testing.T) {
	cc := requireCompiler(t)
	alice := filepath.Join(copyAssignment(t, "pa1"), "alice")
	s := newSession(cConfig(cc))
	out := filepath.Join(t.TempDir(), "sum.txt")

	var stdout bytes.Buffer
	_, err := s.app.Pipe(context.Background(),
		[]string{"compile", "echo 7 8", "execute", "tail -n 1"},
		out, alice, &stdout)
	if err != nil {
		t.Fatalf("Pipe() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "Sum: 15\n" {
		t.Errorf("pipe output = %q, want %q", data, "Sum: 15\n")
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty when writing to a file", stdout.String())
	}
}
