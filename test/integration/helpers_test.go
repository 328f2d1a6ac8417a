//go:build unix

// Package integration runs cvutie end to end with a real C compiler.
package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/cvutie/cvutie/internal/app"
	"github.com/cvutie/cvutie/internal/config"
	"github.com/cvutie/cvutie/internal/output"
	"github.com/cvutie/cvutie/internal/process"
)

var (
	fixturesDirOnce sync.Once
	fixturesDirPath string
)

// fixturesDir returns the path to the test fixtures directory.
func fixturesDir() string {
	fixturesDirOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		fixturesDirPath = filepath.Join(filepath.Dir(filename), "..", "fixtures")
	})
	return fixturesDirPath
}

// requireCompiler skips the test when no C compiler is installed.
func requireCompiler(t *testing.T) string {
	t.Helper()
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("cc not found in PATH")
	}
	return cc
}

// copyAssignment copies a fixture assignment into a temp dir, since
// compiling writes artifacts next to the sources.
func copyAssignment(t *testing.T, name string) string {
	t.Helper()
	dst := filepath.Join(t.TempDir(), name)
	if err := os.CopyFS(dst, os.DirFS(filepath.Join(fixturesDir(), name))); err != nil {
		t.Fatalf("copy fixtures: %v", err)
	}
	return dst
}

func cConfig(cc string) *config.Config {
	cfg := config.Default()
	cfg.CCompiler = cc
	cfg.CCompilerOpts = []string{"-std=c11", "-Wall", "-O2"}
	return cfg
}

type session struct {
	app    *app.App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newSession(cfg *config.Config) *session {
	s := &session{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	log := output.NewWithWriters(s.stdout, s.stderr, false)
	s.app = app.New(cfg, log, process.NewExec(log))
	return s
}
