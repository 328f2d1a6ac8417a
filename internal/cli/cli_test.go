//go:build unix

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvutie/cvutie/internal/config"
	cverrors "github.com/cvutie/cvutie/internal/errors"
)

const fakeCompilerScript = `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out="$a"; fi
  prev="$a"
done
if grep -q SYNTAX_ERROR "$a"; then
  echo "$a:1:1: error: unexpected SYNTAX_ERROR" >&2
  exit 1
fi
cp "$a" "$out"
chmod +x "$out"
`

const adder = "#!/bin/sh\nread a b\necho $((a + b))\n"

type result struct {
	code   int
	stdout string
	stderr string
}

// setup writes a config using a fake compiler and points CVUTIE_CONFIG at it.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cc := filepath.Join(dir, "fakecc")
	require.NoError(t, os.WriteFile(cc, []byte(fakeCompilerScript), 0755))

	cfg := config.Default()
	cfg.CCompiler = cc
	cfg.CCompilerOpts = []string{}
	data, err := config.Marshal(cfg)
	require.NoError(t, err)

	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, data, 0644))
	t.Setenv(config.EnvConfigPath, path)
	return path
}

func invoke(stdin string, args ...string) result {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func adderProject(t *testing.T, expected string) string {
	return project(t, map[string]string{
		"main.c":           adder,
		"CZE/0000_in.txt":  "1 2\n",
		"CZE/0000_out.txt": "3\n",
		"ENG/0000_in.txt":  "5 5\n",
		"ENG/0000_out.txt": expected,
	})
}

func regions(t *testing.T, path string) map[string][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal(data, &cfg))
	return cfg.Regions
}

func TestRun_Version(t *testing.T) {
	setup(t)

	res := invoke("", "version")

	assert.Equal(t, cverrors.ExitSuccess, res.code)
	assert.Equal(t, "cvutie "+Version+"\n", res.stdout)
}

func TestRun_QuietAndVerbose_Rejected(t *testing.T) {
	setup(t)

	res := invoke("", "-q", "-v", "version")

	assert.Equal(t, cverrors.ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "mutually exclusive")
}

func TestRun_UnknownFlag_IsUsageError(t *testing.T) {
	setup(t)

	res := invoke("", "compile", "--bogus")

	assert.Equal(t, cverrors.ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "bogus")
}

func TestRun_UnknownCommand_IsUsageError(t *testing.T) {
	setup(t)

	res := invoke("", "frobnicate")

	assert.Equal(t, cverrors.ExitConfigError, res.code)
}

func TestRun_MissingConfig_WritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)
	t.Setenv(config.EnvConfigPath, path)

	res := invoke("", "config", "show")

	require.Equal(t, cverrors.ExitSuccess, res.code, res.stderr)
	assert.FileExists(t, path)
	assert.Contains(t, res.stdout, `"c_compiler": "g++"`)
}

func TestCompile_Success(t *testing.T) {
	setup(t)
	dir := adderProject(t, "10\n")

	res := invoke("", "compile", dir)

	require.Equal(t, cverrors.ExitSuccess, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(dir, "out"))
}

func TestCompile_CustomOutputName(t *testing.T) {
	setup(t)
	dir := adderProject(t, "10\n")

	res := invoke("", "compile", dir, "-o", "prog")

	require.Equal(t, cverrors.ExitSuccess, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(dir, "prog"))
}

func TestCompile_Failure_PrintsDiagnosticsOnce(t *testing.T) {
	setup(t)
	dir := project(t, map[string]string{"main.c": "SYNTAX_ERROR"})

	res := invoke("", "compile", dir)

	assert.Equal(t, cverrors.ExitCompileError, res.code)
	assert.Equal(t, 1, strings.Count(res.stderr, "unexpected SYNTAX_ERROR"))
}

func TestCompile_NoTarget(t *testing.T) {
	setup(t)

	res := invoke("", "compile")

	assert.Equal(t, cverrors.ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "target is required")
}

func TestCompile_UnknownTarget(t *testing.T) {
	setup(t)

	res := invoke("", "compile", "no-such-region-or-dir")

	assert.Equal(t, cverrors.ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "unknown target")
}

func TestExecute_ForwardsStdin(t *testing.T) {
	setup(t)
	dir := adderProject(t, "10\n")
	require.Equal(t, cverrors.ExitSuccess, invoke("", "compile", dir).code)

	res := invoke("20 22\n", "execute", dir)

	require.Equal(t, cverrors.ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "42\n", res.stdout)
}

func TestExecute_InputFile(t *testing.T) {
	setup(t)
	dir := adderProject(t, "10\n")
	require.Equal(t, cverrors.ExitSuccess, invoke("", "compile", dir).code)

	res := invoke("", "execute", dir, "--input", filepath.Join(dir, "CZE", "0000_in.txt"))

	require.Equal(t, cverrors.ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "3\n", res.stdout)
}

func TestExecute_NonZeroExit_DedicatedExitCode(t *testing.T) {
	setup(t)
	// Status 4 would otherwise look like a compile error to scripts.
	dir := project(t, map[string]string{"main.c": "#!/bin/sh\necho oops >&2\nexit 4\n"})
	require.Equal(t, cverrors.ExitSuccess, invoke("", "compile", dir).code)

	res := invoke("", "execute", dir)

	assert.Equal(t, cverrors.ExitProgramFailed, res.code)
	assert.True(t, strings.HasPrefix(res.stderr, "oops\n"), res.stderr)
	assert.Contains(t, res.stderr, "program exited with status 4")
}

func TestExecute_Signal_DedicatedExitCode(t *testing.T) {
	setup(t)
	dir := project(t, map[string]string{"main.c": "#!/bin/sh\nkill -SEGV $$\n"})
	require.Equal(t, cverrors.ExitSuccess, invoke("", "compile", dir).code)

	res := invoke("", "execute", dir)

	assert.Equal(t, cverrors.ExitProgramFailed, res.code)
	assert.Contains(t, res.stderr, "killed by signal")
}

func TestExecute_RunsInTargetDirectory(t *testing.T) {
	setup(t)
	dir := project(t, map[string]string{"main.c": "#!/bin/sh\ntouch scratch.tmp\n"})
	require.Equal(t, cverrors.ExitSuccess, invoke("", "compile", dir).code)

	res := invoke("", "execute", dir)

	require.Equal(t, cverrors.ExitSuccess, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(dir, "scratch.tmp"))
	assert.NoFileExists(t, "scratch.tmp")
}

func TestExecute_NotCompiled(t *testing.T) {
	setup(t)
	dir := adderProject(t, "10\n")

	res := invoke("", "execute", dir)

	assert.Equal(t, cverrors.ExitEnvironmentError, res.code)
}

func TestTestAll_Pass(t *testing.T) {
	setup(t)
	dir := adderProject(t, "10\n")

	res := invoke("", "test-all", dir)

	require.Equal(t, cverrors.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "All 2 tests passed.")
}

func TestTestAll_Failure_ReportsOnce(t *testing.T) {
	setup(t)
	dir := adderProject(t, "11\n")

	res := invoke("", "test-all", dir)

	assert.Equal(t, cverrors.ExitTestFailure, res.code)
	assert.Contains(t, res.stdout, "1 of 2 tests did not pass.")
	assert.Contains(t, res.stdout, "-11")
	assert.NotContains(t, res.stderr, "did not pass")
}

func TestTestAll_WritesReport(t *testing.T) {
	setup(t)
	dir := adderProject(t, "10\n")
	out := filepath.Join(t.TempDir(), "report.json")

	res := invoke("", "test-all", dir, "--report", out)

	require.Equal(t, cverrors.ExitSuccess, res.code, res.stderr)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"verdict": "pass"`)
}

func TestTestAll_BadReportExtension(t *testing.T) {
	setup(t)
	dir := adderProject(t, "10\n")

	res := invoke("", "test-all", dir, "--report", filepath.Join(t.TempDir(), "report.txt"))

	assert.Equal(t, cverrors.ExitConfigError, res.code)
	assert.NoFileExists(t, filepath.Join(dir, "out"))
}

func TestTestAll_BadComparator(t *testing.T) {
	setup(t)
	dir := adderProject(t, "10\n")

	res := invoke("", "test-all", dir, "--comparator", "fuzzy")

	assert.Equal(t, cverrors.ExitConfigError, res.code)
}

func TestPipe_FeedsStages(t *testing.T) {
	setup(t)
	dir := adderProject(t, "10\n")
	require.Equal(t, cverrors.ExitSuccess, invoke("", "compile", dir).code)

	res := invoke("", "pipe", "-t", dir, "echo 4 5", "execute")

	require.Equal(t, cverrors.ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "9\n", res.stdout)
}

func TestPipe_OutputFile(t *testing.T) {
	setup(t)
	dir := adderProject(t, "10\n")
	out := filepath.Join(t.TempDir(), "result.txt")

	res := invoke("", "pipe", "-t", dir, "-o", out, "compile", "echo 1 1", "execute")

	require.Equal(t, cverrors.ExitSuccess, res.code, res.stderr)
	assert.Empty(t, res.stdout)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "2\n", string(data))
}

func TestPipe_StageFailure(t *testing.T) {
	setup(t)
	dir := project(t, map[string]string{"main.c": "SYNTAX_ERROR"})

	res := invoke("", "pipe", "-t", dir, "compile", "cat")

	assert.Equal(t, cverrors.ExitPipelineError, res.code)
	assert.Contains(t, res.stderr, "stage 1")
	assert.Contains(t, res.stderr, "unexpected SYNTAX_ERROR")
}

func TestPipe_RequiresCommands(t *testing.T) {
	setup(t)

	res := invoke("", "pipe")

	assert.Equal(t, cverrors.ExitConfigError, res.code)
}

func TestRegion_DefineExtendList(t *testing.T) {
	path := setup(t)
	a := adderProject(t, "10\n")
	b := adderProject(t, "10\n")
	c := adderProject(t, "10\n")

	res := invoke("", "region", "-r", "hw", a, b)
	require.Equal(t, cverrors.ExitSuccess, res.code, res.stderr)
	assert.Equal(t, []string{a, b}, regions(t, path)["hw"])

	res = invoke("", "region", "-r", "hw", c)
	assert.Equal(t, cverrors.ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "already exists")

	res = invoke("", "region", "-r", "hw", "--add", c, a)
	require.Equal(t, cverrors.ExitSuccess, res.code, res.stderr)
	assert.Equal(t, []string{a, b, c}, regions(t, path)["hw"])

	res = invoke("", "region", "-r", "hw", "--force", c)
	require.Equal(t, cverrors.ExitSuccess, res.code, res.stderr)
	assert.Equal(t, []string{c}, regions(t, path)["hw"])

	res = invoke("", "region")
	require.Equal(t, cverrors.ExitSuccess, res.code)
	assert.Contains(t, res.stdout, "NAME")
	assert.Contains(t, res.stdout, "hw")

	res = invoke("", "region", "-r", "hw")
	require.Equal(t, cverrors.ExitSuccess, res.code)
	assert.Equal(t, c+"\n", res.stdout)
}

func TestRegion_UsedAsTarget(t *testing.T) {
	setup(t)
	a := adderProject(t, "10\n")
	b := adderProject(t, "11\n")
	require.Equal(t, cverrors.ExitSuccess, invoke("", "region", "-r", "hw", a, b).code)

	res := invoke("", "test-all", "-r", "hw")

	assert.Equal(t, cverrors.ExitTestFailure, res.code)
	assert.Contains(t, res.stdout, "=== "+a+" ===")
	assert.Contains(t, res.stdout, "=== "+b+" ===")
	assert.Less(t, strings.Index(res.stdout, a), strings.Index(res.stdout, b))
}

func TestRegion_MissingDirectory(t *testing.T) {
	setup(t)

	res := invoke("", "region", "-r", "hw", filepath.Join(t.TempDir(), "missing"))

	assert.Equal(t, cverrors.ExitConfigError, res.code)
}

func TestRegion_RefusesToOverwriteUnreadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	t.Setenv(config.EnvConfigPath, path)

	res := invoke("", "region", "-r", "hw", t.TempDir())

	assert.Equal(t, cverrors.ExitConfigError, res.code)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestConfig_Validate(t *testing.T) {
	path := setup(t)

	res := invoke("", "config", "validate")
	require.Equal(t, cverrors.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "is valid")

	require.NoError(t, os.WriteFile(path, []byte(`{"c_compiler": 3}`), 0644))
	res = invoke("", "config", "validate")
	assert.Equal(t, cverrors.ExitConfigError, res.code)
}

func TestConfig_Path(t *testing.T) {
	path := setup(t)

	res := invoke("", "config", "path")

	require.Equal(t, cverrors.ExitSuccess, res.code)
	assert.Equal(t, path+"\n", res.stdout)
}
