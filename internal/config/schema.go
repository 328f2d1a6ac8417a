package config

import (
	"sort"
	"time"
)

// Config is the persisted cvutie configuration. Field names of the
// original .cvutie layout are kept so existing files keep working.
type Config struct {
	CCompiler            string              `json:"c_compiler"`
	CCompilerOpts        []string            `json:"c_compiler_opts"`
	OutputFlag           *string             `json:"output_flag,omitempty"`
	SourceCodeFilenames  []string            `json:"source_code_filenames"`
	TestFolderNames      []string            `json:"test_folder_names"`
	DefaultBinOutputName string              `json:"default_bin_output_name"`
	InputSuffix          string              `json:"input_suffix,omitempty"`
	OutputSuffix         string              `json:"output_suffix,omitempty"`
	Comparison           string              `json:"comparison,omitempty"`
	RunTimeout           string              `json:"run_timeout,omitempty"`
	CompileTimeout       string              `json:"compile_timeout,omitempty"`
	Workers              int                 `json:"workers,omitempty"`
	Pipes                map[string][]string `json:"pipes,omitempty"`
	Regions              map[string][]string `json:"regions,omitempty"`
}

// Clone returns a deep copy, used as the read-only snapshot for one run.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	cp.CCompilerOpts = cloneStrings(c.CCompilerOpts)
	cp.SourceCodeFilenames = cloneStrings(c.SourceCodeFilenames)
	cp.TestFolderNames = cloneStrings(c.TestFolderNames)
	if c.OutputFlag != nil {
		flag := *c.OutputFlag
		cp.OutputFlag = &flag
	}
	cp.Pipes = cloneMap(c.Pipes)
	cp.Regions = cloneMap(c.Regions)
	return &cp
}

// OutputFlagValue returns the compiler output flag; empty means none.
func (c *Config) OutputFlagValue() string {
	if c.OutputFlag == nil {
		return DefaultOutputFlag
	}
	return *c.OutputFlag
}

// RunTimeoutDuration returns the per-binary time limit; zero disables it.
// Invalid values fall back to the default; Validate reports them.
func (c *Config) RunTimeoutDuration() time.Duration {
	return parseDurationOr(c.RunTimeout, DefaultRunTimeout)
}

// CompileTimeoutDuration returns the compiler time limit; zero disables it.
func (c *Config) CompileTimeoutDuration() time.Duration {
	return parseDurationOr(c.CompileTimeout, DefaultCompileTimeout)
}

// RegionNames returns the configured region names sorted.
func (c *Config) RegionNames() []string {
	names := make([]string, 0, len(c.Regions))
	for name := range c.Regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	if s == "0" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneMap(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = cloneStrings(v)
	}
	return out
}
