package config

import "time"

// Default configuration values.
const (
	DefaultCompiler       = "g++"
	DefaultOutputFlag     = "-o"
	DefaultSourceFilename = "main.c"
	DefaultBinOutputName  = "out"
	DefaultInputSuffix    = "_in.txt"
	DefaultOutputSuffix   = "_out.txt"
	DefaultComparison     = "exact"
	DefaultRunTimeout     = 5 * time.Second
	DefaultCompileTimeout = 60 * time.Second
	DefaultWorkers        = 1
)

// DefaultCompilerOpts are the flags used for PA1-style assignments.
var DefaultCompilerOpts = []string{"-std=c++20", "-Wall", "-pedantic", "-Wno-long-long", "-O2"}

// DefaultTestFolderNames are the sample-data folders shipped with assignments.
var DefaultTestFolderNames = []string{"CZE", "ENG"}

// Default returns a fully populated default configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(cfg *Config) {
	applyCompilerDefaults(cfg)
	applyFixtureDefaults(cfg)
	applyRunDefaults(cfg)
}

func applyCompilerDefaults(cfg *Config) {
	if cfg.CCompiler == "" {
		cfg.CCompiler = DefaultCompiler
	}
	if cfg.CCompilerOpts == nil {
		cfg.CCompilerOpts = cloneStrings(DefaultCompilerOpts)
	}
	if cfg.OutputFlag == nil {
		flag := DefaultOutputFlag
		cfg.OutputFlag = &flag
	}
	if len(cfg.SourceCodeFilenames) == 0 {
		cfg.SourceCodeFilenames = []string{DefaultSourceFilename}
	}
	if cfg.DefaultBinOutputName == "" {
		cfg.DefaultBinOutputName = DefaultBinOutputName
	}
}

func applyFixtureDefaults(cfg *Config) {
	if cfg.TestFolderNames == nil {
		cfg.TestFolderNames = cloneStrings(DefaultTestFolderNames)
	}
	if cfg.InputSuffix == "" {
		cfg.InputSuffix = DefaultInputSuffix
	}
	if cfg.OutputSuffix == "" {
		cfg.OutputSuffix = DefaultOutputSuffix
	}
	if cfg.Comparison == "" {
		cfg.Comparison = DefaultComparison
	}
}

func applyRunDefaults(cfg *Config) {
	if cfg.RunTimeout == "" {
		cfg.RunTimeout = DefaultRunTimeout.String()
	}
	if cfg.CompileTimeout == "" {
		cfg.CompileTimeout = DefaultCompileTimeout.String()
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
}
