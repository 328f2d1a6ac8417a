package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MaxWorkers caps parallel directory workers.
const MaxWorkers = 256

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks semantic rules the schema cannot express.
func Validate(cfg *Config) error {
	if err := validateCompiler(cfg); err != nil {
		return err
	}
	if err := validateFixtures(cfg); err != nil {
		return err
	}
	if err := validateRun(cfg); err != nil {
		return err
	}
	return validateNames(cfg)
}

func validateCompiler(cfg *Config) error {
	if strings.TrimSpace(cfg.CCompiler) == "" {
		return &ValidationError{Field: "c_compiler", Message: "is required"}
	}
	for i, name := range cfg.SourceCodeFilenames {
		if name == "" || filepath.Base(name) != name {
			return &ValidationError{
				Field:   fmt.Sprintf("source_code_filenames[%d]", i),
				Message: "must be a plain file name",
			}
		}
	}
	if name := cfg.DefaultBinOutputName; filepath.Base(name) != name {
		return &ValidationError{Field: "default_bin_output_name", Message: "must be a plain file name"}
	}
	return nil
}

func validateFixtures(cfg *Config) error {
	if cfg.InputSuffix == cfg.OutputSuffix {
		return &ValidationError{Field: "output_suffix", Message: "must differ from input_suffix"}
	}
	switch cfg.Comparison {
	case "exact", "whitespace":
	default:
		return &ValidationError{Field: "comparison", Message: `must be "exact" or "whitespace"`}
	}
	return nil
}

func validateRun(cfg *Config) error {
	for field, value := range map[string]string{"run_timeout": cfg.RunTimeout, "compile_timeout": cfg.CompileTimeout} {
		if value == "" || value == "0" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return &ValidationError{Field: field, Message: fmt.Sprintf("invalid duration %q", value)}
		}
		if d < 0 {
			return &ValidationError{Field: field, Message: "must not be negative"}
		}
	}
	if cfg.Workers < 0 || cfg.Workers > MaxWorkers {
		return &ValidationError{Field: "workers", Message: fmt.Sprintf("must be between 1 and %d", MaxWorkers)}
	}
	return nil
}

func validateNames(cfg *Config) error {
	for name, dirs := range cfg.Regions {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Field: "regions", Message: "region name must not be empty"}
		}
		if len(dirs) == 0 {
			return &ValidationError{Field: "regions." + name, Message: "must list at least one directory"}
		}
	}
	for name, cmds := range cfg.Pipes {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Field: "pipes", Message: "pipe name must not be empty"}
		}
		if len(cmds) == 0 {
			return &ValidationError{Field: "pipes." + name, Message: "must list at least one command"}
		}
	}
	return nil
}
