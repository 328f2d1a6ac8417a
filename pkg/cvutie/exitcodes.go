// Package cvutie provides public constants for external tools and scripts
// integrating with cvutie.
package cvutie

// Exit codes returned by the cvutie CLI.
// Scripts can branch on these symbolically rather than using magic numbers.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitFailure indicates an unclassified runtime failure.
	ExitFailure = 1

	// ExitConfigError indicates a configuration or usage error (unknown
	// target, existing region, invalid config, bad flags).
	ExitConfigError = 2

	// ExitEnvError indicates an environment error (a compiler or binary
	// that could not be launched).
	ExitEnvError = 3

	// ExitCompileError indicates the compiler rejected the source, no
	// source was found, or no artifact was produced.
	ExitCompileError = 4

	// ExitTestFailure indicates at least one fixture did not pass.
	ExitTestFailure = 5

	// ExitPipelineError indicates a pipeline stage failed.
	ExitPipelineError = 6

	// ExitProgramFailed indicates the program run by execute exited with a
	// non-zero status or was killed by a signal.
	ExitProgramFailed = 7

	// ExitInterrupted indicates the run was canceled by a signal.
	ExitInterrupted = 130
)
