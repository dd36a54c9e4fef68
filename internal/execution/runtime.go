package execution

import (
	"context"
)

// Runtime abstracts how an external command is executed.
type Runtime interface {
	// Run executes a command to completion and returns its exit status.
	// A non-zero exit is reported in RunResult, not as an error.
	Run(ctx context.Context, spec RunSpec) (*RunResult, error)
}

// RunSpec describes what to execute.
type RunSpec struct {
	Command []string          // Command and arguments, passed to the OS as-is
	WorkDir string            // Working directory (optional)
	Env     map[string]string // Extra environment variables
	Stdin   string            // Path attached to stdin (optional)
	Stdout  string            // Path stdout is redirected to (optional)
}

// RunResult holds the result of a command execution.
type RunResult struct {
	ExitCode int
	Stderr   string // Tail of stderr, also streamed live
}
