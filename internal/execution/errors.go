package execution

import (
	"errors"
	"fmt"
)

// ErrEmptyCommand is returned when a RunSpec has no argv.
var ErrEmptyCommand = errors.New("empty command")

// ExecutionError wraps errors with execution phase context.
type ExecutionError struct {
	Phase string // "stdin", "stdout", "stderr", "start", "stream", "wait"
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
