package model

import "fmt"

// ArgumentError reports a missing required field or a value outside its
// allowed set. It is raised before any external tool runs.
type ArgumentError struct {
	Field   string
	Value   string
	Message string
}

func (e *ArgumentError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("--%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("--%s %q: %s", e.Field, e.Value, e.Message)
}

// NewRequiredError creates an ArgumentError for a required field that was not supplied.
func NewRequiredError(field string) *ArgumentError {
	return &ArgumentError{Field: field, Message: "required"}
}

// MetadataFormatError is returned when a read-group value cannot be
// normalized, currently only the DT date/time field.
type MetadataFormatError struct {
	Field string
	Value string
	Err   error
}

func (e *MetadataFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("read group %s: cannot parse %q as a date/time: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("read group %s: cannot parse %q as a date/time", e.Field, e.Value)
}

func (e *MetadataFormatError) Unwrap() error {
	return e.Err
}

// ToolExecutionError is returned when an external command exits non-zero.
// Stderr holds the tail of the tool's diagnostic output.
type ToolExecutionError struct {
	Tool     string
	Step     string
	ExitCode int
	Stderr   string
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("%s step: %s exited with status %d", e.Step, e.Tool, e.ExitCode)
}

// ResourceError wraps failures creating or removing the workspace and
// other filesystem scaffolding.
type ResourceError struct {
	Op   string
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
