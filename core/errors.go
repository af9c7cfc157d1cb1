package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FieldError describes a single schema violation.
type FieldError struct {
	Path    string `json:"path"`            // Dotted/indexed path, e.g. "results[2].url"
	Message string `json:"message"`         // Human-readable reason
	Value   any    `json:"value,omitempty"` // Offending value (nil when missing)
}

func (f FieldError) String() string {
	if f.Path == "" {
		return f.Message
	}
	return fmt.Sprintf("%s: %s", f.Path, f.Message)
}

// SchemaValidationError reports that an input, trigger payload or step
// result does not match its declared shape. It is always raised before any
// side effect happens.
type SchemaValidationError struct {
	Subject string       `json:"subject"` // What was validated, e.g. "tool tavily-search input"
	Fields  []FieldError `json:"fields"`
}

func (e *SchemaValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	if e.Subject == "" {
		return "schema validation failed: " + strings.Join(parts, "; ")
	}
	return fmt.Sprintf("schema validation failed for %s: %s", e.Subject, strings.Join(parts, "; "))
}

// FieldPaths returns the paths of all offending fields.
func (e *SchemaValidationError) FieldPaths() []string {
	paths := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		paths = append(paths, f.Path)
	}
	return paths
}

// ToolExecutionError reports that a tool's external backend failed or
// returned a non-success response. StatusCode and Body are set for HTTP
// backends.
type ToolExecutionError struct {
	Tool       string `json:"tool"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"body,omitempty"`
	Cause      error  `json:"-"`
}

func (e *ToolExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tool %s failed", e.Tool)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " with status %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	if e.Cause != nil && e.Message == "" {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *ToolExecutionError) Unwrap() error { return e.Cause }

// StepInputMissingError reports that a workflow step found a declared
// dependency absent or empty in the run context.
type StepInputMissingError struct {
	Step       string `json:"step"`
	Dependency string `json:"dependency"`
	Reason     string `json:"reason,omitempty"`
}

func (e *StepInputMissingError) Error() string {
	msg := fmt.Sprintf("step %s: input from %s is missing", e.Step, e.Dependency)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// SubTaskFailure pairs a failed sub-task with its cause.
type SubTaskFailure struct {
	SubTask string
	Agent   string
	Err     error
}

// NetworkExhaustedError reports that every sub-task delegated by a
// coordinator failed, so no answer could be synthesized.
type NetworkExhaustedError struct {
	Network  string
	Failures []SubTaskFailure
}

func (e *NetworkExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s (%s): %v", f.SubTask, f.Agent, f.Err))
	}
	return fmt.Sprintf("network %s exhausted: all %d sub-tasks failed: %s", e.Network, len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes every sub-task cause to errors.Is / errors.As.
func (e *NetworkExhaustedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// ConfigurationError reports a fatal setup problem: a missing credential,
// an unresolved tool or agent reference, or an invalid definition. It is
// never retried.
type ConfigurationError struct {
	Component string
	Message   string
	Cause     error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// NewConfigurationError is a convenience constructor for ConfigurationError.
func NewConfigurationError(component, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Component: component, Message: fmt.Sprintf(format, args...)}
}

// TimeoutError reports that a single external call (model invocation,
// tool execution, workflow step) exceeded its configured timeout.
type TimeoutError struct {
	Operation string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Operation, e.Timeout)
}

// Is makes errors.Is(err, context.DeadlineExceeded) hold for timeouts.
func (e *TimeoutError) Is(target error) bool {
	return target == errDeadline
}

// IsTyped reports whether err already belongs to the taxonomy above, in
// which case boundaries pass it through instead of wrapping it again.
func IsTyped(err error) bool {
	var (
		sve *SchemaValidationError
		tee *ToolExecutionError
		sim *StepInputMissingError
		nee *NetworkExhaustedError
		cfg *ConfigurationError
		toe *TimeoutError
	)
	return errors.As(err, &sve) || errors.As(err, &tee) || errors.As(err, &sim) ||
		errors.As(err, &nee) || errors.As(err, &cfg) || errors.As(err, &toe)
}
