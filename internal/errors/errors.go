package errors

import (
	"fmt"
	"strings"
)

// Exit codes returned by the commands.
const (
	ExitOK                = 0
	ExitToolingFailure    = 1
	ExitThresholdExceeded = 2
)

// ConfigError reports a configuration value that cannot be used.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a ConfigError for the given field and offending value.
func NewConfigError(field, value string, err error) error {
	return &ConfigError{Field: field, Value: value, Err: err}
}

// UnsupportedLanguageError is returned when no engine language matches the requested name.
type UnsupportedLanguageError struct {
	Language string
	Known    []string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language %q (known: %s)", e.Language, strings.Join(e.Known, ", "))
}

// UnsupportedVersionError is returned when a language does not know the requested version.
type UnsupportedVersionError struct {
	Language string
	Version  string
	Known    []string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported version %q for language %q (known: %s)", e.Version, e.Language, strings.Join(e.Known, ", "))
}

// ClasspathError reports an auxiliary classpath element that could not be resolved.
type ClasspathError struct {
	Module  string
	Element string
	Err     error
}

func (e *ClasspathError) Error() string {
	return fmt.Sprintf("unable to resolve classpath element %q of module %q: %v", e.Element, e.Module, e.Err)
}

func (e *ClasspathError) Unwrap() error { return e.Err }

// ProcessingFailure is one engine-internal failure, reduced to what the error message needs.
type ProcessingFailure struct {
	File    string
	Message string
}

// ProcessingErrorsError aggregates engine processing errors when they are not skipped.
type ProcessingErrorsError struct {
	Tool     string
	Failures []ProcessingFailure
	Verbose  bool
}

func (e *ProcessingErrorsError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s encountered %d processing error(s)", e.Tool, len(e.Failures))
	if !e.Verbose {
		sb.WriteString("; rerun with skip-engine-errors to continue or increase verbosity for details")
		return sb.String()
	}
	for _, f := range e.Failures {
		fmt.Fprintf(&sb, "\n  %s: %s", f.File, f.Message)
	}
	return sb.String()
}

// ThresholdExceededError is the deliberate build-policy failure of the check step.
// It is not a tooling malfunction.
type ThresholdExceededError struct {
	Tool         string
	FailureCount int
	WarningCount int
	Message      string
}

func (e *ThresholdExceededError) Error() string {
	return e.Message
}

// CommandError represents an error that occurred during command execution, storing the exit code.
type CommandError struct {
	ExitCode    int
	CommonError string
	Err         error
}

// Error implements the error interface, returning the message from the common error.
func (e *CommandError) Error() string {
	return e.CommonError
}

func (e *CommandError) Unwrap() error { return e.Err }

// NewCommandError wraps err with the exit code the process should terminate with.
func NewCommandError(err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
		Err:         err,
	}
}
