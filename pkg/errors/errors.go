// Package errors provides structured error handling for HydroFlow.
// Errors carry machine-readable codes and key-value context so the CLI
// and the diagnostics channel can report consistently.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies an error class for programmatic handling.
type Code string

const (
	// Format errors (1xx): unreadable or malformed input.
	CodeFileNotFound      Code = "E101"
	CodeUnsupportedFormat Code = "E102"
	CodeEmptyOrMalformed  Code = "E103"
	CodeTimestampColumn   Code = "E104"
	CodeTimestampFormat   Code = "E105"

	// Classification errors (2xx): ambiguous or inconsistent channel detection.
	CodeInconsistentInterval Code = "E201"
	CodeAmbiguousColumns     Code = "E202"

	// Validation errors (3xx): invalid field values or selections.
	CodeEmptyField     Code = "E301"
	CodeUnknownChannel Code = "E302"
	CodeNoRainfallData Code = "E303"
	CodeInvalidRange   Code = "E304"
	CodeNoFileLoaded   Code = "E305"

	// Geometry errors (4xx): malformed or solver-domain-failing descriptors.
	CodeInvalidDescriptor Code = "E401"
	CodeSolverFailed      Code = "E402"

	// IO errors (5xx): filesystem read/write failure.
	CodeWriteFailed         Code = "E501"
	CodeOutputDirUnwritable Code = "E502"
	CodeReadFailed          Code = "E503"

	CodeUnknown Code = "E999"
)

// Error is the base error type for all HydroFlow errors.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Code, e.Message)

	if len(e.Context) > 0 {
		sb.WriteString(" (")
		first := true
		for k, v := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, v)
			first = false
		}
		sb.WriteString(")")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext attaches a key-value pair to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new Error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error; returns nil when err is nil.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *Error {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// IsCode checks whether err (or anything it wraps) carries the code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the code from an error, or CodeUnknown.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Kind returns the taxonomy class of a code, for batch summaries and logs.
func Kind(code Code) string {
	switch {
	case code >= "E100" && code < "E200":
		return "format"
	case code >= "E200" && code < "E300":
		return "classification"
	case code >= "E300" && code < "E400":
		return "validation"
	case code >= "E400" && code < "E500":
		return "geometry"
	case code >= "E500" && code < "E600":
		return "io"
	default:
		return "unknown"
	}
}

// --- Convenience constructors ---

// FileNotFound reports a missing input file.
func FileNotFound(path string) *Error {
	return New(CodeFileNotFound, "file not found").WithContext("path", path)
}

// UnknownChannel reports a channel selection that names no classified column.
func UnknownChannel(name string) *Error {
	return New(CodeUnknownChannel, "channel not present in classified file").
		WithContext("channel", name)
}

// AmbiguousColumns reports columns that cannot be told apart.
func AmbiguousColumns(columns []string) *Error {
	return New(CodeAmbiguousColumns, "columns classify identically").
		WithContext("columns", columns)
}

// EmptyField reports a required field given as empty.
func EmptyField(field string) *Error {
	return New(CodeEmptyField, "field must not be empty").WithContext("field", field)
}

// MultiError collects multiple errors.
type MultiError struct {
	Errors []error
}

// Error implements the error interface.
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:\n", len(m.Errors))
	for i, err := range m.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Add appends a non-nil error.
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Combined returns nil, the single error, or the MultiError.
func (m *MultiError) Combined() error {
	switch len(m.Errors) {
	case 0:
		return nil
	case 1:
		return m.Errors[0]
	default:
		return m
	}
}
