// Package errors provides the unified error type and factory functions for
// qsarflow.  Every layer (domain, application, infrastructure, interfaces)
// uses AppError as the single carrier for structured error information, so
// that a failed ingestion run always surfaces one descriptive, stage-tagged
// message instead of a raw stack of wrapped strings.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

// captureStack returns a formatted call-stack string starting two frames above
// the caller (skipping captureStack itself and New/Wrap).
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		// Trim standard-library noise to keep traces readable.
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// AppError — the canonical error type
// ─────────────────────────────────────────────────────────────────────────────

// AppError is the single structured error type used throughout qsarflow.
// It satisfies the standard error interface and supports Go 1.13+ error
// wrapping so that errors.Is / errors.As / errors.Unwrap work transparently
// across all layers.
//
// Usage:
//
//	return errors.New(errors.CodeSDFileUnreadable, "cannot open input file")
//	return errors.Wrap(ioErr, errors.CodeStandardizeFailed, "standardization aborted")
//	return errors.InvalidParam("num_cpus must be positive").WithDetail("got -2")
type AppError struct {
	// Code is the typed error code that uniquely identifies the failure category.
	Code ErrorCode

	// Stage names the pipeline stage that produced the error ("standardize",
	// "ionize", "convert3d", "descriptors", "split", "consolidate").  Empty for
	// errors raised outside the workflow.
	Stage string

	// Message is the primary human-readable description of the error.
	Message string

	// Detail carries supplementary context (file paths, chunk indices, column
	// counts) that aids debugging without bloating the primary message.
	Detail string

	// Cause is the underlying error, enabling errors.Is / errors.As traversal.
	Cause error

	// Stack contains the formatted call-stack captured at the point of error
	// creation.  It is intentionally excluded from Error() output; structured
	// loggers that want it can read the field directly.
	Stack string
}

// Error implements the standard error interface.
// Format: "[<code>] <stage>: <message>: <detail>" with empty segments omitted.
func (e *AppError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s]", e.Code)
	if e.Stage != "" {
		sb.WriteString(" " + e.Stage + ":")
	}
	sb.WriteString(" " + e.Message)
	if e.Detail != "" {
		sb.WriteString(": " + e.Detail)
	}
	return sb.String()
}

// Unwrap returns the underlying cause error, enabling errors.Is and errors.As
// to traverse the full error chain.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ─────────────────────────────────────────────────────────────────────────────
// Fluent builder methods
// ─────────────────────────────────────────────────────────────────────────────

// WithDetail returns a shallow copy of the receiver with Detail set.
// It is safe to call on a nil pointer (returns nil).
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithStage returns a shallow copy of the receiver tagged with the named
// pipeline stage.  The workflow orchestrator applies this to every error
// that crosses a stage boundary so the final message identifies where the
// run stopped.
func (e *AppError) WithStage(stage string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Stage = stage
	return &clone
}

// WithCause returns a shallow copy of the receiver with Cause set to err.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// ─────────────────────────────────────────────────────────────────────────────
// Primary factory functions
// ─────────────────────────────────────────────────────────────────────────────

// New constructs a fresh AppError with the given code and message.
// A call-stack snapshot is captured automatically.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Newf constructs a fresh AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(1),
	}
}

// Wrap constructs an AppError that wraps an existing error.
// If err is nil, Wrap returns nil so it can be used inline.
//
// When err is already an *AppError and code is CodeUnknown the original code
// (and stage tag) are preserved, preventing loss of the original
// classification during cross-layer propagation.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	stage := ""
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
			stage = ae.Stage
		}
	}
	return &AppError{
		Code:    code,
		Stage:   stage,
		Message: message,
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// WithStage tags err with the named pipeline stage and returns the result.
// An *AppError is cloned with the stage set; any other error is promoted to
// an AppError that wraps it.  Returns nil for a nil err.
func WithStage(err error, stage string) error {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AppError); ok {
		return ae.WithStage(stage)
	}
	return &AppError{
		Code:    GetCode(err),
		Stage:   stage,
		Message: err.Error(),
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Error-chain inspection helpers
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether any error in err's chain is an *AppError with the
// given code:
//
//	if errors.IsCode(err, errors.CodeShapeMismatch) { ... }
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the ErrorCode from the first *AppError found in err's
// chain.  If no *AppError is present, CodeUnknown is returned.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// GetStage extracts the stage tag from the first *AppError in err's chain
// that carries one.  Returns "" when no stage is recorded.
func GetStage(err error) string {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Stage != "" {
			return ae.Stage
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// ─────────────────────────────────────────────────────────────────────────────
// Convenience factory functions
// ─────────────────────────────────────────────────────────────────────────────

// InvalidParam constructs a CodeInvalidParam AppError.
func InvalidParam(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidParam,
		Message: message,
		Stack:   captureStack(1),
	}
}

// NotFound constructs a CodeNotFound AppError.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Internal constructs a CodeInternal AppError.  Use this for unexpected
// failures where no more specific code applies.
func Internal(message string) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Stack:   captureStack(1),
	}
}
