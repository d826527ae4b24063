// Package errors provides structured error types for the eventlog tooling.
// All errors include a category, code, message, byte offset and retryable
// flag for consistent handling from the decoder up to the CLI.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryDecode   ErrorCategory = "DECODE"
	ErrCategorySource   ErrorCategory = "SOURCE"
	ErrCategoryCatalog  ErrorCategory = "CATALOG"
	ErrCategoryConfig   ErrorCategory = "CONFIG"
	ErrCategoryInternal ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Decode codes
	CodeTagMismatch      = "TAG_MISMATCH"
	CodeTruncatedInput   = "TRUNCATED_INPUT"
	CodeUnknownEventType = "UNKNOWN_EVENT_TYPE"
	CodeTrailingBytes    = "TRAILING_BYTES"

	// Source codes
	CodeObjectNotFound   = "OBJECT_NOT_FOUND"
	CodeReadFailed       = "READ_FAILED"
	CodeDecompressFailed = "DECOMPRESS_FAILED"

	// Catalog codes
	CodeWriteFailed = "WRITE_FAILED"

	// Config codes
	CodeInvalidConfig = "INVALID_CONFIG"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// NoOffset marks errors that are not tied to a position in a buffer.
const NoOffset = -1

// Sentinels for errors.Is matching on category and code.
var (
	ErrTagMismatch      = &EventlogError{Category: ErrCategoryDecode, Code: CodeTagMismatch, Offset: NoOffset}
	ErrTruncatedInput   = &EventlogError{Category: ErrCategoryDecode, Code: CodeTruncatedInput, Offset: NoOffset}
	ErrUnknownEventType = &EventlogError{Category: ErrCategoryDecode, Code: CodeUnknownEventType, Offset: NoOffset}
	ErrTrailingBytes    = &EventlogError{Category: ErrCategoryDecode, Code: CodeTrailingBytes, Offset: NoOffset}
	ErrObjectNotFound   = &EventlogError{Category: ErrCategorySource, Code: CodeObjectNotFound, Offset: NoOffset}
)

// EventlogError is the structured error type used throughout the system.
type EventlogError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Offset    int
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *EventlogError) Error() string {
	msg := e.Message
	if e.Offset != NoOffset {
		msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *EventlogError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *EventlogError) Is(target error) bool {
	var t *EventlogError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new EventlogError.
func New(category ErrorCategory, code, message string) *EventlogError {
	return &EventlogError{
		Category:  category,
		Code:      code,
		Message:   message,
		Offset:    NoOffset,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new EventlogError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *EventlogError {
	e := New(category, code, message)
	e.Cause = cause
	return e
}

// WithDetails returns a copy of the error with additional details.
func (e *EventlogError) WithDetails(details map[string]interface{}) *EventlogError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var ee *EventlogError
	if errors.As(err, &ee) {
		return ee.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not an EventlogError.
func GetCategory(err error) ErrorCategory {
	var ee *EventlogError
	if errors.As(err, &ee) {
		return ee.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not an EventlogError.
func GetCode(err error) string {
	var ee *EventlogError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// GetOffset extracts the buffer offset from an error chain.
func GetOffset(err error) (int, bool) {
	var ee *EventlogError
	if errors.As(err, &ee) && ee.Offset != NoOffset {
		return ee.Offset, true
	}
	return 0, false
}

// isRetryable determines if an error code is retryable. Only transient
// object-store reads qualify; malformed input never becomes well-formed.
func isRetryable(category ErrorCategory, code string) bool {
	return category == ErrCategorySource && code == CodeReadFailed
}

// Convenience constructors for common errors.

func NewDecodeError(code, message string, offset int) *EventlogError {
	e := New(ErrCategoryDecode, code, message)
	e.Offset = offset
	return e
}

func NewSourceError(code, message string, cause error) *EventlogError {
	return Wrap(ErrCategorySource, code, message, cause)
}

func NewCatalogError(code, message string, cause error) *EventlogError {
	return Wrap(ErrCategoryCatalog, code, message, cause)
}

func NewConfigError(message string) *EventlogError {
	return New(ErrCategoryConfig, CodeInvalidConfig, message)
}

func NewInternalError(message string, cause error) *EventlogError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
