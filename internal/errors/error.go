package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryServer Category = "server"
	CategoryConfig Category = "config"
	CategoryWatch  Category = "watch"
	CategoryCLI    Category = "cli"
)

// ServeError is a structured error with a code, detail, and fix suggestion.
type ServeError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (server, config, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ServeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ServeError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *ServeError) WithDetail(d string) *ServeError {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *ServeError) WithSuggestion(s string) *ServeError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *ServeError) Wrap(err error) *ServeError {
	e.Wrapped = err
	return e
}

// New creates a ServeError from a registered error code.
func New(code string) *ServeError {
	template, ok := registry[code]
	if !ok {
		return &ServeError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ServeError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new ServeError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *ServeError {
	return &ServeError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a ServeError.
func FromError(err error, code string) *ServeError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*ServeError); ok {
		return se
	}
	return New(code).Wrap(err)
}
