package errors

import (
	"fmt"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryTracking    Category = "tracking"
	CategoryConsistency Category = "consistency"
	CategoryEngine      Category = "engine"
	CategoryConfig      Category = "config"
)

// Error is a structured error with a registered code, the tag and frame it
// concerns, and a hint on how to fix the call site.
type Error struct {
	// Code is a unique error identifier (e.g., "T001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Subject names the tag, cache or collection key involved, if known.
	Subject string

	// Depth is the frame stack depth at the point of detection.
	// Zero means no frame was open.
	Depth int

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error

	// also lists extra codes this error matches under errors.Is.
	also []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Subject != "" {
		fmt.Fprintf(&b, " (tag %s", e.Subject)
		if e.Depth > 0 {
			fmt.Fprintf(&b, ", frame depth %d", e.Depth)
		}
		b.WriteString(")")
	} else if e.Depth > 0 {
		fmt.Fprintf(&b, " (frame depth %d)", e.Depth)
	}
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an *Error with the same code, or with one of
// the codes this error refines.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code == "" {
		return false
	}
	if t.Code == e.Code {
		return true
	}
	for _, c := range e.also {
		if c == t.Code {
			return true
		}
	}
	return false
}

// WithSubject records the tag or key involved.
func (e *Error) WithSubject(s string) *Error {
	e.Subject = s
	return e
}

// WithDepth records the frame depth at detection.
func (e *Error) WithDepth(d int) *Error {
	e.Depth = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Refines marks e as a more specific form of the error registered under
// code, so errors.Is matches both.
func (e *Error) Refines(code string) *Error {
	e.also = append(e.also, code)
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an Error.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	if te, ok := err.(*Error); ok {
		return te
	}
	return New(code).Wrap(err)
}
