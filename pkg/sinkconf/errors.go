package sinkconf

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument reports malformed constructor input.
	ErrInvalidArgument = errors.New("sinkconf: invalid argument")
	// ErrUnknownSinkType reports a sink type with no registered variant.
	ErrUnknownSinkType = errors.New("sinkconf: unknown sink type")
	// ErrValidation matches any *ValidationError via errors.Is.
	ErrValidation = errors.New("sinkconf: validation failed")
)

// FieldError is one rule violation. Reason never quotes field values.
type FieldError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string { return e.Path + ": " + e.Reason }

// Violations is an ordered list of field errors.
type Violations []FieldError

// Add appends a violation.
func (v *Violations) Add(path, reason string) {
	*v = append(*v, FieldError{Path: path, Reason: reason})
}

// Addf appends a violation with a formatted reason.
func (v *Violations) Addf(path, format string, args ...any) {
	v.Add(path, fmt.Sprintf(format, args...))
}

// Paths lists the offending field paths in order.
func (v Violations) Paths() []string {
	out := make([]string, 0, len(v))
	for _, fe := range v {
		out = append(out, fe.Path)
	}
	return out
}

// Has reports whether path has at least one violation.
func (v Violations) Has(path string) bool {
	for _, fe := range v {
		if fe.Path == path {
			return true
		}
	}
	return false
}

// ValidationError is returned by Export when any rule fails.
type ValidationError struct {
	SinkType   SinkType
	Violations Violations
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, fe := range e.Violations {
		parts = append(parts, fe.Error())
	}
	return fmt.Sprintf("%s sink invalid: %s", e.SinkType, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validated wraps non-empty violations into a *ValidationError.
func Validated(t SinkType, v Violations) error {
	if len(v) == 0 {
		return nil
	}
	out := make(Violations, len(v))
	copy(out, v)
	return &ValidationError{SinkType: t, Violations: out}
}
