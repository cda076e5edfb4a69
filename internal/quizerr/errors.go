// Package quizerr defines the core's discriminated error kinds: a typed
// code, a human message, and an optional structured Details payload (a
// cycle path, an offending concept id), with Unwrap support so callers
// can still errors.Is/errors.As against the underlying cause.
package quizerr

import "fmt"

// Kind names one of the five error conditions the core can raise.
type Kind string

const (
	// CycleDetected is raised by knowledge graph construction.
	CycleDetected Kind = "CYCLE_DETECTED"
	// UnknownConcept is raised by scoring and graph queries when a
	// reference points at a concept absent from the graph.
	UnknownConcept Kind = "UNKNOWN_CONCEPT"
	// NoQuizAvailable is raised by selection under the "raise" fallback.
	NoQuizAvailable Kind = "NO_QUIZ_AVAILABLE"
	// StaleProfile is raised by the optional concurrency guard in
	// update_scores.
	StaleProfile Kind = "STALE_PROFILE"
	// InvalidPolicy is raised by policy table construction.
	InvalidPolicy Kind = "INVALID_POLICY"
)

// Error is the core's discriminated error value. It carries a Kind for
// programmatic dispatch, a human-readable Message, and optional Details
// (e.g. the cycle path or the offending concept id).
type Error struct {
	Kind    Kind
	Message string
	Details any
	Cause   error
}

func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("[%s] %s (details: %v)", e.Kind, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, quizerr.New(quizerr.UnknownConcept, "")); more
// conventionally callers use Has(err, kind) below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an *Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches structured context (a cycle path, an id) and
// returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// WithCause attaches an underlying error and returns e for chaining.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Has reports whether err is (or wraps) a *Error of the given kind.
func Has(err error, kind Kind) bool {
	for err != nil {
		if ce, ok := err.(*Error); ok {
			if ce.Kind == kind {
				return true
			}
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
