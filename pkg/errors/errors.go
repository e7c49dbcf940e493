package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeNavigation ErrorType = "navigation"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Phase names the batch step an error escaped from.
type Phase string

const (
	PhaseLaunch   Phase = "launch"
	PhaseAuth     Phase = "auth"
	PhaseNavigate Phase = "navigate"
	PhasePaginate Phase = "paginate"
	PhaseExtract  Phase = "extract"
	PhasePersist  Phase = "persist"
	PhaseMerge    Phase = "merge"
)

// Error is a classified failure carrying enough context for a manual retry.
type Error struct {
	Type    ErrorType
	Phase   Phase
	Profile string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Phase != "" {
		msg += fmt.Sprintf(" during %s", e.Phase)
	}
	if e.Profile != "" {
		msg += fmt.Sprintf(" for %s", e.Profile)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without a cause
func New(t ErrorType, phase Phase, message string) *Error {
	return &Error{Type: t, Phase: phase, Message: message}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(err error, t ErrorType, phase Phase, profile string) error {
	if err == nil {
		return nil
	}
	return &Error{Type: t, Phase: phase, Profile: profile, Err: err}
}

// TypeOf returns the type of the first classified error in err's chain.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err's chain contains an error of type t.
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsRetryable checks if an error type should be retried.
// Each batch starts a fresh browser session, so most batch failures are worth
// another attempt.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeAuth, ErrorTypeNavigation, ErrorTypeExtraction, ErrorTypeRateLimit, ErrorTypeUnknown:
		return true
	case ErrorTypeIO, ErrorTypeConfig:
		return false
	default:
		return false
	}
}

// IsRetryableError applies IsRetryable to err's classification.
func IsRetryableError(err error) bool {
	return err != nil && IsRetryable(TypeOf(err))
}
