// Package core holds the error taxonomy shared by the pipeline packages.
package core

import (
	"errors"
	"fmt"
)

// Error is a pipeline error with a stable category.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorType categorizes errors.
type ErrorType string

const (
	// ErrDeviceUnavailable means the audio input device could not be opened
	// or was lost. Fatal: the pipeline cannot run without it.
	ErrDeviceUnavailable ErrorType = "device_unavailable"

	// ErrStreamFault is a transient read fault (overflow/underflow) on an
	// open audio stream. Recoverable: callers skip the frame and continue.
	ErrStreamFault ErrorType = "stream_fault"

	// ErrNoModelsConfigured means the wake-word detector was constructed
	// with an empty model set. Fatal at construction.
	ErrNoModelsConfigured ErrorType = "no_models_configured"

	// ErrClassification is a frame classification failure from a scoring or
	// VAD collaborator. Recoverable: treated as "not speech".
	ErrClassification ErrorType = "classification_failure"
)

// NewDeviceUnavailableError creates a fatal device error.
func NewDeviceUnavailableError(message string, err error) *Error {
	return &Error{Type: ErrDeviceUnavailable, Message: message, Err: err}
}

// NewStreamFaultError creates a recoverable stream read error.
func NewStreamFaultError(message string, err error) *Error {
	return &Error{Type: ErrStreamFault, Message: message, Err: err}
}

// NewNoModelsConfiguredError creates a fatal construction error.
func NewNoModelsConfiguredError(message string) *Error {
	return &Error{Type: ErrNoModelsConfigured, Message: message}
}

// NewClassificationError creates a recoverable classification error.
func NewClassificationError(message string, err error) *Error {
	return &Error{Type: ErrClassification, Message: message, Err: err}
}

// IsFatal returns true if the error should terminate the pipeline.
func (e *Error) IsFatal() bool {
	switch e.Type {
	case ErrDeviceUnavailable, ErrNoModelsConfigured:
		return true
	default:
		return false
	}
}

// IsType reports whether err is a pipeline Error of the given type.
func IsType(err error, t ErrorType) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Type == t
}

// IsFatal reports whether err is a pipeline Error that should terminate the
// process. Errors outside the taxonomy are treated as non-fatal.
func IsFatal(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.IsFatal()
}
