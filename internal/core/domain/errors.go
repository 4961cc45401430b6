// Package domain defines the core domain models for gatecam.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes have the form GC-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "GC-CAPT-4090")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface. Details and the cause, when set,
// follow the message.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true // Only check if it's a DomainError
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Capture errors (CAPT).
var (
	// ErrCaptureBusy indicates the caller gave up waiting for the capture slot.
	ErrCaptureBusy = NewDomainError("GC-CAPT-4090", "capture already in progress")

	// ErrCapturePublish indicates the capture command could not be published.
	ErrCapturePublish = NewDomainError("GC-CAPT-5020", "capture command publish failed")

	// ErrFragmentDecode indicates a chunk fragment or the reassembled payload
	// is not valid base64.
	ErrFragmentDecode = NewDomainError("GC-CAPT-4220", "fragment decode failed")

	// ErrPhotoWrite indicates the reassembled photo could not be persisted.
	ErrPhotoWrite = NewDomainError("GC-CAPT-5001", "photo write failed")
)

// Protocol errors (PROT).
var (
	// ErrMessageMalformed indicates an inbound message body could not be parsed.
	ErrMessageMalformed = NewDomainError("GC-PROT-4000", "malformed message")

	// ErrUnknownTopic indicates a message arrived on a topic outside the topic set.
	ErrUnknownTopic = NewDomainError("GC-PROT-4040", "unknown topic")
)

// Audit errors (AUDT).
var (
	// ErrAuditWrite indicates an audit record could not be appended.
	ErrAuditWrite = NewDomainError("GC-AUDT-5001", "audit write failed")

	// ErrAuditRead indicates the audit log could not be scanned.
	ErrAuditRead = NewDomainError("GC-AUDT-5002", "audit read failed")
)

// Access errors (ACCS).
var (
	// ErrAllowlistLoad indicates the authorized UID file could not be loaded.
	ErrAllowlistLoad = NewDomainError("GC-ACCS-5001", "allowlist load failed")

	// ErrEmptyUID indicates a card read produced no UID.
	ErrEmptyUID = NewDomainError("GC-ACCS-4000", "empty card uid")

	// ErrRelay indicates the relay could not be driven.
	ErrRelay = NewDomainError("GC-ACCS-5030", "relay actuation failed")
)

// Argument errors (ARG).
var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("GC-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("GC-ARG-1002", "missing required argument")
)
