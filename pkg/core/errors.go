package core

import (
	"errors"
	"fmt"
)

// Error is the canonical error carried across the session core.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Device  string    `json:"device,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Device != "" {
		return fmt.Sprintf("%s: %s (device: %s)", e.Type, e.Message, e.Device)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes errors.
type ErrorType string

const (
	// ErrPermissionDenied means capture hardware access was refused.
	ErrPermissionDenied ErrorType = "permission_denied"
	// ErrDeviceUnavailable means no usable capture or playback device exists.
	ErrDeviceUnavailable ErrorType = "device_unavailable"
	// ErrConnection is a transport open or runtime failure; fatal to the session.
	ErrConnection ErrorType = "connection_error"
	// ErrDecode is a malformed inbound media payload; the chunk is dropped.
	ErrDecode ErrorType = "decode_error"
	// ErrEncode is an unreadable outbound frame; the frame is dropped.
	ErrEncode ErrorType = "encode_error"
	// ErrState is an operation attempted in an invalid session state.
	ErrState ErrorType = "state_error"
)

// NewPermissionDeniedError creates a capture permission error.
func NewPermissionDeniedError(message string) *Error {
	return &Error{
		Type:    ErrPermissionDenied,
		Message: message,
	}
}

// NewDeviceUnavailableError creates a device acquisition error.
func NewDeviceUnavailableError(device string, underlying error) *Error {
	return &Error{
		Type:    ErrDeviceUnavailable,
		Message: fmt.Sprintf("device unavailable: %v", underlying),
		Device:  device,
		Cause:   underlying,
	}
}

// NewConnectionError creates a transport error.
func NewConnectionError(message string, underlying error) *Error {
	return &Error{
		Type:    ErrConnection,
		Message: message,
		Cause:   underlying,
	}
}

// NewDecodeError creates an inbound payload error.
func NewDecodeError(message string, underlying error) *Error {
	return &Error{
		Type:    ErrDecode,
		Message: message,
		Cause:   underlying,
	}
}

// NewEncodeError creates an outbound frame error.
func NewEncodeError(message string, underlying error) *Error {
	return &Error{
		Type:    ErrEncode,
		Message: message,
		Cause:   underlying,
	}
}

// NewStateError creates an invalid-state error.
func NewStateError(message string) *Error {
	return &Error{
		Type:    ErrState,
		Message: message,
	}
}

// IsFatal reports whether the error ends the session. Per-chunk media
// failures are absorbed by the streaming path; everything else is not.
func (e *Error) IsFatal() bool {
	switch e.Type {
	case ErrDecode, ErrEncode:
		return false
	default:
		return true
	}
}

// TypeOf returns the ErrorType of err, or "" when err is not a *core.Error.
func TypeOf(err error) ErrorType {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr.Type
	}
	return ""
}
