package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := NewConnectionError("dial failed", nil)
	want := "connection_error: dial failed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	devErr := NewDeviceUnavailableError("microphone", errors.New("busy"))
	if devErr.Device != "microphone" {
		t.Errorf("Device = %q, want microphone", devErr.Device)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewDecodeError("bad chunk", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	wrapped := fmt.Errorf("handling event: %w", err)
	var coreErr *Error
	if !errors.As(wrapped, &coreErr) {
		t.Fatal("errors.As should find *core.Error through wrapping")
	}
	if coreErr.Type != ErrDecode {
		t.Errorf("Type = %s, want %s", coreErr.Type, ErrDecode)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		err   *Error
		fatal bool
	}{
		{NewPermissionDeniedError("mic denied"), true},
		{NewDeviceUnavailableError("camera", errors.New("gone")), true},
		{NewConnectionError("closed", nil), true},
		{NewDecodeError("short payload", nil), false},
		{NewEncodeError("zero-dimension frame", nil), false},
	}
	for _, tt := range tests {
		if got := tt.err.IsFatal(); got != tt.fatal {
			t.Errorf("%s: IsFatal() = %v, want %v", tt.err.Type, got, tt.fatal)
		}
	}
}

func TestTypeOf(t *testing.T) {
	if got := TypeOf(NewEncodeError("x", nil)); got != ErrEncode {
		t.Errorf("TypeOf = %s, want %s", got, ErrEncode)
	}
	if got := TypeOf(errors.New("plain")); got != "" {
		t.Errorf("TypeOf(plain) = %q, want empty", got)
	}
}
