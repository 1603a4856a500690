package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeContract, "catalog entry %d has no name", 3)

	if err.Code != ErrCodeContract {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeContract)
	}

	if err.Message != "catalog entry 3 has no name" {
		t.Errorf("Message = %v, want %v", err.Message, "catalog entry 3 has no name")
	}

	expected := "CONTRACT_VIOLATION: catalog entry 3 has no name"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrCodeTransport, cause, "GET %s", "https://example.com")

	if err.Code != ErrCodeTransport {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeTransport)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	want := "TRANSPORT: GET https://example.com: connection reset"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeNotFound, "x"), ErrCodeNotFound, true},
		{"different code", New(ErrCodeNotFound, "x"), ErrCodeTransport, false},
		{"wrapped with fmt", fmt.Errorf("stage: %w", New(ErrCodeParse, "x")), ErrCodeParse, true},
		{"plain error", errors.New("plain"), ErrCodeInternal, false},
		{"nil error", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeUnsupported, "json")); got != ErrCodeUnsupported {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeUnsupported)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode() = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvariant, "cache is empty")); got != "cache is empty" {
		t.Errorf("UserMessage() = %q, want %q", got, "cache is empty")
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage() = %q, want %q", got, "plain")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"usage", New(ErrCodeUsage, "bad limit"), ExitUsage},
		{"wrapped usage", fmt.Errorf("run: %w", New(ErrCodeUsage, "bad")), ExitUsage},
		{"contract", New(ErrCodeContract, "duplicate name"), ExitFatal},
		{"plain", errors.New("boom"), ExitFatal},
		{"canceled", fmt.Errorf("fetch: %w", context.Canceled), ExitInterrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
