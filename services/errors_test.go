package services

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppErrorMessageOnly(t *testing.T) {
	err := newValidationError("folder name is required")
	if got := err.Error(); got != "folder name is required" {
		t.Fatalf("unexpected message: %q", got)
	}
	if err.Kind != KindValidation {
		t.Fatalf("expected validation kind, got %s", err.Kind)
	}
	if err.HTTPCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", err.HTTPCode)
	}
}

func TestAppErrorWrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := newStorageError("failed to write file content", cause)

	if got := err.Error(); got != "failed to write file content: disk full" {
		t.Fatalf("unexpected message: %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the cause")
	}
}

func TestAppErrorNilReceiver(t *testing.T) {
	var err *AppError
	if err.Error() != "" {
		t.Fatal("nil receiver should format as empty string")
	}
	if err.Unwrap() != nil {
		t.Fatal("nil receiver should unwrap to nil")
	}
}

func TestLimitErrorCarriesData(t *testing.T) {
	err := newLimitError("share recipient limit reached", map[string]int{"max": 99})
	if err.Kind != KindLimitExceeded {
		t.Fatalf("expected limit kind, got %s", err.Kind)
	}
	if err.Data == nil {
		t.Fatal("expected data payload")
	}
}
