package core

import (
	"errors"
	"fmt"
	"testing"
)

// ============================================================================
// MapError Tests
// ============================================================================

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"unauthorized", ErrUnauthorized, "AUTH001"},
		{"not found", ErrNotFound, "LEAD001"},
		{"conflict", ErrConflict, "LEAD002"},
		{"validation", ValidationErrors{{Field: "phone", Message: "Phone must be 10-15 digits"}}, "VAL001"},
		{"no valid rows", ErrNoValidRows, "IMP001"},
		{"duplicate key", errors.New(`ERROR: duplicate key value violates unique constraint "buyers_pkey"`), "DB001"},
		{"bad enum", errors.New(`ERROR: invalid input value for enum city: "Delhi"`), "DB002"},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), "DB003"},
		{"timeout", errors.New("ERROR: canceling statement due to statement timeout"), "DB004"},
		{"context canceled", errors.New("context canceled"), "DB005"},
		{"unknown", errors.New("something else entirely"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
			if got.Message == "" {
				t.Error("empty user message")
			}
		})
	}
}

func TestMapError_Wrapped(t *testing.T) {
	// Mapping is by message substring, so wrapping must not hide the match.
	err := &PersistenceError{Op: "create buyer", Err: fmt.Errorf("write: %w", errors.New("connection refused"))}
	if got := MapError(err); got.Code != "DB003" {
		t.Errorf("MapError(wrapped).Code = %q, want DB003", got.Code)
	}
}

func TestMapError_Nil(t *testing.T) {
	if got := MapError(nil); got.Code != "" {
		t.Errorf("MapError(nil) = %+v, want zero value", got)
	}
}

// ============================================================================
// Error Type Tests
// ============================================================================

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "fullName", Message: "Full name must be at least 2 characters"},
		{Field: "phone", Message: "Phone must be 10-15 digits"},
	}
	got := errs.Error()
	want := "validation failed: fullName: Full name must be at least 2 characters; phone: Phone must be 10-15 digits"
	if got != want {
		t.Errorf("Error() = %q\nwant      %q", got, want)
	}
}

func TestValidationErrors_Empty(t *testing.T) {
	if got := (ValidationErrors{}).Error(); got != "validation failed" {
		t.Errorf("Error() = %q", got)
	}
}

func TestPersistenceError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &PersistenceError{Op: "list buyers", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("Unwrap chain broken")
	}
	if err.Error() != "list buyers: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
}
