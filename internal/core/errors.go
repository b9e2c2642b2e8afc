// Package core provides the business logic for buyer lead management: the
// repository over the relational store, the mutation service with its
// optimistic-concurrency update protocol, the history recorder, and the
// CSV import/export pipeline.
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/estatedesk/buyerleads/internal/schema"
)

// Sentinel errors forming the mutation error taxonomy. Handlers map these
// to HTTP statuses; everything else surfaces as a persistence failure.
var (
	// ErrUnauthorized means the caller presented no valid identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound covers both "record does not exist" and "record is not
	// owned by the caller". The two cases are deliberately conflated so a
	// non-owner cannot probe for record existence.
	ErrNotFound = errors.New("buyer not found or access denied")

	// ErrConflict means the caller's updatedAt token is stale: the record
	// changed since it was last read. No write is performed.
	ErrConflict = errors.New("record changed, please refresh")

	// ErrNoValidRows means a CSV import produced zero insertable rows.
	ErrNoValidRows = errors.New("no valid rows found")
)

// ValidationErrors carries the collected field errors of a rejected
// candidate. It satisfies error so it can travel through the normal
// error-return path.
type ValidationErrors []schema.FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// PersistenceError wraps a store rejection with the operation that failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// UserMessage is a user-facing error with a support code. Users can quote
// the code to support staff for faster diagnosis.
type UserMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
}

// errorPattern maps a substring of a technical error to a user message.
// First match wins, so specific patterns come before generic ones.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"unauthorized", UserMessage{
		Code:    "AUTH001",
		Message: "Unauthorized",
		Action:  "Sign in and try again",
	}},
	{"not found or access denied", UserMessage{
		Code:    "LEAD001",
		Message: "Buyer not found or access denied",
		Action:  "Check the lead still exists in your list",
	}},
	{"record changed", UserMessage{
		Code:    "LEAD002",
		Message: "Record changed, please refresh",
		Action:  "Reload the lead and reapply your edits",
	}},
	{"validation failed", UserMessage{
		Code:    "VAL001",
		Message: "Validation failed",
		Action:  "Fix the highlighted fields and resubmit",
	}},
	{"no valid rows found", UserMessage{
		Code:    "IMP001",
		Message: "No valid rows found",
		Action:  "Fix the listed row errors and re-upload the file",
	}},
	{"duplicate key", UserMessage{
		Code:    "DB001",
		Message: "A record with this ID already exists",
		Action:  "Check for duplicate entries",
	}},
	{"invalid input value for enum", UserMessage{
		Code:    "DB002",
		Message: "A value is not in the allowed list",
		Action:  "Check enum columns (city, propertyType, status) for typos",
	}},
	{"connection refused", UserMessage{
		Code:    "DB003",
		Message: "Unable to reach the database",
		Action:  "Please try again in a few moments",
	}},
	{"timeout", UserMessage{
		Code:    "DB004",
		Message: "The operation timed out",
		Action:  "Please try again",
	}},
	{"context canceled", UserMessage{
		Code:    "DB005",
		Message: "The request was cancelled",
		Action:  "Please try again",
	}},
}

var defaultMessage = UserMessage{
	Code:    "ERR000",
	Message: "An unexpected error occurred",
	Action:  "Please try again; contact support if the problem persists",
}

// MapError translates a technical error into a user-facing message by
// pattern matching, falling back to a generic message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}
