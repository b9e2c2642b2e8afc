package web

// errors.go maps service errors to HTTP responses.
//
// The flow: a handler gets an error from the service, calls
// s.respondError, the error is matched against the mutation taxonomy for
// a status code and mapped via core.MapError for a user-facing message
// with a support code. The technical error is logged with the request ID
// so support codes can be correlated with server logs.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/estatedesk/buyerleads/internal/core"
	"github.com/estatedesk/buyerleads/internal/logging"
	"github.com/estatedesk/buyerleads/internal/schema"
)

// ErrorResponse is the JSON error envelope. Details carries field errors
// for validation failures; Errors carries per-row messages for imports.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Action  string              `json:"action,omitempty"`
	Details []schema.FieldError `json:"details,omitempty"`
	Errors  []string            `json:"errors,omitempty"`
}

// respondError logs the technical error and writes the mapped user
// message with the status implied by the error taxonomy.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	logger.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	resp := ErrorResponse{
		Error:  userMsg.Message,
		Code:   userMsg.Code,
		Action: userMsg.Action,
	}

	var fieldErrs core.ValidationErrors
	if errors.As(err, &fieldErrs) {
		resp.Error = "Validation failed"
		resp.Details = fieldErrs
	}

	writeStatusJSON(w, status, resp)
}

// statusFor maps the mutation error taxonomy to HTTP status codes.
// Anything outside the taxonomy is a persistence or internal failure.
func statusFor(err error) int {
	var fieldErrs core.ValidationErrors
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &fieldErrs):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNoValidRows), errors.Is(err, core.ErrTooFewLines):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v and writes it with a 200 status.
func writeJSON(w http.ResponseWriter, v interface{}) {
	writeStatusJSON(w, http.StatusOK, v)
}

func writeStatusJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// badRequest writes a plain 400 with a literal message.
func badRequest(w http.ResponseWriter, message string) {
	writeStatusJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: "REQ001"})
}
