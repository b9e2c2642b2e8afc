package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/estatedesk/buyerleads/internal/auth"
	"github.com/estatedesk/buyerleads/internal/core"
)

// handleImport ingests a CSV file as an all-or-nothing batch. Rows that
// fail validation are reported per row; a batch with zero valid rows is
// rejected without writing anything.
// POST /api/buyers/import
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		s.respondError(w, r, core.ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)

	if err := r.ParseMultipartForm(s.cfg.Import.MaxFileSize); err != nil {
		badRequest(w, "file too large or malformed upload")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, "failed to read file")
		return
	}

	result, err := s.service.Import(r.Context(), identity.ID, data)
	switch {
	case errors.Is(err, core.ErrTooFewLines):
		badRequest(w, core.ErrTooFewLines.Error())
		return
	case errors.Is(err, core.ErrNoValidRows):
		writeStatusJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "No valid rows found",
			Code:   "IMP001",
			Errors: result.Errors,
		})
		return
	case err != nil:
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}
