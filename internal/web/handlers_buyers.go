package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/estatedesk/buyerleads/internal/auth"
	"github.com/estatedesk/buyerleads/internal/core"
	"github.com/estatedesk/buyerleads/internal/schema"
)

// updateRequest is the PUT body: the full candidate plus the concurrency
// token the client loaded the record with.
type updateRequest struct {
	schema.Candidate
	UpdatedAt *time.Time `json:"updatedAt"`
}

// handleCreate creates a buyer owned by the authenticated caller.
// POST /api/buyers
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		s.respondError(w, r, core.ErrUnauthorized)
		return
	}

	var cand schema.Candidate
	if err := json.NewDecoder(r.Body).Decode(&cand); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	buyer, err := s.service.Create(r.Context(), identity.ID, cand)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"success": true,
		"buyer":   buyer,
	})
}

// handleUpdate applies a full-record update guarded by the updatedAt
// concurrency token.
// PUT /api/buyers/{id}
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		s.respondError(w, r, core.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid buyer id")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	buyer, err := s.service.Update(r.Context(), identity.ID, id, req.Candidate, req.UpdatedAt)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"success": true,
		"buyer":   buyer,
	})
}

// handleDelete removes a buyer owned by the caller.
// DELETE /api/buyers/{id}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		s.respondError(w, r, core.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid buyer id")
		return
	}

	if err := s.service.Delete(r.Context(), identity.ID, id); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]interface{}{"success": true})
}

// handleGet fetches one buyer.
// GET /api/buyers/{id}
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid buyer id")
		return
	}

	buyer, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]interface{}{"buyer": buyer})
}

// handleList returns one page of buyers matching the query filters.
// GET /api/buyers?page=&search=&city=&propertyType=&status=&timeline=
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if p := q.Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}

	f := core.ListFilter{
		Search:       q.Get("search"),
		City:         q.Get("city"),
		PropertyType: q.Get("propertyType"),
		Status:       q.Get("status"),
		Timeline:     q.Get("timeline"),
	}

	result, err := s.service.List(r.Context(), f, page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handleHistory returns the most recent change entries for a buyer.
// GET /api/buyers/{id}/history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid buyer id")
		return
	}

	entries, err := s.service.History(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]interface{}{"history": entries})
}

// handleExport streams the full filtered set as CSV or XLSX.
// GET /api/buyers/export?format=csv|xlsx
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := core.ListFilter{
		Search:       q.Get("search"),
		City:         q.Get("city"),
		PropertyType: q.Get("propertyType"),
		Status:       q.Get("status"),
		Timeline:     q.Get("timeline"),
	}

	buyers, err := s.service.Export(r.Context(), f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	date := time.Now().Format("2006-01-02")

	switch q.Get("format") {
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="buyers-`+date+`.xlsx"`)
		if err := core.WriteXLSX(w, buyers); err != nil {
			s.respondError(w, r, err)
		}
	default:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="buyers-`+date+`.csv"`)
		if err := core.WriteCSV(w, buyers); err != nil {
			s.respondError(w, r, err)
		}
	}
}
