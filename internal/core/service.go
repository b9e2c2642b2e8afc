package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/estatedesk/buyerleads/internal/schema"
)

// Service orchestrates buyer mutations: validate, check the concurrency
// token, persist, record history. The identity of the acting user is an
// explicit argument on every mutation; there is no ambient current-user
// state.
type Service struct {
	repo    BuyerRepository
	history HistoryRecorder
}

// NewService wires a mutation service from its collaborators.
func NewService(repo BuyerRepository, history HistoryRecorder) *Service {
	return &Service{repo: repo, history: history}
}

// ListResult is one page of a filtered buyer listing. TotalCount is the
// size of the filtered set before pagination.
type ListResult struct {
	Buyers     []schema.Buyer `json:"buyers"`
	TotalCount int64          `json:"totalCount"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
}

// Create validates the candidate and inserts a new buyer owned by the
// actor. The paired history entry is appended after the insert commits; a
// failed append is logged, never unwound.
func (s *Service) Create(ctx context.Context, actorID string, cand schema.Candidate) (schema.Buyer, error) {
	if actorID == "" {
		return schema.Buyer{}, ErrUnauthorized
	}

	lead, fieldErrs := schema.Validate(cand)
	if len(fieldErrs) > 0 {
		return schema.Buyer{}, ValidationErrors(fieldErrs)
	}

	buyer := &schema.Buyer{OwnerID: actorID, Lead: lead}
	if err := s.repo.Create(ctx, buyer); err != nil {
		return schema.Buyer{}, err
	}

	if err := s.history.Record(ctx, buyer.ID, actorID, CreatedDiff(lead)); err != nil {
		slog.Error("history append failed after create", "buyer_id", buyer.ID, "error", err)
	}

	return *buyer, nil
}

// Update runs the buyer update protocol:
//
//  1. require a caller identity
//  2. load the record scoped to the caller as owner; a missing or
//     non-owned record is one indistinguishable ErrNotFound
//  3. compare the caller's updatedAt token (when supplied) against the
//     stored one; mismatch is ErrConflict and nothing is written
//  4. validate the candidate, collecting field errors
//  5. persist; the store assigns the new updatedAt
//  6. append a history entry with a field-level diff computed from the
//     pre-image loaded in step 2
//
// Steps 5 and 6 are sequential, not transactional: a history failure after
// a committed buyer write is logged and swallowed.
func (s *Service) Update(ctx context.Context, actorID string, id uuid.UUID, cand schema.Candidate, expectedUpdatedAt *time.Time) (schema.Buyer, error) {
	if actorID == "" {
		return schema.Buyer{}, ErrUnauthorized
	}

	current, err := s.repo.GetOwned(ctx, id, actorID)
	if err != nil {
		return schema.Buyer{}, err
	}

	if expectedUpdatedAt != nil && !expectedUpdatedAt.Equal(current.UpdatedAt) {
		return schema.Buyer{}, ErrConflict
	}

	lead, fieldErrs := schema.Validate(cand)
	if len(fieldErrs) > 0 {
		return schema.Buyer{}, ValidationErrors(fieldErrs)
	}

	updated, err := s.repo.Update(ctx, id, actorID, current.UpdatedAt, lead)
	if err != nil {
		return schema.Buyer{}, err
	}

	if err := s.history.Record(ctx, id, actorID, UpdatedDiff(current.Lead, lead)); err != nil {
		slog.Error("history append failed after update", "buyer_id", id, "error", err)
	}

	return updated, nil
}

// Delete removes a buyer owned by the actor. History entries for the
// deleted buyer are kept; deletion itself is not recorded.
func (s *Service) Delete(ctx context.Context, actorID string, id uuid.UUID) error {
	if actorID == "" {
		return ErrUnauthorized
	}
	return s.repo.Delete(ctx, id, actorID)
}

// Get fetches a single buyer by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (schema.Buyer, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns one page of buyers matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter, page int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	buyers, total, err := s.repo.List(ctx, f, page)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Buyers: buyers, TotalCount: total, Page: page, PageSize: PageSize}, nil
}

// History returns the most recent history entries for a buyer, newest
// first, capped at HistoryLimit.
func (s *Service) History(ctx context.Context, buyerID uuid.UUID) ([]HistoryEntry, error) {
	return s.history.ListForBuyer(ctx, buyerID, HistoryLimit)
}
