package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/estatedesk/buyerleads/internal/schema"
)

// ============================================================================
// Test Fakes
// ============================================================================

// fakeRepo is an in-memory BuyerRepository with the same concurrency
// semantics as the Postgres implementation: Update only writes when the
// stored updated_at equals the expected token.
type fakeRepo struct {
	buyers map[uuid.UUID]schema.Buyer

	createErr error
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{buyers: make(map[uuid.UUID]schema.Buyer)}
}

func (r *fakeRepo) Create(ctx context.Context, b *schema.Buyer) error {
	if r.createErr != nil {
		return r.createErr
	}
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	r.buyers[b.ID] = *b
	return nil
}

func (r *fakeRepo) CreateBatch(ctx context.Context, buyers []*schema.Buyer) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, b := range buyers {
		if err := r.Create(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (schema.Buyer, error) {
	b, ok := r.buyers[id]
	if !ok {
		return schema.Buyer{}, ErrNotFound
	}
	return b, nil
}

func (r *fakeRepo) GetOwned(ctx context.Context, id uuid.UUID, ownerID string) (schema.Buyer, error) {
	b, ok := r.buyers[id]
	if !ok || b.OwnerID != ownerID {
		return schema.Buyer{}, ErrNotFound
	}
	return b, nil
}

func (r *fakeRepo) List(ctx context.Context, f ListFilter, page int) ([]schema.Buyer, int64, error) {
	all, _ := r.ListAll(ctx, f)
	return all, int64(len(all)), nil
}

func (r *fakeRepo) ListAll(ctx context.Context, f ListFilter) ([]schema.Buyer, error) {
	out := make([]schema.Buyer, 0, len(r.buyers))
	for _, b := range r.buyers {
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeRepo) Update(ctx context.Context, id uuid.UUID, ownerID string, expected time.Time, lead schema.Lead) (schema.Buyer, error) {
	if r.updateErr != nil {
		return schema.Buyer{}, r.updateErr
	}
	b, ok := r.buyers[id]
	if !ok || b.OwnerID != ownerID || !b.UpdatedAt.Equal(expected) {
		return schema.Buyer{}, ErrConflict
	}
	b.Lead = lead
	b.UpdatedAt = b.UpdatedAt.Add(time.Millisecond)
	r.buyers[id] = b
	return b, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	b, ok := r.buyers[id]
	if !ok || b.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(r.buyers, id)
	return nil
}

// fakeRecorder captures history appends.
type fakeRecorder struct {
	records []recordedEntry
	batches []recordedBatch

	recordErr error
}

type recordedEntry struct {
	buyerID uuid.UUID
	actorID string
	diff    Diff
}

type recordedBatch struct {
	buyerIDs []uuid.UUID
	actorID  string
	diff     Diff
}

func (f *fakeRecorder) Record(ctx context.Context, buyerID uuid.UUID, actorID string, diff Diff) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.records = append(f.records, recordedEntry{buyerID, actorID, diff})
	return nil
}

func (f *fakeRecorder) RecordBatch(ctx context.Context, buyerIDs []uuid.UUID, actorID string, diff Diff) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.batches = append(f.batches, recordedBatch{buyerIDs, actorID, diff})
	return nil
}

func (f *fakeRecorder) ListForBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	for _, rec := range f.records {
		if rec.buyerID == buyerID {
			entries = append(entries, HistoryEntry{BuyerID: buyerID, ChangedBy: rec.actorID})
		}
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func validCandidate() schema.Candidate {
	min := int64(5000000)
	max := int64(7000000)
	return schema.Candidate{
		FullName:     "Asha Verma",
		Email:        "asha@example.com",
		Phone:        "9876543210",
		City:         "Chandigarh",
		PropertyType: "Apartment",
		BHK:          "2",
		Purpose:      "Buy",
		BudgetMin:    &min,
		BudgetMax:    &max,
		Timeline:     "0-3m",
		Source:       "Website",
		Notes:        "prefers corner unit",
		Tags:         []string{"hot"},
	}
}

func newTestService() (*Service, *fakeRepo, *fakeRecorder) {
	repo := newFakeRepo()
	rec := &fakeRecorder{}
	return NewService(repo, rec), repo, rec
}

// ============================================================================
// Create Tests
// ============================================================================

func TestCreate(t *testing.T) {
	svc, repo, rec := newTestService()

	buyer, err := svc.Create(context.Background(), "user-1", validCandidate())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if buyer.ID == uuid.Nil {
		t.Error("Create() did not assign an id")
	}
	if buyer.OwnerID != "user-1" {
		t.Errorf("OwnerID = %q, want user-1", buyer.OwnerID)
	}
	if buyer.Status != schema.StatusNew {
		t.Errorf("Status = %q, want New", buyer.Status)
	}
	if len(repo.buyers) != 1 {
		t.Errorf("stored %d buyers, want 1", len(repo.buyers))
	}
	if len(rec.records) != 1 {
		t.Fatalf("recorded %d history entries, want 1", len(rec.records))
	}
	if rec.records[0].buyerID != buyer.ID || rec.records[0].actorID != "user-1" {
		t.Errorf("history entry = %+v, want buyer %s by user-1", rec.records[0], buyer.ID)
	}
}

func TestCreate_RequiresActor(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.Create(context.Background(), "", validCandidate())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Create() error = %v, want ErrUnauthorized", err)
	}
	if len(repo.buyers) != 0 {
		t.Error("unauthorized create wrote to the store")
	}
}

func TestCreate_ValidationFailure(t *testing.T) {
	svc, repo, rec := newTestService()

	cand := validCandidate()
	cand.FullName = "A"
	cand.Phone = "12"

	_, err := svc.Create(context.Background(), "user-1", cand)

	var fieldErrs ValidationErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("Create() error = %v, want ValidationErrors", err)
	}
	if len(fieldErrs) < 2 {
		t.Errorf("collected %d field errors, want at least 2", len(fieldErrs))
	}
	if len(repo.buyers) != 0 {
		t.Error("invalid create wrote to the store")
	}
	if len(rec.records) != 0 {
		t.Error("invalid create recorded history")
	}
}

func TestCreate_HistoryFailureDoesNotFailCreate(t *testing.T) {
	svc, repo, rec := newTestService()
	rec.recordErr = errors.New("history table unavailable")

	buyer, err := svc.Create(context.Background(), "user-1", validCandidate())
	if err != nil {
		t.Fatalf("Create() error = %v, want nil despite history failure", err)
	}
	if _, ok := repo.buyers[buyer.ID]; !ok {
		t.Error("buyer not persisted")
	}
}

// ============================================================================
// Update Tests
// ============================================================================

func TestUpdate_FreshToken(t *testing.T) {
	svc, _, rec := newTestService()

	created, err := svc.Create(context.Background(), "user-1", validCandidate())
	if err != nil {
		t.Fatal(err)
	}

	cand := validCandidate()
	cand.Status = "Qualified"
	token := created.UpdatedAt

	updated, err := svc.Update(context.Background(), "user-1", created.ID, cand, &token)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != schema.StatusQualified {
		t.Errorf("Status = %q, want Qualified", updated.Status)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Error("UpdatedAt did not advance after update")
	}
	if len(rec.records) != 2 {
		t.Errorf("recorded %d history entries, want 2 (create + update)", len(rec.records))
	}
}

func TestUpdate_StaleTokenConflicts(t *testing.T) {
	svc, repo, _ := newTestService()

	created, err := svc.Create(context.Background(), "user-1", validCandidate())
	if err != nil {
		t.Fatal(err)
	}

	stale := created.UpdatedAt.Add(-time.Minute)
	cand := validCandidate()
	cand.Status = "Dropped"

	_, err = svc.Update(context.Background(), "user-1", created.ID, cand, &stale)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Update() error = %v, want ErrConflict", err)
	}
	if got := repo.buyers[created.ID].Status; got != schema.StatusNew {
		t.Errorf("stale update wrote status %q", got)
	}
}

func TestUpdate_NilTokenSkipsCheck(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.Create(context.Background(), "user-1", validCandidate())
	if err != nil {
		t.Fatal(err)
	}

	cand := validCandidate()
	cand.Notes = "updated without a token"

	updated, err := svc.Update(context.Background(), "user-1", created.ID, cand, nil)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Notes != "updated without a token" {
		t.Errorf("Notes = %q", updated.Notes)
	}
}

func TestUpdate_NonOwnerIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.Create(context.Background(), "user-1", validCandidate())
	if err != nil {
		t.Fatal(err)
	}

	token := created.UpdatedAt
	_, err = svc.Update(context.Background(), "user-2", created.ID, validCandidate(), &token)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() by non-owner error = %v, want ErrNotFound", err)
	}
}

func TestUpdate_MissingRecordIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Update(context.Background(), "user-1", uuid.New(), validCandidate(), nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() on missing record error = %v, want ErrNotFound", err)
	}
}

func TestUpdate_ValidationRunsAfterConcurrencyCheck(t *testing.T) {
	svc, repo, _ := newTestService()

	created, err := svc.Create(context.Background(), "user-1", validCandidate())
	if err != nil {
		t.Fatal(err)
	}

	// A stale token must short-circuit before validation.
	stale := created.UpdatedAt.Add(-time.Minute)
	bad := schema.Candidate{}
	_, err = svc.Update(context.Background(), "user-1", created.ID, bad, &stale)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict before validation", err)
	}

	// With a fresh token the same candidate fails validation.
	token := created.UpdatedAt
	_, err = svc.Update(context.Background(), "user-1", created.ID, bad, &token)
	var fieldErrs ValidationErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("error = %v, want ValidationErrors", err)
	}
	if got := repo.buyers[created.ID].FullName; got != "Asha Verma" {
		t.Errorf("invalid update wrote full name %q", got)
	}
}

// ============================================================================
// Delete Tests
// ============================================================================

func TestDelete(t *testing.T) {
	svc, repo, rec := newTestService()

	created, err := svc.Create(context.Background(), "user-1", validCandidate())
	if err != nil {
		t.Fatal(err)
	}
	before := len(rec.records)

	if err := svc.Delete(context.Background(), "user-1", created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := repo.buyers[created.ID]; ok {
		t.Error("buyer still in store after delete")
	}
	if len(rec.records) != before {
		t.Error("delete recorded a history entry")
	}
}

func TestDelete_NonOwnerIsNotFound(t *testing.T) {
	svc, repo, _ := newTestService()

	created, err := svc.Create(context.Background(), "user-1", validCandidate())
	if err != nil {
		t.Fatal(err)
	}

	err = svc.Delete(context.Background(), "user-2", created.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() by non-owner error = %v, want ErrNotFound", err)
	}
	if _, ok := repo.buyers[created.ID]; !ok {
		t.Error("non-owner delete removed the record")
	}
}

func TestDelete_RequiresActor(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.Delete(context.Background(), "", uuid.New())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Delete() error = %v, want ErrUnauthorized", err)
	}
}

// ============================================================================
// List Tests
// ============================================================================

func TestList_NormalizesPage(t *testing.T) {
	svc, _, _ := newTestService()

	result, err := svc.List(context.Background(), ListFilter{}, -3)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Page != 1 {
		t.Errorf("Page = %d, want 1", result.Page)
	}
	if result.PageSize != PageSize {
		t.Errorf("PageSize = %d, want %d", result.PageSize, PageSize)
	}
}
