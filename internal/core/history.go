package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estatedesk/buyerleads/internal/schema"
)

// Actions recorded in a history diff.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionImported = "imported"
)

// HistoryLimit is how many entries the read-only history projection shows
// per buyer.
const HistoryLimit = 5

// HistoryEntry is an immutable audit record for one mutation of a buyer.
// Entries are written exactly once and never updated or deleted.
type HistoryEntry struct {
	ID        uuid.UUID       `json:"id"`
	BuyerID   uuid.UUID       `json:"buyerId"`
	ChangedBy string          `json:"changedBy"`
	ChangedAt time.Time       `json:"changedAt"`
	Diff      json.RawMessage `json:"diff"`
}

// Diff is the structured payload of a history entry. It always carries an
// "action" key; updates add a "changes" map of per-field before/after
// pairs.
type Diff map[string]interface{}

// HistoryRecorder appends audit entries. Recording is fire-and-forget
// relative to the triggering mutation: the mutation service logs a failed
// append but never rolls back the committed buyer write because of it.
type HistoryRecorder interface {
	Record(ctx context.Context, buyerID uuid.UUID, actorID string, diff Diff) error
	RecordBatch(ctx context.Context, buyerIDs []uuid.UUID, actorID string, diff Diff) error
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]HistoryEntry, error)
}

type pgHistoryRecorder struct {
	pool *pgxpool.Pool
}

// NewHistoryRecorder creates a Postgres-backed history recorder.
func NewHistoryRecorder(pool *pgxpool.Pool) HistoryRecorder {
	return &pgHistoryRecorder{pool: pool}
}

func (r *pgHistoryRecorder) Record(ctx context.Context, buyerID uuid.UUID, actorID string, diff Diff) error {
	payload, err := json.Marshal(diff)
	if err != nil {
		return fmt.Errorf("marshal history diff: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		"INSERT INTO buyer_history (buyer_id, changed_by, diff) VALUES ($1, $2, $3)",
		buyerID, actorID, payload)
	if err != nil {
		return &PersistenceError{Op: "record history", Err: err}
	}
	return nil
}

// RecordBatch appends one entry per buyer with a shared diff, in a single
// statement. Used by the import pipeline.
func (r *pgHistoryRecorder) RecordBatch(ctx context.Context, buyerIDs []uuid.UUID, actorID string, diff Diff) error {
	if len(buyerIDs) == 0 {
		return nil
	}

	payload, err := json.Marshal(diff)
	if err != nil {
		return fmt.Errorf("marshal history diff: %w", err)
	}

	// Chunked to stay under the statement parameter limit on very large
	// imports. No transaction: history appends are best-effort and the
	// caller logs rather than rolls back on failure.
	for start := 0; start < len(buyerIDs); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(buyerIDs) {
			end = len(buyerIDs)
		}
		chunk := buyerIDs[start:end]

		var sb strings.Builder
		sb.WriteString("INSERT INTO buyer_history (buyer_id, changed_by, diff) VALUES ")
		args := make([]interface{}, 0, len(chunk)*3)
		for i, id := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3)
			args = append(args, id, actorID, payload)
		}

		if _, err := r.pool.Exec(ctx, sb.String(), args...); err != nil {
			return &PersistenceError{Op: "record history batch", Err: err}
		}
	}
	return nil
}

// ListForBuyer returns the most recent entries for a buyer, newest first.
func (r *pgHistoryRecorder) ListForBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = HistoryLimit
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, buyer_id, changed_by, changed_at, diff FROM buyer_history
		 WHERE buyer_id = $1 ORDER BY changed_at DESC LIMIT $2`,
		buyerID, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "list history", Err: err}
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, limit)
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.BuyerID, &e.ChangedBy, &e.ChangedAt, &e.Diff); err != nil {
			return nil, &PersistenceError{Op: "scan history", Err: err}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CreatedDiff captures the full initial state of a new buyer.
func CreatedDiff(lead schema.Lead) Diff {
	return Diff{"action": ActionCreated, "changes": lead}
}

// ImportedDiff marks a row that arrived through the CSV pipeline.
func ImportedDiff() Diff {
	return Diff{"action": ActionImported, "source": "csv"}
}

// UpdatedDiff computes a field-level before/after diff between the
// pre-image loaded during the update protocol and the validated new state.
// Computing the diff server-side keeps history trustworthy regardless of
// what the caller knew.
func UpdatedDiff(before, after schema.Lead) Diff {
	changes := make(map[string]interface{})
	add := func(field string, from, to interface{}) {
		changes[field] = map[string]interface{}{"from": from, "to": to}
	}

	if before.FullName != after.FullName {
		add("fullName", before.FullName, after.FullName)
	}
	if before.Email != after.Email {
		add("email", before.Email, after.Email)
	}
	if before.Phone != after.Phone {
		add("phone", before.Phone, after.Phone)
	}
	if before.City != after.City {
		add("city", before.City, after.City)
	}
	if before.PropertyType != after.PropertyType {
		add("propertyType", before.PropertyType, after.PropertyType)
	}
	if before.BHK != after.BHK {
		add("bhk", before.BHK, after.BHK)
	}
	if before.Purpose != after.Purpose {
		add("purpose", before.Purpose, after.Purpose)
	}
	if !equalBudget(before.BudgetMin, after.BudgetMin) {
		add("budgetMin", budgetValue(before.BudgetMin), budgetValue(after.BudgetMin))
	}
	if !equalBudget(before.BudgetMax, after.BudgetMax) {
		add("budgetMax", budgetValue(before.BudgetMax), budgetValue(after.BudgetMax))
	}
	if before.Timeline != after.Timeline {
		add("timeline", before.Timeline, after.Timeline)
	}
	if before.Source != after.Source {
		add("source", before.Source, after.Source)
	}
	if before.Status != after.Status {
		add("status", before.Status, after.Status)
	}
	if before.Notes != after.Notes {
		add("notes", before.Notes, after.Notes)
	}
	if !equalTags(before.Tags, after.Tags) {
		add("tags", before.Tags, after.Tags)
	}

	return Diff{"action": ActionUpdated, "changes": changes}
}

func equalBudget(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func budgetValue(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// equalTags compares tag sets ignoring order; tags are set-like, so a
// reordering is not a change worth recording.
func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, t := range a {
		seen[t]++
	}
	for _, t := range b {
		if seen[t] == 0 {
			return false
		}
		seen[t]--
	}
	return true
}
