package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estatedesk/buyerleads/internal/schema"
)

// BuyerRepository is the persistence boundary for buyer records. All reads
// and writes go straight to the store; there is no caching layer. Writes
// that must be owner-scoped take the owner identity and treat a non-owned
// row the same as a missing one.
type BuyerRepository interface {
	Create(ctx context.Context, b *schema.Buyer) error
	CreateBatch(ctx context.Context, buyers []*schema.Buyer) error
	GetByID(ctx context.Context, id uuid.UUID) (schema.Buyer, error)
	GetOwned(ctx context.Context, id uuid.UUID, ownerID string) (schema.Buyer, error)
	List(ctx context.Context, f ListFilter, page int) ([]schema.Buyer, int64, error)
	ListAll(ctx context.Context, f ListFilter) ([]schema.Buyer, error)
	Update(ctx context.Context, id uuid.UUID, ownerID string, expected time.Time, lead schema.Lead) (schema.Buyer, error)
	Delete(ctx context.Context, id uuid.UUID, ownerID string) error
}

const buyerColumns = `id, owner_id, full_name, email, phone, city, property_type, bhk,
	purpose, budget_min, budget_max, timeline, source, status, notes, tags,
	created_at, updated_at`

// pgBuyerRepository implements BuyerRepository against Postgres.
type pgBuyerRepository struct {
	pool *pgxpool.Pool
}

// NewBuyerRepository creates a Postgres-backed buyer repository.
func NewBuyerRepository(pool *pgxpool.Pool) BuyerRepository {
	return &pgBuyerRepository{pool: pool}
}

func (r *pgBuyerRepository) Create(ctx context.Context, b *schema.Buyer) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	query := `INSERT INTO buyers (id, owner_id, full_name, email, phone, city,
			property_type, bhk, purpose, budget_min, budget_max, timeline, source,
			status, notes, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, buyerInsertArgs(b)...).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return &PersistenceError{Op: "create buyer", Err: err}
	}
	return nil
}

const insertFieldsPerRow = 16

// insertChunkSize bounds rows per INSERT statement. Postgres allows at
// most 65535 bind parameters per statement; 4000 rows * 16 fields stays
// under that with room to spare.
const insertChunkSize = 4000

// CreateBatch inserts all rows inside one transaction, chunked to stay
// under the statement parameter limit, so a bulk import either lands
// completely or not at all.
func (r *pgBuyerRepository) CreateBatch(ctx context.Context, buyers []*schema.Buyer) error {
	if len(buyers) == 0 {
		return nil
	}

	for _, b := range buyers {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return &PersistenceError{Op: "batch insert buyers", Err: err}
	}
	defer tx.Rollback(ctx)

	for start := 0; start < len(buyers); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(buyers) {
			end = len(buyers)
		}
		chunk := buyers[start:end]

		args := make([]interface{}, 0, len(chunk)*insertFieldsPerRow)
		for _, b := range chunk {
			args = append(args, buyerInsertArgs(b)...)
		}
		if _, err := tx.Exec(ctx, batchInsertSQL(len(chunk)), args...); err != nil {
			return &PersistenceError{Op: "batch insert buyers", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &PersistenceError{Op: "batch insert buyers", Err: err}
	}
	return nil
}

// batchInsertSQL builds a multi-row INSERT statement for n buyers.
func batchInsertSQL(n int) string {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO buyers (id, owner_id, full_name, email, phone, city,
		property_type, bhk, purpose, budget_min, budget_max, timeline, source,
		status, notes, tags) VALUES `)

	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < insertFieldsPerRow; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*insertFieldsPerRow+j+1)
		}
		sb.WriteString(")")
	}
	return sb.String()
}

func (r *pgBuyerRepository) GetByID(ctx context.Context, id uuid.UUID) (schema.Buyer, error) {
	query := fmt.Sprintf("SELECT %s FROM buyers WHERE id = $1", buyerColumns)
	b, err := scanBuyer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schema.Buyer{}, ErrNotFound
		}
		return schema.Buyer{}, &PersistenceError{Op: "get buyer", Err: err}
	}
	return b, nil
}

// GetOwned fetches a buyer scoped to its owner. A row owned by someone
// else is reported as ErrNotFound, identical to a missing row.
func (r *pgBuyerRepository) GetOwned(ctx context.Context, id uuid.UUID, ownerID string) (schema.Buyer, error) {
	query := fmt.Sprintf("SELECT %s FROM buyers WHERE id = $1 AND owner_id = $2", buyerColumns)
	b, err := scanBuyer(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schema.Buyer{}, ErrNotFound
		}
		return schema.Buyer{}, &PersistenceError{Op: "get owned buyer", Err: err}
	}
	return b, nil
}

// List returns one page of buyers matching the filter, most recently
// updated first, plus the total count of the filtered set.
func (r *pgBuyerRepository) List(ctx context.Context, f ListFilter, page int) ([]schema.Buyer, int64, error) {
	wb := NewWhereBuilder()
	wb.AddFilter(f)
	whereClause, args := wb.Build()

	var total int64
	countQuery := "SELECT COUNT(*) FROM buyers" + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, &PersistenceError{Op: "count buyers", Err: err}
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * PageSize

	query := fmt.Sprintf("SELECT %s FROM buyers%s ORDER BY updated_at DESC LIMIT %d OFFSET %d",
		buyerColumns, whereClause, PageSize, offset)

	buyers, err := r.queryBuyers(ctx, query, args)
	if err != nil {
		return nil, 0, &PersistenceError{Op: "list buyers", Err: err}
	}
	return buyers, total, nil
}

// ListAll returns every buyer matching the filter, unpaginated. Used by
// the export path.
func (r *pgBuyerRepository) ListAll(ctx context.Context, f ListFilter) ([]schema.Buyer, error) {
	wb := NewWhereBuilder()
	wb.AddFilter(f)
	whereClause, args := wb.Build()

	query := fmt.Sprintf("SELECT %s FROM buyers%s ORDER BY updated_at DESC", buyerColumns, whereClause)
	buyers, err := r.queryBuyers(ctx, query, args)
	if err != nil {
		return nil, &PersistenceError{Op: "export buyers", Err: err}
	}
	return buyers, nil
}

// Update writes the validated lead fields and bumps updated_at. The WHERE
// clause carries the expected updated_at token, so a concurrent writer
// that slipped in after the caller's read makes this a no-op; that case
// surfaces as ErrConflict. A vanished or reassigned row also matches zero
// rows, which the mutation service has already ruled out by loading the
// record first.
func (r *pgBuyerRepository) Update(ctx context.Context, id uuid.UUID, ownerID string, expected time.Time, lead schema.Lead) (schema.Buyer, error) {
	query := fmt.Sprintf(`UPDATE buyers SET
			full_name = $1, email = $2, phone = $3, city = $4, property_type = $5,
			bhk = $6, purpose = $7, budget_min = $8, budget_max = $9, timeline = $10,
			source = $11, status = $12, notes = $13, tags = $14, updated_at = now()
		WHERE id = $15 AND owner_id = $16 AND updated_at = $17
		RETURNING %s`, buyerColumns)

	b, err := scanBuyer(r.pool.QueryRow(ctx, query,
		lead.FullName, nullIfEmpty(lead.Email), lead.Phone, string(lead.City),
		string(lead.PropertyType), nullIfEmpty(string(lead.BHK)), string(lead.Purpose),
		lead.BudgetMin, lead.BudgetMax, string(lead.Timeline), string(lead.Source),
		string(lead.Status), nullIfEmpty(lead.Notes), lead.Tags,
		id, ownerID, expected))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schema.Buyer{}, ErrConflict
		}
		return schema.Buyer{}, &PersistenceError{Op: "update buyer", Err: err}
	}
	return b, nil
}

func (r *pgBuyerRepository) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM buyers WHERE id = $1 AND owner_id = $2", id, ownerID)
	if err != nil {
		return &PersistenceError{Op: "delete buyer", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgBuyerRepository) queryBuyers(ctx context.Context, query string, args []interface{}) ([]schema.Buyer, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buyers := make([]schema.Buyer, 0)
	for rows.Next() {
		b, err := scanBuyer(rows)
		if err != nil {
			return nil, err
		}
		buyers = append(buyers, b)
	}
	return buyers, rows.Err()
}

// buyerInsertArgs builds the argument list shared by Create and
// CreateBatch. Order matches the INSERT column list.
func buyerInsertArgs(b *schema.Buyer) []interface{} {
	return []interface{}{
		b.ID, b.OwnerID, b.FullName, nullIfEmpty(b.Email), b.Phone, string(b.City),
		string(b.PropertyType), nullIfEmpty(string(b.BHK)), string(b.Purpose),
		b.BudgetMin, b.BudgetMax, string(b.Timeline), string(b.Source),
		string(b.Status), nullIfEmpty(b.Notes), b.Tags,
	}
}

// scanBuyer reads a buyer row in buyerColumns order. Enum columns are
// decoded as text and converted; nullable columns go through pointers.
func scanBuyer(row pgx.Row) (schema.Buyer, error) {
	var b schema.Buyer
	var email, bhk, notes *string
	var city, propertyType, purpose, timeline, source, status string

	err := row.Scan(&b.ID, &b.OwnerID, &b.FullName, &email, &b.Phone, &city,
		&propertyType, &bhk, &purpose, &b.BudgetMin, &b.BudgetMax, &timeline,
		&source, &status, &notes, &b.Tags, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return schema.Buyer{}, err
	}

	if email != nil {
		b.Email = *email
	}
	if bhk != nil {
		b.BHK = schema.BHK(*bhk)
	}
	if notes != nil {
		b.Notes = *notes
	}
	b.City = schema.City(city)
	b.PropertyType = schema.PropertyType(propertyType)
	b.Purpose = schema.Purpose(purpose)
	b.Timeline = schema.Timeline(timeline)
	b.Source = schema.Source(source)
	b.Status = schema.Status(status)
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return b, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
