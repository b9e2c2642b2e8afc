package core

import (
	"fmt"
	"strings"
)

// PageSize is the fixed page size for buyer listings.
const PageSize = 10

// ListFilter selects a subset of buyers. Empty fields are ignored. Search
// is a case-insensitive substring match over full name, phone, and email;
// the remaining fields are exact equality filters.
type ListFilter struct {
	Search       string
	City         string
	PropertyType string
	Status       string
	Timeline     string
}

// WhereBuilder accumulates SQL WHERE conditions with positional arguments.
// Column names are fixed at the call site, never caller-supplied; only
// values travel as arguments.
type WhereBuilder struct {
	conditions []string
	args       []interface{}
	argIndex   int
}

// NewWhereBuilder creates an empty builder. Argument placeholders start
// at $1.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends an equality condition for a column.
func (wb *WhereBuilder) Add(column string, value interface{}) {
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", column, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// AddSearch appends a case-insensitive substring match across the given
// columns, OR-ed together. A blank query is a no-op.
func (wb *WhereBuilder) AddSearch(query string, columns ...string) {
	query = strings.TrimSpace(query)
	if query == "" || len(columns) == 0 {
		return
	}

	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", col, wb.argIndex)
	}
	wb.conditions = append(wb.conditions, "("+strings.Join(parts, " OR ")+")")
	wb.args = append(wb.args, "%"+query+"%")
	wb.argIndex++
}

// AddFilter applies all non-empty fields of a ListFilter.
func (wb *WhereBuilder) AddFilter(f ListFilter) {
	wb.AddSearch(f.Search, "full_name", "phone", "email")
	if f.City != "" {
		wb.Add("city", f.City)
	}
	if f.PropertyType != "" {
		wb.Add("property_type", f.PropertyType)
	}
	if f.Status != "" {
		wb.Add("status", f.Status)
	}
	if f.Timeline != "" {
		wb.Add("timeline", f.Timeline)
	}
}

// Build returns the WHERE clause (with leading " WHERE ", or "" when no
// conditions were added) and the argument slice.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}
