package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/estatedesk/buyerleads/internal/schema"
)

// ErrTooFewLines rejects uploads without at least a header and one data
// row.
var ErrTooFewLines = errors.New("CSV file must have at least a header and one data row")

var importPhoneRegex = regexp.MustCompile(`^[0-9]{10,15}$`)

// csvHeaders is the canonical column order for import templates and
// exports.
var csvHeaders = []string{
	"fullName", "email", "phone", "city", "propertyType", "bhk", "purpose",
	"budgetMin", "budgetMax", "timeline", "source", "notes", "tags", "status",
}

// ImportResult reports the outcome of a CSV import. Errors holds one
// message per rejected row; row numbers are 1-based and offset by the
// header, so the first data row is "Row 2".
type ImportResult struct {
	Success  bool     `json:"success"`
	Imported int      `json:"imported"`
	Errors   []string `json:"errors,omitempty"`
}

// importRow is a buyer parsed from one CSV data row, before the batch
// insert.
type importRow struct {
	lineNo int // 1-based CSV line number including the header
	buyer  *schema.Buyer
}

// Import runs the CSV bulk import pipeline. Rows are validated
// independently: a bad row never blocks the rows around it. All valid rows
// are inserted in one batch, so a store rejection fails the import as a
// whole. History entries are appended in a second batch; a failure there
// is logged and does not undo the import.
func (s *Service) Import(ctx context.Context, actorID string, data []byte) (ImportResult, error) {
	if actorID == "" {
		return ImportResult{}, ErrUnauthorized
	}

	lines := splitLines(string(data))
	if len(lines) < 2 {
		return ImportResult{}, ErrTooFewLines
	}

	headers := parseNaiveRow(lines[0])
	dataLines := lines[1:]

	var rows []importRow
	var rowErrs []string

	for i, line := range dataLines {
		// Line numbers are for humans: 1-based, counting the header.
		lineNo := i + 2

		buyer, errMsg := parseImportRow(headers, parseNaiveRow(line))
		if errMsg != "" {
			rowErrs = append(rowErrs, fmt.Sprintf("Row %d: %s", lineNo, errMsg))
			continue
		}

		buyer.OwnerID = actorID
		rows = append(rows, importRow{lineNo: lineNo, buyer: buyer})
	}

	if len(rows) == 0 {
		return ImportResult{Errors: rowErrs}, ErrNoValidRows
	}

	buyers := make([]*schema.Buyer, len(rows))
	for i, row := range rows {
		buyers[i] = row.buyer
	}
	if err := s.repo.CreateBatch(ctx, buyers); err != nil {
		return ImportResult{Errors: rowErrs}, err
	}

	ids := make([]uuid.UUID, len(buyers))
	for i, b := range buyers {
		ids[i] = b.ID
	}
	if err := s.history.RecordBatch(ctx, ids, actorID, ImportedDiff()); err != nil {
		slog.Error("history batch append failed after import", "rows", len(ids), "error", err)
	}

	return ImportResult{Success: true, Imported: len(buyers), Errors: rowErrs}, nil
}

// splitLines breaks the file into non-blank lines, tolerating CRLF.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseNaiveRow splits a CSV line on commas and strips literal double
// quotes. The stripping is deliberately naive, not escape-aware: embedded
// commas inside quoted fields split the field. This mirrors the import
// format contract, which tells producers to keep cell values comma-free.
func parseNaiveRow(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(strings.TrimSpace(p), `"`, "")
	}
	return parts
}

// parseImportRow maps header names to cell values and applies the row
// checks: required-field presence, phone format, and the
// BHK-for-residential rule. Unknown headers are ignored and missing
// optional fields default. Returns the row error message, empty on
// success.
func parseImportRow(headers, values []string) (*schema.Buyer, string) {
	cell := func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}

	var lead schema.Lead
	lead.Tags = []string{}
	lead.Status = schema.StatusNew

	budgetOK := true
	for i, header := range headers {
		value := cell(i)
		switch header {
		case "fullName":
			lead.FullName = value
		case "email":
			lead.Email = value
		case "phone":
			lead.Phone = value
		case "city":
			lead.City = schema.City(value)
		case "propertyType":
			lead.PropertyType = schema.PropertyType(value)
		case "bhk":
			lead.BHK = schema.BHK(value)
		case "purpose":
			lead.Purpose = schema.Purpose(value)
		case "budgetMin":
			v, ok := parseBudget(value)
			lead.BudgetMin = v
			budgetOK = budgetOK && ok
		case "budgetMax":
			v, ok := parseBudget(value)
			lead.BudgetMax = v
			budgetOK = budgetOK && ok
		case "timeline":
			lead.Timeline = schema.Timeline(value)
		case "source":
			lead.Source = schema.Source(value)
		case "notes":
			lead.Notes = value
		case "tags":
			lead.Tags = parseTags(value)
		case "status":
			if value != "" {
				lead.Status = schema.Status(value)
			}
		}
	}

	if lead.FullName == "" || lead.Phone == "" || lead.City == "" ||
		lead.PropertyType == "" || lead.Purpose == "" || lead.Timeline == "" ||
		lead.Source == "" {
		return nil, "Missing required fields"
	}

	if !importPhoneRegex.MatchString(lead.Phone) {
		return nil, "Invalid phone number"
	}

	if !budgetOK {
		return nil, "Invalid budget"
	}

	if schema.RequiresBHK(lead.PropertyType) && lead.BHK == "" {
		return nil, fmt.Sprintf("BHK required for %s", lead.PropertyType)
	}

	return &schema.Buyer{Lead: lead}, ""
}

// parseBudget parses a budget cell. Empty cells are a valid nil budget;
// a non-empty cell that is not an integer reports false so the row can be
// rejected rather than imported with the budget silently dropped.
func parseBudget(value string) (*int64, bool) {
	if value == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}

func parseTags(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
