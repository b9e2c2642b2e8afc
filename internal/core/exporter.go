package core

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/estatedesk/buyerleads/internal/schema"
)

// Export returns every buyer matching the filter, unpaginated, most
// recently updated first. Pair with WriteCSV or WriteXLSX.
func (s *Service) Export(ctx context.Context, f ListFilter) ([]schema.Buyer, error) {
	return s.repo.ListAll(ctx, f)
}

// WriteCSV writes buyers in the import-compatible CSV format: canonical
// header order, string values double-quoted with embedded quotes doubled,
// budgets as bare numbers. Exported files re-import cleanly as long as
// cell values stay comma-free (the import parser is not escape-aware).
func WriteCSV(w io.Writer, buyers []schema.Buyer) error {
	if _, err := io.WriteString(w, strings.Join(csvHeaders, ",")+"\n"); err != nil {
		return err
	}

	for _, b := range buyers {
		row := strings.Join(csvRow(b), ",")
		if _, err := io.WriteString(w, row+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func csvRow(b schema.Buyer) []string {
	return []string{
		csvQuote(b.FullName),
		csvQuote(b.Email),
		csvQuote(b.Phone),
		csvQuote(string(b.City)),
		csvQuote(string(b.PropertyType)),
		csvQuote(string(b.BHK)),
		csvQuote(string(b.Purpose)),
		csvBudget(b.BudgetMin),
		csvBudget(b.BudgetMax),
		csvQuote(string(b.Timeline)),
		csvQuote(string(b.Source)),
		csvQuote(b.Notes),
		csvQuote(strings.Join(b.Tags, ", ")),
		csvQuote(string(b.Status)),
	}
}

func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func csvBudget(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

// WriteXLSX writes buyers as a spreadsheet with the same column order as
// the CSV export.
func WriteXLSX(w io.Writer, buyers []schema.Buyer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"

	header := make([]interface{}, len(csvHeaders))
	for i, h := range csvHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	for i, b := range buyers {
		row := []interface{}{
			b.FullName, b.Email, b.Phone, string(b.City), string(b.PropertyType),
			string(b.BHK), string(b.Purpose), xlsxBudget(b.BudgetMin),
			xlsxBudget(b.BudgetMax), string(b.Timeline), string(b.Source),
			b.Notes, strings.Join(b.Tags, ", "), string(b.Status),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.Write(w)
}

func xlsxBudget(v *int64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
