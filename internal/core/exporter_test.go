package core

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/estatedesk/buyerleads/internal/schema"
)

// ============================================================================
// CSV Export Tests
// ============================================================================

func TestWriteCSV(t *testing.T) {
	min := int64(5000000)
	max := int64(7000000)
	buyers := []schema.Buyer{
		{
			Lead: schema.Lead{
				FullName:     "Asha Verma",
				Email:        "asha@example.com",
				Phone:        "9876543210",
				City:         schema.CityChandigarh,
				PropertyType: schema.PropertyApartment,
				BHK:          schema.BHK2,
				Purpose:      schema.PurposeBuy,
				BudgetMin:    &min,
				BudgetMax:    &max,
				Timeline:     schema.Timeline0to3m,
				Source:       schema.SourceWebsite,
				Notes:        "prefers corner unit",
				Tags:         []string{"hot", "callback"},
				Status:       schema.StatusNew,
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, buyers); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != strings.Join(csvHeaders, ",") {
		t.Errorf("header = %q", lines[0])
	}

	want := `"Asha Verma","asha@example.com","9876543210","Chandigarh","Apartment","2","Buy",5000000,7000000,"0-3m","Website","prefers corner unit","hot, callback","New"`
	if lines[1] != want {
		t.Errorf("row = %q\nwant  %q", lines[1], want)
	}
}

func TestWriteCSV_EmptyOptionals(t *testing.T) {
	buyers := []schema.Buyer{
		{
			Lead: schema.Lead{
				FullName:     "Rohan Gupta",
				Phone:        "9998887776",
				City:         schema.CityMohali,
				PropertyType: schema.PropertyPlot,
				Purpose:      schema.PurposeBuy,
				Timeline:     schema.TimelineExploring,
				Source:       schema.SourceReferral,
				Tags:         []string{},
				Status:       schema.StatusNew,
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, buyers); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	row := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")[1]
	// Nil budgets export as empty, not zero.
	if strings.Contains(row, ",0,") {
		t.Errorf("nil budget exported as zero: %q", row)
	}
	if !strings.Contains(row, `"Buy",,,"Exploring"`) {
		t.Errorf("budgets not empty: %q", row)
	}
}

func TestCSVQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{"", `""`},
		{`has "quotes"`, `"has ""quotes"""`},
	}

	for _, tt := range tests {
		if got := csvQuote(tt.in); got != tt.want {
			t.Errorf("csvQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestExportRoundTrip verifies an exported file re-imports cleanly when
// cell values are comma-free.
func TestExportRoundTrip(t *testing.T) {
	svc, repo, _ := newTestService()

	cand := validCandidate()
	cand.Notes = "corner unit"
	cand.Tags = []string{"hot"}
	if _, err := svc.Create(context.Background(), "user-1", cand); err != nil {
		t.Fatal(err)
	}

	buyers, err := svc.Export(context.Background(), ListFilter{})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, buyers); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	result, err := svc.Import(context.Background(), "user-2", buf.Bytes())
	if err != nil {
		t.Fatalf("re-import error = %v (errors: %v)", err, result.Errors)
	}
	if result.Imported != 1 {
		t.Errorf("re-imported %d rows, want 1", result.Imported)
	}

	var reimported *schema.Buyer
	for id := range repo.buyers {
		b := repo.buyers[id]
		if b.OwnerID == "user-2" {
			reimported = &b
		}
	}
	if reimported == nil {
		t.Fatal("re-imported buyer not found")
	}
	if reimported.FullName != cand.FullName || reimported.Phone != cand.Phone {
		t.Errorf("re-imported contact = %q/%q", reimported.FullName, reimported.Phone)
	}
	if reimported.BudgetMin == nil || *reimported.BudgetMin != *cand.BudgetMin {
		t.Errorf("re-imported budgetMin = %v", reimported.BudgetMin)
	}
}

// ============================================================================
// XLSX Export Tests
// ============================================================================

func TestWriteXLSX(t *testing.T) {
	min := int64(1000)
	buyers := []schema.Buyer{
		{
			Lead: schema.Lead{
				FullName:     "Asha Verma",
				Phone:        "9876543210",
				City:         schema.CityChandigarh,
				PropertyType: schema.PropertyPlot,
				Purpose:      schema.PurposeBuy,
				BudgetMin:    &min,
				Timeline:     schema.Timeline0to3m,
				Source:       schema.SourceWebsite,
				Status:       schema.StatusNew,
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, buyers); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}
	// XLSX files are zip archives; check the magic bytes.
	if buf.Len() < 4 || buf.Bytes()[0] != 'P' || buf.Bytes()[1] != 'K' {
		t.Error("output is not a zip archive")
	}
}
