package schema

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// FieldError is a single validation failure attached to a field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Candidate is an unvalidated lead as received from a caller (JSON body or
// a mapped CSV row). String fields are raw; Validate checks them against
// the enum and format rules and produces a Lead.
type Candidate struct {
	FullName     string   `json:"fullName"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	City         string   `json:"city"`
	PropertyType string   `json:"propertyType"`
	BHK          string   `json:"bhk"`
	Purpose      string   `json:"purpose"`
	BudgetMin    *int64   `json:"budgetMin"`
	BudgetMax    *int64   `json:"budgetMax"`
	Timeline     string   `json:"timeline"`
	Source       string   `json:"source"`
	Status       string   `json:"status"`
	Notes        string   `json:"notes"`
	Tags         []string `json:"tags"`
}

var (
	phoneRegex = regexp.MustCompile(`^[0-9]{10,15}$`)
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

const maxNotesLen = 1000

// Validate checks a candidate against all field and cross-field rules and
// returns the validated lead. Errors are collected, not fail-fast: the
// returned slice holds one entry per failing field. The lead is only
// meaningful when the slice is empty.
//
// Rule order follows the form: per-field checks first, then the two
// cross-field rules (BHK required for Apartment/Villa, budgetMax >=
// budgetMin). Status defaults to New and tags to an empty list.
func Validate(c Candidate) (Lead, []FieldError) {
	var errs []FieldError
	fail := func(field, message string) {
		errs = append(errs, FieldError{Field: field, Message: message})
	}

	lead := Lead{
		FullName:  strings.TrimSpace(c.FullName),
		Email:     strings.TrimSpace(c.Email),
		Phone:     strings.TrimSpace(c.Phone),
		BudgetMin: c.BudgetMin,
		BudgetMax: c.BudgetMax,
		Notes:     c.Notes,
		Tags:      c.Tags,
	}
	if lead.Tags == nil {
		lead.Tags = []string{}
	}

	// Length bounds count characters, not bytes: multibyte scripts are
	// common in names here.
	if nameLen := utf8.RuneCountInString(lead.FullName); nameLen < 2 {
		fail("fullName", "Full name must be at least 2 characters")
	} else if nameLen > 80 {
		fail("fullName", "Full name must be at most 80 characters")
	}

	if lead.Email != "" && !emailRegex.MatchString(lead.Email) {
		fail("email", "Invalid email format")
	}

	if !phoneRegex.MatchString(lead.Phone) {
		fail("phone", "Phone must be 10-15 digits")
	}

	if city, ok := parseEnum(c.City, Cities); ok {
		lead.City = city
	} else {
		fail("city", enumMessage(Cities))
	}

	if pt, ok := parseEnum(c.PropertyType, PropertyTypes); ok {
		lead.PropertyType = pt
	} else {
		fail("propertyType", enumMessage(PropertyTypes))
	}

	if c.BHK != "" {
		if bhk, ok := parseEnum(c.BHK, BHKs); ok {
			lead.BHK = bhk
		} else {
			fail("bhk", enumMessage(BHKs))
		}
	}

	if purpose, ok := parseEnum(c.Purpose, Purposes); ok {
		lead.Purpose = purpose
	} else {
		fail("purpose", enumMessage(Purposes))
	}

	if c.BudgetMin != nil && *c.BudgetMin < 0 {
		fail("budgetMin", "Budget must be positive")
	}
	if c.BudgetMax != nil && *c.BudgetMax < 0 {
		fail("budgetMax", "Budget must be positive")
	}

	if tl, ok := parseEnum(c.Timeline, Timelines); ok {
		lead.Timeline = tl
	} else {
		fail("timeline", enumMessage(Timelines))
	}

	if src, ok := parseEnum(c.Source, Sources); ok {
		lead.Source = src
	} else {
		fail("source", enumMessage(Sources))
	}

	if c.Status == "" {
		lead.Status = StatusNew
	} else if st, ok := parseEnum(c.Status, Statuses); ok {
		lead.Status = st
	} else {
		fail("status", enumMessage(Statuses))
	}

	if utf8.RuneCountInString(c.Notes) > maxNotesLen {
		fail("notes", "Notes must be at most 1000 characters")
	}

	// Cross-field: bedroom count is mandatory for residential types.
	if RequiresBHK(lead.PropertyType) && lead.BHK == "" {
		fail("bhk", "BHK is required for Apartment and Villa properties")
	}

	// Cross-field: budget range must not be inverted. Equal bounds pass.
	if lead.BudgetMin != nil && lead.BudgetMax != nil && *lead.BudgetMax < *lead.BudgetMin {
		fail("budgetMax", "Maximum budget must be greater than or equal to minimum budget")
	}

	return lead, errs
}

// parseEnum matches a raw value against allowed enum values. Matching is
// exact: enum values are case-sensitive in the store.
func parseEnum[T ~string](raw string, allowed []T) (T, bool) {
	for _, v := range allowed {
		if raw == string(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func enumMessage[T ~string](allowed []T) string {
	vals := make([]string, len(allowed))
	for i, v := range allowed {
		vals[i] = string(v)
	}
	return "Value must be one of: " + strings.Join(vals, ", ")
}
