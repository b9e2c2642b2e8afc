// Package schema defines the buyer lead entity and its validation rules.
//
// The Buyer shape mirrors the buyers table: contact fields, property
// intent, budget range, and pipeline process fields. All enum values match
// the database enum types exactly; validation happens here so the store
// only ever sees well-formed rows.
package schema

import (
	"time"

	"github.com/google/uuid"
)

// City is the catchment area of a lead.
type City string

const (
	CityChandigarh City = "Chandigarh"
	CityMohali     City = "Mohali"
	CityZirakpur   City = "Zirakpur"
	CityPanchkula  City = "Panchkula"
	CityOther      City = "Other"
)

// PropertyType classifies the property a lead is interested in.
type PropertyType string

const (
	PropertyApartment PropertyType = "Apartment"
	PropertyVilla     PropertyType = "Villa"
	PropertyPlot      PropertyType = "Plot"
	PropertyOffice    PropertyType = "Office"
	PropertyRetail    PropertyType = "Retail"
)

// BHK is the bedroom-count classifier for residential properties.
type BHK string

const (
	BHK1      BHK = "1"
	BHK2      BHK = "2"
	BHK3      BHK = "3"
	BHK4      BHK = "4"
	BHKStudio BHK = "Studio"
)

// Purpose distinguishes buy and rent leads.
type Purpose string

const (
	PurposeBuy  Purpose = "Buy"
	PurposeRent Purpose = "Rent"
)

// Timeline is the expected purchase horizon.
type Timeline string

const (
	Timeline0to3m     Timeline = "0-3m"
	Timeline3to6m     Timeline = "3-6m"
	TimelineOver6m    Timeline = ">6m"
	TimelineExploring Timeline = "Exploring"
)

// Source records how the lead reached us.
type Source string

const (
	SourceWebsite  Source = "Website"
	SourceReferral Source = "Referral"
	SourceWalkIn   Source = "Walk-in"
	SourceCall     Source = "Call"
	SourceOther    Source = "Other"
)

// Status tracks a lead through the sales pipeline.
type Status string

const (
	StatusNew         Status = "New"
	StatusQualified   Status = "Qualified"
	StatusContacted   Status = "Contacted"
	StatusVisited     Status = "Visited"
	StatusNegotiation Status = "Negotiation"
	StatusConverted   Status = "Converted"
	StatusDropped     Status = "Dropped"
)

// Enum value lists, in display order. Used by the validator for membership
// checks and by error messages listing allowed values.
var (
	Cities        = []City{CityChandigarh, CityMohali, CityZirakpur, CityPanchkula, CityOther}
	PropertyTypes = []PropertyType{PropertyApartment, PropertyVilla, PropertyPlot, PropertyOffice, PropertyRetail}
	BHKs          = []BHK{BHK1, BHK2, BHK3, BHK4, BHKStudio}
	Purposes      = []Purpose{PurposeBuy, PurposeRent}
	Timelines     = []Timeline{Timeline0to3m, Timeline3to6m, TimelineOver6m, TimelineExploring}
	Sources       = []Source{SourceWebsite, SourceReferral, SourceWalkIn, SourceCall, SourceOther}
	Statuses      = []Status{StatusNew, StatusQualified, StatusContacted, StatusVisited, StatusNegotiation, StatusConverted, StatusDropped}
)

// Lead holds the validated, mutable portion of a buyer record: everything a
// caller may set on create or update. Empty Email, BHK, and Notes map to
// NULL in the store; nil budgets likewise.
type Lead struct {
	FullName     string       `json:"fullName"`
	Email        string       `json:"email,omitempty"`
	Phone        string       `json:"phone"`
	City         City         `json:"city"`
	PropertyType PropertyType `json:"propertyType"`
	BHK          BHK          `json:"bhk,omitempty"`
	Purpose      Purpose      `json:"purpose"`
	BudgetMin    *int64       `json:"budgetMin,omitempty"`
	BudgetMax    *int64       `json:"budgetMax,omitempty"`
	Timeline     Timeline     `json:"timeline"`
	Source       Source       `json:"source"`
	Status       Status       `json:"status"`
	Notes        string       `json:"notes,omitempty"`
	Tags         []string     `json:"tags"`
}

// Buyer is a persisted lead record. OwnerID is the identity of the creating
// user and never changes; UpdatedAt doubles as the optimistic-lock token
// compared on every update.
type Buyer struct {
	ID      uuid.UUID `json:"id"`
	OwnerID string    `json:"ownerId"`
	Lead
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RequiresBHK reports whether the property type needs a bedroom count.
func RequiresBHK(pt PropertyType) bool {
	return pt == PropertyApartment || pt == PropertyVilla
}
