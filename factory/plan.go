/*
Package factory provides JSON to Go conversion for pricing plan inputs and
the tenure catalog.

PURPOSE:
  Converts the JSON shapes exchanged with the surrounding application into
  engine values. This keeps the engine free of serialization concerns and
  lets master data (tenure catalogs) be defined without code changes - an
  admin screen can produce the catalog JSON, and this factory turns it into
  a TenureCatalog the normalizer consumes.

JSON SCHEMA (plan input):
  {
    "client_name": "Acme Holdings",
    "total_investment": "1200000",
    "duration_months": 6,
    "discount_percent": "10",
    "team_members": [
      {"role": "Lead Advisor", "tenure_code": "principal",
       "meeting_type": "review", "mode": "online", "head_count": 1}
    ],
    "payment": {
      "start_date": "2026-02-01",
      "frequency": "monthly",
      "components": [
        {"kind": "tax_add_on", "selected": true, "rate": "18"},
        {"kind": "reimbursement", "selected": true, "lumpsum_amount": "30000"}
      ]
    }
  }

  Money and percentage fields are JSON strings, parsed with decimal to
  avoid float64 round-trips.

KEY FEATURES:
  - Validates structure and numeric fields
  - Sets defaults (head_count 1, mode online, empty component set)
  - Catalog presets for quick starts and demos

SEE ALSO:
  - pricing/types.go: Engine value types
  - api/handlers.go: Uses this factory at the HTTP boundary
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/pricing-engine/pricing"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TenureTypeJSON is the JSON representation of one catalog entry.
type TenureTypeJSON struct {
	Code             string `json:"code"`
	Label            string `json:"label,omitempty"`
	AllocationWeight string `json:"allocation_weight"`
	MeetingsPerMonth string `json:"meetings_per_month"`
}

// CatalogJSON is the JSON representation of a tenure catalog.
type CatalogJSON struct {
	Tenures []TenureTypeJSON `json:"tenures"`
}

// MemberJSON is the JSON representation of a team member draft.
type MemberJSON struct {
	Role        string `json:"role"`
	TenureCode  string `json:"tenure_code"`
	MeetingType string `json:"meeting_type"`
	Mode        string `json:"mode,omitempty"`
	HeadCount   int    `json:"head_count,omitempty"`
}

// ComponentJSON is the JSON representation of a payment component.
type ComponentJSON struct {
	Kind          string `json:"kind"`
	Selected      bool   `json:"selected"`
	Rate          string `json:"rate,omitempty"`
	LumpsumAmount string `json:"lumpsum_amount,omitempty"`
}

// PaymentJSON is the JSON representation of payment terms.
type PaymentJSON struct {
	StartDate  string          `json:"start_date"`
	Frequency  string          `json:"frequency"`
	Components []ComponentJSON `json:"components,omitempty"`
}

// PlanInputJSON is the full plan input exchanged with callers.
type PlanInputJSON struct {
	ClientName      string       `json:"client_name"`
	TotalInvestment string       `json:"total_investment"`
	DurationMonths  int          `json:"duration_months"`
	DiscountPercent string       `json:"discount_percent,omitempty"`
	TeamMembers     []MemberJSON `json:"team_members,omitempty"`
	Payment         *PaymentJSON `json:"payment,omitempty"`
}

// =============================================================================
// PLAN FACTORY
// =============================================================================

// PlanFactory converts JSON inputs to engine values.
type PlanFactory struct{}

func NewPlanFactory() *PlanFactory {
	return &PlanFactory{}
}

// ParseCatalog parses catalog JSON into a TenureCatalog.
func (f *PlanFactory) ParseCatalog(jsonStr string) (*pricing.StaticCatalog, error) {
	var cj CatalogJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}

	entries := make([]pricing.TenureType, 0, len(cj.Tenures))
	for _, tj := range cj.Tenures {
		entry, err := f.TenureFromJSON(tj)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return pricing.NewStaticCatalog(entries), nil
}

// TenureFromJSON converts one catalog entry, validating its numeric fields.
func (f *PlanFactory) TenureFromJSON(tj TenureTypeJSON) (pricing.TenureType, error) {
	if tj.Code == "" {
		return pricing.TenureType{}, &pricing.ValidationError{Field: "code", Reason: "required"}
	}
	weight, err := parsePositiveDecimal("allocation_weight", tj.AllocationWeight)
	if err != nil {
		return pricing.TenureType{}, err
	}
	cadence, err := parsePositiveDecimal("meetings_per_month", tj.MeetingsPerMonth)
	if err != nil {
		return pricing.TenureType{}, err
	}
	return pricing.TenureType{
		Code:             pricing.TenureCode(tj.Code),
		Label:            tj.Label,
		AllocationWeight: weight,
		MeetingsPerMonth: cadence,
	}, nil
}

// TenureToJSON converts a catalog entry back to its JSON shape.
func (f *PlanFactory) TenureToJSON(t pricing.TenureType) TenureTypeJSON {
	return TenureTypeJSON{
		Code:             string(t.Code),
		Label:            t.Label,
		AllocationWeight: t.AllocationWeight.String(),
		MeetingsPerMonth: t.MeetingsPerMonth.String(),
	}
}

// ParsePlanInput parses a plan input JSON string.
func (f *PlanFactory) ParsePlanInput(jsonStr string) (*PlanInput, error) {
	var pj PlanInputJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// PlanInput is the parsed, validated engine-side form of PlanInputJSON.
type PlanInput struct {
	ClientName      string
	TotalInvestment pricing.Money
	DurationMonths  int
	DiscountPercent decimal.Decimal
	Drafts          []pricing.MemberDraft
	Terms           pricing.PaymentTerms
}

// FromJSON converts PlanInputJSON to a PlanInput.
func (f *PlanFactory) FromJSON(pj PlanInputJSON) (*PlanInput, error) {
	total, err := parseDecimalField("total_investment", pj.TotalInvestment, decimal.Zero)
	if err != nil {
		return nil, err
	}
	if total.IsNegative() {
		return nil, &pricing.ValidationError{Field: "total_investment", Reason: "must not be negative"}
	}

	// Zero means "not set yet"; negative is always a caller mistake.
	if pj.DurationMonths < 0 {
		return nil, &pricing.ValidationError{Field: "duration_months", Reason: "must not be negative"}
	}

	discount, err := parseDecimalField("discount_percent", pj.DiscountPercent, decimal.Zero)
	if err != nil {
		return nil, err
	}

	in := &PlanInput{
		ClientName:      pj.ClientName,
		TotalInvestment: pricing.Money{Value: total},
		DurationMonths:  pj.DurationMonths,
		DiscountPercent: discount,
	}

	for _, mj := range pj.TeamMembers {
		in.Drafts = append(in.Drafts, pricing.MemberDraft{
			Role:        mj.Role,
			TenureCode:  pricing.TenureCode(mj.TenureCode),
			MeetingType: mj.MeetingType,
			Mode:        parseMode(mj.Mode),
			HeadCount:   mj.HeadCount,
		})
	}

	if pj.Payment != nil {
		terms, err := f.termsFromJSON(*pj.Payment)
		if err != nil {
			return nil, err
		}
		in.Terms = terms
	}
	return in, nil
}

func (f *PlanFactory) termsFromJSON(pj PaymentJSON) (pricing.PaymentTerms, error) {
	terms := pricing.PaymentTerms{Frequency: pricing.Frequency(pj.Frequency)}

	if pj.StartDate != "" {
		start, err := time.Parse("2006-01-02", pj.StartDate)
		if err != nil {
			return terms, &pricing.ValidationError{Field: "start_date", Reason: "expected YYYY-MM-DD"}
		}
		terms.StartDate = start
	}

	for _, cj := range pj.Components {
		comp := pricing.PaymentComponent{
			Kind:     pricing.ComponentKind(cj.Kind),
			Selected: cj.Selected,
		}
		switch comp.Kind {
		case pricing.ComponentTaxAddOn, pricing.ComponentWithholding:
			rate, err := parseDecimalField("rate", cj.Rate, decimal.Zero)
			if err != nil {
				return terms, err
			}
			comp.Rate = rate
		case pricing.ComponentReimbursement:
			lumpsum, err := parseDecimalField("lumpsum_amount", cj.LumpsumAmount, decimal.Zero)
			if err != nil {
				return terms, err
			}
			comp.LumpsumAmount = pricing.Money{Value: lumpsum}
		default:
			return terms, &pricing.ValidationError{Field: "components", Reason: fmt.Sprintf("unknown component kind %q", cj.Kind)}
		}
		terms.Components = append(terms.Components, comp)
	}
	return terms, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseMode(s string) pricing.Mode {
	switch pricing.Mode(s) {
	case pricing.ModeOffline:
		return pricing.ModeOffline
	case pricing.ModeMixed:
		return pricing.ModeMixed
	default:
		return pricing.ModeOnline
	}
}

func parseDecimalField(field, value string, def decimal.Decimal) (decimal.Decimal, error) {
	if value == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, &pricing.ValidationError{Field: field, Reason: "not a valid number"}
	}
	return d, nil
}

func parsePositiveDecimal(field, value string) (decimal.Decimal, error) {
	d, err := parseDecimalField(field, value, decimal.Zero)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, &pricing.ValidationError{Field: field, Reason: "must be positive"}
	}
	return d, nil
}

// =============================================================================
// CATALOG PRESETS
// =============================================================================

// DefaultCatalogJSON is a ready-to-load consulting tenure catalog, the
// master data a typical engagement uses. Weights are percentage points and
// deliberately do not sum to 100 across the catalog.
func DefaultCatalogJSON() string {
	return `{
  "tenures": [
    {"code": "principal",  "label": "Principal Consultant", "allocation_weight": "70", "meetings_per_month": "2"},
    {"code": "senior",     "label": "Senior Consultant",    "allocation_weight": "50", "meetings_per_month": "2"},
    {"code": "associate",  "label": "Associate Consultant", "allocation_weight": "30", "meetings_per_month": "1"},
    {"code": "specialist", "label": "Domain Specialist",    "allocation_weight": "40", "meetings_per_month": "1.5"},
    {"code": "analyst",    "label": "Analyst",              "allocation_weight": "15", "meetings_per_month": "1"}
  ]
}`
}
