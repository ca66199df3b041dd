/*
Package pricing implements the top-down pricing allocation and payment
schedule engine.

PURPOSE:
  Given one negotiated "total investment" figure for an engagement, the
  engine distributes it across a heterogeneous delivery team, derives
  meeting counts and per-meeting rates, keeps the distribution consistent
  under edits, and expands the discounted subtotal into a dated installment
  schedule with layered adjustment components.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A currency amount backed by decimal.Decimal
  - TenureType: Catalog entry defining allocation weight and meeting cadence
  - TeamMember: One row of a plan's team deployment, with derived allocation
  - PricingPlan: Aggregate root owning the team list and payment terms
  - PaymentComponent / ScheduleEntry: Installment schedule building blocks

DESIGN PRINCIPLES:
  1. Precision: All money and percentage math uses decimal.Decimal,
     never float64.
  2. Derived means derived: rate-per-meeting and net-receivable are
     methods, not stored fields, so they cannot drift from their inputs.
  3. Full recompute: allocation fields are only ever written by Normalize,
     which re-derives every member from the whole current list.

SEE ALSO:
  - normalize.go: Allocation normalizer
  - composition.go: Mutable team composition with renormalization
  - schedule.go: Installment schedule builder
  - summary.go: Plan totals and reconciliation check
*/
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount with whole-unit rounding policy
// =============================================================================

// Money is a currency amount. The engine is currency-agnostic: it only
// assumes the smallest displayed unit is the whole unit, which is where
// derived rates and installment amounts are rounded.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int64) Money {
	return Money{Value: decimal.NewFromInt(value)}
}

func ZeroMoney() Money {
	return Money{Value: decimal.Zero}
}

// MustParseMoney parses s, panicking on malformed input. For literals only;
// caller-supplied strings go through decimal.NewFromString and an error path.
func MustParseMoney(s string) Money {
	return Money{Value: decimal.RequireFromString(s)}
}

func (m Money) Add(o Money) Money              { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money              { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(s decimal.Decimal) Money    { return Money{Value: m.Value.Mul(s)} }
func (m Money) Div(s decimal.Decimal) Money    { return Money{Value: m.Value.Div(s)} }
func (m Money) Abs() Money                     { return Money{Value: m.Value.Abs()} }
func (m Money) IsZero() bool                   { return m.Value.IsZero() }
func (m Money) IsNegative() bool               { return m.Value.IsNegative() }
func (m Money) IsPositive() bool               { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool             { return m.Value.Equal(o.Value) }
func (m Money) LessThan(o Money) bool          { return m.Value.LessThan(o.Value) }
func (m Money) GreaterThan(o Money) bool       { return m.Value.GreaterThan(o.Value) }

// RoundUnit rounds half-up to the whole currency unit.
func (m Money) RoundUnit() Money {
	return Money{Value: m.Value.Round(0)}
}

// ApplyPercent returns m * rate/100, unrounded.
func (m Money) ApplyPercent(rate decimal.Decimal) Money {
	return Money{Value: m.Value.Mul(rate).Div(hundred)}
}

func (m Money) String() string {
	return m.Value.String()
}

var hundred = decimal.NewFromInt(100)

// =============================================================================
// TENURE CATALOG ENTRIES
// =============================================================================

// TenureCode identifies a tenure type in the catalog.
type TenureCode string

// TenureType is a static catalog entry defining how much of the investment
// pool a deployment pattern is worth (AllocationWeight, in percentage points,
// not required to sum to 100 across the catalog) and how many meetings per
// month it carries. Immutable within a plan's lifetime; sourced externally.
type TenureType struct {
	Code             TenureCode
	Label            string
	AllocationWeight decimal.Decimal
	MeetingsPerMonth decimal.Decimal
}

// =============================================================================
// TEAM MEMBERS
// =============================================================================

// Mode describes how a member delivers meetings. Informational only.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
	ModeMixed   Mode = "mixed"
)

// TeamMember is one row in a plan's team deployment.
//
// SharePercent, BreakupAmount and TotalMeetings are derived: they are only
// ever written by Normalize, as a pure function of this member's tenure
// weight, the sum of all current members' weights, the plan's total
// investment and duration, and this member's head count. They must never be
// carried over from a stale computation after a sibling is added or removed.
type TeamMember struct {
	Role        string
	TenureCode  TenureCode
	MeetingType string
	Mode        Mode
	HeadCount   int

	// Derived by Normalize.
	SharePercent  decimal.Decimal
	BreakupAmount Money
	TotalMeetings int
}

// RatePerMeeting is the member's breakup amount spread over its meetings,
// rounded to the whole currency unit. Modelled as a method rather than a
// stored field so it can never be edited independently of its inputs.
func (m TeamMember) RatePerMeeting() Money {
	if m.TotalMeetings <= 0 {
		return ZeroMoney()
	}
	return m.BreakupAmount.Div(decimal.NewFromInt(int64(m.TotalMeetings))).RoundUnit()
}

// =============================================================================
// PAYMENT COMPONENTS
// =============================================================================

// ComponentKind discriminates the fixed set of schedule adjustments.
type ComponentKind string

const (
	// ComponentTaxAddOn is a percentage added on top of each installment.
	ComponentTaxAddOn ComponentKind = "tax_add_on"
	// ComponentWithholding is a percentage deducted from each installment.
	ComponentWithholding ComponentKind = "withholding"
	// ComponentReimbursement is a fixed lumpsum spread evenly across all
	// installments. It is never a percentage of the installment amount.
	ComponentReimbursement ComponentKind = "reimbursement"
)

// PaymentComponent is one selectable schedule adjustment. Percentage
// components carry Rate; the reimbursement component carries LumpsumAmount.
type PaymentComponent struct {
	Kind          ComponentKind
	Selected      bool
	Rate          decimal.Decimal
	LumpsumAmount Money
}

// Frequency selects installment spacing.
type Frequency string

const (
	FreqMonthly   Frequency = "monthly"
	FreqQuarterly Frequency = "quarterly"
	// FreqMilestone and FreqUpfront both collapse the schedule into a
	// single installment covering the whole term.
	FreqMilestone Frequency = "milestone"
	FreqUpfront   Frequency = "upfront"
)

// PaymentTerms are the schedule parameters attached to a plan.
type PaymentTerms struct {
	StartDate  time.Time
	Frequency  Frequency
	Components []PaymentComponent
}

// Component returns the plan's component of the given kind, or nil.
func (t PaymentTerms) Component(kind ComponentKind) *PaymentComponent {
	for i := range t.Components {
		if t.Components[i].Kind == kind {
			return &t.Components[i]
		}
	}
	return nil
}

// =============================================================================
// SCHEDULE ENTRIES
// =============================================================================

// ScheduleEntry is one dated row of the generated payment schedule.
type ScheduleEntry struct {
	Label               string
	DueDate             time.Time
	BasicAmount         Money
	TaxAddOnAmount      Money
	WithholdingAmount   Money
	ReimbursementAmount Money
}

// NetReceivable is basic + tax add-on + reimbursement - withholding.
// Derived, so a persisted entry can never disagree with its components.
func (e ScheduleEntry) NetReceivable() Money {
	return e.BasicAmount.
		Add(e.TaxAddOnAmount).
		Add(e.ReimbursementAmount).
		Sub(e.WithholdingAmount)
}

// =============================================================================
// PRICING PLAN - Aggregate root
// =============================================================================

// PricingPlan is the aggregate root handed to downstream quotation and
// reminder collaborators. It exclusively owns its member list and terms;
// tenure types are referenced by code, never owned.
type PricingPlan struct {
	ID              string
	ClientName      string
	TotalInvestment Money
	DurationMonths  int
	DiscountPercent decimal.Decimal
	Members         []TeamMember
	Terms           PaymentTerms
	Schedule        []ScheduleEntry

	CreatedAt time.Time
}

// TotalMeetings sums meeting counts across the team.
func (p *PricingPlan) TotalMeetings() int {
	total := 0
	for _, m := range p.Members {
		total += m.TotalMeetings
	}
	return total
}

// AllocatedTotal sums breakup amounts across the team.
func (p *PricingPlan) AllocatedTotal() Money {
	total := ZeroMoney()
	for _, m := range p.Members {
		total = total.Add(m.BreakupAmount)
	}
	return total
}
