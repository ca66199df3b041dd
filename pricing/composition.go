/*
composition.go - Mutable team composition with synchronous renormalization

PURPOSE:
  Owns the mutable member list for a plan under edit. Every structural
  change (add, remove, change of investment or duration) re-runs the
  allocation normalizer over the FULL member list and replaces it.

STATE MODEL:
  Unpriced: total investment is zero or the team is empty. Derived
            fields are all zero; members may still be added.
  Priced:   investment > 0 and at least one member. Derived fields are
            meaningful.
  The transition is implicit: the normalizer runs on every mutation
  regardless of state, and Priced simply falls out the moment both
  conditions hold.

MUTATION SAFETY:
  Mutators apply the change to a candidate list, normalize, and only
  then commit. A failed normalization (unknown tenure code) leaves the
  composition exactly as it was - no partial application.

CONCURRENCY:
  None. A Composition is a plain in-memory value; callers serialize
  access to a given plan before invoking it.
*/
package pricing

import "github.com/shopspring/decimal"

// =============================================================================
// COMPOSITION STATE
// =============================================================================

type CompositionState string

const (
	StateUnpriced CompositionState = "unpriced"
	StatePriced   CompositionState = "priced"
)

// =============================================================================
// MEMBER DRAFT - Caller-supplied fields for a new member
// =============================================================================

// MemberDraft carries the user-editable fields of a team member. Derived
// fields have no place here: they are computed by normalization only.
type MemberDraft struct {
	Role        string
	TenureCode  TenureCode
	MeetingType string
	Mode        Mode
	HeadCount   int
}

// =============================================================================
// COMPOSITION
// =============================================================================

// Composition manages a plan's team deployment while it is being edited.
type Composition struct {
	catalog TenureCatalog

	totalInvestment Money
	durationMonths  int
	members         []TeamMember
}

func NewComposition(catalog TenureCatalog) *Composition {
	return &Composition{
		catalog:         catalog,
		totalInvestment: ZeroMoney(),
	}
}

// NewCompositionFromPlan seeds a composition from a persisted plan so edits
// resume against current state. The member list is renormalized immediately:
// stored derived fields are never trusted over a fresh recompute.
func NewCompositionFromPlan(catalog TenureCatalog, plan *PricingPlan) (*Composition, error) {
	c := &Composition{
		catalog:         catalog,
		totalInvestment: plan.TotalInvestment,
		durationMonths:  plan.DurationMonths,
	}
	normalized, err := Normalize(c.totalInvestment, c.durationMonths, plan.Members, catalog)
	if err != nil {
		return nil, err
	}
	c.members = normalized
	return c, nil
}

// AddMember validates the draft, appends it and renormalizes the whole list.
func (c *Composition) AddMember(draft MemberDraft) error {
	if draft.Role == "" {
		return &ValidationError{Field: "role", Reason: "required"}
	}
	if draft.TenureCode == "" {
		return &ValidationError{Field: "tenure_code", Reason: "required"}
	}
	if draft.MeetingType == "" {
		return &ValidationError{Field: "meeting_type", Reason: "required"}
	}
	if draft.HeadCount == 0 {
		draft.HeadCount = 1
	}
	if draft.HeadCount < 0 {
		return &ValidationError{Field: "head_count", Reason: "must be a positive integer"}
	}

	candidate := append(c.copyMembers(), TeamMember{
		Role:        draft.Role,
		TenureCode:  draft.TenureCode,
		MeetingType: draft.MeetingType,
		Mode:        draft.Mode,
		HeadCount:   draft.HeadCount,
	})
	return c.renormalize(candidate)
}

// RemoveMember drops the member at index and renormalizes the survivors.
func (c *Composition) RemoveMember(index int) error {
	if index < 0 || index >= len(c.members) {
		return &ValidationError{Field: "index", Reason: "out of range"}
	}
	candidate := make([]TeamMember, 0, len(c.members)-1)
	for i, m := range c.members {
		if i != index {
			candidate = append(candidate, m)
		}
	}
	return c.renormalize(candidate)
}

// SetTotalInvestment updates the top-down figure and renormalizes.
func (c *Composition) SetTotalInvestment(amount Money) error {
	if amount.IsNegative() {
		return &ValidationError{Field: "total_investment", Reason: "must not be negative"}
	}
	prev := c.totalInvestment
	c.totalInvestment = amount
	if err := c.renormalize(c.copyMembers()); err != nil {
		c.totalInvestment = prev
		return err
	}
	return nil
}

// SetDuration updates the engagement duration and renormalizes.
func (c *Composition) SetDuration(months int) error {
	if months <= 0 {
		return &ValidationError{Field: "duration_months", Reason: "must be positive"}
	}
	prev := c.durationMonths
	c.durationMonths = months
	if err := c.renormalize(c.copyMembers()); err != nil {
		c.durationMonths = prev
		return err
	}
	return nil
}

func (c *Composition) renormalize(candidate []TeamMember) error {
	normalized, err := Normalize(c.totalInvestment, c.durationMonths, candidate, c.catalog)
	if err != nil {
		return err
	}
	c.members = normalized
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Members returns a copy of the current, fully normalized member list.
func (c *Composition) Members() []TeamMember {
	return c.copyMembers()
}

func (c *Composition) TotalInvestment() Money { return c.totalInvestment }
func (c *Composition) Duration() int          { return c.durationMonths }

// State reports whether the composition carries meaningful derived fields.
func (c *Composition) State() CompositionState {
	if c.totalInvestment.IsPositive() && len(c.members) > 0 {
		return StatePriced
	}
	return StateUnpriced
}

// ApplyTo writes the composition's current values into a plan.
func (c *Composition) ApplyTo(plan *PricingPlan) {
	plan.TotalInvestment = c.totalInvestment
	plan.DurationMonths = c.durationMonths
	plan.Members = c.copyMembers()
}

func (c *Composition) copyMembers() []TeamMember {
	out := make([]TeamMember, len(c.members))
	copy(out, c.members)
	return out
}

// TotalWeight sums the catalog weight of each member row. Exposed for
// diagnostics; head count deliberately does not factor in.
func (c *Composition) TotalWeight() (decimal.Decimal, error) {
	total := decimal.Zero
	for _, m := range c.members {
		t, err := c.catalog.Resolve(m.TenureCode)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(t.AllocationWeight)
	}
	return total, nil
}
