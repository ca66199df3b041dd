/*
normalize.go - Allocation normalizer

PURPOSE:
  The central calculation: distribute the plan's total investment across
  the current team according to catalog allocation weights, and derive
  each member's meeting count from its cadence.

KEY INSIGHT:
  Normalization is a TOTAL recompute. Every call re-derives every member
  from the full current list; there is no "adjust just the new member"
  path. Repeated add/remove cycles therefore cannot drift shares out of
  sync, and the operation is trivially idempotent.

ALGORITHM:
  1. total_weight = sum of each member row's tenure weight (once per row,
     NOT multiplied by head count - see note below)
  2. share_i   = weight_i / total_weight * 100
  3. breakup_i = total_investment * share_i / 100
  4. meetings_i = round(cadence_i * duration * head_count_i), half-up
  (rate per meeting is a derived method on TeamMember, not computed here)

  total_weight == 0 is NOT an error: it is the "no team yet" state, and
  every derived field comes back zero.

HEAD COUNT ASYMMETRY:
  head_count multiplies the meeting count but never the allocation
  weight: two people on the same tenure row get twice the meetings at
  the same pool share. This matches the observed business behavior and
  is intentional.

FAILURE MODE:
  Any unresolvable tenure code fails the whole call with no partial
  results. A half-normalized plan is worse than a rejected one.

SEE ALSO:
  - composition.go: Invokes Normalize on every structural change
  - summary.go: Reconciles allocated totals back against the investment
*/
package pricing

import "github.com/shopspring/decimal"

// Normalize distributes totalInvestment across members and derives each
// member's share, breakup amount and meeting count. Pure: the input slice is
// not modified and a fully re-derived copy is returned.
func Normalize(totalInvestment Money, durationMonths int, members []TeamMember, catalog TenureCatalog) ([]TeamMember, error) {
	if totalInvestment.IsNegative() {
		return nil, &ValidationError{Field: "total_investment", Reason: "must not be negative"}
	}

	// Resolve every tenure up front so an unknown code rejects the whole
	// operation before any member is touched.
	tenures := make([]*TenureType, len(members))
	totalWeight := decimal.Zero
	for i, m := range members {
		t, err := catalog.Resolve(m.TenureCode)
		if err != nil {
			return nil, err
		}
		tenures[i] = t
		totalWeight = totalWeight.Add(t.AllocationWeight)
	}

	duration := decimal.NewFromInt(int64(durationMonths))
	out := make([]TeamMember, len(members))
	for i, m := range members {
		t := tenures[i]

		if totalWeight.IsZero() {
			m.SharePercent = decimal.Zero
			m.BreakupAmount = ZeroMoney()
		} else {
			m.SharePercent = t.AllocationWeight.Div(totalWeight).Mul(hundred)
			m.BreakupAmount = totalInvestment.ApplyPercent(m.SharePercent)
		}

		meetings := t.MeetingsPerMonth.
			Mul(duration).
			Mul(decimal.NewFromInt(int64(m.HeadCount)))
		m.TotalMeetings = int(meetings.Round(0).IntPart())

		out[i] = m
	}
	return out, nil
}
