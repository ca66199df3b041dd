/*
summary.go - Plan totals and allocation reconciliation

PURPOSE:
  Aggregates a plan's headline figures for display and cross-checks that
  per-member breakup amounts reconcile with the engagement total.

RECONCILIATION:
  IsAllocationValid holds when |allocated - subtotal| < 1 whole currency
  unit. This is a DIAGNOSTIC, not a failure: Summarize always computes
  and reports it, and the caller decides whether to block submission.
*/
package pricing

// Summary carries the aggregated figures for one plan.
type Summary struct {
	TotalMeetings int

	Subtotal      Money
	Discount      Money
	AfterDiscount Money
	TaxAddOn      Money
	GrandTotal    Money

	AllocatedTotal    Money
	AllocationDelta   Money
	IsAllocationValid bool
}

// Summarize computes the plan's totals. Pure; never fails.
func Summarize(plan *PricingPlan) Summary {
	subtotal := plan.TotalInvestment
	discount := subtotal.ApplyPercent(plan.DiscountPercent)
	afterDiscount := subtotal.Sub(discount)

	taxAddOn := ZeroMoney()
	if tax := plan.Terms.Component(ComponentTaxAddOn); tax != nil && tax.Selected {
		taxAddOn = afterDiscount.ApplyPercent(tax.Rate)
	}

	allocated := plan.AllocatedTotal()
	delta := allocated.Sub(subtotal)

	return Summary{
		TotalMeetings:     plan.TotalMeetings(),
		Subtotal:          subtotal,
		Discount:          discount,
		AfterDiscount:     afterDiscount,
		TaxAddOn:          taxAddOn,
		GrandTotal:        afterDiscount.Add(taxAddOn),
		AllocatedTotal:    allocated,
		AllocationDelta:   delta,
		IsAllocationValid: delta.Abs().LessThan(NewMoneyFromInt(1)),
	}
}
