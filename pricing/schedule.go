/*
schedule.go - Payment plan builder

PURPOSE:
  Expands the discounted subtotal into a dated installment schedule with
  layered adjustment components (tax add-on, withholding deduction,
  reimbursement lumpsum).

EXPANSION:
  after_discount    = subtotal * (1 - discount/100)
  frequency_months  = 1 (monthly) | 3 (quarterly) | duration (milestone/upfront)
  installment_count = ceil(duration / frequency_months)
  basic             = round(after_discount / installment_count)

  Per selected component, per installment:
    tax add-on:    basic * rate/100, added
    withholding:   basic * rate/100, subtracted
    reimbursement: round(lumpsum / installment_count), added - a flat
                   amount, never a percentage of basic

  due_date[i] = start_date + i * frequency_months calendar months, with
  the day-of-month held constant and clamped to shorter months.

ROUNDING:
  Every installment carries round(after_discount / n); the residual error
  is NOT absorbed into the last entry. Consumers tolerate up to one
  currency unit per installment when reconciling (see summary.go).

EDGE CASES:
  duration < frequency_months yields a single installment covering the
  whole term. That is intentional, not an error.

SEE ALSO:
  - dates.go: Clamped calendar-month arithmetic
  - types.go: PaymentComponent, ScheduleEntry
*/
package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleInput carries everything the builder needs. Purely a value; the
// builder has no side effects and no state.
type ScheduleInput struct {
	Subtotal        Money
	DiscountPercent decimal.Decimal
	DurationMonths  int
	StartDate       time.Time
	Frequency       Frequency
	Components      []PaymentComponent
}

// BuildSchedule produces the ordered installment list for the input.
// Validation failures reject before any entry is produced.
func BuildSchedule(in ScheduleInput) ([]ScheduleEntry, error) {
	if in.Subtotal.IsNegative() {
		return nil, &ValidationError{Field: "subtotal", Reason: "must not be negative"}
	}
	if in.DurationMonths <= 0 {
		return nil, &ValidationError{Field: "duration_months", Reason: "must be positive"}
	}
	if in.StartDate.IsZero() {
		return nil, &ValidationError{Field: "start_date", Reason: "required"}
	}
	if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(hundred) {
		return nil, &ValidationError{Field: "discount_percent", Reason: "must be between 0 and 100"}
	}

	freqMonths, err := frequencyMonths(in.Frequency, in.DurationMonths)
	if err != nil {
		return nil, err
	}

	count := (in.DurationMonths + freqMonths - 1) / freqMonths
	countDec := decimal.NewFromInt(int64(count))

	afterDiscount := in.Subtotal.Sub(in.Subtotal.ApplyPercent(in.DiscountPercent))
	basic := afterDiscount.Div(countDec).RoundUnit()

	taxAddOn := ZeroMoney()
	withholding := ZeroMoney()
	reimbursement := ZeroMoney()
	for _, comp := range in.Components {
		if !comp.Selected {
			continue
		}
		switch comp.Kind {
		case ComponentTaxAddOn:
			taxAddOn = basic.ApplyPercent(comp.Rate).RoundUnit()
		case ComponentWithholding:
			withholding = basic.ApplyPercent(comp.Rate).RoundUnit()
		case ComponentReimbursement:
			reimbursement = comp.LumpsumAmount.Div(countDec).RoundUnit()
		default:
			return nil, &ValidationError{Field: "components", Reason: fmt.Sprintf("unknown component kind %q", comp.Kind)}
		}
	}

	entries := make([]ScheduleEntry, count)
	for i := 0; i < count; i++ {
		entries[i] = ScheduleEntry{
			Label:               installmentLabel(in.Frequency, i, count),
			DueDate:             AddMonthsClamped(in.StartDate, i*freqMonths),
			BasicAmount:         basic,
			TaxAddOnAmount:      taxAddOn,
			WithholdingAmount:   withholding,
			ReimbursementAmount: reimbursement,
		}
	}
	return entries, nil
}

// frequencyMonths maps a frequency to installment spacing in months.
// Milestone and upfront collapse to a single installment over the term.
func frequencyMonths(f Frequency, durationMonths int) (int, error) {
	switch f {
	case FreqMonthly:
		return 1, nil
	case FreqQuarterly:
		return 3, nil
	case FreqMilestone, FreqUpfront:
		return durationMonths, nil
	default:
		return 0, &ValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q", f)}
	}
}

func installmentLabel(f Frequency, i, count int) string {
	if count == 1 {
		return "Upfront"
	}
	switch f {
	case FreqQuarterly:
		return fmt.Sprintf("Q%d", i+1)
	default:
		return fmt.Sprintf("Month %d", i+1)
	}
}
