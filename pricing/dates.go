package pricing

import "time"

// =============================================================================
// CALENDAR-MONTH ARITHMETIC
// =============================================================================
// time.AddDate normalizes overflow (Jan 31 + 1 month = Mar 3). Installment
// due dates must instead hold the day-of-month constant and clamp to the
// target month's last day when it is shorter, so the clamped variant below
// is used for all schedule dates.

// AddMonthsClamped advances t by n calendar months, holding the day-of-month
// constant and clamping to the last day of the target month when needed.
func AddMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()

	totalMonths := int(month) - 1 + n
	targetYear := year + totalMonths/12
	targetMonth := time.Month(totalMonths%12 + 1)
	if totalMonths < 0 {
		// Go's integer division truncates toward zero; re-align for
		// negative month offsets.
		targetYear = year + (totalMonths-11)/12
		targetMonth = time.Month((totalMonths%12+12)%12 + 1)
	}

	if last := daysInMonth(targetYear, targetMonth); day > last {
		day = last
	}
	return time.Date(targetYear, targetMonth, day, 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
