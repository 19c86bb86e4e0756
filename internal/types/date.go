package types

import (
	"time"

	ierr "github.com/subkit/subkit/internal/errors"
)

// NextBillingDate calculates the next billing date based on the given start
// time, billing period, and billing period unit (the frequency multiplier).
// For example:
// - If billing period is MONTH and unit is 2, we add two months.
// - If billing period is YEAR and unit is 1, we add one year.
// - If billing period is DAY and unit is 10, we add 10 days.
// Month and year arithmetic is clamped so that month-boundary issues and leap
// years are handled properly (e.g. Jan 31 + 1 month = Feb 28/29).
func NextBillingDate(start time.Time, unit int, period BillingPeriod) (time.Time, error) {
	if unit <= 0 {
		return start, ierr.NewError("billing period unit must be a positive integer").
			WithHintf("Billing period unit must be a positive integer, got %d", unit).
			Mark(ierr.ErrValidation)
	}

	switch period {
	case BILLING_PERIOD_DAY:
		return AddClampedDate(start, 0, 0, unit), nil
	case BILLING_PERIOD_MONTH:
		return AddClampedDate(start, 0, unit, 0), nil
	case BILLING_PERIOD_YEAR:
		return AddClampedDate(start, unit, 0, 0), nil
	default:
		return start, ierr.NewError("invalid billing period type").
			WithHintf("Invalid billing period type: %s", period).
			Mark(ierr.ErrValidation)
	}
}

// AddClampedDate behaves like time.Time.AddDate but clamps the day of month
// to the last valid day of the target month instead of rolling over into the
// next month. The day offset is applied after clamping and rolls over
// naturally, so mixed month+day arithmetic stays anchored to a valid date.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	// If we move beyond December, it adjusts correctly,
	// for example adding 2 months to November will land on January next year.
	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	// Find the last valid day of the new month
	firstOfNextMonth := time.Date(newY, newM+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNextMonth.Add(-24 * time.Hour).Day()

	// Clamp the month/year step to a valid day before applying the day
	// offset, so e.g. Jan 31 + 1 month lands on Feb 28/29.
	if d > lastDay {
		d = lastDay
	}

	stepped := time.Date(newY, newM, d, h, min, sec, t.Nanosecond(), t.Location())
	return stepped.AddDate(0, 0, days)
}

// SameDate reports whether two instants fall on the same calendar date in UTC
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
