// Package billing implements the recurring-billing engine: pure calendar
// cycle arithmetic plus the renewal, reminder and spend computations built
// on top of it.
//
// All math is day-granular and UTC-anchored. Cycle counts round up: any
// partial cycle counts as a full billed cycle. This is a deliberate
// overbilling-safe policy, including the at-least-one fallback when a count
// rounds to zero even though time has passed the start.
package billing

import (
	"fmt"
	"math"
	"time"

	"github.com/tallyhq/tally/internal/models"
)

// Advance returns start moved forward by n whole cycles. Month and year
// steps preserve the anniversary day-of-month, clamping to the last day of
// shorter months (Jan 31 + 1 month = Feb 28, + 2 months = Mar 31).
func Advance(start models.Date, c models.Cycle, n int) models.Date {
	t := start.Time()
	switch c.Unit {
	case models.UnitDay:
		t = t.AddDate(0, 0, n*c.Value)
	case models.UnitWeek:
		t = t.AddDate(0, 0, 7*n*c.Value)
	case models.UnitMonth:
		t = addMonths(t, n*c.Value)
	case models.UnitYear:
		t = addMonths(t, 12*n*c.Value)
	}
	return models.DateOf(t)
}

// CyclesInRange returns the fractional number of cycles between start and
// end. Returns 0 when end is before start.
func CyclesInRange(start, end models.Date, c models.Cycle) (float64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	return cyclesBetween(start.Time(), end.Time(), c), nil
}

// cyclesBetween is CyclesInRange over raw instants, cycle already validated.
func cyclesBetween(start, end time.Time, c models.Cycle) float64 {
	cycles := calendarDiff(start, end, c.Unit) / float64(c.Value)
	if cycles < 0 {
		return 0
	}
	return cycles
}

// calendarDiff returns the fractional calendar difference end - start in the
// given unit.
func calendarDiff(start, end time.Time, unit models.CycleUnit) float64 {
	switch unit {
	case models.UnitDay:
		return end.Sub(start).Hours() / 24
	case models.UnitWeek:
		return end.Sub(start).Hours() / 24 / 7
	case models.UnitMonth:
		return monthsBetween(start, end)
	case models.UnitYear:
		return monthsBetween(start, end) / 12
	}
	return 0
}

// monthsBetween computes the fractional month difference b - a. The whole
// part is the number of month anchors of a crossed; the fraction is measured
// against the length of the month being crossed, so Jan 15 -> Feb 15 is
// exactly 1 regardless of how long January is.
func monthsBetween(a, b time.Time) float64 {
	whole := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	anchor := addMonths(a, whole)
	if b.Before(anchor) {
		prev := addMonths(a, whole-1)
		return float64(whole) + float64(b.Sub(anchor))/float64(anchor.Sub(prev))
	}
	next := addMonths(a, whole+1)
	return float64(whole) + float64(b.Sub(anchor))/float64(next.Sub(anchor))
}

// addMonths adds months to an instant, clamping to the last day of the
// target month when the source day does not exist there (Jan 31 + 1 month =
// Feb 28). Plain AddDate would normalize into March instead.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())

	// Day 0 of the following month is the last day of the target month.
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, first.Location()).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// RenewalDateAfter returns the first renewal strictly after the given
// instant. A subscription that has not started yet renews first on its start
// date. The zero Date means no further renewals: the subscription ends
// before the next one.
func RenewalDateAfter(sub *models.Subscription, after time.Time) (models.Date, error) {
	if err := sub.Cycle.Validate(); err != nil {
		return models.Date{}, err
	}

	var next models.Date
	if sub.StartDate.Time().After(after) {
		next = sub.StartDate
	} else {
		passed := int(math.Ceil(cyclesBetween(sub.StartDate.Time(), after, sub.Cycle)))
		if passed == 0 {
			passed = 1
		}
		next = Advance(sub.StartDate, sub.Cycle, passed)
		// When after sits exactly on a renewal midnight the ceil lands on
		// it; strictly-after means the one following.
		if !next.Time().After(after) {
			next = Advance(sub.StartDate, sub.Cycle, passed+1)
		}
	}

	// The end date is an exclusive boundary for renewals: nothing renews at
	// or after it.
	if sub.Ends() && !next.Before(sub.EndDate) {
		return models.Date{}, nil
	}
	return next, nil
}

// RenewalsPassed counts completed billing cycles from the start date up to
// to, clipped to the subscription's end date. A zero to defaults to
// tomorrow, so a renewal falling today counts as passed.
func RenewalsPassed(sub *models.Subscription, now time.Time, to models.Date) (int, error) {
	if to.IsZero() {
		to = models.DateOf(now).AddDays(1)
	}
	if sub.Ends() {
		to = to.Min(sub.EndDate)
	}
	cycles, err := CyclesInRange(sub.StartDate, to, sub.Cycle)
	if err != nil {
		return 0, err
	}
	return int(math.Ceil(cycles)), nil
}

// RenewalsInRange counts renewals falling within [from, to], clipped to the
// subscription's end date.
func RenewalsInRange(sub *models.Subscription, from, to models.Date) (int, error) {
	end := to
	if sub.Ends() {
		end = end.Min(sub.EndDate)
	}

	// First renewal at or after from: strictly after the previous day.
	first, err := RenewalDateAfter(sub, from.AddDays(-1).Time())
	if err != nil {
		return 0, err
	}
	if first.IsZero() || first.After(end) {
		return 0, nil
	}

	cycles, err := CyclesInRange(first, end, sub.Cycle)
	if err != nil {
		return 0, err
	}
	count := int(math.Ceil(cycles))
	if count == 0 {
		// The first renewal itself falls on the range end.
		count = 1
	}
	return count, nil
}

// leadOffset subtracts a reminder lead time from a renewal date.
func leadOffset(renewal models.Date, lead models.ReminderLead) (models.Date, error) {
	switch lead {
	case models.LeadNone:
		return renewal, nil
	case models.LeadOneDay:
		return renewal.AddDays(-1), nil
	case models.LeadTwoDays:
		return renewal.AddDays(-2), nil
	case models.LeadThreeDays:
		return renewal.AddDays(-3), nil
	case models.LeadOneWeek:
		return renewal.AddDays(-7), nil
	case models.LeadTwoWeeks:
		return renewal.AddDays(-14), nil
	case models.LeadOneMonth:
		return models.DateOf(addMonths(renewal.Time(), -1)), nil
	case models.LeadThreeMonths:
		return models.DateOf(addMonths(renewal.Time(), -3)), nil
	case models.LeadSixMonths:
		return models.DateOf(addMonths(renewal.Time(), -6)), nil
	}
	return models.Date{}, fmt.Errorf("%w: unknown reminder lead %q", models.ErrInvalidArgument, lead)
}

// ReminderDate returns the next reminder date for the subscription, or the
// zero Date when the subscription has no lead time configured or no
// reminder is applicable anymore.
//
// The candidate renewal is the first one strictly after the end of today;
// the reminder falls lead-time before it. When that reminder has already
// passed (long lead times), the renewal after it is tried once more.
func ReminderDate(sub *models.Subscription, now time.Time) (models.Date, error) {
	if sub.ReminderLead == "" {
		return models.Date{}, nil
	}

	endOfToday := models.DateOf(now).Time().Add(24*time.Hour - time.Second)

	renewal, err := RenewalDateAfter(sub, endOfToday)
	if err != nil {
		return models.Date{}, err
	}

	for range 2 {
		if renewal.IsZero() {
			return models.Date{}, nil
		}
		reminder, err := leadOffset(renewal, sub.ReminderLead)
		if err != nil {
			return models.Date{}, err
		}
		// A reminder stays current for the whole of its own day; the
		// 12:59 cutoff within that day is IsReminderDue's call.
		if !reminder.Before(models.DateOf(now)) {
			return reminder, nil
		}
		renewal, err = RenewalDateAfter(sub, renewal.Time())
		if err != nil {
			return models.Date{}, err
		}
	}
	return models.Date{}, nil
}

// IsReminderDue reports whether a reminder scheduled for the given date
// should fire now. The threshold is 12:59 local time on the reminder date in
// the user's timezone. The fixed 12:59 cutoff is a product decision; do not
// generalize it.
func IsReminderDue(reminder models.Date, timezone string, now time.Time) (bool, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return false, fmt.Errorf("%w: unknown timezone %q", models.ErrInvalidArgument, timezone)
	}
	t := reminder.Time()
	threshold := time.Date(t.Year(), t.Month(), t.Day(), 12, 59, 0, 0, loc)
	return now.After(threshold), nil
}
