// Package payperiod computes pay-period boundaries.
//
// Payday is the 15th of each month. When the 15th falls on a weekend the
// payday moves back to the preceding Friday (Saturday -> 14th, Sunday -> 13th).
// A pay period runs from one adjusted payday up to the day before the next.
package payperiod

import (
	"time"

	"fintrack/internal/core"
)

// PaydayOfMonth is the nominal payday before weekend adjustment.
const PaydayOfMonth = 15

// Period is the pay period containing some reference instant.
type Period struct {
	Start core.Date // Adjusted payday opening the period
	End   core.Date // Last day before the next adjusted payday
	Key   string    // Start as YYYY-MM-DD
}

// AdjustedPaydayForMonth returns the payday of the given month at midnight in
// loc. Month values outside 1-12 are normalised by time.Date, so month 0 is
// December of the previous year.
func AdjustedPaydayForMonth(year int, month time.Month, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	payday := time.Date(year, month, PaydayOfMonth, 0, 0, 0, 0, loc)
	switch payday.Weekday() {
	case time.Saturday:
		return payday.AddDate(0, 0, -1)
	case time.Sunday:
		return payday.AddDate(0, 0, -2)
	default:
		return payday
	}
}

// CurrentStart returns the start of the pay period containing ref.
//
// ref is compared by timestamp against this month's payday (built at
// midnight in ref's location) without truncation: any instant on the payday
// itself counts as inside the new period.
func CurrentStart(ref time.Time) time.Time {
	loc := ref.Location()
	payday := AdjustedPaydayForMonth(ref.Year(), ref.Month(), loc)
	if !ref.Before(payday) {
		return payday
	}
	return AdjustedPaydayForMonth(ref.Year(), ref.Month()-1, loc)
}

// CurrentKey returns CurrentStart(ref) formatted as YYYY-MM-DD from its local
// calendar fields.
func CurrentKey(ref time.Time) string {
	return CurrentStart(ref).Format(core.DateLayout)
}

// Current returns the full period containing ref.
func Current(ref time.Time) Period {
	start := CurrentStart(ref)
	next := AdjustedPaydayForMonth(start.Year(), start.Month()+1, start.Location())
	return Period{
		Start: core.DateOf(start),
		End:   core.DateOf(next.AddDate(0, 0, -1)),
		Key:   start.Format(core.DateLayout),
	}
}

// Contains reports whether d falls inside the period, inclusive on both ends.
func (p Period) Contains(d core.Date) bool {
	day := core.DateOf(time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, p.Start.Location()))
	return !day.Before(p.Start.Time) && !day.After(p.End.Time)
}
