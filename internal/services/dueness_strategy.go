// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring rule dueness checking.
// Each frequency (monthly, weekly) has its own strategy that decides whether a
// rule fires on a given calendar day.

package services

import (
	"fmt"
	"sync"

	"fintrack/internal/core"
)

// weeklyWindowDays is the minimum number of calendar days between two
// applications of the same weekly rule.
const weeklyWindowDays = 7

// DuenessChecker is the strategy interface for checking if a recurring rule is due.
type DuenessChecker interface {
	// IsDue reports whether a rule with the given schedule and last
	// application date fires on today. lastApplied is zero when the rule
	// has never been applied.
	IsDue(schedule core.Schedule, lastApplied, today core.Date) bool
}

// MonthlyChecker fires on the scheduled day of the month, once per calendar month.
type MonthlyChecker struct{}

// IsDue returns true on the exact scheduled day when the rule has not been
// applied in today's month. Days missing from a month (e.g. 31 in April) never fire.
func (MonthlyChecker) IsDue(schedule core.Schedule, lastApplied, today core.Date) bool {
	if today.Day() != schedule.Day() {
		return false
	}
	if lastApplied.IsZero() {
		return true
	}
	return !lastApplied.SameMonth(today)
}

// WeeklyChecker fires on the scheduled weekday, at most once per 7-day window.
type WeeklyChecker struct{}

// IsDue returns true on the scheduled weekday when at least 7 calendar days
// have passed since the last application.
func (WeeklyChecker) IsDue(schedule core.Schedule, lastApplied, today core.Date) bool {
	if int(today.Weekday()) != schedule.Day() {
		return false
	}
	if lastApplied.IsZero() {
		return true
	}
	return today.DaysSince(lastApplied) >= weeklyWindowDays
}

var (
	strategiesMu sync.RWMutex

	// duenessStrategies maps frequencies to their checkers.
	duenessStrategies = map[core.Frequency]DuenessChecker{
		core.Monthly: MonthlyChecker{},
		core.Weekly:  WeeklyChecker{},
	}
)

// GetDuenessChecker returns the dueness checker for a frequency.
func GetDuenessChecker(frequency core.Frequency) (DuenessChecker, error) {
	strategiesMu.RLock()
	defer strategiesMu.RUnlock()

	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFrequency, frequency)
	}
	return checker, nil
}

// RegisterDuenessChecker replaces or adds the checker for a frequency.
func RegisterDuenessChecker(frequency core.Frequency, checker DuenessChecker) {
	strategiesMu.Lock()
	defer strategiesMu.Unlock()
	duenessStrategies[frequency] = checker
}
