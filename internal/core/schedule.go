package core

import "time"

const (
	Monthly Frequency = "monthly"
	Weekly  Frequency = "weekly"
)

type Frequency string

// Schedule is the closed set of recurrence shapes a rule can carry:
// MonthlySchedule or WeeklySchedule.
type Schedule interface {
	Frequency() Frequency
	// Day is the day-of-month for monthly schedules and the weekday
	// number (Sunday=0) for weekly ones.
	Day() int
	Validate() error
	isSchedule()
}

// MonthlySchedule fires on a fixed day of the month (1-31).
type MonthlySchedule struct {
	DayOfMonth int
}

// WeeklySchedule fires on a fixed day of the week.
type WeeklySchedule struct {
	Weekday time.Weekday
}

func (MonthlySchedule) Frequency() Frequency { return Monthly }
func (s MonthlySchedule) Day() int           { return s.DayOfMonth }
func (MonthlySchedule) isSchedule()          {}

func (s MonthlySchedule) Validate() error {
	if s.DayOfMonth < 1 || s.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	return nil
}

func (WeeklySchedule) Frequency() Frequency { return Weekly }
func (s WeeklySchedule) Day() int           { return int(s.Weekday) }
func (WeeklySchedule) isSchedule()          {}

func (s WeeklySchedule) Validate() error {
	if s.Weekday < time.Sunday || s.Weekday > time.Saturday {
		return ErrInvalidWeekday
	}
	return nil
}

// ScheduleFor builds the schedule variant for a stored (frequency, day) pair.
// The day is not range-checked here; call Validate on the result.
func ScheduleFor(freq Frequency, day int) (Schedule, error) {
	switch freq {
	case Monthly:
		return MonthlySchedule{DayOfMonth: day}, nil
	case Weekly:
		return WeeklySchedule{Weekday: time.Weekday(day)}, nil
	default:
		return nil, ErrInvalidFrequency
	}
}
