package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	Category struct {
		ID     string
		Name   string
		Kind   TransactionType
		Budget Money // Planned spend per pay period, zero when unbudgeted
	}

	Transaction struct {
		ID              string
		Date            Date
		Description     string
		Amount          Money
		Type            TransactionType
		CategoryID      string
		RecurringRuleID string // Set when materialised from a recurring rule
	}

	RecurringRule struct {
		ID              string
		Name            string
		Amount          Money
		Type            TransactionType
		CategoryID      string
		Schedule        Schedule
		LastAppliedDate Date // Zero when never applied
	}
)

// ErrValidation is wrapped by every domain validation error so callers can
// classify failures with errors.Is without enumerating them.
var ErrValidation = errors.New("validation failed")

var (
	ErrInvalidDay         = fmt.Errorf("%w: invalid day of month", ErrValidation)
	ErrInvalidWeekday     = fmt.Errorf("%w: invalid day of week", ErrValidation)
	ErrInvalidFrequency   = fmt.Errorf("%w: invalid frequency", ErrValidation)
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidType        = fmt.Errorf("%w: invalid transaction type", ErrValidation)
	ErrInvalidDate        = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrEmptyName          = fmt.Errorf("%w: empty name", ErrValidation)
	ErrEmptyDescription   = fmt.Errorf("%w: empty description", ErrValidation)
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
	ErrMissingSchedule    = fmt.Errorf("%w: missing schedule", ErrValidation)
)

const maxTextLength = 200

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

// Signed returns the amount with the sign it contributes to a balance:
// positive for income, negative for expenses.
func (t TransactionType) Signed(m Money) int64 {
	if t == Expense {
		return -m.Cents
	}
	return m.Cents
}

func (c Category) Validate() error {
	if err := validateText(c.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := c.Kind.Validate(); err != nil {
		return err
	}
	return c.Budget.Validate()
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if err := validateText(t.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return t.Type.Validate()
}

func (r RecurringRule) Validate() error {
	if err := validateText(r.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if err := r.Type.Validate(); err != nil {
		return err
	}
	if r.Schedule == nil {
		return ErrMissingSchedule
	}
	return r.Schedule.Validate()
}

// Frequency reports the rule's schedule frequency, or "" when it has none.
func (r RecurringRule) Frequency() Frequency {
	if r.Schedule == nil {
		return ""
	}
	return r.Schedule.Frequency()
}

// Materialize builds the transaction a rule produces on the given day.
func (r RecurringRule) Materialize(id string, day Date) Transaction {
	return Transaction{
		ID:              id,
		Date:            day,
		Description:     r.Name,
		Amount:          r.Amount,
		Type:            r.Type,
		CategoryID:      r.CategoryID,
		RecurringRuleID: r.ID,
	}
}

func validateText(s string, empty error) error {
	if strings.TrimSpace(s) == "" {
		return empty
	}
	if len(s) > maxTextLength {
		return ErrDescriptionTooLong
	}
	return nil
}
