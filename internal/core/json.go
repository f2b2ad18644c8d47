package core

import (
	"encoding/json"
)

type ruleJSON struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Amount          Money           `json:"amount"`
	Type            TransactionType `json:"type"`
	CategoryID      string          `json:"category_id,omitempty"`
	Frequency       Frequency       `json:"frequency"`
	Day             int             `json:"day"`
	LastAppliedDate Date            `json:"last_applied_date"`
}

// MarshalJSON flattens the schedule into frequency + day so clients see
// {"frequency":"monthly","day":15}.
func (r RecurringRule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{
		ID:              r.ID,
		Name:            r.Name,
		Amount:          r.Amount,
		Type:            r.Type,
		CategoryID:      r.CategoryID,
		LastAppliedDate: r.LastAppliedDate,
	}
	if r.Schedule != nil {
		out.Frequency = r.Schedule.Frequency()
		out.Day = r.Schedule.Day()
	}
	return json.Marshal(out)
}

func (r *RecurringRule) UnmarshalJSON(b []byte) error {
	var in ruleJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	sched, err := ScheduleFor(in.Frequency, in.Day)
	if err != nil {
		return err
	}
	*r = RecurringRule{
		ID:              in.ID,
		Name:            in.Name,
		Amount:          in.Amount,
		Type:            in.Type,
		CategoryID:      in.CategoryID,
		Schedule:        sched,
		LastAppliedDate: in.LastAppliedDate,
	}
	return nil
}

type transactionJSON struct {
	ID              string          `json:"id"`
	Date            Date            `json:"date"`
	Description     string          `json:"description"`
	Amount          Money           `json:"amount"`
	Type            TransactionType `json:"type"`
	CategoryID      string          `json:"category_id,omitempty"`
	RecurringRuleID string          `json:"recurring_rule_id,omitempty"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON(t))
}

func (t *Transaction) UnmarshalJSON(b []byte) error {
	var in transactionJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*t = Transaction(in)
	return nil
}

type categoryJSON struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Kind   TransactionType `json:"kind"`
	Budget Money           `json:"budget"`
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(categoryJSON(c))
}

func (c *Category) UnmarshalJSON(b []byte) error {
	var in categoryJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*c = Category(in)
	return nil
}
