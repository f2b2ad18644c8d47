package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/ports"
)

// TransactionCreator stores a materialised transaction.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
}

type (
	// Plan is a rule found due on Date.
	Plan struct {
		Rule core.RecurringRule
		Date core.Date
	}

	// SkippedRule is a malformed rule left out of a scan.
	SkippedRule struct {
		ID     string
		Name   string
		Reason error
	}

	ScanResult struct {
		Due     []Plan
		Skipped []SkippedRule
	}

	// Failure records a due rule whose application did not complete.
	Failure struct {
		RuleID string
		Name   string
		Err    error
	}

	// Summary reports one CheckAndApplyRecurring pass. AppliedNames follows
	// rule-set iteration order. AlreadyPresent names rules whose transaction
	// for the day existed before this pass; their marker was still advanced.
	Summary struct {
		AppliedCount   int
		AppliedNames   []string
		AlreadyPresent []string
		Failed         []Failure
	}
)

// Message renders the summary for notifications and CLI output.
func (s Summary) Message() string {
	var msg string
	switch {
	case s.AppliedCount > 0:
		msg = fmt.Sprintf("Applied %d recurring transaction(s): %s", s.AppliedCount, strings.Join(s.AppliedNames, ", "))
	case len(s.Failed) > 0:
		msg = "No recurring transactions applied"
	case len(s.AlreadyPresent) > 0:
		msg = "No new recurring transactions"
	default:
		return "No recurring transactions due"
	}

	var notes []string
	if n := len(s.AlreadyPresent); n > 0 {
		notes = append(notes, fmt.Sprintf("%d already present", n))
	}
	if n := len(s.Failed); n > 0 {
		notes = append(notes, fmt.Sprintf("%d failed", n))
	}
	if len(notes) == 0 {
		return msg
	}
	if s.AppliedCount == 0 {
		return msg + ", " + strings.Join(notes, ", ")
	}
	return msg + " (" + strings.Join(notes, ", ") + ")"
}

// RecurringProcessor materialises transactions from due recurring rules.
type RecurringProcessor struct {
	rules   ports.RuleStore
	creator TransactionCreator
}

func NewRecurringProcessor(rules ports.RuleStore, creator TransactionCreator) *RecurringProcessor {
	return &RecurringProcessor{
		rules:   rules,
		creator: creator,
	}
}

// IsDue reports whether rule fires on today. Malformed rules return an error
// and are never due.
func IsDue(rule core.RecurringRule, today core.Date) (bool, error) {
	if err := rule.Validate(); err != nil {
		return false, err
	}
	checker, err := GetDuenessChecker(rule.Schedule.Frequency())
	if err != nil {
		return false, err
	}
	return checker.IsDue(rule.Schedule, rule.LastAppliedDate, today), nil
}

// Scan selects the rules due on today without touching storage.
func (p *RecurringProcessor) Scan(rules []core.RecurringRule, today core.Date) ScanResult {
	var res ScanResult
	for _, rule := range rules {
		due, err := IsDue(rule, today)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedRule{ID: rule.ID, Name: rule.Name, Reason: err})
			continue
		}
		if due {
			res.Due = append(res.Due, Plan{Rule: rule, Date: today})
		}
	}
	return res
}

// Apply materialises each plan and advances its rule. A failing plan is
// recorded and the rest still run.
func (p *RecurringProcessor) Apply(ctx context.Context, plans []Plan) Summary {
	var sum Summary
	for _, plan := range plans {
		rule := plan.Rule
		created, err := p.applyOne(ctx, plan)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to apply recurring rule",
				"rule_id", rule.ID,
				"name", rule.Name,
				"date", plan.Date.String(),
				"error", err)
			sum.Failed = append(sum.Failed, Failure{RuleID: rule.ID, Name: rule.Name, Err: err})
			metrics.RecurringFailed.WithLabelValues(string(rule.Frequency())).Inc()
			continue
		}

		if !created {
			sum.AlreadyPresent = append(sum.AlreadyPresent, rule.Name)
			continue
		}
		sum.AppliedCount++
		sum.AppliedNames = append(sum.AppliedNames, rule.Name)
		metrics.RecurringApplied.WithLabelValues(string(rule.Frequency())).Inc()
		slog.InfoContext(ctx, "Created transaction from recurring rule",
			"rule_id", rule.ID,
			"name", rule.Name,
			"amount_cents", rule.Amount.Cents,
			"type", rule.Type,
			"frequency", rule.Frequency())
	}
	return sum
}

// applyOne reports whether a new transaction was written. A transaction
// already present for the rule and day still advances the rule.
func (p *RecurringProcessor) applyOne(ctx context.Context, plan Plan) (bool, error) {
	created := true
	_, err := p.creator.CreateTransaction(ctx, plan.Rule.Materialize("", plan.Date))
	if err != nil {
		if !IsDuplicate(err) {
			return false, fmt.Errorf("create transaction: %w", err)
		}
		created = false
		// Another runner already materialised it; only the rule marker is behind.
		slog.WarnContext(ctx, "Recurring transaction already exists, advancing rule",
			"rule_id", plan.Rule.ID,
			"date", plan.Date.String())
	}
	if err := p.rules.MarkApplied(ctx, plan.Rule.ID, plan.Date); err != nil {
		return false, fmt.Errorf("mark applied: %w", err)
	}
	return created, nil
}

// CheckAndApplyRecurring lists every rule, applies those due on today and
// reports what happened. Only a failure to list rules is returned as an error.
func (p *RecurringProcessor) CheckAndApplyRecurring(ctx context.Context, today core.Date) (Summary, error) {
	if p.rules == nil || p.creator == nil {
		return Summary{}, fmt.Errorf("processor not properly initialized")
	}

	rules, err := p.rules.ListRules(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list recurring rules: %w", err)
	}

	scan := p.Scan(rules, today)
	for _, s := range scan.Skipped {
		slog.WarnContext(ctx, "Skipping malformed recurring rule",
			"rule_id", s.ID,
			"name", s.Name,
			"reason", s.Reason)
	}
	metrics.RecurringSkipped.Add(float64(len(scan.Skipped)))

	slog.InfoContext(ctx, "Processing recurring rules",
		"total", len(rules),
		"due", len(scan.Due),
		"skipped", len(scan.Skipped),
		"date", today.String())

	sum := p.Apply(ctx, scan.Due)

	slog.InfoContext(ctx, "Recurring rule processing complete",
		"applied", sum.AppliedCount,
		"already_present", len(sum.AlreadyPresent),
		"failed", len(sum.Failed))
	return sum, nil
}
