package ports

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Ports for outbound adapters.
type (
	// RuleStore owns recurring rule definitions. The automation engine only
	// lists rules and advances LastAppliedDate through MarkApplied.
	RuleStore interface {
		ListRules(ctx context.Context) ([]core.RecurringRule, error)
		GetRule(ctx context.Context, id string) (core.RecurringRule, error)
		SaveRule(ctx context.Context, r core.RecurringRule) error
		DeleteRule(ctx context.Context, id string) error
		// MarkApplied sets LastAppliedDate to day unless the stored date is
		// already later, keeping it monotonically non-decreasing.
		MarkApplied(ctx context.Context, id string, day core.Date) error
	}

	// TransactionWriter persists transactions. Writing a second transaction
	// for the same (RecurringRuleID, Date) returns ErrDuplicate.
	TransactionWriter interface {
		AddTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id string) error
	}

	TransactionReader interface {
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		// ListTransactions returns transactions dated within [from, to],
		// ordered by date. Zero bounds are open.
		ListTransactions(ctx context.Context, from, to core.Date) ([]core.Transaction, error)
	}

	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		SaveCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id string) error
	}

	// StateStore is a small persisted key/value map used for run markers.
	StateStore interface {
		GetState(ctx context.Context, key string) (value string, ok bool, err error)
		// CompareAndSwapState sets key to next only if its current value is
		// prev (an empty prev means the key must be absent). An empty next
		// removes the key. It reports whether the swap happened.
		CompareAndSwapState(ctx context.Context, key, prev, next string) (bool, error)
	}

	// Store bundles every port a backend provides.
	Store interface {
		RuleStore
		TransactionWriter
		TransactionReader
		CategoryStore
		StateStore
		Close() error
	}
)
