package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// Publisher announces stored transactions to downstream consumers.
type Publisher interface {
	PublishTransactionCreated(ctx context.Context, id string) error
}

// TransactionStore is the storage a TransactionService needs.
type TransactionStore interface {
	ports.TransactionWriter
	ports.TransactionReader
}

// TransactionService orchestrates transaction writes across storage and AMQP.
type TransactionService struct {
	store     TransactionStore
	publisher Publisher
	onChange  []func(core.Date)
}

// NewTransactionService creates the service. publisher may be nil.
func NewTransactionService(store TransactionStore, publisher Publisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

// OnChange registers a callback invoked with the date of every transaction
// written or deleted through the service.
func (s *TransactionService) OnChange(fn func(core.Date)) {
	s.onChange = append(s.onChange, fn)
}

// CreateTransaction validates and stores t, assigning an ID when empty, then
// publishes a created message. Publish failures are logged, not returned.
func (s *TransactionService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	if err := s.store.AddTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.notify(t.Date)

	if err := s.publishCreated(ctx, t.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction created message",
			"id", t.ID, "error", err)
	}
	return t, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, id string) error {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.notify(t.Date)
	return nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *TransactionService) ListTransactions(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from.Time) {
		return nil, fmt.Errorf("%w: range end %s before start %s", core.ErrInvalidDate, to, from)
	}
	return s.store.ListTransactions(ctx, from, to)
}

// IsDuplicate reports whether err signals an already materialised transaction.
func IsDuplicate(err error) bool {
	return errors.Is(err, ports.ErrDuplicate)
}

func (s *TransactionService) notify(d core.Date) {
	for _, fn := range s.onChange {
		fn(d)
	}
}

func (s *TransactionService) publishCreated(ctx context.Context, id string) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping created message")
		return nil
	}
	return s.publisher.PublishTransactionCreated(ctx, id)
}
