package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/ports"
	"fintrack/internal/sheets"
)

// Store is the read side the worker needs to render a row.
type Store interface {
	ports.TransactionReader
	ListCategories(ctx context.Context) ([]core.Category, error)
}

// SyncWorker exports newly created transactions to a spreadsheet.
type SyncWorker struct {
	store    Store
	exporter sheets.TransactionExporter
}

func NewSyncWorker(store Store, exporter sheets.TransactionExporter) *SyncWorker {
	return &SyncWorker{store: store, exporter: exporter}
}

// HandleTransactionCreated loads the announced transaction and appends it.
// A transaction deleted before the message arrived is acknowledged and
// dropped; any other failure is returned so the message is redelivered.
func (w *SyncWorker) HandleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	slog.InfoContext(ctx, "Processing transaction created message", "transaction_id", msg.ID)

	t, err := w.store.GetTransaction(ctx, msg.ID)
	if errors.Is(err, ports.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction no longer exists, skipping export", "transaction_id", msg.ID)
		metrics.SheetsSynced.WithLabelValues("missing").Inc()
		return nil
	}
	if err != nil {
		metrics.SheetsSynced.WithLabelValues("error").Inc()
		return fmt.Errorf("get transaction %s: %w", msg.ID, err)
	}

	category, err := w.categoryName(ctx, t.CategoryID)
	if err != nil {
		metrics.SheetsSynced.WithLabelValues("error").Inc()
		return err
	}

	ref, err := w.exporter.Append(ctx, t, category)
	if err != nil {
		metrics.SheetsSynced.WithLabelValues("error").Inc()
		return fmt.Errorf("export transaction %s: %w", t.ID, err)
	}

	metrics.SheetsSynced.WithLabelValues("ok").Inc()
	slog.InfoContext(ctx, "Transaction exported",
		"transaction_id", t.ID,
		"date", t.Date.String(),
		"range", ref)
	return nil
}

func (w *SyncWorker) categoryName(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	cats, err := w.store.ListCategories(ctx)
	if err != nil {
		return "", fmt.Errorf("list categories: %w", err)
	}
	for _, c := range cats {
		if c.ID == id {
			return c.Name, nil
		}
	}
	return "", nil
}
