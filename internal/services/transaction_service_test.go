package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/storage/memory"
)

type recordingPublisher struct {
	ids []string
	err error
}

func (p *recordingPublisher) PublishTransactionCreated(_ context.Context, id string) error {
	p.ids = append(p.ids, id)
	return p.err
}

func sampleTransaction() core.Transaction {
	return core.Transaction{
		Date:        core.NewDate(2026, 3, 20),
		Description: "Coffee",
		Amount:      core.Money{Cents: 350},
		Type:        core.Expense,
	}
}

func TestTransactionService_Create(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)

	var changed []string
	svc.OnChange(func(d core.Date) { changed = append(changed, d.String()) })

	created, err := svc.CreateTransaction(ctx, sampleTransaction())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, []string{created.ID}, pub.ids)
	assert.Equal(t, []string{"2026-03-20"}, changed)

	got, err := svc.GetTransaction(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", got.Description)
}

func TestTransactionService_PublishFailureKeepsWrite(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTransactionService(store, &recordingPublisher{err: errors.New("broker down")})

	created, err := svc.CreateTransaction(ctx, sampleTransaction())
	require.NoError(t, err)

	_, err = store.GetTransaction(ctx, created.ID)
	assert.NoError(t, err)
}

func TestTransactionService_Validation(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil)

	tx := sampleTransaction()
	tx.Amount = core.Money{Cents: -5}
	_, err := svc.CreateTransaction(context.Background(), tx)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestTransactionService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := NewTransactionService(memory.New(), nil)

	created, err := svc.CreateTransaction(ctx, sampleTransaction())
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTransaction(ctx, created.ID))

	err = svc.DeleteTransaction(ctx, created.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestTransactionService_ListRejectsInvertedRange(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil)

	_, err := svc.ListTransactions(context.Background(), core.NewDate(2026, 3, 20), core.NewDate(2026, 3, 1))
	assert.ErrorIs(t, err, core.ErrInvalidDate)
}
