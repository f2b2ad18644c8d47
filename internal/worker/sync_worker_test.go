package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

type fakeExporter struct {
	rows []string
	err  error
}

func (f *fakeExporter) Append(_ context.Context, t core.Transaction, category string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.rows = append(f.rows, t.ID+"|"+category)
	return "Transactions!A2:G2", nil
}

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.SaveCategory(ctx, core.Category{ID: "c1", Name: "Groceries", Kind: core.Expense}))
	require.NoError(t, s.AddTransaction(ctx, core.Transaction{
		ID: "t1", Date: core.NewDate(2026, 4, 2), Description: "Market",
		Amount: core.Money{Cents: 4210}, Type: core.Expense, CategoryID: "c1",
	}))
	require.NoError(t, s.AddTransaction(ctx, core.Transaction{
		ID: "t2", Date: core.NewDate(2026, 4, 2), Description: "Gift",
		Amount: core.Money{Cents: 1000}, Type: core.Income,
	}))
	return s
}

func TestSyncWorker_HandleTransactionCreated(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		expErr  error
		wantErr bool
		want    []string
	}{
		{name: "with category", id: "t1", want: []string{"t1|Groceries"}},
		{name: "without category", id: "t2", want: []string{"t2|"}},
		{name: "deleted transaction is dropped", id: "gone"},
		{name: "export failure is retried", id: "t1", expErr: errors.New("quota"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := &fakeExporter{err: tt.expErr}
			w := NewSyncWorker(seeded(t), exp)

			err := w.HandleTransactionCreated(context.Background(), amqp.NewTransactionCreatedMessage(tt.id))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, exp.rows)
		})
	}
}
