package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/core"
)

func TestCreateBackend(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func(t *testing.T) Config
		wantErr bool
	}{
		{
			name: "memory",
			cfg:  func(*testing.T) Config { return Config{Type: MemoryBackend} },
		},
		{
			name: "sqlite",
			cfg: func(t *testing.T) Config {
				return Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "db", "fintrack.db")}
			},
		},
		{
			name:    "unknown",
			cfg:     func(*testing.T) Config { return Config{Type: "sheets"} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewFactory(nil).CreateBackend(context.Background(), tt.cfg(t))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer res.Cleanup()

			assert.Nil(t, res.Publisher)
			ok, err := res.Store.CompareAndSwapState(context.Background(), "k", "", "v")
			require.NoError(t, err)
			assert.True(t, ok)
			require.NoError(t, res.Store.SaveCategory(context.Background(),
				core.Category{ID: "c1", Name: "Food", Kind: core.Expense}))
		})
	}
}

func TestCreateBackend_UnreachableBroker(t *testing.T) {
	f := NewFactory(nil)
	f.dial = func(Config) (*amqp.Client, error) { return nil, errors.New("connection refused") }

	res, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend, AMQPURL: "amqp://nowhere"})
	require.NoError(t, err)
	defer res.Cleanup()
	assert.Nil(t, res.Publisher)
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	assert.Error(t, err)

	got, err := FromAppConfig(&config.Config{
		DataBackend:   "sqlite",
		SQLiteDBPath:  "/tmp/x.db",
		AMQPURL:       "amqp://localhost",
		AMQPExchange:  "ex",
		AMQPQueue:     "q",
		SyncBatchSize: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, Config{
		Type: SQLiteBackend, SQLiteDBPath: "/tmp/x.db",
		AMQPURL: "amqp://localhost", AMQPExchange: "ex", AMQPQueue: "q", Prefetch: 25,
	}, got)
}
