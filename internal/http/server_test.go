package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/services"
	"fintrack/internal/storage/memory"
)

// 2026-03-13 is the adjusted payday of March 2026 (the 15th is a Sunday).
var fixedNow = time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, writesPerMinute int) *Server {
	t.Helper()
	store := memory.New()
	txs := services.NewTransactionService(store, nil)
	summaries := services.NewSummaryService(store, time.UTC, 0)
	txs.OnChange(summaries.Invalidate)
	processor := services.NewRecurringProcessor(store, txs)

	s := NewServer(":0", Deps{
		Store:           store,
		Transactions:    txs,
		Summaries:       summaries,
		Automation:      services.NewRecurringAutomation(processor, store, time.UTC),
		Location:        time.UTC,
		MetricsEnabled:  true,
		WritesPerMinute: writesPerMinute,
	})
	s.now = func() time.Time { return fixedNow }
	t.Cleanup(s.limiter.stop)
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, 0)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	}
}

func TestCategories(t *testing.T) {
	s := newTestServer(t, 0)

	rr := do(t, s, http.MethodPost, "/api/v1/categories", `{"name":"Housing","kind":"expense","budget":"1200"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[map[string]any](t, rr)
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, "1200.00", created["budget"])

	tests := []struct {
		name string
		body string
		want int
	}{
		{"duplicate name", `{"name":"Housing","kind":"expense"}`, http.StatusConflict},
		{"invalid kind", `{"name":"Misc","kind":"transfer"}`, http.StatusUnprocessableEntity},
		{"negative budget", `{"name":"Misc","kind":"expense","budget":"-1"}`, http.StatusUnprocessableEntity},
		{"trailing data", `{"name":"Misc","kind":"expense"} {}`, http.StatusBadRequest},
		{"malformed", `{"name":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, s, http.MethodPost, "/api/v1/categories", tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
			assert.NotEmpty(t, decode[errorBody](t, rr).Error.Message)
		})
	}

	list := decode[[]map[string]any](t, do(t, s, http.MethodGet, "/api/v1/categories", ""))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/v1/categories/"+created["id"].(string), "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/api/v1/categories/missing", "").Code)
}

func TestTransactions(t *testing.T) {
	s := newTestServer(t, 0)

	rr := do(t, s, http.MethodPost, "/api/v1/transactions",
		`{"date":"2026-03-14","description":"Groceries","amount":"42.10","type":"expense","recurring_rule_id":"forged"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[map[string]any](t, rr)
	id := created["id"].(string)
	assert.NotEmpty(t, id)
	assert.Nil(t, created["recurring_rule_id"])

	rr = do(t, s, http.MethodPost, "/api/v1/transactions",
		`{"date":"2026-02-01","description":"Bonus","amount":"100","type":"income"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	tests := []struct {
		name  string
		query string
		want  int
		count int
	}{
		{"all", "", http.StatusOK, 2},
		{"from", "?from=2026-03-01", http.StatusOK, 1},
		{"range", "?from=2026-01-01&to=2026-02-28", http.StatusOK, 1},
		{"bad date", "?from=2026-13-01", http.StatusUnprocessableEntity, 0},
		{"inverted", "?from=2026-03-01&to=2026-02-01", http.StatusUnprocessableEntity, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, s, http.MethodGet, "/api/v1/transactions"+tt.query, "")
			require.Equal(t, tt.want, rr.Code, rr.Body.String())
			if tt.want == http.StatusOK {
				assert.Len(t, decode[[]map[string]any](t, rr), tt.count)
			}
		})
	}

	bad := do(t, s, http.MethodPost, "/api/v1/transactions", `{"date":"2026-03-14","description":" ","amount":"1","type":"expense"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, bad.Code)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/v1/transactions/"+id, "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/v1/transactions/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/v1/transactions/"+id, "").Code)
}

func TestRecurringRulesAndRun(t *testing.T) {
	s := newTestServer(t, 0)

	rr := do(t, s, http.MethodPost, "/api/v1/recurring-rules",
		`{"name":"Rent","amount":"950","type":"expense","frequency":"monthly","day":13}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	id := decode[map[string]any](t, rr)["id"].(string)

	invalid := []string{
		`{"name":"Bad","amount":"1","type":"expense","frequency":"monthly","day":32}`,
		`{"name":"Bad","amount":"1","type":"expense","frequency":"yearly","day":1}`,
		`{"name":"","amount":"1","type":"expense","frequency":"weekly","day":1}`,
	}
	for _, body := range invalid {
		assert.Equal(t, http.StatusUnprocessableEntity, do(t, s, http.MethodPost, "/api/v1/recurring-rules", body).Code, body)
	}

	run := decode[runResponse](t, do(t, s, http.MethodPost, "/api/v1/recurring/run", ""))
	assert.True(t, run.Ran)
	assert.Equal(t, "2026-03-13", run.Day)
	assert.Equal(t, 1, run.AppliedCount)
	assert.Equal(t, []string{"Rent"}, run.AppliedNames)
	assert.Empty(t, run.AlreadyPresent)
	assert.Equal(t, "Applied 1 recurring transaction(s): Rent", run.Message)

	again := decode[runResponse](t, do(t, s, http.MethodPost, "/api/v1/recurring/run", ""))
	assert.False(t, again.Ran)
	assert.Equal(t, 0, again.AppliedCount)

	status := decode[map[string]any](t, do(t, s, http.MethodGet, "/api/v1/recurring/status", ""))
	assert.Equal(t, "2026-03-13", status["last_run_date"])
	assert.Equal(t, true, status["ran_today"])

	rr = do(t, s, http.MethodPut, "/api/v1/recurring-rules/"+id,
		`{"name":"Rent","amount":"990","type":"expense","frequency":"monthly","day":13,"last_applied_date":null}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[map[string]any](t, rr)
	assert.Equal(t, "990.00", updated["amount"])
	assert.Equal(t, "2026-03-13", updated["last_applied_date"])

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPut, "/api/v1/recurring-rules/missing",
		`{"name":"X","amount":"1","type":"expense","frequency":"weekly","day":1}`).Code)

	txs := decode[[]map[string]any](t, do(t, s, http.MethodGet, "/api/v1/transactions", ""))
	require.Len(t, txs, 1)
	assert.Equal(t, id, txs[0]["recurring_rule_id"])

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/v1/recurring-rules/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/v1/recurring-rules/"+id, "").Code)
}

func TestPayPeriod(t *testing.T) {
	s := newTestServer(t, 0)

	tests := []struct {
		query     string
		wantStart string
		wantEnd   string
	}{
		{"", "2026-03-13", "2026-04-14"},
		{"?date=2026-02-10", "2026-01-15", "2026-02-12"},
		{"?date=2026-01-03", "2025-12-15", "2026-01-14"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := do(t, s, http.MethodGet, "/api/v1/pay-period"+tt.query, "")
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			p := decode[map[string]any](t, rr)
			assert.Equal(t, tt.wantStart, p["start"])
			assert.Equal(t, tt.wantEnd, p["end"])
			assert.Equal(t, tt.wantStart, p["key"])
		})
	}

	assert.Equal(t, http.StatusUnprocessableEntity, do(t, s, http.MethodGet, "/api/v1/pay-period?date=nope", "").Code)
}

func TestPayPeriodSummary(t *testing.T) {
	s := newTestServer(t, 0)

	before := decode[services.PeriodSummary](t, do(t, s, http.MethodGet, "/api/v1/pay-period/summary", ""))
	assert.Equal(t, 0, before.TransactionCount)

	do(t, s, http.MethodPost, "/api/v1/transactions", `{"date":"2026-03-20","description":"Salary","amount":"2000","type":"income"}`)
	do(t, s, http.MethodPost, "/api/v1/transactions", `{"date":"2026-03-21","description":"Food","amount":"150.50","type":"expense"}`)

	after := decode[services.PeriodSummary](t, do(t, s, http.MethodGet, "/api/v1/pay-period/summary", ""))
	assert.Equal(t, 2, after.TransactionCount)
	assert.Equal(t, int64(200000), after.IncomeCents)
	assert.Equal(t, int64(15050), after.ExpenseCents)
	assert.Equal(t, "1849.50", after.Net)
}

func TestRateLimitWrites(t *testing.T) {
	s := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		rr := do(t, s, http.MethodPost, "/api/v1/categories", `{"name":"C`+string(rune('a'+i))+`","kind":"expense"}`)
		require.Equal(t, http.StatusCreated, rr.Code)
	}
	rr := do(t, s, http.MethodPost, "/api/v1/categories", `{"name":"Cz","kind":"expense"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/v1/categories", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, 0)
	do(t, s, http.MethodGet, "/healthz", "")

	rr := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "fintrack_http_requests_total")
}
