package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"fintrack/internal/core"
)

func sampleTransaction() core.Transaction {
	return core.Transaction{
		ID:              "tx-1",
		Date:            core.NewDate(2026, 3, 13),
		Description:     "Rent",
		Amount:          core.Money{Cents: 95000},
		Type:            core.Expense,
		CategoryID:      "cat-home",
		RecurringRuleID: "rule-1",
	}
}

func TestRow(t *testing.T) {
	tests := []struct {
		name string
		tx   core.Transaction
		want []any
	}{
		{
			name: "expense is negative",
			tx:   sampleTransaction(),
			want: []any{"2026-03-13", "Rent", "expense", "-950.00", "Home", "tx-1", "rule-1"},
		},
		{
			name: "income is positive",
			tx: core.Transaction{
				ID: "tx-2", Date: core.NewDate(2026, 3, 13), Description: "Salary",
				Amount: core.Money{Cents: 250005}, Type: core.Income,
			},
			want: []any{"2026-03-13", "Salary", "income", "2500.05", "Home", "tx-2", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Row(tt.tx, "Home"))
		})
	}
}

func TestClient_Append(t *testing.T) {
	var gotPath, gotMethod, gotQuery string
	var body struct {
		Values [][]any `json:"values"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod, gotQuery = r.URL.Path, r.Method, r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1","updates":{"updatedRange":"Transactions!A7:G7","updatedRows":1}}`)
	}))
	defer srv.Close()

	c, err := NewWithOptions(context.Background(), "sheet-1", "",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	ref, err := c.Append(context.Background(), sampleTransaction(), "Home")
	require.NoError(t, err)

	assert.Equal(t, "Transactions!A7:G7", ref)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Contains(t, gotPath, "sheet-1")
	assert.True(t, strings.HasSuffix(gotPath, ":append"), "path %q", gotPath)
	assert.Contains(t, gotQuery, "valueInputOption=USER_ENTERED")
	assert.Contains(t, gotQuery, "insertDataOption=INSERT_ROWS")
	require.Len(t, body.Values, 1)
	assert.Equal(t, "-950.00", body.Values[0][3])
}

func TestClient_AppendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := NewWithOptions(context.Background(), "sheet-1", "Ledger",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = c.Append(context.Background(), sampleTransaction(), "Home")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ledger")
}

func TestClient_AppendRejectsInvalid(t *testing.T) {
	c := &Client{spreadsheetID: "sheet-1", sheetName: "Transactions"}
	tx := sampleTransaction()
	tx.Description = "  "

	_, err := c.Append(context.Background(), tx, "Home")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestNewWithOptions_MissingSpreadsheet(t *testing.T) {
	_, err := NewWithOptions(context.Background(), " ", "Transactions", goption.WithoutAuthentication())
	assert.Error(t, err)
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	b, err := loadCredentials(context.Background(), Config{CredentialsJSON: `{"type":"service_account"}`})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"service_account"}`, string(b))

	_, err = loadCredentials(context.Background(), Config{})
	assert.Error(t, err)

	_, err = loadCredentials(context.Background(), Config{CredentialsFile: t.TempDir() + "/missing.json"})
	assert.Error(t, err)
}
