package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// TransactionExporter appends one transaction as a spreadsheet row and
	// returns a reference to the written range.
	TransactionExporter interface {
		Append(ctx context.Context, t core.Transaction, categoryName string) (rowRef string, err error)
	}
)
