package holding

import (
	"context"
)

type Repository interface {
	// InsertBatch appends all rows in a single transaction and returns the count written.
	InsertBatch(ctx context.Context, rows []Snapshot) (int, error)

	// DeleteByAccount removes every snapshot of a user's account.
	DeleteByAccount(ctx context.Context, userID, accountID string) (int64, error)

	// ListLatestByUserID returns, per ticker, the rows at that ticker's most
	// recent as-of date, ordered by ticker.
	ListLatestByUserID(ctx context.Context, userID string) ([]Snapshot, error)
}
