package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"arena/internal/domain/holding"
)

// HoldingRepository appends snapshot rows. Nothing here updates a row in place.
type HoldingRepository struct {
	db *DB
}

func NewHoldingRepository(db *DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

var holdingCopyColumns = []string{
	"user_id", "account_id", "security_id", "name", "ticker", "identifier_code",
	"type", "quantity", "value", "currency_code", "as_of_date",
}

// InsertBatch streams rows into holdings with COPY inside one transaction, so
// either the whole batch lands or none of it does.
func (r *HoldingRepository) InsertBatch(ctx context.Context, rows []holding.Snapshot) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	err := r.db.InTx(ctx, "COPY holdings", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("holdings", holdingCopyColumns...))
		if err != nil {
			return fmt.Errorf("failed to prepare copy: %w", err)
		}
		defer stmt.Close()

		for _, h := range rows {
			_, err := stmt.ExecContext(ctx,
				h.UserID, h.AccountID, h.SecurityID, h.Name, h.Ticker, h.IdentifierCode,
				h.Type, h.Quantity, h.Value, h.CurrencyCode, h.AsOfDate,
			)
			if err != nil {
				return fmt.Errorf("failed to copy holding row: %w", err)
			}
		}

		if _, err := stmt.ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to flush copy: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert holdings: %w", err)
	}
	return len(rows), nil
}

func (r *HoldingRepository) DeleteByAccount(ctx context.Context, userID, accountID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM holdings WHERE user_id = $1 AND account_id = $2`, userID, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete holdings: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

// ListLatestByUserID returns the rows at each ticker's most recent as-of date.
// Same-day re-syncs write the same position more than once; only the newest
// row per (account, ticker, security) is kept.
func (r *HoldingRepository) ListLatestByUserID(ctx context.Context, userID string) ([]holding.Snapshot, error) {
	query := `
		WITH latest_dates AS (
			SELECT ticker, MAX(as_of_date) AS as_of_date
			FROM holdings
			WHERE user_id = $1
			GROUP BY ticker
		), latest AS (
			SELECT DISTINCT ON (h.account_id, h.ticker, h.security_id)
				h.user_id, h.account_id, h.security_id, h.name, h.ticker, h.identifier_code,
				h.type, h.quantity, h.value, h.currency_code, h.as_of_date
			FROM holdings h
			JOIN latest_dates d
				ON h.ticker IS NOT DISTINCT FROM d.ticker AND h.as_of_date = d.as_of_date
			WHERE h.user_id = $1
			ORDER BY h.account_id, h.ticker, h.security_id, h.id DESC
		)
		SELECT * FROM latest
		ORDER BY ticker NULLS LAST, account_id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest holdings: %w", err)
	}
	defer rows.Close()

	var snapshots []holding.Snapshot
	for rows.Next() {
		var h holding.Snapshot
		var securityID, name, ticker, identifier, typ, currency sql.NullString

		err := rows.Scan(
			&h.UserID, &h.AccountID, &securityID, &name, &ticker, &identifier,
			&typ, &h.Quantity, &h.Value, &currency, &h.AsOfDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}

		h.SecurityID = stringPtr(securityID)
		h.Name = stringPtr(name)
		h.Ticker = stringPtr(ticker)
		h.IdentifierCode = stringPtr(identifier)
		h.Type = stringPtr(typ)
		h.CurrencyCode = stringPtr(currency)
		snapshots = append(snapshots, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}
	return snapshots, nil
}
