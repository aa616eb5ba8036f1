package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"arena/internal/domain/account"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, credential_id, user_id, account_id, account_name, institution_name, mask, created_at, updated_at`

// UpsertMany writes every row in a single statement keyed by (user_id, account_id).
// Existing rows keep their internal id.
func (r *AccountRepository) UpsertMany(ctx context.Context, params []account.UpsertParams) ([]*account.Account, error) {
	if len(params) == 0 {
		return nil, nil
	}

	const cols = 7
	valueStrings := make([]string, 0, len(params))
	valueArgs := make([]any, 0, len(params)*cols)
	for i, p := range params {
		id := p.ID
		if id == "" {
			id = uuid.NewString()
		}
		n := i * cols
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7))
		valueArgs = append(valueArgs,
			id, p.CredentialID, p.UserID, p.AccountID, p.Name, nullable(p.InstitutionName), nullable(p.Mask))
	}

	query := fmt.Sprintf(`
		INSERT INTO accounts (id, credential_id, user_id, account_id, account_name, institution_name, mask)
		VALUES %s
		ON CONFLICT (user_id, account_id) DO UPDATE SET
			credential_id = EXCLUDED.credential_id,
			account_name = EXCLUDED.account_name,
			institution_name = EXCLUDED.institution_name,
			mask = EXCLUDED.mask,
			updated_at = NOW()
		RETURNING %s`, strings.Join(valueStrings, ", "), accountColumns)

	rows, err := r.db.QueryContext(ctx, query, valueArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert accounts: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func (r *AccountRepository) GetByExternalID(ctx context.Context, userID, accountID string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 AND account_id = $2`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, userID, accountID))
	if err == sql.ErrNoRows {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

func (r *AccountRepository) ListByUserID(ctx context.Context, userID string) ([]*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE user_id = $1
		ORDER BY institution_name NULLS LAST, account_name, account_id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func (r *AccountRepository) CountByCredentialID(ctx context.Context, credentialID string) (int, error) {
	if _, err := uuid.Parse(credentialID); err != nil {
		return 0, nil
	}

	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE credential_id = $1`, credentialID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return n, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return account.ErrAccountNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}

func collectAccounts(rows *sql.Rows) ([]*account.Account, error) {
	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

func scanAccount(row scanner) (*account.Account, error) {
	var acc account.Account
	var credentialID, institution, mask sql.NullString

	err := row.Scan(
		&acc.ID, &credentialID, &acc.UserID, &acc.AccountID, &acc.Name,
		&institution, &mask, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if credentialID.Valid {
		acc.CredentialID = credentialID.String
	}
	acc.InstitutionName = stringPtr(institution)
	acc.Mask = stringPtr(mask)
	return &acc, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
