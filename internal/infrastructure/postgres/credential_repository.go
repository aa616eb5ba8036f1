package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"arena/internal/domain/credential"
	"arena/internal/infrastructure/crypto"
)

// CredentialRepository implements credential.Repository. Access tokens are
// encrypted before they are written and decrypted on read.
type CredentialRepository struct {
	db        *DB
	encryptor *crypto.Encryptor
}

func NewCredentialRepository(db *DB, encryptor *crypto.Encryptor) *CredentialRepository {
	return &CredentialRepository{db: db, encryptor: encryptor}
}

const credentialColumns = `id, user_id, access_credential, item_id, institution_name, created_at`

// Create stores a credential. Linking the same item again replaces its token.
func (r *CredentialRepository) Create(ctx context.Context, params credential.CreateParams) (*credential.Credential, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	encrypted, err := r.encryptor.Encrypt(params.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	query := `
		INSERT INTO credentials (id, user_id, access_credential, item_id, institution_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id) DO UPDATE SET
			access_credential = EXCLUDED.access_credential,
			institution_name = EXCLUDED.institution_name
		RETURNING ` + credentialColumns

	cred, err := r.scan(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), params.UserID, encrypted, params.ItemID, params.InstitutionName,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}
	return cred, nil
}

func (r *CredentialRepository) GetByID(ctx context.Context, id string) (*credential.Credential, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, credential.ErrCredentialNotFound
	}

	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE id = $1`

	cred, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, credential.ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return cred, nil
}

func (r *CredentialRepository) List(ctx context.Context) ([]*credential.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var creds []*credential.Credential
	for rows.Next() {
		cred, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credentials: %w", err)
	}
	return creds, nil
}

func (r *CredentialRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return credential.ErrCredentialNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return credential.ErrCredentialNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *CredentialRepository) scan(row scanner) (*credential.Credential, error) {
	var c credential.Credential
	var encrypted string
	if err := row.Scan(&c.ID, &c.UserID, &encrypted, &c.ItemID, &c.InstitutionName, &c.CreatedAt); err != nil {
		return nil, err
	}

	token, err := r.encryptor.Decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token for item %s: %w", c.ItemID, err)
	}
	c.AccessToken = token
	return &c, nil
}
