package account

import "context"

// Repository defines the interface for account data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// UpsertMany writes all rows in one statement, overwriting the mutable
	// fields of rows that already exist for (user, account id).
	UpsertMany(ctx context.Context, params []UpsertParams) ([]*Account, error)

	// GetByExternalID retrieves a user's account by the aggregator's account id
	GetByExternalID(ctx context.Context, userID, accountID string) (*Account, error)

	// ListByUserID retrieves all accounts for a user ordered by institution
	ListByUserID(ctx context.Context, userID string) ([]*Account, error)

	// CountByCredentialID counts accounts still referencing a credential
	CountByCredentialID(ctx context.Context, credentialID string) (int, error)

	// Delete removes an account by internal id
	Delete(ctx context.Context, id string) error
}
