package credential

import "context"

// Repository stores credentials. Implementations keep AccessToken encrypted at rest.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Credential, error)
	GetByID(ctx context.Context, id string) (*Credential, error)
	// List returns every stored credential regardless of owner.
	List(ctx context.Context) ([]*Credential, error)
	Delete(ctx context.Context, id string) error
}
