package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Service contains the business logic for account operations
type Service struct {
	repo  Repository
	newID func() string
}

// NewService creates a new account service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, newID: uuid.NewString}
}

// ListAccounts returns the user's accounts ordered by institution name
func (s *Service) ListAccounts(ctx context.Context, userID string) ([]*Account, error) {
	if userID == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("user ID is required"))
	}
	accounts, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []*Account{}
	}
	return accounts, nil
}

// SyncAccounts upserts a set of accounts. Duplicate account ids within the
// set collapse to the last occurrence so the upsert never touches a row twice.
func (s *Service) SyncAccounts(ctx context.Context, params []UpsertParams) ([]*Account, error) {
	rows := dedupe(params)
	if len(rows) == 0 {
		return nil, nil
	}

	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = s.newID()
		}
		if err := rows[i].Validate(); err != nil {
			return nil, err
		}
	}

	return s.repo.UpsertMany(ctx, rows)
}

// GetAccount resolves a user's account by the aggregator's account id
func (s *Service) GetAccount(ctx context.Context, userID, accountID string) (*Account, error) {
	if accountID == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("account ID is required"))
	}
	return s.repo.GetByExternalID(ctx, userID, accountID)
}

// DeleteAccount removes an account by internal id
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// HasAccounts reports whether any account still references the credential
func (s *Service) HasAccounts(ctx context.Context, credentialID string) (bool, error) {
	n, err := s.repo.CountByCredentialID(ctx, credentialID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func dedupe(params []UpsertParams) []UpsertParams {
	pos := make(map[string]int, len(params))
	out := make([]UpsertParams, 0, len(params))
	for _, p := range params {
		key := p.UserID + "\x00" + p.AccountID
		if i, ok := pos[key]; ok {
			out[i] = p
			continue
		}
		pos[key] = len(out)
		out = append(out, p)
	}
	return out
}
