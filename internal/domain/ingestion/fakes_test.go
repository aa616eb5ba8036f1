package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"arena/internal/domain/account"
	"arena/internal/domain/credential"
	"arena/internal/domain/holding"
	"arena/internal/infrastructure/plaid"
	"arena/internal/shared/clock"
)

// MockClient is a mock implementation of plaid.ClientInterface
type MockClient struct {
	CreateLinkTokenFunc     func(ctx context.Context, userID string) (string, error)
	ExchangePublicTokenFunc func(ctx context.Context, publicToken string) (*plaid.Exchange, error)
	InstitutionNameFunc     func(ctx context.Context, accessToken string) plaid.Outcome[string]
	ListAccountsFunc        func(ctx context.Context, accessToken string) ([]plaid.Account, error)
	ListHoldingsFunc        func(ctx context.Context, accessToken string) (*plaid.HoldingsSnapshot, error)
	RevokeCredentialFunc    func(ctx context.Context, accessToken string) plaid.Outcome[struct{}]

	mu      sync.Mutex
	revoked []string
}

func (m *MockClient) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	if m.CreateLinkTokenFunc != nil {
		return m.CreateLinkTokenFunc(ctx, userID)
	}
	return "link-token", nil
}

func (m *MockClient) ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.Exchange, error) {
	if m.ExchangePublicTokenFunc != nil {
		return m.ExchangePublicTokenFunc(ctx, publicToken)
	}
	return &plaid.Exchange{AccessToken: "access-" + publicToken, ItemID: "item-" + publicToken}, nil
}

func (m *MockClient) InstitutionName(ctx context.Context, accessToken string) plaid.Outcome[string] {
	if m.InstitutionNameFunc != nil {
		return m.InstitutionNameFunc(ctx, accessToken)
	}
	return plaid.Succeeded("Test Brokerage")
}

func (m *MockClient) ListAccounts(ctx context.Context, accessToken string) ([]plaid.Account, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx, accessToken)
	}
	return nil, nil
}

func (m *MockClient) ListHoldings(ctx context.Context, accessToken string) (*plaid.HoldingsSnapshot, error) {
	if m.ListHoldingsFunc != nil {
		return m.ListHoldingsFunc(ctx, accessToken)
	}
	return &plaid.HoldingsSnapshot{}, nil
}

func (m *MockClient) RevokeCredential(ctx context.Context, accessToken string) plaid.Outcome[struct{}] {
	m.mu.Lock()
	m.revoked = append(m.revoked, accessToken)
	m.mu.Unlock()
	if m.RevokeCredentialFunc != nil {
		return m.RevokeCredentialFunc(ctx, accessToken)
	}
	return plaid.Succeeded(struct{}{})
}

// store is an in-memory stand-in for the three repositories.
type store struct {
	mu          sync.Mutex
	credentials map[string]*credential.Credential
	credOrder   []string
	accounts    map[string]*account.Account // keyed by user + account id
	holdings    []holding.Snapshot

	failCreate  error
	failList    error
	failUpsert  error
	failInsert  error
	upsertCalls int
	nextCredID  int
}

func newStore() *store {
	return &store{
		credentials: map[string]*credential.Credential{},
		accounts:    map[string]*account.Account{},
	}
}

func accountKey(userID, accountID string) string { return userID + "|" + accountID }

// credential.Repository

type credentialRepo struct{ s *store }

func (r credentialRepo) Create(ctx context.Context, p credential.CreateParams) (*credential.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCreate != nil {
		return nil, r.s.failCreate
	}
	r.s.nextCredID++
	c := &credential.Credential{
		ID:              fmt.Sprintf("cred-%d", r.s.nextCredID),
		UserID:          p.UserID,
		AccessToken:     p.AccessToken,
		ItemID:          p.ItemID,
		InstitutionName: p.InstitutionName,
		CreatedAt:       time.Now(),
	}
	r.s.credentials[c.ID] = c
	r.s.credOrder = append(r.s.credOrder, c.ID)
	return c, nil
}

func (r credentialRepo) GetByID(ctx context.Context, id string) (*credential.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.credentials[id]
	if !ok {
		return nil, credential.ErrCredentialNotFound
	}
	return c, nil
}

func (r credentialRepo) List(ctx context.Context) ([]*credential.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failList != nil {
		return nil, r.s.failList
	}
	var out []*credential.Credential
	for _, id := range r.s.credOrder {
		if c, ok := r.s.credentials[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r credentialRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.credentials[id]; !ok {
		return credential.ErrCredentialNotFound
	}
	delete(r.s.credentials, id)
	return nil
}

// account.Repository

type accountRepo struct{ s *store }

func (r accountRepo) UpsertMany(ctx context.Context, params []account.UpsertParams) ([]*account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.upsertCalls++
	if r.s.failUpsert != nil {
		return nil, r.s.failUpsert
	}
	var out []*account.Account
	for _, p := range params {
		key := accountKey(p.UserID, p.AccountID)
		a, ok := r.s.accounts[key]
		if !ok {
			a = &account.Account{ID: p.ID, UserID: p.UserID, AccountID: p.AccountID}
			r.s.accounts[key] = a
		}
		a.CredentialID = p.CredentialID
		a.Name = p.Name
		a.InstitutionName = p.InstitutionName
		a.Mask = p.Mask
		out = append(out, a)
	}
	return out, nil
}

func (r accountRepo) GetByExternalID(ctx context.Context, userID, accountID string) (*account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[accountKey(userID, accountID)]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return a, nil
}

func (r accountRepo) ListByUserID(ctx context.Context, userID string) ([]*account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*account.Account
	for _, a := range r.s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

func (r accountRepo) CountByCredentialID(ctx context.Context, credentialID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, a := range r.s.accounts {
		if a.CredentialID == credentialID {
			n++
		}
	}
	return n, nil
}

func (r accountRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, a := range r.s.accounts {
		if a.ID == id {
			delete(r.s.accounts, k)
			return nil
		}
	}
	return account.ErrAccountNotFound
}

// holding.Repository

type holdingRepo struct{ s *store }

func (r holdingRepo) InsertBatch(ctx context.Context, rows []holding.Snapshot) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failInsert != nil {
		return 0, r.s.failInsert
	}
	r.s.holdings = append(r.s.holdings, rows...)
	return len(rows), nil
}

func (r holdingRepo) DeleteByAccount(ctx context.Context, userID, accountID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.holdings[:0]
	var n int64
	for _, h := range r.s.holdings {
		if h.UserID == userID && h.AccountID == accountID {
			n++
			continue
		}
		kept = append(kept, h)
	}
	r.s.holdings = kept
	return n, nil
}

func (r holdingRepo) ListLatestByUserID(ctx context.Context, userID string) ([]holding.Snapshot, error) {
	return nil, errors.New("not used")
}

func (s *store) holdingsFor(accountID string) []holding.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []holding.Snapshot
	for _, h := range s.holdings {
		if h.AccountID == accountID {
			out = append(out, h)
		}
	}
	return out
}

var fixedNow = time.Date(2025, 3, 14, 23, 30, 0, 0, time.UTC)

func newTestService(client *MockClient, s *store, concurrency int) *Service {
	return NewService(
		client,
		credentialRepo{s},
		account.NewService(accountRepo{s}),
		holding.NewService(holdingRepo{s}),
		clock.Fixed(fixedNow),
		Config{ResyncConcurrency: concurrency},
	)
}
