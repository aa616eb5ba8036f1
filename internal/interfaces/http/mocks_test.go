package http

import (
	"context"
	"io"
	"net/http"

	"arena/internal/domain/account"
	"arena/internal/domain/holding"
	"arena/internal/domain/ingestion"
	"arena/internal/shared/middleware"
)

const testUserID = "user-1"

type MockIngestor struct {
	CreateLinkTokenFunc func(ctx context.Context, userID string) (string, error)
	LinkAndSeedFunc     func(ctx context.Context, userID, publicToken string) (*ingestion.LinkResult, error)
	ResyncAllFunc       func(ctx context.Context) (*ingestion.ResyncResult, error)
	RemoveAccountFunc   func(ctx context.Context, userID, accountExternalID string) error
}

func (m *MockIngestor) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	if m.CreateLinkTokenFunc != nil {
		return m.CreateLinkTokenFunc(ctx, userID)
	}
	return "", nil
}

func (m *MockIngestor) LinkAndSeed(ctx context.Context, userID, publicToken string) (*ingestion.LinkResult, error) {
	if m.LinkAndSeedFunc != nil {
		return m.LinkAndSeedFunc(ctx, userID, publicToken)
	}
	return &ingestion.LinkResult{}, nil
}

func (m *MockIngestor) ResyncAll(ctx context.Context) (*ingestion.ResyncResult, error) {
	if m.ResyncAllFunc != nil {
		return m.ResyncAllFunc(ctx)
	}
	return &ingestion.ResyncResult{}, nil
}

func (m *MockIngestor) RemoveAccount(ctx context.Context, userID, accountExternalID string) error {
	if m.RemoveAccountFunc != nil {
		return m.RemoveAccountFunc(ctx, userID, accountExternalID)
	}
	return nil
}

type MockAccountLister struct {
	ListAccountsFunc func(ctx context.Context, userID string) ([]*account.Account, error)
}

func (m *MockAccountLister) ListAccounts(ctx context.Context, userID string) ([]*account.Account, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx, userID)
	}
	return []*account.Account{}, nil
}

type MockImporter struct {
	ImportFunc func(ctx context.Context, userID string, r io.Reader) (int, error)
}

func (m *MockImporter) Import(ctx context.Context, userID string, r io.Reader) (int, error) {
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, userID, r)
	}
	return 0, nil
}

type MockPortfolioReader struct {
	LatestFunc func(ctx context.Context, userID string) (*holding.Portfolio, error)
}

func (m *MockPortfolioReader) Latest(ctx context.Context, userID string) (*holding.Portfolio, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx, userID)
	}
	return &holding.Portfolio{}, nil
}

// withUser attaches the test identity the way the identity middleware does.
func withUser(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), testUserID))
}
