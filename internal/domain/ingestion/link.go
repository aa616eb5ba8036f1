package ingestion

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"arena/internal/domain/credential"
	"arena/internal/infrastructure/plaid"
	"arena/internal/shared/apperrors"
	"arena/internal/shared/clock"
	"arena/internal/shared/date"
	"arena/internal/shared/logger"
)

// LinkResult summarizes a completed link. Warning is set when the holdings
// seed failed; the link itself still succeeded.
type LinkResult struct {
	CredentialID    string    `json:"credentialId"`
	InstitutionName string    `json:"institutionName"`
	Accounts        int       `json:"accounts"`
	Holdings        int       `json:"holdings"`
	AsOfDate        date.Date `json:"asOfDate"`
	Warning         string    `json:"warning,omitempty"`
}

// CreateLinkToken requests a link session token for the user.
func (s *Service) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	token, err := s.client.CreateLinkToken(ctx, userID)
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("step", "create_link_token"))
		return "", apperrors.Upstream("failed to create link token", err)
	}
	return token, nil
}

// LinkAndSeed exchanges a public token, stores the credential and its
// accounts, then seeds one holdings snapshot. Only the seed may fail without
// failing the link.
func (s *Service) LinkAndSeed(ctx context.Context, userID, publicToken string) (*LinkResult, error) {
	if strings.TrimSpace(publicToken) == "" {
		return nil, apperrors.Validation("publicToken", "publicToken is required")
	}

	ctx, span := tracer.Start(ctx, "ingestion.LinkAndSeed")
	defer span.End()

	exchange, err := s.client.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("step", "exchange_public_token"))
		return nil, apperrors.Upstream("failed to exchange public token", err)
	}

	name := s.client.InstitutionName(ctx, exchange.AccessToken)
	if !name.OK() {
		bestEffortFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("call", "institution_name")))
		logger.WarnCtx(ctx, "institution lookup failed, using fallback",
			zap.String("item_id", exchange.ItemID), zap.Error(name.Err))
	}
	institution := name.Or(plaid.UnknownInstitution)

	cred, err := s.credentials.Create(ctx, credential.CreateParams{
		UserID:          userID,
		AccessToken:     exchange.AccessToken,
		ItemID:          exchange.ItemID,
		InstitutionName: institution,
	})
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("step", "save_credential"), zap.String("item_id", exchange.ItemID))
		return nil, apperrors.Persistence("failed to save item", err)
	}

	accounts, err := s.syncAccounts(ctx, cred)
	if err != nil {
		return nil, err
	}

	result := &LinkResult{
		CredentialID:    cred.ID,
		InstitutionName: institution,
		Accounts:        accounts,
		AsOfDate:        clock.Today(s.clock),
	}

	inserted, err := s.syncHoldings(ctx, cred, result.AsOfDate)
	if err != nil {
		logger.WarnCtx(ctx, "holdings seed failed, link kept",
			zap.String("item_id", cred.ItemID), zap.Error(err))
		result.Warning = "accounts linked but holdings could not be loaded"
		return result, nil
	}
	result.Holdings = inserted

	logger.InfoCtx(ctx, "item linked",
		zap.String("item_id", cred.ItemID),
		zap.String("institution", institution),
		zap.Int("accounts", accounts),
		zap.Int("holdings", inserted))
	return result, nil
}

// syncAccounts fetches the credential's accounts and upserts them.
func (s *Service) syncAccounts(ctx context.Context, cred *credential.Credential) (int, error) {
	fetched, err := s.client.ListAccounts(ctx, cred.AccessToken)
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("step", "list_accounts"), zap.String("item_id", cred.ItemID))
		return 0, apperrors.Upstream("failed to fetch accounts", err)
	}

	rows := accountRows(cred, cred.InstitutionName, fetched)
	if _, err := s.accounts.SyncAccounts(ctx, rows); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("step", "save_accounts"), zap.String("item_id", cred.ItemID))
		return 0, apperrors.Persistence("failed to save accounts", err)
	}

	accountsUpserted.Add(ctx, int64(len(rows)))
	return len(rows), nil
}

// syncHoldings fetches the credential's holdings and appends one snapshot dated asOf.
func (s *Service) syncHoldings(ctx context.Context, cred *credential.Credential, asOf date.Date) (int, error) {
	snap, err := s.client.ListHoldings(ctx, cred.AccessToken)
	if err != nil {
		return 0, apperrors.Upstream("failed to fetch holdings", err)
	}

	n, err := s.holdings.Record(ctx, snapshotRows(cred.UserID, snap, asOf))
	if err != nil {
		return 0, apperrors.Persistence("failed to save holdings", err)
	}

	holdingsInserted.Add(ctx, int64(n), metric.WithAttributes(attribute.String("source", "aggregator")))
	return n, nil
}
