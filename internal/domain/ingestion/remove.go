package ingestion

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"arena/internal/domain/account"
	"arena/internal/domain/credential"
	"arena/internal/shared/apperrors"
	"arena/internal/shared/logger"
)

// RemoveAccount deletes a user's account and its snapshot history. When it
// was the credential's last account the item is revoked upstream, best
// effort, and the credential row is deleted.
func (s *Service) RemoveAccount(ctx context.Context, userID, accountExternalID string) error {
	if strings.TrimSpace(accountExternalID) == "" {
		return apperrors.Validation("accountExternalId", "accountExternalId is required")
	}

	ctx, span := tracer.Start(ctx, "ingestion.RemoveAccount")
	defer span.End()

	acc, err := s.accounts.GetAccount(ctx, userID, accountExternalID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return apperrors.NotFound("account not found")
		}
		return apperrors.Persistence("failed to load account", err)
	}

	if err := s.holdings.RemoveForAccount(ctx, userID, acc.AccountID); err != nil {
		return apperrors.Persistence("failed to remove holdings", err)
	}
	if err := s.accounts.DeleteAccount(ctx, acc.ID); err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return apperrors.NotFound("account not found")
		}
		return apperrors.Persistence("failed to remove account", err)
	}

	remaining, err := s.accounts.HasAccounts(ctx, acc.CredentialID)
	if err != nil {
		return apperrors.Persistence("failed to check remaining accounts", err)
	}
	if remaining {
		return nil
	}

	return s.removeCredential(ctx, acc.CredentialID)
}

func (s *Service) removeCredential(ctx context.Context, credentialID string) error {
	cred, err := s.credentials.GetByID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, credential.ErrCredentialNotFound) {
			return nil
		}
		return apperrors.Persistence("failed to load item", err)
	}

	if revoked := s.client.RevokeCredential(ctx, cred.AccessToken); !revoked.OK() {
		bestEffortFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("call", "revoke_credential")))
		logger.WarnCtx(ctx, "upstream revocation failed, removing item locally",
			zap.String("item_id", cred.ItemID), zap.Error(revoked.Err))
	}

	if err := s.credentials.Delete(ctx, cred.ID); err != nil && !errors.Is(err, credential.ErrCredentialNotFound) {
		return apperrors.Persistence("failed to remove item", err)
	}

	logger.InfoCtx(ctx, "item removed", zap.String("item_id", cred.ItemID))
	return nil
}
