package ingestion

import (
	"context"
	"time"

	"github.com/alitto/pond/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"arena/internal/domain/credential"
	"arena/internal/shared/apperrors"
	"arena/internal/shared/clock"
	"arena/internal/shared/date"
	"arena/internal/shared/logger"
)

// ResyncResult reports one full refresh. Every snapshot written by the run
// carries AsOfDate.
type ResyncResult struct {
	AsOfDate    date.Date           `json:"asOfDate"`
	Credentials int                 `json:"credentials"`
	Accounts    int                 `json:"accounts"`
	Holdings    int                 `json:"holdings"`
	Failures    []CredentialFailure `json:"failures"`
}

type CredentialFailure struct {
	CredentialID string `json:"credentialId"`
	ItemID       string `json:"itemId"`
	Error        string `json:"error"`
}

type refreshOutcome struct {
	done     bool
	accounts int
	holdings int
	err      error
}

// ResyncAll refreshes accounts and holdings for every stored credential.
// A credential that fails is recorded and skipped; only failing to read the
// credential list fails the run.
func (s *Service) ResyncAll(ctx context.Context) (*ResyncResult, error) {
	ctx, span := tracer.Start(ctx, "ingestion.ResyncAll")
	defer span.End()

	start := time.Now()
	asOf := clock.Today(s.clock)

	creds, err := s.credentials.List(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "list credentials")
		logger.ErrorCtx(ctx, err, zap.String("step", "list_credentials"))
		return nil, apperrors.Persistence("failed to load linked items", err)
	}

	outcomes := make([]refreshOutcome, len(creds))
	pool := pond.NewPool(s.concurrency, pond.WithContext(ctx))
	for i, cred := range creds {
		pool.Submit(func() {
			accounts, holdings, err := s.refresh(ctx, cred, asOf)
			outcomes[i] = refreshOutcome{done: true, accounts: accounts, holdings: holdings, err: err}
		})
	}
	pool.StopAndWait()

	result := &ResyncResult{
		AsOfDate:    asOf,
		Credentials: len(creds),
		Failures:    []CredentialFailure{},
	}
	for i, out := range outcomes {
		if !out.done {
			out.err = ctx.Err()
			if out.err == nil {
				out.err = context.Canceled
			}
		}
		if out.err != nil {
			refreshFailures.Add(ctx, 1)
			result.Failures = append(result.Failures, CredentialFailure{
				CredentialID: creds[i].ID,
				ItemID:       creds[i].ItemID,
				Error:        apperrors.PublicMessage(out.err),
			})
			continue
		}
		result.Accounts += out.accounts
		result.Holdings += out.holdings
	}

	span.SetAttributes(
		attribute.Int("resync.credentials", result.Credentials),
		attribute.Int("resync.failures", len(result.Failures)),
	)
	resyncDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.Bool("partial", len(result.Failures) > 0)))

	logger.InfoCtx(ctx, "resync complete",
		zap.String("as_of_date", asOf.String()),
		zap.Int("credentials", result.Credentials),
		zap.Int("failures", len(result.Failures)),
		zap.Int("holdings", result.Holdings),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// refresh repeats the account and holdings steps of a link for one stored credential.
func (s *Service) refresh(ctx context.Context, cred *credential.Credential, asOf date.Date) (int, int, error) {
	accounts, err := s.syncAccounts(ctx, cred)
	if err != nil {
		logger.WarnCtx(ctx, "credential refresh failed", zap.String("item_id", cred.ItemID), zap.Error(err))
		return 0, 0, err
	}

	holdings, err := s.syncHoldings(ctx, cred, asOf)
	if err != nil {
		logger.WarnCtx(ctx, "credential holdings refresh failed", zap.String("item_id", cred.ItemID), zap.Error(err))
		return accounts, 0, err
	}
	return accounts, holdings, nil
}
