// Package ingestion links aggregator items and records their accounts and
// holding snapshots.
package ingestion

import (
	"arena/internal/domain/account"
	"arena/internal/domain/credential"
	"arena/internal/domain/holding"
	"arena/internal/infrastructure/plaid"
	"arena/internal/shared/clock"
)

const defaultConcurrency = 4

type Config struct {
	// ResyncConcurrency bounds how many credentials refresh at once. 1 runs them in order.
	ResyncConcurrency int
}

// Service runs the link, resync and removal flows.
type Service struct {
	client      plaid.ClientInterface
	credentials credential.Repository
	accounts    *account.Service
	holdings    *holding.Service
	clock       clock.Clock
	concurrency int
}

func NewService(
	client plaid.ClientInterface,
	credentials credential.Repository,
	accounts *account.Service,
	holdings *holding.Service,
	clk clock.Clock,
	cfg Config,
) *Service {
	concurrency := cfg.ResyncConcurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		client:      client,
		credentials: credentials,
		accounts:    accounts,
		holdings:    holdings,
		clock:       clk,
		concurrency: concurrency,
	}
}
