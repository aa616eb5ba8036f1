package ingestion

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer                = otel.Tracer("arena/ingestion")
	meter                 = otel.Meter("arena/ingestion")
	holdingsInserted, _   = meter.Int64Counter("ingestion.holdings.inserted", metric.WithDescription("Holding snapshot rows written"))
	accountsUpserted, _   = meter.Int64Counter("ingestion.accounts.upserted", metric.WithDescription("Account rows upserted"))
	refreshFailures, _    = meter.Int64Counter("ingestion.refresh.failures", metric.WithDescription("Credential refreshes that failed during resync"))
	bestEffortFailures, _ = meter.Int64Counter("ingestion.best_effort.failures", metric.WithDescription("Tolerated failures of best-effort upstream calls"))
	resyncDuration, _     = meter.Float64Histogram("ingestion.resync.duration", metric.WithDescription("Resync run duration in seconds"), metric.WithUnit("s"))
)
