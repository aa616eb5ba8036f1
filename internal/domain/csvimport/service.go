package csvimport

import (
	"context"
	"io"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"arena/internal/domain/holding"
	"arena/internal/shared/apperrors"
	"arena/internal/shared/clock"
	"arena/internal/shared/logger"
)

var tracer = otel.Tracer("arena/csvimport")

type Service struct {
	holdings *holding.Service
	clock    clock.Clock
}

func NewService(holdings *holding.Service, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.New()
	}
	return &Service{holdings: holdings, clock: clk}
}

// Import parses r and appends every row as one batch. Nothing is written
// when any row is invalid.
func (s *Service) Import(ctx context.Context, userID string, r io.Reader) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, apperrors.Validation("user", "user is required")
	}

	ctx, span := tracer.Start(ctx, "csvimport.Import")
	defer span.End()

	rows, err := Parse(r, userID, clock.Today(s.clock))
	if err != nil {
		return 0, err
	}

	n, err := s.holdings.Record(ctx, rows)
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("step", "save_csv_holdings"), zap.Int("rows", len(rows)))
		return 0, apperrors.Persistence("failed to save holdings", err)
	}

	span.SetAttributes(attribute.Int("csvimport.rows", n))
	logger.InfoCtx(ctx, "csv holdings imported", zap.Int("rows", n))
	return n, nil
}
