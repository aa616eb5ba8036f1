package holding

import (
	"context"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record validates and appends a batch of snapshots. An empty batch is a no-op.
func (s *Service) Record(ctx context.Context, rows []Snapshot) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	for _, r := range rows {
		if err := r.Validate(); err != nil {
			return 0, err
		}
	}
	return s.repo.InsertBatch(ctx, rows)
}

// RemoveForAccount deletes an account's snapshot history.
func (s *Service) RemoveForAccount(ctx context.Context, userID, accountID string) error {
	_, err := s.repo.DeleteByAccount(ctx, userID, accountID)
	return err
}

// Latest builds the user's current portfolio from the most recent snapshot
// of each ticker. Rows without a value count as zero.
func (s *Service) Latest(ctx context.Context, userID string) (*Portfolio, error) {
	rows, err := s.repo.ListLatestByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &Portfolio{Total: decimal.Zero, Positions: make([]Position, 0, len(rows))}
	for _, r := range rows {
		if r.Value.Valid {
			p.Total = p.Total.Add(r.Value.Decimal)
		}
		if r.AsOfDate.After(p.AsOfDate) {
			p.AsOfDate = r.AsOfDate
		}
	}

	for _, r := range rows {
		pos := Position{Snapshot: r, Allocation: decimal.Zero}
		value := decimal.Zero
		if r.Value.Valid {
			value = r.Value.Decimal
		}
		if !p.Total.IsZero() {
			pos.Allocation = value.Div(p.Total).Mul(hundred).Round(2)
		}
		pos.DisplayValue = FormatMoney(value, currencyOf(r))
		p.Positions = append(p.Positions, pos)
	}
	return p, nil
}

func currencyOf(r Snapshot) string {
	if r.CurrencyCode == nil || *r.CurrencyCode == "" {
		return DefaultCurrency
	}
	return strings.ToUpper(*r.CurrencyCode)
}

// FormatMoney renders amount in the currency's conventional format, e.g. "$1,000.00".
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.New(0, currency).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}
