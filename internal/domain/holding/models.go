package holding

import (
	"errors"

	"github.com/shopspring/decimal"

	"arena/internal/shared/date"
)

const (
	// UnknownAccount stands in for holdings the aggregator returns without an account.
	UnknownAccount = "UNKNOWN"
	// CSVAccount is the account id given to uploaded rows that carry none.
	CSVAccount = "CSV Upload"
	// DefaultCurrency applies to uploaded rows that carry no currency.
	DefaultCurrency = "USD"
)

var ErrInvalidSnapshot = errors.New("invalid holding snapshot")

// Snapshot is one dated position of a security in an account. Rows are
// append-only: a new row is written on every sync, even for a date already present.
type Snapshot struct {
	UserID         string              `json:"userId"`
	AccountID      string              `json:"accountId"`
	SecurityID     *string             `json:"securityId"`
	Name           *string             `json:"name"`
	Ticker         *string             `json:"ticker"`
	IdentifierCode *string             `json:"identifierCode"`
	Type           *string             `json:"type"`
	Quantity       decimal.NullDecimal `json:"quantity"`
	Value          decimal.NullDecimal `json:"value"`
	CurrencyCode   *string             `json:"currencyCode"`
	AsOfDate       date.Date           `json:"asOfDate"`
}

func (s Snapshot) Validate() error {
	switch {
	case s.UserID == "":
		return errors.Join(ErrInvalidSnapshot, errors.New("user ID is required"))
	case s.AccountID == "":
		return errors.Join(ErrInvalidSnapshot, errors.New("account ID is required"))
	case s.AsOfDate.IsZero():
		return errors.Join(ErrInvalidSnapshot, errors.New("as-of date is required"))
	}
	return nil
}

// Position is a latest snapshot row with its share of the portfolio.
type Position struct {
	Snapshot
	Allocation   decimal.Decimal `json:"allocation"`
	DisplayValue string          `json:"displayValue"`
}

// Portfolio is the latest-holdings view for one user.
type Portfolio struct {
	AsOfDate  date.Date       `json:"asOfDate"`
	Total     decimal.Decimal `json:"total"`
	Positions []Position      `json:"holdings"`
}
