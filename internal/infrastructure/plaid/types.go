package plaid

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// UnknownInstitution is reported when the institution lookup fails.
const UnknownInstitution = "UNKNOWN"

var (
	ErrInvalidToken        = errors.New("aggregation token is invalid or expired")
	ErrUpstreamUnavailable = errors.New("aggregation service unavailable")
	ErrNoInstitution       = errors.New("item has no institution")
)

// Exchange is the durable credential returned for a public token.
type Exchange struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

type Account struct {
	AccountID    string  `json:"account_id"`
	Name         *string `json:"name"`
	OfficialName *string `json:"official_name"`
	Mask         *string `json:"mask"`
	Type         string  `json:"type"`
	Subtype      *string `json:"subtype"`
}

// DisplayName falls back from name to official name to "Account".
func (a Account) DisplayName() string {
	if a.Name != nil && *a.Name != "" {
		return *a.Name
	}
	if a.OfficialName != nil && *a.OfficialName != "" {
		return *a.OfficialName
	}
	return "Account"
}

type Holding struct {
	AccountID        *string `json:"account_id"`
	SecurityID       *string `json:"security_id"`
	Quantity         Number  `json:"quantity"`
	InstitutionValue Number  `json:"institution_value"`
	ISOCurrencyCode  *string `json:"iso_currency_code"`
}

type Security struct {
	SecurityID      string  `json:"security_id"`
	Name            *string `json:"name"`
	TickerSymbol    *string `json:"ticker_symbol"`
	CUSIP           *string `json:"cusip"`
	Type            *string `json:"type"`
	ISOCurrencyCode *string `json:"iso_currency_code"`
}

type HoldingsSnapshot struct {
	Holdings   []Holding  `json:"holdings"`
	Securities []Security `json:"securities"`
}

// SecurityIndex maps security ids to their details. Securities without an id are skipped.
func (s *HoldingsSnapshot) SecurityIndex() map[string]Security {
	idx := make(map[string]Security, len(s.Securities))
	for _, sec := range s.Securities {
		if sec.SecurityID == "" {
			continue
		}
		idx[sec.SecurityID] = sec
	}
	return idx
}

// Number is a JSON numeric field that decodes to invalid, rather than
// failing, when the payload holds null or anything that is not a number.
type Number struct {
	decimal.NullDecimal
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] == '"' || bytes.Equal(b, []byte("null")) {
		n.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		n.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	n.NullDecimal = decimal.NullDecimal{Decimal: d, Valid: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(n.Decimal.String()), nil
}

// APIError is the error envelope returned by the aggregation API.
type APIError struct {
	StatusCode   int    `json:"-"`
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	RequestID    string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid error (status %d): %s/%s: %s", e.StatusCode, e.ErrorType, e.ErrorCode, e.ErrorMessage)
}

// Unwrap classifies the error so callers can match on the package sentinels.
func (e *APIError) Unwrap() error {
	switch e.ErrorCode {
	case "INVALID_PUBLIC_TOKEN", "INVALID_ACCESS_TOKEN", "ITEM_NOT_FOUND":
		return ErrInvalidToken
	}
	if e.StatusCode >= 500 || e.ErrorType == "API_ERROR" || e.ErrorType == "RATE_LIMIT_EXCEEDED" {
		return ErrUpstreamUnavailable
	}
	return nil
}

var _ json.Unmarshaler = (*Number)(nil)
