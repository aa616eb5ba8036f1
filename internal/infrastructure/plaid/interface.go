package plaid

import (
	"context"
)

// ClientInterface defines the calls the ingestion flow makes against the
// aggregation API. InstitutionName and RevokeCredential are best-effort and
// report failure through Outcome instead of an error return.
type ClientInterface interface {
	CreateLinkToken(ctx context.Context, userID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*Exchange, error)
	InstitutionName(ctx context.Context, accessToken string) Outcome[string]
	ListAccounts(ctx context.Context, accessToken string) ([]Account, error)
	ListHoldings(ctx context.Context, accessToken string) (*HoldingsSnapshot, error)
	RevokeCredential(ctx context.Context, accessToken string) Outcome[struct{}]
}

// Outcome is the result of a call whose failure the caller is expected to
// tolerate. Err is kept so the caller can log it.
type Outcome[T any] struct {
	Value T
	Err   error
}

func Succeeded[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

func Failed[T any](err error) Outcome[T] {
	return Outcome[T]{Err: err}
}

func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// Or returns the value, or fallback when the call failed.
func (o Outcome[T]) Or(fallback T) T {
	if o.Err != nil {
		return fallback
	}
	return o.Value
}
