package plaid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream serves canned JSON per path and records decoded request bodies.
type fakeUpstream struct {
	t        *testing.T
	handlers map[string]func(body map[string]any) (int, any)
	requests map[string]map[string]any
}

func newFakeUpstream(t *testing.T) (*fakeUpstream, *Client) {
	t.Helper()
	f := &fakeUpstream{
		t:        t,
		handlers: map[string]func(map[string]any) (int, any){},
		requests: map[string]map[string]any{},
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		ClientID: "client-id",
		Secret:   "secret",
		BaseURL:  srv.URL,
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)
	return f, client
}

func (f *fakeUpstream) serve(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, http.MethodPost, r.Method)
	assert.Equal(f.t, "application/json", r.Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
	f.requests[r.URL.Path] = body

	h, ok := f.handlers[r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	status, resp := h(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeUpstream) on(path string, status int, resp any) {
	f.handlers[path] = func(map[string]any) (int, any) { return status, resp }
}

func TestNewClient_Environment(t *testing.T) {
	c, err := NewClient(Config{Env: "sandbox"})
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.plaid.com", c.baseURL)
	assert.Equal(t, defaultTimeout, c.httpClient.Timeout)
	assert.Equal(t, "Arena", c.clientName)

	_, err = NewClient(Config{Env: "staging"})
	assert.Error(t, err)
}

func TestCreateLinkToken(t *testing.T) {
	f, client := newFakeUpstream(t)
	f.on(linkTokenCreatePath, http.StatusOK, map[string]any{"link_token": "link-sandbox-123"})

	token, err := client.CreateLinkToken(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "link-sandbox-123", token)

	req := f.requests[linkTokenCreatePath]
	assert.Equal(t, "client-id", req["client_id"])
	assert.Equal(t, "secret", req["secret"])
	assert.Equal(t, []any{"investments"}, req["products"])
	assert.Equal(t, []any{"US"}, req["country_codes"])
	assert.Equal(t, map[string]any{"client_user_id": "user-1"}, req["user"])
}

func TestCreateLinkToken_UpstreamFailure(t *testing.T) {
	f, client := newFakeUpstream(t)
	f.on(linkTokenCreatePath, http.StatusInternalServerError, map[string]any{
		"error_type": "API_ERROR", "error_code": "INTERNAL_SERVER_ERROR", "error_message": "boom",
	})

	_, err := client.CreateLinkToken(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", apiErr.ErrorCode)
}

func TestExchangePublicToken(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		resp      any
		wantErr   error
		wantToken string
	}{
		{
			name:      "success",
			status:    http.StatusOK,
			resp:      map[string]any{"access_token": "access-1", "item_id": "item-1"},
			wantToken: "access-1",
		},
		{
			name:   "invalid public token",
			status: http.StatusBadRequest,
			resp: map[string]any{
				"error_type": "INVALID_INPUT", "error_code": "INVALID_PUBLIC_TOKEN", "error_message": "expired",
			},
			wantErr: ErrInvalidToken,
		},
		{
			name:    "missing fields",
			status:  http.StatusOK,
			resp:    map[string]any{"access_token": ""},
			wantErr: ErrUpstreamUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, client := newFakeUpstream(t)
			f.on(publicTokenExchangePath, tt.status, tt.resp)

			ex, err := client.ExchangePublicToken(context.Background(), "public-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, ex.AccessToken)
			assert.Equal(t, "item-1", ex.ItemID)
			assert.Equal(t, "public-1", f.requests[publicTokenExchangePath]["public_token"])
		})
	}
}

func TestInstitutionName(t *testing.T) {
	t.Run("resolves name", func(t *testing.T) {
		f, client := newFakeUpstream(t)
		f.on(itemGetPath, http.StatusOK, map[string]any{"item": map[string]any{"item_id": "item-1", "institution_id": "ins_3"}})
		f.on(institutionGetPath, http.StatusOK, map[string]any{"institution": map[string]any{"name": "Chase"}})

		out := client.InstitutionName(context.Background(), "access-1")
		require.True(t, out.OK())
		assert.Equal(t, "Chase", out.Or(UnknownInstitution))
		assert.Equal(t, "ins_3", f.requests[institutionGetPath]["institution_id"])
	})

	t.Run("missing institution id falls back", func(t *testing.T) {
		f, client := newFakeUpstream(t)
		f.on(itemGetPath, http.StatusOK, map[string]any{"item": map[string]any{"item_id": "item-1", "institution_id": nil}})

		out := client.InstitutionName(context.Background(), "access-1")
		assert.ErrorIs(t, out.Err, ErrNoInstitution)
		assert.Equal(t, UnknownInstitution, out.Or(UnknownInstitution))
	})

	t.Run("lookup failure falls back", func(t *testing.T) {
		f, client := newFakeUpstream(t)
		f.on(itemGetPath, http.StatusOK, map[string]any{"item": map[string]any{"institution_id": "ins_3"}})
		f.on(institutionGetPath, http.StatusBadRequest, map[string]any{"error_type": "INVALID_INPUT", "error_code": "INVALID_INSTITUTION"})

		out := client.InstitutionName(context.Background(), "access-1")
		assert.False(t, out.OK())
		assert.Equal(t, UnknownInstitution, out.Or(UnknownInstitution))
	})
}

func TestListAccounts(t *testing.T) {
	f, client := newFakeUpstream(t)
	f.on(accountsGetPath, http.StatusOK, map[string]any{
		"accounts": []any{
			map[string]any{"account_id": "acc-1", "name": "Brokerage", "mask": "0000", "type": "investment"},
			map[string]any{"account_id": "acc-2", "name": nil, "official_name": "Roth IRA", "mask": nil},
			map[string]any{"account_id": "acc-3"},
		},
	})

	accounts, err := client.ListAccounts(context.Background(), "access-1")
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	assert.Equal(t, "Brokerage", accounts[0].DisplayName())
	assert.Equal(t, "0000", *accounts[0].Mask)
	assert.Equal(t, "Roth IRA", accounts[1].DisplayName())
	assert.Nil(t, accounts[1].Mask)
	assert.Equal(t, "Account", accounts[2].DisplayName())
	assert.Equal(t, "access-1", f.requests[accountsGetPath]["access_token"])
}

func TestListHoldings(t *testing.T) {
	f, client := newFakeUpstream(t)
	f.handlers[holdingsGetPath] = func(map[string]any) (int, any) {
		return http.StatusOK, json.RawMessage(`{
			"holdings": [
				{"account_id": "acc-1", "security_id": "sec-1", "quantity": 10.5, "institution_value": 1234.56, "iso_currency_code": "USD"},
				{"account_id": null, "security_id": "sec-x", "quantity": "n/a", "institution_value": null}
			],
			"securities": [
				{"security_id": "sec-1", "name": "NVIDIA", "ticker_symbol": "NVDA", "cusip": "67066G104", "type": "equity", "iso_currency_code": "USD"},
				{"security_id": "", "name": "orphan"}
			]
		}`)
	}

	snap, err := client.ListHoldings(context.Background(), "access-1")
	require.NoError(t, err)
	require.Len(t, snap.Holdings, 2)

	h := snap.Holdings[0]
	assert.True(t, h.Quantity.Valid)
	assert.True(t, decimal.RequireFromString("10.5").Equal(h.Quantity.Decimal))
	assert.True(t, decimal.RequireFromString("1234.56").Equal(h.InstitutionValue.Decimal))

	assert.Nil(t, snap.Holdings[1].AccountID)
	assert.False(t, snap.Holdings[1].Quantity.Valid)
	assert.False(t, snap.Holdings[1].InstitutionValue.Valid)

	idx := snap.SecurityIndex()
	assert.Len(t, idx, 1)
	assert.Equal(t, "NVDA", *idx["sec-1"].TickerSymbol)
}

func TestRevokeCredential(t *testing.T) {
	f, client := newFakeUpstream(t)
	f.on(itemRemovePath, http.StatusOK, map[string]any{"request_id": "r1"})

	out := client.RevokeCredential(context.Background(), "access-1")
	assert.True(t, out.OK())
	assert.Equal(t, "access-1", f.requests[itemRemovePath]["access_token"])

	f.on(itemRemovePath, http.StatusBadRequest, map[string]any{"error_type": "INVALID_INPUT", "error_code": "INVALID_ACCESS_TOKEN"})
	out = client.RevokeCredential(context.Background(), "access-1")
	assert.ErrorIs(t, out.Err, ErrInvalidToken)
}

func TestTransportFailure(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.ListAccounts(context.Background(), "access-1")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestTimeoutBoundsSlowUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = client.ListHoldings(context.Background(), "access-1")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "x", Succeeded("x").Or("y"))
	assert.Equal(t, "y", Failed[string](ErrNoInstitution).Or("y"))
}
