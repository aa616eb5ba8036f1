package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultClientName = "Arena"

	linkTokenCreatePath     = "/link/token/create"
	publicTokenExchangePath = "/item/public_token/exchange"
	itemGetPath             = "/item/get"
	institutionGetPath      = "/institutions/get_by_id"
	accountsGetPath         = "/accounts/get"
	holdingsGetPath         = "/investments/holdings/get"
	itemRemovePath          = "/item/remove"
)

var environments = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

type Config struct {
	ClientID   string
	Secret     string
	Env        string
	ClientName string
	Timeout    time.Duration
	// BaseURL overrides the environment's host.
	BaseURL string
}

// Client talks JSON to the aggregation API. Every request is a POST carrying
// the client id and secret in its body.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
	clientName string
}

var _ ClientInterface = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		var ok bool
		baseURL, ok = environments[cfg.Env]
		if !ok {
			return nil, fmt.Errorf("unknown plaid environment %q", cfg.Env)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	clientName := cfg.ClientName
	if clientName == "" {
		clientName = defaultClientName
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:    baseURL,
		clientID:   cfg.ClientID,
		secret:     cfg.Secret,
		clientName: clientName,
	}, nil
}

type credentials struct {
	ClientID string `json:"client_id"`
	Secret   string `json:"secret"`
}

type linkTokenUser struct {
	ClientUserID string `json:"client_user_id"`
}

type linkTokenCreateRequest struct {
	credentials
	ClientName   string        `json:"client_name"`
	User         linkTokenUser `json:"user"`
	Products     []string      `json:"products"`
	CountryCodes []string      `json:"country_codes"`
	Language     string        `json:"language"`
}

type linkTokenCreateResponse struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
}

type publicTokenExchangeRequest struct {
	credentials
	PublicToken string `json:"public_token"`
}

type accessTokenRequest struct {
	credentials
	AccessToken string `json:"access_token"`
}

type itemGetResponse struct {
	Item struct {
		ItemID        string  `json:"item_id"`
		InstitutionID *string `json:"institution_id"`
	} `json:"item"`
}

type institutionGetRequest struct {
	credentials
	InstitutionID string   `json:"institution_id"`
	CountryCodes  []string `json:"country_codes"`
}

type institutionGetResponse struct {
	Institution struct {
		InstitutionID string `json:"institution_id"`
		Name          string `json:"name"`
	} `json:"institution"`
}

type accountsGetResponse struct {
	Accounts []Account `json:"accounts"`
}

// CreateLinkToken requests a short-lived link token scoped to investment holdings.
func (c *Client) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	req := linkTokenCreateRequest{
		credentials:  c.credentials(),
		ClientName:   c.clientName,
		User:         linkTokenUser{ClientUserID: userID},
		Products:     []string{"investments"},
		CountryCodes: []string{"US"},
		Language:     "en",
	}

	var resp linkTokenCreateResponse
	if err := c.post(ctx, linkTokenCreatePath, req, &resp); err != nil {
		return "", err
	}
	if resp.LinkToken == "" {
		return "", fmt.Errorf("%w: empty link token", ErrUpstreamUnavailable)
	}
	return resp.LinkToken, nil
}

func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*Exchange, error) {
	req := publicTokenExchangeRequest{
		credentials: c.credentials(),
		PublicToken: publicToken,
	}

	var resp Exchange
	if err := c.post(ctx, publicTokenExchangePath, req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.ItemID == "" {
		return nil, fmt.Errorf("%w: exchange returned no credential", ErrUpstreamUnavailable)
	}
	return &resp, nil
}

// InstitutionName resolves the display name of the item's institution.
func (c *Client) InstitutionName(ctx context.Context, accessToken string) Outcome[string] {
	var item itemGetResponse
	if err := c.post(ctx, itemGetPath, c.accessRequest(accessToken), &item); err != nil {
		return Failed[string](err)
	}
	if item.Item.InstitutionID == nil || *item.Item.InstitutionID == "" {
		return Failed[string](ErrNoInstitution)
	}

	req := institutionGetRequest{
		credentials:   c.credentials(),
		InstitutionID: *item.Item.InstitutionID,
		CountryCodes:  []string{"US"},
	}
	var inst institutionGetResponse
	if err := c.post(ctx, institutionGetPath, req, &inst); err != nil {
		return Failed[string](err)
	}
	if inst.Institution.Name == "" {
		return Failed[string](ErrNoInstitution)
	}
	return Succeeded(inst.Institution.Name)
}

func (c *Client) ListAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	var resp accountsGetResponse
	if err := c.post(ctx, accountsGetPath, c.accessRequest(accessToken), &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

func (c *Client) ListHoldings(ctx context.Context, accessToken string) (*HoldingsSnapshot, error) {
	var resp HoldingsSnapshot
	if err := c.post(ctx, holdingsGetPath, c.accessRequest(accessToken), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RevokeCredential removes the item upstream.
func (c *Client) RevokeCredential(ctx context.Context, accessToken string) Outcome[struct{}] {
	if err := c.post(ctx, itemRemovePath, c.accessRequest(accessToken), nil); err != nil {
		return Failed[struct{}](err)
	}
	return Succeeded(struct{}{})
}

func (c *Client) credentials() credentials {
	return credentials{ClientID: c.clientID, Secret: c.secret}
}

func (c *Client) accessRequest(accessToken string) accessTokenRequest {
	return accessTokenRequest{credentials: c.credentials(), AccessToken: accessToken}
}

// post sends body to path and decodes a 200 response into out when out is non-nil.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %w", ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.ErrorCode == "" {
			apiErr.ErrorType = "API_ERROR"
			apiErr.ErrorMessage = string(raw)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: failed to unmarshal %s response: %w", ErrUpstreamUnavailable, path, err)
	}
	return nil
}
