package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"arena/internal/domain/ingestion"
	"arena/internal/shared/apperrors"
	"arena/internal/shared/date"
)

// Ingestor is the part of the ingestion service the Plaid routes drive.
type Ingestor interface {
	CreateLinkToken(ctx context.Context, userID string) (string, error)
	LinkAndSeed(ctx context.Context, userID, publicToken string) (*ingestion.LinkResult, error)
	ResyncAll(ctx context.Context) (*ingestion.ResyncResult, error)
	RemoveAccount(ctx context.Context, userID, accountExternalID string) error
}

type PlaidHandler struct {
	ingestor Ingestor
}

func NewPlaidHandler(ingestor Ingestor) *PlaidHandler {
	return &PlaidHandler{ingestor: ingestor}
}

type exchangeRequest struct {
	PublicToken      string `json:"publicToken"`
	PublicTokenSnake string `json:"public_token"`
}

func (req exchangeRequest) token() string {
	if req.PublicToken != "" {
		return strings.TrimSpace(req.PublicToken)
	}
	return strings.TrimSpace(req.PublicTokenSnake)
}

type removeAccountRequest struct {
	AccountExternalID string `json:"accountExternalId"`
	AccountID         string `json:"account_id"`
}

func (req removeAccountRequest) accountID() string {
	if req.AccountExternalID != "" {
		return strings.TrimSpace(req.AccountExternalID)
	}
	return strings.TrimSpace(req.AccountID)
}

type okResponse struct {
	OK      bool   `json:"ok"`
	Warning string `json:"warning,omitempty"`
}

type resyncResponse struct {
	OK          bool                          `json:"ok"`
	AsOfDate    date.Date                     `json:"asOfDate"`
	Credentials int                           `json:"credentials"`
	Accounts    int                           `json:"accounts"`
	Holdings    int                           `json:"holdings"`
	Failed      int                           `json:"failed"`
	Failures    []ingestion.CredentialFailure `json:"failures"`
}

// HandleLinkToken issues a short-lived token for the client-side link flow.
func (h *PlaidHandler) HandleLinkToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	token, err := h.ingestor.CreateLinkToken(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// HandleExchange links a new item and seeds its accounts and holdings.
func (h *PlaidHandler) HandleExchange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.Validation("body", "invalid request body"))
		return
	}

	result, err := h.ingestor.LinkAndSeed(r.Context(), userID, req.token())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true, Warning: result.Warning})
}

// HandleResync refreshes every linked item.
func (h *PlaidHandler) HandleResync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if _, ok := requireUser(w, r); !ok {
		return
	}

	result, err := h.ingestor.ResyncAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	failures := result.Failures
	if failures == nil {
		failures = []ingestion.CredentialFailure{}
	}
	writeJSON(w, http.StatusOK, resyncResponse{
		OK:          true,
		AsOfDate:    result.AsOfDate,
		Credentials: result.Credentials,
		Accounts:    result.Accounts,
		Holdings:    result.Holdings,
		Failed:      len(failures),
		Failures:    failures,
	})
}

// HandleRemoveAccount deletes one account and, with its last account, the item.
func (h *PlaidHandler) HandleRemoveAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req removeAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.Validation("body", "invalid request body"))
		return
	}

	if err := h.ingestor.RemoveAccount(r.Context(), userID, req.accountID()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
