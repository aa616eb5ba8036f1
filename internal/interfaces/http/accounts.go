package http

import (
	"context"
	"net/http"

	"arena/internal/domain/account"
)

type AccountLister interface {
	ListAccounts(ctx context.Context, userID string) ([]*account.Account, error)
}

type AccountHandler struct {
	accounts AccountLister
}

func NewAccountHandler(accounts AccountLister) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type listAccountsResponse struct {
	Accounts []*account.Account `json:"accounts"`
}

// HandleListAccounts returns the caller's accounts ordered by institution.
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listAccountsResponse{Accounts: accounts})
}
