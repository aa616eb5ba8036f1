package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arena/internal/domain/account"
)

func TestHandleListAccounts(t *testing.T) {
	chase := "Chase"
	tests := []struct {
		name           string
		method         string
		lister         *MockAccountLister
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "Success",
			method: http.MethodGet,
			lister: &MockAccountLister{
				ListAccountsFunc: func(ctx context.Context, userID string) ([]*account.Account, error) {
					assert.Equal(t, testUserID, userID)
					return []*account.Account{
						{ID: "a1", UserID: userID, AccountID: "acc-1", Name: "Brokerage", InstitutionName: &chase},
					}, nil
				},
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"accountId":"acc-1"`,
		},
		{
			name:           "Empty List",
			method:         http.MethodGet,
			lister:         &MockAccountLister{},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"accounts":[]}`,
		},
		{
			name:   "Store Error",
			method: http.MethodGet,
			lister: &MockAccountLister{
				ListAccountsFunc: func(ctx context.Context, userID string) ([]*account.Account, error) {
					return nil, errors.New("failed to list accounts: connection refused")
				},
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"internal server error"`,
		},
		{
			name:           "Method Not Allowed",
			method:         http.MethodPost,
			lister:         &MockAccountLister{},
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAccountHandler(tt.lister)
			rr := httptest.NewRecorder()
			h.HandleListAccounts(rr, withUser(httptest.NewRequest(tt.method, "/api/accounts", nil)))

			require.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, rr.Body.String(), tt.expectedBody)
			}
		})
	}
}
