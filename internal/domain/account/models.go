package account

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidInput    = errors.New("invalid input")
)

// Account is one brokerage account under a linked credential. AccountID is
// the aggregator's identifier and is unique per user.
type Account struct {
	ID              string    `json:"id"`
	CredentialID    string    `json:"credentialId"`
	UserID          string    `json:"userId"`
	AccountID       string    `json:"accountId"`
	Name            string    `json:"accountName"`
	InstitutionName *string   `json:"institutionName"`
	Mask            *string   `json:"mask"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// UpsertParams describes one account row keyed by (UserID, AccountID).
// ID is used only when the row does not exist yet.
type UpsertParams struct {
	ID              string
	CredentialID    string
	UserID          string
	AccountID       string
	Name            string
	InstitutionName *string
	Mask            *string
}

func (p UpsertParams) Validate() error {
	switch {
	case strings.TrimSpace(p.UserID) == "":
		return errors.Join(ErrInvalidInput, errors.New("user ID is required"))
	case p.AccountID == "":
		return errors.Join(ErrInvalidInput, errors.New("account ID is required"))
	case p.CredentialID == "":
		return errors.Join(ErrInvalidInput, errors.New("credential ID is required"))
	case p.Name == "":
		return errors.Join(ErrInvalidInput, errors.New("account name is required"))
	}
	return nil
}
