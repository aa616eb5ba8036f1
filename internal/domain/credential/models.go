package credential

import (
	"errors"
	"time"
)

var ErrCredentialNotFound = errors.New("credential not found")

// Credential is one linked institution connection. AccessToken is the
// durable secret and is never serialized.
type Credential struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	AccessToken     string    `json:"-"`
	ItemID          string    `json:"itemId"`
	InstitutionName string    `json:"institutionName"`
	CreatedAt       time.Time `json:"createdAt"`
}

type CreateParams struct {
	UserID          string
	AccessToken     string
	ItemID          string
	InstitutionName string
}

func (p CreateParams) Validate() error {
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.AccessToken == "" {
		return errors.New("access token is required")
	}
	if p.ItemID == "" {
		return errors.New("item ID is required")
	}
	return nil
}
