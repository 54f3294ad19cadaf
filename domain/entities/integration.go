package entities

import (
	"errors"
	"time"
)

// UserIntegration holds the stored OAuth tokens that connect a user account
// to an external provider (Google for both Calendar and Gmail).
type UserIntegration struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	UserID         string    `json:"user_id" bson:"user_id"`
	Provider       string    `json:"provider" bson:"provider"`
	AccessToken    string    `json:"access_token" bson:"access_token"`
	RefreshToken   string    `json:"refresh_token" bson:"refresh_token"`
	TokenExpiresAt time.Time `json:"token_expires_at" bson:"token_expires_at"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// TokenExpired reports whether the stored access token needs a refresh.
func (i *UserIntegration) TokenExpired() bool {
	return !time.Now().Before(i.TokenExpiresAt)
}

// Validate validates the integration data
func (i *UserIntegration) Validate() error {
	if i.UserID == "" {
		return errors.New("user_id is required")
	}
	if i.Provider == "" {
		return errors.New("provider is required")
	}
	if i.AccessToken == "" {
		return errors.New("access_token is required")
	}
	return nil
}
