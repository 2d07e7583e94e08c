// auth/models.go
package auth

import (
	"time"
)

// OAuthToken represents token data from QuickBooks, scoped to a realm
// (the QuickBooks company the tokens were issued for).
type OAuthToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	RealmID      string    `json:"realm_id"`
}

// Expired reports whether the token is stale at the given instant.
func (t *OAuthToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// TokenStore persists tokens keyed by realm ID so that authorization
// survives restarts and multiple process instances.
type TokenStore interface {
	SaveToken(realmID string, token *OAuthToken) error
	GetToken(realmID string) (*OAuthToken, error)
	DeleteToken(realmID string) error
}

// OAuthConfig holds OAuth 2.0 configuration
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	RevokeURL    string
	APIBaseURL   string
}
