// auth/service.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pcsdental/invoicedesk/config"
	"github.com/pcsdental/invoicedesk/internal/retry"
)

// refreshAhead is how long before expiry a token is refreshed proactively.
const refreshAhead = 5 * time.Minute

// Service handles OAuth 2.0 operations against QuickBooks.
type Service struct {
	config     OAuthConfig
	tokenStore TokenStore
	httpClient *http.Client
	retry      retry.Policy
	logger     *zap.Logger
}

// NewService creates a new auth service
func NewService(cfg OAuthConfig, tokenStore TokenStore, logger *zap.Logger) *Service {
	return &Service{
		config:     cfg,
		tokenStore: tokenStore,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      retry.DefaultPolicy(),
		logger:     logger,
	}
}

// AuthorizationURL builds the QuickBooks authorization URL for one
// authorization attempt identified by the state token.
func (s *Service) AuthorizationURL(state string) (string, error) {
	var missing []string
	if s.config.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if s.config.RedirectURI == "" {
		missing = append(missing, "redirect_uri")
	}
	if len(s.config.Scopes) == 0 {
		missing = append(missing, "scope")
	}
	if len(missing) > 0 {
		return "", &ConfigurationError{Missing: missing}
	}

	u, err := url.Parse(s.config.AuthURL)
	if err != nil {
		return "", &ConfigurationError{Missing: []string{"auth_url"}}
	}
	q := u.Query()
	q.Set("client_id", s.config.ClientID)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(s.config.Scopes, " "))
	q.Set("redirect_uri", s.config.RedirectURI)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExchangeCode exchanges an authorization code for tokens and stores them
// under the realm that authorized the app.
func (s *Service) ExchangeCode(ctx context.Context, code, realmID string) (*OAuthToken, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", s.config.RedirectURI)

	token, err := s.executeTokenRequest(ctx, data)
	if err != nil {
		return nil, err
	}

	token.IssuedAt = time.Now()
	token.ExpiresAt = token.IssuedAt.Add(time.Duration(token.ExpiresIn) * time.Second)
	token.RealmID = realmID

	if err := s.tokenStore.SaveToken(realmID, token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	s.logger.Info("exchanged authorization code",
		zap.String("realm_id", realmID),
		zap.Time("expires_at", token.ExpiresAt))

	return token, nil
}

// Refresh refreshes the stored token for a realm. Calling it with a token
// that is still fresh is safe and simply stores the updated values. A
// definitive rejection from the provider invalidates the stored record,
// forcing re-authorization.
func (s *Service) Refresh(ctx context.Context, realmID string) (*OAuthToken, error) {
	token, err := s.tokenStore.GetToken(realmID)
	if err != nil {
		return nil, fmt.Errorf("failed to get token for refresh: %w", err)
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", token.RefreshToken)

	newToken, err := s.executeTokenRequest(ctx, data)
	if err != nil {
		var exchangeErr *TokenExchangeError
		if errors.As(err, &exchangeErr) {
			// The refresh token itself was rejected; the whole record is dead.
			if delErr := s.tokenStore.DeleteToken(realmID); delErr != nil {
				s.logger.Warn("failed to delete invalidated token",
					zap.String("realm_id", realmID), zap.Error(delErr))
			}
			s.logger.Warn("refresh rejected, re-authorization required",
				zap.String("realm_id", realmID),
				zap.Int("status", exchangeErr.StatusCode))
		}
		return nil, err
	}

	newToken.IssuedAt = time.Now()
	newToken.ExpiresAt = newToken.IssuedAt.Add(time.Duration(newToken.ExpiresIn) * time.Second)
	newToken.RealmID = realmID

	// If the refresh token was not returned, reuse the existing one
	if newToken.RefreshToken == "" {
		newToken.RefreshToken = token.RefreshToken
	}

	if err := s.tokenStore.SaveToken(realmID, newToken); err != nil {
		return nil, fmt.Errorf("failed to save refreshed token: %w", err)
	}

	return newToken, nil
}

// GetValidToken returns a valid token for the realm, refreshing it if it is
// expired or about to expire.
func (s *Service) GetValidToken(ctx context.Context, realmID string) (*OAuthToken, error) {
	token, err := s.tokenStore.GetToken(realmID)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	if time.Until(token.ExpiresAt) < refreshAhead {
		token, err = s.Refresh(ctx, realmID)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh token: %w", err)
		}
	}

	return token, nil
}

// Disconnect revokes the realm's tokens at the provider and removes the
// stored record. Revocation is best-effort: the local record is cleared
// even when the provider call fails.
func (s *Service) Disconnect(ctx context.Context, realmID string) error {
	token, err := s.tokenStore.GetToken(realmID)
	if err != nil {
		return fmt.Errorf("failed to get token for revocation: %w", err)
	}

	if err := s.revokeToken(ctx, token.RefreshToken); err != nil {
		s.logger.Warn("token revocation failed, clearing local record anyway",
			zap.String("realm_id", realmID), zap.Error(err))
	}

	return s.tokenStore.DeleteToken(realmID)
}

// executeTokenRequest performs the token-endpoint POST shared by code
// exchange and refresh. Transient failures are retried; 4xx responses are
// terminal.
func (s *Service) executeTokenRequest(ctx context.Context, data url.Values) (*OAuthToken, error) {
	var token OAuthToken

	err := s.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TokenURL, strings.NewReader(data.Encode()))
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to create token request: %w", err))
		}
		req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Add("Accept", "application/json")
		req.SetBasicAuth(s.config.ClientID, s.config.ClientSecret)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("token request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			if retry.RetryableStatus(resp.StatusCode) {
				return fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
			}
			return retry.Permanent(&TokenExchangeError{
				StatusCode:      resp.StatusCode,
				ProviderMessage: providerMessage(body),
			})
		}

		if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
			return retry.Permanent(fmt.Errorf("failed to parse token response: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// revokeToken revokes a refresh token (which cascades to its access token).
func (s *Service) revokeToken(ctx context.Context, token string) error {
	payload, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.RevokeURL, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("failed to create revoke request: %w", err)
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	req.SetBasicAuth(s.config.ClientID, s.config.ClientSecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("revoke request failed with status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// providerMessage extracts the human-readable error from the provider's
// JSON envelope, falling back to the raw body.
func providerMessage(body []byte) string {
	var envelope struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.ErrorDescription != "" {
			return envelope.ErrorDescription
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return string(body)
}

// RedactedClientID returns the client id masked for logging.
func (s *Service) RedactedClientID() string {
	return config.Redact(s.config.ClientID)
}
