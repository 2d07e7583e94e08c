// auth/errors.go
package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected indicates no stored token exists for the realm.
	ErrNotConnected = errors.New("auth: realm is not connected to QuickBooks")

	// ErrAuthorizationDenied indicates the callback arrived without a code;
	// the user can retry by re-initiating the flow.
	ErrAuthorizationDenied = errors.New("auth: authorization denied by user")

	// ErrStateMismatch indicates the callback state token did not match the
	// one issued for this authorization attempt.
	ErrStateMismatch = errors.New("auth: state token mismatch")
)

// ConfigurationError indicates missing or invalid OAuth credentials.
// It is fatal for the operation and never retried.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("auth: incomplete OAuth configuration, missing %v", e.Missing)
}

// TokenExchangeError is a definitive rejection from the token endpoint
// (bad credentials, expired or already-used code). Not retryable.
type TokenExchangeError struct {
	StatusCode      int
	ProviderMessage string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("auth: token endpoint returned %d: %s", e.StatusCode, e.ProviderMessage)
}
