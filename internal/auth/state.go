// auth/state.go
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"time"

	"github.com/gorilla/sessions"
)

const (
	stateKey       = "qb_state"
	stateExpiryKey = "qb_state_expiry"

	stateTTL = 10 * time.Minute
)

// GenerateState creates a secure random state token for one authorization
// attempt.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// saveState binds the state token to the session with an expiry.
func saveState(session *sessions.Session, state string, now time.Time) {
	session.Values[stateKey] = state
	session.Values[stateExpiryKey] = now.Add(stateTTL).Unix()
}

// consumeState validates the callback state against the session-bound one
// and clears it so the token cannot be replayed. The check is mandatory:
// a missing, mismatched or expired state fails the callback.
func consumeState(session *sessions.Session, state string, now time.Time) error {
	saved, ok := session.Values[stateKey].(string)
	defer func() {
		delete(session.Values, stateKey)
		delete(session.Values, stateExpiryKey)
	}()
	if !ok || saved == "" {
		return ErrStateMismatch
	}
	if subtle.ConstantTimeCompare([]byte(saved), []byte(state)) != 1 {
		return ErrStateMismatch
	}
	expiry, ok := session.Values[stateExpiryKey].(int64)
	if !ok || now.Unix() > expiry {
		return ErrStateMismatch
	}
	return nil
}
