// auth/session.go
package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionName = "qb-auth-session"

// SessionStore wraps the cookie store carrying OAuth state tokens and the
// connected realm between the redirect and the callback.
type SessionStore struct {
	store *sessions.CookieStore
}

// NewSessionStore initializes the session store
func NewSessionStore(secret []byte) *SessionStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30, // 30 days
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store}
}

// Get retrieves the session for a request
func (s *SessionStore) Get(r *http.Request) *sessions.Session {
	session, _ := s.store.Get(r, sessionName)
	return session
}
