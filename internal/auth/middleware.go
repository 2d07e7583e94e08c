// auth/middleware.go
package auth

import (
	"context"
	"net/http"
)

// contextKey is a custom type for context keys
type contextKey string

// Context keys
const (
	RealmIDKey contextKey = "realm_id"
	TokenKey   contextKey = "token"
)

// GetRealmID extracts the realm ID from context
func GetRealmID(ctx context.Context) string {
	realmID, _ := ctx.Value(RealmIDKey).(string)
	return realmID
}

// GetToken extracts the token from context
func GetToken(ctx context.Context) *OAuthToken {
	token, _ := ctx.Value(TokenKey).(*OAuthToken)
	return token
}

// RealmMiddleware resolves the QuickBooks realm for the request, either
// from an explicit header or from the browser session established by the
// OAuth callback.
func RealmMiddleware(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			realmID := r.Header.Get("X-Realm-ID")
			if realmID == "" {
				session := sessions.Get(r)
				realmID, _ = session.Values[realmSessionKey].(string)
			}

			ctx := context.WithValue(r.Context(), RealmIDKey, realmID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// QBAuthMiddleware ensures the request's realm has a valid QuickBooks token
func QBAuthMiddleware(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			realmID := GetRealmID(r.Context())
			if realmID == "" {
				http.Error(w, "QuickBooks company not connected", http.StatusUnauthorized)
				return
			}

			token, err := service.GetValidToken(r.Context(), realmID)
			if err != nil {
				http.Error(w, "QuickBooks authentication required", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), TokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
