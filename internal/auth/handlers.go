// auth/handlers.go
package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const realmSessionKey = "qb_realm_id"

// Handler provides HTTP handlers for the QuickBooks OAuth flow
type Handler struct {
	service  *Service
	sessions *SessionStore
	logger   *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(service *Service, sessions *SessionStore, logger *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
		logger:   logger,
	}
}

// ConnectHandler initiates the QuickBooks authorization flow
func (h *Handler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	state, err := GenerateState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	session := h.sessions.Get(r)
	saveState(session, state, time.Now())
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	authURL, err := h.service.AuthorizationURL(state)
	if err != nil {
		h.logger.Error("cannot build authorization URL", zap.Error(err))
		http.Error(w, "QuickBooks integration is not configured", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// CallbackHandler handles the OAuth callback from QuickBooks
func (h *Handler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")
	realmID := query.Get("realmId")

	if code == "" {
		// The user abandoned or denied the authorization screen.
		http.Error(w, ErrAuthorizationDenied.Error(), http.StatusBadRequest)
		return
	}
	if state == "" || realmID == "" {
		http.Error(w, "Invalid callback parameters", http.StatusBadRequest)
		return
	}

	session := h.sessions.Get(r)
	if err := consumeState(session, state, time.Now()); err != nil {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	// Remember which realm this browser session is connected to.
	session.Values[realmSessionKey] = realmID
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	token, err := h.service.ExchangeCode(r.Context(), code, realmID)
	if err != nil {
		h.logger.Error("code exchange failed",
			zap.String("realm_id", realmID), zap.Error(err))
		http.Error(w, "Failed to exchange code for token", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"realm_id": token.RealmID,
	})
}

// DisconnectHandler revokes QuickBooks tokens for the connected realm
func (h *Handler) DisconnectHandler(w http.ResponseWriter, r *http.Request) {
	realmID := GetRealmID(r.Context())
	if realmID == "" {
		http.Error(w, "No QuickBooks company connected", http.StatusBadRequest)
		return
	}

	if err := h.service.Disconnect(r.Context(), realmID); err != nil {
		http.Error(w, "Failed to disconnect: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success"})
}

// StatusHandler returns the connection status for the session's realm
func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	realmID := GetRealmID(r.Context())
	if realmID == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"connected": false})
		return
	}

	token, err := h.service.tokenStore.GetToken(realmID)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"connected": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"connected":  true,
		"realm_id":   token.RealmID,
		"expires_at": token.ExpiresAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
