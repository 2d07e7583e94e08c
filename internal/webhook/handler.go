// webhook/handler.go
package webhook

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Consumer processes verified, deduplicated entity changes. Processing
// errors are logged, not returned to the provider; the delivery is
// acknowledged once its signature checks out.
type Consumer interface {
	HandleChange(ctx context.Context, realmID string, entity Entity) error
}

// Handler receives QuickBooks webhook deliveries.
type Handler struct {
	secret   string
	deduper  *Deduper
	consumer Consumer
	logger   *zap.Logger
}

// NewHandler creates a webhook handler
func NewHandler(secret string, deduper *Deduper, consumer Consumer, logger *zap.Logger) *Handler {
	return &Handler{
		secret:   secret,
		deduper:  deduper,
		consumer: consumer,
		logger:   logger,
	}
}

// Receive handles POSTed change notifications. The signature is checked
// against the raw body before any parsing; a mismatch or missing header
// is a 401 and the payload is never processed.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if !Verify(rawBody, signature, h.secret) {
		h.logger.Warn("webhook signature mismatch",
			zap.Bool("header_present", signature != ""))
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	events, err := ParseEvents(rawBody)
	if err != nil {
		// Authenticated but malformed; distinct from a signature failure.
		h.logger.Error("webhook payload unparseable", zap.Error(err))
		http.Error(w, "Malformed payload", http.StatusBadRequest)
		return
	}

	for _, event := range events {
		for _, entity := range event.Entities {
			if h.deduper != nil && h.deduper.Seen(r.Context(), event.RealmID, entity) {
				h.logger.Debug("skipping duplicate webhook delivery",
					zap.String("realm_id", event.RealmID),
					zap.String("entity", entity.Name),
					zap.String("id", entity.ID))
				continue
			}
			if err := h.consumer.HandleChange(r.Context(), event.RealmID, entity); err != nil {
				h.logger.Error("webhook change processing failed",
					zap.String("realm_id", event.RealmID),
					zap.String("entity", entity.Name),
					zap.String("id", entity.ID),
					zap.Error(err))
			}
		}
	}

	w.WriteHeader(http.StatusOK)
}
