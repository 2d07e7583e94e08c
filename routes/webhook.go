// routes/webhook.go
package routes

import (
	"github.com/gorilla/mux"

	"github.com/pcsdental/invoicedesk/internal/webhook"
)

// RegisterWebhookRoutes registers the QuickBooks webhook receiver. It is
// public by design: trust comes from the signature check, not from any
// session.
func RegisterWebhookRoutes(router *mux.Router, handler *webhook.Handler) {
	router.HandleFunc("/webhooks/quickbooks", handler.Receive).Methods("POST")
}
