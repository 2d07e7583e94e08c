// routes/invoices.go
package routes

import (
	"github.com/gorilla/mux"

	"github.com/pcsdental/invoicedesk/infrastructure"
	"github.com/pcsdental/invoicedesk/internal/auth"
)

// RegisterInvoiceRoutes registers the invoice API routes
func RegisterInvoiceRoutes(router *mux.Router, c *infrastructure.Container) {
	h := c.APIHandler

	router.HandleFunc("/invoices", h.ListInvoices).Methods("GET")
	router.HandleFunc("/invoices/{number}/status", h.UpdateStatus).Methods("POST")
	router.HandleFunc("/invoices/{number}", h.RemoveInvoice).Methods("DELETE")
	router.HandleFunc("/overlay/clear", h.ClearOverlay).Methods("POST")

	// Sync needs a valid QuickBooks token for the session's realm.
	syncRouter := router.PathPrefix("/invoices/{number}/sync").Subrouter()
	syncRouter.Use(auth.QBAuthMiddleware(c.AuthService))
	syncRouter.HandleFunc("", h.SyncInvoice).Methods("POST")
}
