// api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pcsdental/invoicedesk/internal/auth"
	"github.com/pcsdental/invoicedesk/internal/invoice"
	"github.com/pcsdental/invoicedesk/internal/overlay"
	"github.com/pcsdental/invoicedesk/internal/sync"
)

// Handler serves the dashboard's invoice API: list views reconciled
// through the overlay, status transitions, and QuickBooks sync.
type Handler struct {
	invoices   invoice.Store
	reconciler *overlay.Reconciler
	engine     *sync.Engine
	logger     *zap.Logger
}

// NewHandler creates the invoice API handler
func NewHandler(invoices invoice.Store, reconciler *overlay.Reconciler, engine *sync.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		invoices:   invoices,
		reconciler: reconciler,
		engine:     engine,
		logger:     logger,
	}
}

// ListInvoices returns all invoices with pending overlay patches applied,
// so every list view sees the same reconciled state.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	list, err := h.invoices.List(r.Context())
	if err != nil {
		http.Error(w, "Failed to list invoices", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.reconciler.Apply(list))
}

type statusUpdateRequest struct {
	Status   invoice.Status `json:"status"`
	Approved *bool          `json:"approved,omitempty"`
}

// UpdateStatus transitions an invoice's status. The overlay patch is
// recorded before the durable write so list views reflect the action
// immediately even when the write cannot be persisted.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["number"]

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Status.Valid() {
		http.Error(w, "Unknown status", http.StatusBadRequest)
		return
	}

	inv, err := h.invoices.Get(r.Context(), number)
	if err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			http.Error(w, "Invoice not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load invoice", http.StatusInternalServerError)
		return
	}

	if !invoice.CanTransition(inv.Status, req.Status) {
		http.Error(w, "Invalid status transition", http.StatusUnprocessableEntity)
		return
	}

	// Optimistic overlay first; the durable write may not stick.
	h.reconciler.RecordPatch(number, &req.Status, req.Approved)

	inv.Status, inv.Approved = invoice.Normalize(req.Status, req.Approved != nil && *req.Approved)
	if err := h.invoices.Update(r.Context(), inv); err != nil {
		h.logger.Warn("durable status write failed, overlay patch stands",
			zap.String("invoice", number), zap.Error(err))
		writeJSON(w, http.StatusAccepted, inv)
		return
	}

	// Durable write confirmed; the patch has served its purpose.
	h.reconciler.Confirm(number, inv.Status)
	writeJSON(w, http.StatusOK, inv)
}

// SyncInvoice pushes an invoice to QuickBooks as a bill.
func (h *Handler) SyncInvoice(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["number"]
	realmID := auth.GetRealmID(r.Context())

	inv, err := h.invoices.Get(r.Context(), number)
	if err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			http.Error(w, "Invoice not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load invoice", http.StatusInternalServerError)
		return
	}

	result, err := h.engine.SyncInvoice(r.Context(), realmID, inv)
	if err != nil {
		var mismatch *sync.MismatchError
		if errors.As(err, &mismatch) {
			http.Error(w, mismatch.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("invoice sync failed",
			zap.String("invoice", number), zap.Error(err))
		http.Error(w, "Sync failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RemoveInvoice is the explicit removal action, the only path that
// hard-deletes a record.
func (h *Handler) RemoveInvoice(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["number"]

	if err := h.invoices.Remove(r.Context(), number); err != nil {
		http.Error(w, "Failed to remove invoice", http.StatusInternalServerError)
		return
	}
	h.reconciler.Drop(number)
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ClearOverlay resets all pending overlay patches. Debug/admin only.
func (h *Handler) ClearOverlay(w http.ResponseWriter, r *http.Request) {
	h.reconciler.ClearAll()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
