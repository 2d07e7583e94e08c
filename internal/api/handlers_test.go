package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pcsdental/invoicedesk/internal/invoice"
	"github.com/pcsdental/invoicedesk/internal/overlay"
)

func newTestStore(t *testing.T) invoice.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return invoice.NewRedisStore(client, "test")
}

// brokenUpdateStore fails durable writes so the overlay has to stand in.
type brokenUpdateStore struct {
	invoice.Store
}

func (s *brokenUpdateStore) Update(context.Context, *invoice.Invoice) error {
	return errors.New("store unavailable")
}

func seedInvoice(t *testing.T, store invoice.Store, number string, status invoice.Status) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), &invoice.Invoice{
		Number:   number,
		Vendor:   "Exodus Dental Solutions",
		ClinicID: "SandySprings",
		Status:   status,
		Lines: []invoice.LineItem{{
			Description: "Crown Prep",
			Quantity:    decimal.NewFromInt(4),
			UnitPrice:   decimal.RequireFromString("200.00"),
			Total:       decimal.RequireFromString("800.00"),
		}},
		Total: decimal.RequireFromString("800.00"),
	}))
}

func newTestHandler(store invoice.Store) (*Handler, *overlay.Reconciler) {
	reconciler := overlay.NewReconciler(15*time.Minute, zap.NewNop())
	return NewHandler(store, reconciler, nil, zap.NewNop()), reconciler
}

func newTestRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/invoices", h.ListInvoices).Methods(http.MethodGet)
	r.HandleFunc("/api/invoices/{number}/status", h.UpdateStatus).Methods(http.MethodPost)
	r.HandleFunc("/api/invoices/{number}", h.RemoveInvoice).Methods(http.MethodDelete)
	r.HandleFunc("/api/overlay/clear", h.ClearOverlay).Methods(http.MethodPost)
	return r
}

func doRequest(router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListInvoicesAppliesOverlay(t *testing.T) {
	store := newTestStore(t)
	seedInvoice(t, store, "4307", invoice.StatusNew)
	seedInvoice(t, store, "4308", invoice.StatusUploaded)

	h, reconciler := newTestHandler(store)
	status := invoice.StatusApproved
	reconciler.RecordPatch("4307", &status, nil)

	rec := doRequest(newTestRouter(h), http.MethodGet, "/api/invoices", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []*invoice.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, invoice.StatusApproved, list[0].Status)
	assert.True(t, list[0].Approved)
	assert.Equal(t, invoice.StatusUploaded, list[1].Status)
}

func TestUpdateStatusHappyPath(t *testing.T) {
	store := newTestStore(t)
	seedInvoice(t, store, "4307", invoice.StatusNew)
	h, reconciler := newTestHandler(store)

	rec := doRequest(newTestRouter(h), http.MethodPost, "/api/invoices/4307/status",
		`{"status":"approved"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := store.Get(context.Background(), "4307")
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusApproved, stored.Status)
	assert.True(t, stored.Approved)

	// Write confirmed, so the overlay patch is gone: a later stale list
	// shows exactly what the store says.
	out := reconciler.Apply([]*invoice.Invoice{{Number: "4307", Status: invoice.StatusNew}})
	assert.Equal(t, invoice.StatusNew, out[0].Status)
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	store := newTestStore(t)
	seedInvoice(t, store, "4307", invoice.StatusRejected)
	h, _ := newTestHandler(store)

	rec := doRequest(newTestRouter(h), http.MethodPost, "/api/invoices/4307/status",
		`{"status":"approved"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	stored, err := store.Get(context.Background(), "4307")
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusRejected, stored.Status)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	store := newTestStore(t)
	seedInvoice(t, store, "4307", invoice.StatusNew)
	h, _ := newTestHandler(store)

	rec := doRequest(newTestRouter(h), http.MethodPost, "/api/invoices/4307/status",
		`{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatusRejectsMalformedBody(t *testing.T) {
	store := newTestStore(t)
	h, _ := newTestHandler(store)

	rec := doRequest(newTestRouter(h), http.MethodPost, "/api/invoices/4307/status", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatusMissingInvoice(t *testing.T) {
	store := newTestStore(t)
	h, _ := newTestHandler(store)

	rec := doRequest(newTestRouter(h), http.MethodPost, "/api/invoices/9999/status",
		`{"status":"approved"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatusKeepsOverlayWhenWriteFails(t *testing.T) {
	backing := newTestStore(t)
	seedInvoice(t, backing, "4307", invoice.StatusNew)
	store := &brokenUpdateStore{Store: backing}
	h, reconciler := newTestHandler(store)

	rec := doRequest(newTestRouter(h), http.MethodPost, "/api/invoices/4307/status",
		`{"status":"approved"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	// The durable record is unchanged but list views see the transition.
	stored, err := backing.Get(context.Background(), "4307")
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusNew, stored.Status)

	out := reconciler.Apply([]*invoice.Invoice{stored})
	assert.Equal(t, invoice.StatusApproved, out[0].Status)
	assert.True(t, out[0].Approved)
}

func TestRemoveInvoiceDropsOverlayPatch(t *testing.T) {
	store := newTestStore(t)
	seedInvoice(t, store, "4307", invoice.StatusNew)
	h, reconciler := newTestHandler(store)

	status := invoice.StatusApproved
	reconciler.RecordPatch("4307", &status, nil)

	rec := doRequest(newTestRouter(h), http.MethodDelete, "/api/invoices/4307", "")
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := store.Get(context.Background(), "4307")
	assert.ErrorIs(t, err, invoice.ErrNotFound)

	out := reconciler.Apply([]*invoice.Invoice{{Number: "4307", Status: invoice.StatusNew}})
	assert.Equal(t, invoice.StatusNew, out[0].Status)
}

func TestClearOverlay(t *testing.T) {
	store := newTestStore(t)
	h, reconciler := newTestHandler(store)

	status := invoice.StatusApproved
	reconciler.RecordPatch("4307", &status, nil)

	rec := doRequest(newTestRouter(h), http.MethodPost, "/api/overlay/clear", "")
	require.Equal(t, http.StatusOK, rec.Code)

	out := reconciler.Apply([]*invoice.Invoice{{Number: "4307", Status: invoice.StatusNew}})
	assert.Equal(t, invoice.StatusNew, out[0].Status)
}
