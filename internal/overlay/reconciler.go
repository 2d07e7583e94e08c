// overlay/reconciler.go
package overlay

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pcsdental/invoicedesk/internal/invoice"
)

// Patch is one pending status transition recorded before the durable
// write is confirmed.
type Patch struct {
	Status    *invoice.Status `json:"status,omitempty"`
	Approved  *bool           `json:"approved,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Reconciler maintains the local overlay of pending invoice status
// transitions and merges it over authoritative invoice lists on every
// read. The overlay is last-writer-wins by timestamp, acceptable because
// invoice status edits are effectively single-operator.
type Reconciler struct {
	mu      sync.RWMutex
	patches map[string]Patch
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewReconciler creates a reconciler whose patches expire after ttl, so a
// stale local patch cannot permanently mask a server-confirmed change.
func NewReconciler(ttl time.Duration, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		patches: make(map[string]Patch),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// RecordPatch stores (or merges into) the patch for an invoice number.
// The status/approved pair is normalized against the state machine
// before storing: the status wins and the flag is derived from it.
func (r *Reconciler) RecordPatch(number string, status *invoice.Status, approved *bool) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	patch := r.patches[number]
	if status != nil {
		normalized, flag := invoice.Normalize(*status, approved != nil && *approved)
		patch.Status = &normalized
		patch.Approved = &flag
	} else if approved != nil {
		// An approved flag with no status is only consistent with the
		// approved state; normalize rather than store a contradiction.
		flag := *approved
		if flag {
			s := invoice.StatusApproved
			patch.Status = &s
		}
		patch.Approved = &flag
	}
	patch.Timestamp = now
	r.patches[number] = patch
}

// Apply merges the overlay over an authoritative invoice list. It is a
// pure projection: the input is not mutated, and applying twice yields
// the same result as applying once.
func (r *Reconciler) Apply(list []*invoice.Invoice) []*invoice.Invoice {
	now := r.now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*invoice.Invoice, len(list))
	for i, inv := range list {
		patch, ok := r.patches[inv.Number]
		if !ok || r.expired(patch, now) {
			out[i] = inv
			continue
		}
		merged := *inv
		if patch.Status != nil {
			merged.Status = *patch.Status
		}
		if patch.Approved != nil {
			merged.Approved = *patch.Approved
		}
		merged.Timestamp = patch.Timestamp
		out[i] = &merged
	}
	return out
}

// Confirm clears the patch for an invoice once authoritative data
// reflects the recorded transition. This is the reconciled signal: the
// webhook consumer and the durable write path both call it.
func (r *Reconciler) Confirm(number string, status invoice.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	patch, ok := r.patches[number]
	if !ok {
		return
	}
	if patch.Status == nil || *patch.Status == status {
		delete(r.patches, number)
	}
}

// Drop removes the patch for an invoice regardless of its contents.
func (r *Reconciler) Drop(number string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.patches, number)
}

// ClearAll resets the overlay. Administrative use only.
func (r *Reconciler) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patches = make(map[string]Patch)
}

// Sweep discards expired patches. Called periodically so the map does
// not accumulate entries for invoices nobody lists anymore.
func (r *Reconciler) Sweep() {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	for number, patch := range r.patches {
		if r.expired(patch, now) {
			r.logger.Debug("dropping expired overlay patch", zap.String("invoice", number))
			delete(r.patches, number)
		}
	}
}

func (r *Reconciler) expired(patch Patch, now time.Time) bool {
	return r.ttl > 0 && now.Sub(patch.Timestamp) > r.ttl
}
