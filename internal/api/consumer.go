// api/consumer.go
package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/pcsdental/invoicedesk/internal/invoice"
	"github.com/pcsdental/invoicedesk/internal/overlay"
	"github.com/pcsdental/invoicedesk/internal/webhook"
)

// ChangeConsumer reacts to verified QuickBooks change notifications. Bill
// changes reconcile the overlay (the authoritative side has caught up);
// a deleted or voided bill clears the local correlation id so the
// invoice can be synced again.
type ChangeConsumer struct {
	invoices   invoice.Store
	reconciler *overlay.Reconciler
	logger     *zap.Logger
}

// NewChangeConsumer creates the webhook change consumer
func NewChangeConsumer(invoices invoice.Store, reconciler *overlay.Reconciler, logger *zap.Logger) *ChangeConsumer {
	return &ChangeConsumer{
		invoices:   invoices,
		reconciler: reconciler,
		logger:     logger,
	}
}

// HandleChange implements webhook.Consumer.
func (c *ChangeConsumer) HandleChange(ctx context.Context, realmID string, entity webhook.Entity) error {
	if entity.Name != "Bill" {
		c.logger.Debug("ignoring webhook entity",
			zap.String("entity", entity.Name),
			zap.String("operation", string(entity.Operation)))
		return nil
	}

	inv, err := c.invoiceForBill(ctx, entity.ID)
	if err != nil {
		return err
	}
	if inv == nil {
		// A bill we never created, or one synced by another instance
		// whose record has not replicated yet.
		return nil
	}

	switch entity.Operation {
	case webhook.OpDelete, webhook.OpVoid:
		inv.BillID = ""
		if err := c.invoices.Update(ctx, inv); err != nil {
			return err
		}
		c.logger.Info("remote bill gone, cleared correlation id",
			zap.String("invoice", inv.Number),
			zap.String("bill_id", entity.ID),
			zap.String("operation", string(entity.Operation)))
	default:
		// The authoritative record moved; any pending local patch for
		// this invoice is now reconciled.
		c.reconciler.Confirm(inv.Number, inv.Status)
		c.logger.Debug("bill change reconciled",
			zap.String("invoice", inv.Number),
			zap.String("bill_id", entity.ID))
	}
	return nil
}

func (c *ChangeConsumer) invoiceForBill(ctx context.Context, billID string) (*invoice.Invoice, error) {
	list, err := c.invoices.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, inv := range list {
		if inv.BillID == billID {
			return inv, nil
		}
	}
	return nil, nil
}
