// sync/engine.go
package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pcsdental/invoicedesk/internal/invoice"
	"github.com/pcsdental/invoicedesk/pkg/qbclient"
)

// centTolerance is the rounding tolerance for amount checks.
var centTolerance = decimal.New(1, -2) // 0.01

// directory resolves remote vendors and accounts.
type directory interface {
	GetOrCreateVendor(ctx context.Context, realmID, name string) (*qbclient.Vendor, error)
	FindAccountByName(ctx context.Context, realmID, name string) (*qbclient.Account, error)
}

// billAPI is the slice of the QuickBooks client the engine needs.
type billAPI interface {
	CreateBill(ctx context.Context, realmID string, bill *qbclient.Bill) (*qbclient.Bill, error)
	AttachToBill(ctx context.Context, realmID, billID, fileName string, content io.Reader) (*qbclient.Attachable, error)
}

// Options configures the sync engine's account defaults.
type Options struct {
	DefaultExpenseAccountID string
	DefaultAPAccountID      string
}

// Result reports the outcome of one invoice sync. The bill is the
// authoritative unit of success; a failed attachment leaves the sync
// successful with AttachmentFailed set.
type Result struct {
	BillID           string `json:"bill_id"`
	DocNumber        string `json:"doc_number"`
	AlreadySynced    bool   `json:"already_synced,omitempty"`
	AttachmentFailed bool   `json:"attachment_failed,omitempty"`
	AttachmentError  string `json:"attachment_error,omitempty"`
}

// Engine maps local invoices onto QuickBooks bills.
type Engine struct {
	directory directory
	api       billAPI
	invoices  invoice.Store
	opts      Options
	logger    *zap.Logger
	openDoc   func(path string) (io.ReadCloser, error)

	mu    sync.Mutex
	locks map[string]*invoiceLock
}

// invoiceLock serializes syncs of one invoice number. The refcount lets
// the engine drop the entry once no sync holds or waits on it, so the map
// does not grow with every invoice ever synced.
type invoiceLock struct {
	mu   sync.Mutex
	refs int
}

// NewEngine creates a bill synchronization engine
func NewEngine(dir directory, api billAPI, invoices invoice.Store, opts Options, logger *zap.Logger) *Engine {
	return &Engine{
		directory: dir,
		api:       api,
		invoices:  invoices,
		opts:      opts,
		logger:    logger,
		openDoc: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
		locks: make(map[string]*invoiceLock),
	}
}

// lockInvoice serializes concurrent syncs of the same invoice number.
// Different invoices proceed in parallel.
func (e *Engine) lockInvoice(number string) *invoiceLock {
	e.mu.Lock()
	l, ok := e.locks[number]
	if !ok {
		l = &invoiceLock{}
		e.locks[number] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return l
}

func (e *Engine) unlockInvoice(number string, l *invoiceLock) {
	l.mu.Unlock()

	e.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(e.locks, number)
	}
	e.mu.Unlock()
}

// SyncInvoice creates a QuickBooks bill for a local invoice and attaches
// its source document. Re-invoking for an invoice that already carries a
// bill correlation id is a no-op reporting the existing id.
func (e *Engine) SyncInvoice(ctx context.Context, realmID string, inv *invoice.Invoice) (*Result, error) {
	l := e.lockInvoice(inv.Number)
	defer e.unlockInvoice(inv.Number, l)

	// The correlation id is the idempotency key. Re-read the stored
	// record in case a concurrent sync finished while we waited.
	if stored, err := e.invoices.Get(ctx, inv.Number); err == nil && stored.Synced() {
		return &Result{
			BillID:        stored.BillID,
			DocNumber:     stored.Number,
			AlreadySynced: true,
		}, nil
	}
	if inv.Synced() {
		return &Result{BillID: inv.BillID, DocNumber: inv.Number, AlreadySynced: true}, nil
	}

	if err := validateAmounts(inv); err != nil {
		return nil, err
	}

	vendor, err := e.directory.GetOrCreateVendor(ctx, realmID, inv.Vendor)
	if err != nil {
		return nil, err
	}

	bill, err := e.buildBill(ctx, realmID, inv, vendor)
	if err != nil {
		return nil, err
	}

	created, err := e.api.CreateBill(ctx, realmID, bill)
	if err != nil {
		return nil, fmt.Errorf("bill creation failed for invoice %s: %w", inv.Number, err)
	}

	if err := e.invoices.SetBillRef(ctx, inv.Number, created.ID); err != nil {
		// The remote bill exists; losing the correlation id would allow a
		// duplicate on retry, so surface this loudly.
		e.logger.Error("bill created but correlation id not stored",
			zap.String("invoice", inv.Number),
			zap.String("bill_id", created.ID),
			zap.Error(err))
		return nil, fmt.Errorf("bill %s created but correlation id not stored: %w", created.ID, err)
	}
	inv.BillID = created.ID

	result := &Result{BillID: created.ID, DocNumber: created.DocNumber}

	if inv.PDFPath != "" {
		if err := e.attach(ctx, realmID, created.ID, inv.PDFPath); err != nil {
			e.logger.Warn("attachment failed, bill sync still successful",
				zap.String("invoice", inv.Number),
				zap.String("bill_id", created.ID),
				zap.Error(err))
			result.AttachmentFailed = true
			result.AttachmentError = err.Error()
		}
	}

	e.logger.Info("invoice synced to QuickBooks",
		zap.String("invoice", inv.Number),
		zap.String("vendor", vendor.DisplayName),
		zap.String("bill_id", created.ID),
		zap.Bool("attachment_failed", result.AttachmentFailed))

	return result, nil
}

// buildBill constructs the bill payload: one expense line per invoice
// line, each posting to the account matching the invoice's category or
// the configured default.
func (e *Engine) buildBill(ctx context.Context, realmID string, inv *invoice.Invoice, vendor *qbclient.Vendor) (*qbclient.Bill, error) {
	category := invoice.Categorize(inv.Lines)

	accountID := e.opts.DefaultExpenseAccountID
	if category != invoice.CategoryOther {
		account, err := e.directory.FindAccountByName(ctx, realmID, category)
		if err != nil {
			return nil, err
		}
		if account != nil {
			accountID = account.ID
		}
	}

	lines := make([]qbclient.BillLine, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		lines = append(lines, qbclient.BillLine{
			Amount:      line.Total.StringFixed(2),
			Description: line.Description,
			DetailType:  "AccountBasedExpenseLineDetail",
			Detail: qbclient.BillLineDetail{
				AccountRef: qbclient.Ref{Value: accountID},
			},
		})
	}

	bill := &qbclient.Bill{
		DocNumber: inv.Number,
		TxnDate:   inv.InvoiceDate,
		DueDate:   inv.DueDate,
		VendorRef: qbclient.Ref{Value: vendor.ID, Name: vendor.DisplayName},
		Line:      lines,
	}
	if e.opts.DefaultAPAccountID != "" {
		bill.APAccountRef = &qbclient.Ref{Value: e.opts.DefaultAPAccountID}
	}
	return bill, nil
}

func (e *Engine) attach(ctx context.Context, realmID, billID, pdfPath string) error {
	doc, err := e.openDoc(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open source document: %w", err)
	}
	defer doc.Close()

	_, err = e.api.AttachToBill(ctx, realmID, billID, pdfPath, doc)
	return err
}

// validateAmounts checks that each line's total equals quantity × unit
// price and that the invoice total equals the sum of line totals, both
// within one cent.
func validateAmounts(inv *invoice.Invoice) error {
	sum := decimal.Zero
	for i, line := range inv.Lines {
		expected := line.Quantity.Mul(line.UnitPrice)
		if line.Total.Sub(expected).Abs().GreaterThan(centTolerance) {
			return &MismatchError{
				InvoiceNumber: inv.Number,
				Detail: fmt.Sprintf("line %d total %s != quantity %s x unit price %s",
					i+1, line.Total.StringFixed(2), line.Quantity.String(), line.UnitPrice.StringFixed(2)),
			}
		}
		sum = sum.Add(line.Total)
	}
	if inv.Total.Sub(sum).Abs().GreaterThan(centTolerance) {
		return &MismatchError{
			InvoiceNumber: inv.Number,
			Detail: fmt.Sprintf("invoice total %s != sum of lines %s",
				inv.Total.StringFixed(2), sum.StringFixed(2)),
		}
	}
	return nil
}
