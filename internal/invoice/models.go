// invoice/models.go
package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one line of a vendor invoice.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// Invoice is the local invoice record as ingested from a vendor document.
// The invoice number is the unique key across the whole system.
type Invoice struct {
	Number      string     `json:"invoice_number"`
	Vendor      string     `json:"vendor"`
	ClinicID    string     `json:"clinic_id,omitempty"`
	Lines       []LineItem `json:"line_items"`
	InvoiceDate string     `json:"invoice_date,omitempty"` // YYYY-MM-DD
	DueDate     string     `json:"due_date,omitempty"`     // YYYY-MM-DD

	Total     decimal.Decimal `json:"total"`
	Status    Status          `json:"status"`
	Approved  bool            `json:"approved"`
	CapitalEx bool            `json:"capital_ex,omitempty"`

	PDFPath   string    `json:"pdf_path,omitempty"`
	BillID    string    `json:"bill_id,omitempty"` // remote bill correlation id
	Timestamp time.Time `json:"timestamp"`
}

// Synced reports whether the invoice already carries a remote bill
// correlation id.
func (i *Invoice) Synced() bool {
	return i.BillID != ""
}
