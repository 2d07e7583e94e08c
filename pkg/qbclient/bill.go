// qbclient/bill.go
package qbclient

import (
	"context"
	"fmt"
	"net/http"
)

// Ref is a QuickBooks entity reference.
type Ref struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

// BillLine is one expense line on a bill.
type BillLine struct {
	Amount      string         `json:"Amount"`
	Description string         `json:"Description,omitempty"`
	DetailType  string         `json:"DetailType"`
	Detail      BillLineDetail `json:"AccountBasedExpenseLineDetail"`
}

// BillLineDetail carries the expense account the line posts against.
type BillLineDetail struct {
	AccountRef Ref `json:"AccountRef"`
}

// Bill is the payload for bill creation and the shape of the response.
type Bill struct {
	ID           string     `json:"Id,omitempty"`
	DocNumber    string     `json:"DocNumber"`
	TxnDate      string     `json:"TxnDate,omitempty"`
	DueDate      string     `json:"DueDate,omitempty"`
	VendorRef    Ref        `json:"VendorRef"`
	APAccountRef *Ref       `json:"APAccountRef,omitempty"`
	Line         []BillLine `json:"Line"`
}

// CreateBill submits a bill and returns the remote record with its
// assigned identifier.
func (c *Client) CreateBill(ctx context.Context, realmID string, bill *Bill) (*Bill, error) {
	var resp struct {
		Bill Bill `json:"Bill"`
	}
	if err := c.doJSON(ctx, http.MethodPost, realmID, "bill", nil, bill, &resp); err != nil {
		return nil, fmt.Errorf("bill create failed: %w", err)
	}
	return &resp.Bill, nil
}
