// qbclient/vendor.go
package qbclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Vendor is the minimal remote vendor reference the dashboard keeps.
type Vendor struct {
	ID          string `json:"Id"`
	DisplayName string `json:"DisplayName"`
	Active      bool   `json:"Active"`
}

// escapeQueryLiteral escapes a string literal for the QuickBooks query
// grammar.
func escapeQueryLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

// FindVendorByName looks a vendor up by exact display name. A missing
// vendor is a nil result, not an error.
func (c *Client) FindVendorByName(ctx context.Context, realmID, name string) (*Vendor, error) {
	query := url.Values{}
	query.Set("query", fmt.Sprintf("SELECT * FROM Vendor WHERE DisplayName = '%s'", escapeQueryLiteral(name)))

	var resp struct {
		QueryResponse struct {
			Vendor []Vendor `json:"Vendor"`
		} `json:"QueryResponse"`
	}
	if err := c.doJSON(ctx, http.MethodGet, realmID, "query", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("vendor query failed: %w", err)
	}

	if len(resp.QueryResponse.Vendor) == 0 {
		return nil, nil
	}
	return &resp.QueryResponse.Vendor[0], nil
}

// CreateVendor creates a minimal vendor record with the given display name.
func (c *Client) CreateVendor(ctx context.Context, realmID, name string) (*Vendor, error) {
	body := map[string]interface{}{
		"DisplayName": name,
	}

	var resp struct {
		Vendor Vendor `json:"Vendor"`
	}
	if err := c.doJSON(ctx, http.MethodPost, realmID, "vendor", nil, body, &resp); err != nil {
		return nil, fmt.Errorf("vendor create failed: %w", err)
	}
	return &resp.Vendor, nil
}
