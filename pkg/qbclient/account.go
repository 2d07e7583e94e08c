// qbclient/account.go
package qbclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Account is the minimal remote ledger-account reference.
type Account struct {
	ID          string `json:"Id"`
	Name        string `json:"Name"`
	AccountType string `json:"AccountType"`
}

// FindAccountByName looks an account up by exact name. A missing account
// is a nil result, not an error, so callers can apply a configured
// default.
func (c *Client) FindAccountByName(ctx context.Context, realmID, name string) (*Account, error) {
	query := url.Values{}
	query.Set("query", fmt.Sprintf("SELECT * FROM Account WHERE Name = '%s'", escapeQueryLiteral(name)))

	var resp struct {
		QueryResponse struct {
			Account []Account `json:"Account"`
		} `json:"QueryResponse"`
	}
	if err := c.doJSON(ctx, http.MethodGet, realmID, "query", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("account query failed: %w", err)
	}

	if len(resp.QueryResponse.Account) == 0 {
		return nil, nil
	}
	return &resp.QueryResponse.Account[0], nil
}
