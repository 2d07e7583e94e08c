// qbclient/client.go
package qbclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/pcsdental/invoicedesk/internal/auth"
	"github.com/pcsdental/invoicedesk/internal/retry"
)

// minorVersion pins the QuickBooks API minor version for all requests.
const minorVersion = "75"

// APIError is a definitive error response from the QuickBooks API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("quickbooks API error %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

// IsDuplicateName reports whether the error is the duplicate-name
// constraint violation raised when two creates race on the same display
// name.
func (e *APIError) IsDuplicateName() bool {
	return e.Code == "6240"
}

// Client is the QuickBooks API client. It is an explicit value carrying
// its configuration; operations take the realm from context-free
// arguments rather than shared mutable state.
type Client struct {
	baseURL     string
	authService *auth.Service
	httpClient  *http.Client
	retry       retry.Policy
	logger      *zap.Logger
}

// NewClient creates a new QuickBooks API client
func NewClient(baseURL string, authService *auth.Service, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		authService: authService,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		retry:       retry.DefaultPolicy(),
		logger:      logger,
	}
}

// entityURL builds the endpoint URL for a company-scoped resource.
func (c *Client) entityURL(realmID, resource string) string {
	return fmt.Sprintf("%s/v3/company/%s/%s", c.baseURL, realmID, resource)
}

// doJSON performs an authenticated JSON request against a company-scoped
// resource and decodes the response into out. The token is fetched for
// the same realm the resource URL is built for. Transient failures are
// retried under the shared policy; API faults are terminal.
func (c *Client) doJSON(ctx context.Context, method, realmID, resource string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	return c.retry.Do(ctx, func() error {
		token := auth.GetToken(ctx)
		if token == nil {
			var err error
			token, err = c.authService.GetValidToken(ctx, realmID)
			if err != nil {
				return retry.Permanent(fmt.Errorf("failed to get valid token: %w", err))
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.entityURL(realmID, resource), reader)
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		req.Header.Set("Authorization", fmt.Sprintf("%s %s", token.TokenType, token.AccessToken))
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		q := req.URL.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		q.Set("minorversion", minorVersion)
		req.URL.RawQuery = q.Encode()

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			respBody, _ := io.ReadAll(resp.Body)
			apiErr := parseFault(resp.StatusCode, respBody)
			if retry.RetryableStatus(resp.StatusCode) {
				return apiErr
			}
			return retry.Permanent(apiErr)
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retry.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	})
}

// parseFault extracts the first error from the QuickBooks Fault envelope,
// falling back to the raw body when the envelope is not JSON.
func parseFault(statusCode int, body []byte) *APIError {
	var envelope struct {
		Fault struct {
			Error []struct {
				Message string `json:"Message"`
				Detail  string `json:"Detail"`
				Code    string `json:"code"`
			} `json:"Error"`
		} `json:"Fault"`
	}

	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Fault.Error) > 0 {
		first := envelope.Fault.Error[0]
		return &APIError{
			StatusCode: statusCode,
			Code:       first.Code,
			Message:    first.Message,
			Detail:     first.Detail,
		}
	}
	return &APIError{
		StatusCode: statusCode,
		Message:    string(body),
	}
}
