// qbclient/attachment.go
package qbclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"

	"github.com/pcsdental/invoicedesk/internal/auth"
	"github.com/pcsdental/invoicedesk/internal/retry"
)

// Attachable is the remote attachment record linking a file to a bill.
type Attachable struct {
	ID       string `json:"Id"`
	FileName string `json:"FileName"`
}

// AttachToBill uploads a source document and links it to a bill. The
// upload endpoint takes a multipart body: one part of attachable
// metadata, one part of file content.
func (c *Client) AttachToBill(ctx context.Context, realmID, billID, fileName string, content io.Reader) (*Attachable, error) {
	fileBytes, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment content: %w", err)
	}

	metadata := map[string]interface{}{
		"FileName":    filepath.Base(fileName),
		"ContentType": "application/pdf",
		"AttachableRef": []map[string]interface{}{
			{
				"EntityRef": map[string]string{
					"value": billID,
					"type":  "Bill",
				},
			},
		},
	}
	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attachment metadata: %w", err)
	}

	var resp struct {
		AttachableResponse []struct {
			Attachable Attachable `json:"Attachable"`
		} `json:"AttachableResponse"`
	}

	err = c.retry.Do(ctx, func() error {
		realm := realmID
		token := auth.GetToken(ctx)
		if token == nil {
			var err error
			token, err = c.authService.GetValidToken(ctx, realm)
			if err != nil {
				return retry.Permanent(fmt.Errorf("failed to get valid token: %w", err))
			}
		}

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)

		metaHeader := textproto.MIMEHeader{}
		metaHeader.Set("Content-Disposition", `form-data; name="file_metadata_01"`)
		metaHeader.Set("Content-Type", "application/json")
		metaPart, err := writer.CreatePart(metaHeader)
		if err != nil {
			return retry.Permanent(err)
		}
		if _, err := metaPart.Write(metadataBytes); err != nil {
			return retry.Permanent(err)
		}

		fileHeader := textproto.MIMEHeader{}
		fileHeader.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file_content_01"; filename="%s"`, filepath.Base(fileName)))
		fileHeader.Set("Content-Type", "application/pdf")
		filePart, err := writer.CreatePart(fileHeader)
		if err != nil {
			return retry.Permanent(err)
		}
		if _, err := filePart.Write(fileBytes); err != nil {
			return retry.Permanent(err)
		}
		if err := writer.Close(); err != nil {
			return retry.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.entityURL(realm, "upload"), &body)
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to create upload request: %w", err))
		}
		req.Header.Set("Authorization", fmt.Sprintf("%s %s", token.TokenType, token.AccessToken))
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", writer.FormDataContentType())

		q := req.URL.Query()
		q.Set("minorversion", minorVersion)
		req.URL.RawQuery = q.Encode()

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("upload request failed: %w", err)
		}
		defer httpResp.Body.Close()

		if httpResp.StatusCode >= 400 {
			respBody, _ := io.ReadAll(httpResp.Body)
			apiErr := parseFault(httpResp.StatusCode, respBody)
			if retry.RetryableStatus(httpResp.StatusCode) {
				return apiErr
			}
			return retry.Permanent(apiErr)
		}

		if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
			return retry.Permanent(fmt.Errorf("failed to decode upload response: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(resp.AttachableResponse) == 0 {
		return nil, fmt.Errorf("upload succeeded but response carried no attachable")
	}
	return &resp.AttachableResponse[0].Attachable, nil
}
