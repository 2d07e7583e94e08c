// webhook/verifier.go
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader is the header QuickBooks signs webhook deliveries with.
const SignatureHeader = "intuit-signature"

// Verify validates a webhook delivery signature: HMAC-SHA256 over the
// raw, unparsed request body, base64-encoded and compared byte-for-byte.
// The body must be the raw byte stream captured before any JSON parsing;
// re-serialization can change byte layout and break the check.
func Verify(rawBody []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
