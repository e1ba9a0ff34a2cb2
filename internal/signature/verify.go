// Package signature authenticates inbound webhook deliveries.
//
// Meta signs every delivery with HMAC-SHA256 over the raw request body
// using the app secret, and sends the result in the X-Hub-Signature-256
// header as "sha256=<hex>".
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Verifier checks webhook payload signatures against a shared secret.
type Verifier struct {
	secret []byte
	logger *slog.Logger
}

// NewVerifier creates a Verifier. An empty secret disables verification
// entirely: every payload is accepted. That mode exists for local
// development only and is logged loudly here so it is never mistaken for
// a secure deployment.
func NewVerifier(secret string, logger *slog.Logger) *Verifier {
	if secret == "" {
		logger.Warn("APP_SECRET not configured - webhook signature verification is DISABLED")
	}
	return &Verifier{secret: []byte(secret), logger: logger}
}

// Verify reports whether provided is a valid signature for body.
//
// Uses constant-time comparison (crypto/subtle) to prevent timing attacks.
// Absent or malformed signatures are treated as verification failure; no
// error detail is surfaced to the sender.
func (v *Verifier) Verify(body []byte, provided string) bool {
	if len(v.secret) == 0 {
		return true
	}

	actualMAC, err := parseSignature(provided)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expectedMAC := mac.Sum(nil)

	return subtle.ConstantTimeCompare(expectedMAC, actualMAC) == 1
}

// parseSignature decodes the header value. Only the "sha256=<hex>" form
// Meta sends is accepted.
func parseSignature(provided string) ([]byte, error) {
	hexSig, ok := strings.CutPrefix(provided, "sha256=")
	if !ok {
		return nil, fmt.Errorf("signature verification failed")
	}
	return hex.DecodeString(hexSig)
}

// Compute returns the hex HMAC-SHA256 of body under secret. Used by tests
// and by the doctor command to print what a valid header would look like.
func Compute(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Format renders a hex digest in the X-Hub-Signature-256 header format.
func Format(hexSig string) string {
	return "sha256=" + hexSig
}
