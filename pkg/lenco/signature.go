package lenco

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// Webhook signature headers, in lookup order.
const (
	SignatureHeader         = "X-Lenco-Signature"
	FallbackSignatureHeader = "X-Webhook-Signature"
)

// DeriveWebhookKey turns the account secret into the HMAC key the provider
// signs webhooks with: the hex encoded SHA-256 digest of the secret.
func DeriveWebhookKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Sign returns the hex encoded HMAC-SHA512 of body under the derived key.
func Sign(derivedKey string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(derivedKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature authenticates body for secret.
// The comparison is constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected := Sign(DeriveWebhookKey(secret), body)
	provided := strings.ToLower(strings.TrimSpace(signature))
	return hmac.Equal([]byte(expected), []byte(provided))
}
