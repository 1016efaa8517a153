package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"storepulse-analytics-core/internal/domain"
)

// WebhookVerifier checks webhook signatures against the app's shared secret.
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a verifier for the given shared secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Verify recomputes base64(HMAC-SHA256(body, secret)) over the exact received
// body and compares it in constant time against the supplied header value.
// Returns ErrSignatureInvalid on a missing header or any mismatch.
func (v *WebhookVerifier) Verify(body []byte, signatureHeader string) error {
	if signatureHeader == "" {
		return domain.ErrSignatureInvalid
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signatureHeader)) {
		return domain.ErrSignatureInvalid
	}
	return nil
}

// Sign computes the signature the verifier expects for a body. Used by tests
// and by outbound requests that need to prove authenticity.
func (v *WebhookVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
