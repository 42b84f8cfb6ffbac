package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier checks gateway signatures.  Checkout signatures are the hex
// HMAC-SHA256 of "<order_id>|<payment_id>" keyed with the API key secret;
// webhook signatures are the hex HMAC-SHA256 of the raw request body keyed
// with the webhook secret.  An empty secret rejects everything.
type Verifier struct {
	KeySecret     string
	WebhookSecret string
}

// NewVerifier returns a Verifier for the given secrets.
func NewVerifier(keySecret, webhookSecret string) *Verifier {
	return &Verifier{KeySecret: keySecret, WebhookSecret: webhookSecret}
}

// VerifyCheckout reports whether signature matches the order and payment.
func (v *Verifier) VerifyCheckout(orderID, paymentID, signature string) bool {
	if v.KeySecret == "" || signature == "" {
		return false
	}
	return equalHex(CheckoutSignature(v.KeySecret, orderID, paymentID), signature)
}

// VerifyWebhook reports whether signature matches the raw body.
func (v *Verifier) VerifyWebhook(body []byte, signature string) bool {
	if v.WebhookSecret == "" || signature == "" {
		return false
	}
	return equalHex(WebhookSignature(v.WebhookSecret, body), signature)
}

// CheckoutSignature computes the checkout signature for an order.
func CheckoutSignature(secret, orderID, paymentID string) string {
	return sign(secret, []byte(orderID+"|"+paymentID))
}

// WebhookSignature computes the webhook signature for a body.
func WebhookSignature(secret string, body []byte) string {
	return sign(secret, body)
}

func sign(secret string, msg []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil))
}

// equalHex compares in constant time.
func equalHex(expected, got string) bool {
	return hmac.Equal([]byte(expected), []byte(got))
}
