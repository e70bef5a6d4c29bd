package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// sign computes the hex-encoded HMAC-SHA256 of the payload with the secret
func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature checks the signature returned by the client-side
// checkout callback. The signed payload is "gatewayOrderID|paymentID" and the
// comparison is constant-time.
func VerifyPaymentSignature(gatewayOrderID, paymentID, signature, secret string) bool {
	expected := sign([]byte(gatewayOrderID+"|"+paymentID), secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw webhook body using the webhook secret.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	expected := sign(body, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignPayment produces the signature the gateway would return for an
// order/payment pair. Exposed for tests and sandbox tooling.
func SignPayment(gatewayOrderID, paymentID, secret string) string {
	return sign([]byte(gatewayOrderID+"|"+paymentID), secret)
}

// SignWebhook produces the signature the gateway would attach to a webhook
// body. Exposed for tests and sandbox tooling.
func SignWebhook(body []byte, secret string) string {
	return sign(body, secret)
}
