package services

import (
	"event-ticketing/internal/services/bank/razorpay"
)

// SignatureVerifier authenticates gateway callbacks. It holds no state besides
// the shared secrets and is safe for concurrent use.
type SignatureVerifier struct {
	keySecret     string
	webhookSecret string
}

func NewSignatureVerifier(keySecret, webhookSecret string) *SignatureVerifier {
	return &SignatureVerifier{
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

// Verify checks the checkout callback signature, hex(HMAC-SHA256(orderID|paymentID)).
func (v *SignatureVerifier) Verify(orderID, gatewayPaymentID, signature string) bool {
	if v.keySecret == "" || signature == "" {
		return false
	}
	return razorpay.VerifyHMAC(razorpay.PaymentMessage(orderID, gatewayPaymentID), signature, v.keySecret)
}

// VerifyWebhook checks the signature of a raw webhook body. Webhooks are
// refused outright when no webhook secret is configured.
func (v *SignatureVerifier) VerifyWebhook(body []byte, signature string) bool {
	if v.webhookSecret == "" || signature == "" {
		return false
	}
	return razorpay.VerifyHMAC(body, signature, v.webhookSecret)
}
