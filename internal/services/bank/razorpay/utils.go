package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Hmac256 is a function to generate HMAC256 hash.
func Hmac256(body, key []byte) string {
	hash := hmac.New(sha256.New, key)
	hash.Write(body)
	return hex.EncodeToString(hash.Sum(nil))
}

// PaymentMessage is the payload a checkout callback signature is computed over.
func PaymentMessage(orderID, paymentID string) []byte {
	return []byte(orderID + "|" + paymentID)
}

// SignPayment returns the callback signature the gateway attaches for a
// completed payment.
func SignPayment(orderID, paymentID, secret string) string {
	return Hmac256(PaymentMessage(orderID, paymentID), []byte(secret))
}

// VerifyHMAC reports whether receivedHMAC is the hex HMAC-SHA256 of message
// under key. The comparison is constant time.
func VerifyHMAC(message []byte, receivedHMAC, key string) bool {
	expected := Hmac256(message, []byte(key))
	return hmac.Equal([]byte(receivedHMAC), []byte(expected))
}
