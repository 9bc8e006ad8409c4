package razorpay

import (
	"encoding/json"
	"fmt"
)

const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
)

// SignatureHeader carries the HMAC of the raw webhook body.
const SignatureHeader = "X-Razorpay-Signature"

type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
	CreatedAt int64 `json:"created_at"`
}

type PaymentEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

// ParseWebhook decodes a webhook body. The signature must be checked before.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("razorpay: parse webhook: %w", err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("razorpay: parse webhook: missing event type")
	}
	return &ev, nil
}

func (ev *WebhookEvent) Payment() PaymentEntity {
	return ev.Payload.Payment.Entity
}
