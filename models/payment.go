package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentCreated PaymentStatus = "created"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type Payment struct {
	ID               string        `json:"payment_id"`
	UserID           string        `json:"user_id"`
	EventID          string        `json:"event_id"`
	OrganizerID      string        `json:"organizer_id"`
	Amount           int64         `json:"amount"` // minor units
	Currency         string        `json:"currency"`
	Receipt          string        `json:"receipt"`
	GatewayOrderID   string        `json:"gateway_order_id"`
	GatewayPaymentID string        `json:"gateway_payment_id,omitempty"`
	Status           PaymentStatus `json:"status"` // created, paid, failed
	FailureReason    string        `json:"failure_reason,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// CanTransition reports whether the state machine allows moving from s to next.
// paid and failed are terminal.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	return s == PaymentCreated && (next == PaymentPaid || next == PaymentFailed)
}
