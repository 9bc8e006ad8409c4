package models

import (
	"time"
)

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationPaid      RegistrationStatus = "paid"
	RegistrationCheckedIn RegistrationStatus = "checked_in"
)

// Active reports whether the registration grants admission.
func (s RegistrationStatus) Active() bool {
	return s == RegistrationPaid || s == RegistrationCheckedIn
}

type Registration struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	EventID         string             `json:"event_id"`
	PaymentID       string             `json:"payment_id"`
	Status          RegistrationStatus `json:"status"` // pending, paid, checked_in
	CredentialToken string             `json:"credential_token,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// Ticket is a minted admission credential and its QR rendering.
type Ticket struct {
	RegistrationID string    `json:"registration_id"`
	Token          string    `json:"token"`
	Image          []byte    `json:"-"`
	IssuedAt       time.Time `json:"issued_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}
