package services

import (
	"context"

	"event-ticketing/models"
)

// StatusUpdate carries the columns written together with a status transition.
type StatusUpdate struct {
	GatewayPaymentID string
	FailureReason    string
}

// PaymentRepository is the payment ledger. Lookups that miss return
// status.ErrPaymentNotFound.
type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	FindByGatewayOrderID(ctx context.Context, orderID string) (*models.Payment, error)

	// CompareAndSetStatus moves the payment from `from` to `to` only if its
	// stored status is still `from`. It reports whether this call made the
	// transition.
	CompareAndSetStatus(ctx context.Context, id string, from, to models.PaymentStatus, upd StatusUpdate) (bool, error)
}

// RegistrationRepository is the registration ledger keyed on (user, event).
type RegistrationRepository interface {
	// FindOrCreateByUniqueKey returns the registration for reg's (user, event)
	// pair, inserting reg if none exists. created is true only for the caller
	// whose insert won.
	FindOrCreateByUniqueKey(ctx context.Context, reg *models.Registration) (existing *models.Registration, created bool, err error)

	// FindByUserAndEvent returns nil, nil when the pair has no registration.
	FindByUserAndEvent(ctx context.Context, userID, eventID string) (*models.Registration, error)
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Registration, error)
	SetCredentialToken(ctx context.Context, id, token string) error
}

// EventRepository is the read-only event catalog. Misses return
// status.ErrEventNotFound.
type EventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

// UserDirectory resolves ticket recipients.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}
