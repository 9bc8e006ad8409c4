package services

import (
	"context"
	"fmt"
	"log/slog"

	"event-ticketing/models"
)

type RegistrationService struct {
	registrations RegistrationRepository
}

func NewRegistrationService(registrations RegistrationRepository) *RegistrationService {
	return &RegistrationService{registrations: registrations}
}

// EnsureRegistration records attendance for (userID, eventID) once. Repeated
// calls, including concurrent ones, return the id of the same registration.
func (s *RegistrationService) EnsureRegistration(ctx context.Context, userID, eventID, paymentID string) (string, error) {
	reg, _, err := s.ensure(ctx, userID, eventID, paymentID)
	if err != nil {
		return "", err
	}
	return reg.ID, nil
}

func (s *RegistrationService) ensure(ctx context.Context, userID, eventID, paymentID string) (*models.Registration, bool, error) {
	reg, created, err := s.registrations.FindOrCreateByUniqueKey(ctx, &models.Registration{
		UserID:    userID,
		EventID:   eventID,
		PaymentID: paymentID,
		Status:    models.RegistrationPaid,
	})
	if err != nil {
		return nil, false, fmt.Errorf("ensure registration: %w", err)
	}

	if !created && reg.PaymentID != paymentID {
		slog.WarnContext(ctx, "registration already exists for another payment",
			"registration_id", reg.ID,
			"user_id", userID,
			"event_id", eventID,
			"existing_payment_id", reg.PaymentID,
			"payment_id", paymentID,
		)
	}

	return reg, created, nil
}

func (s *RegistrationService) ListForUser(ctx context.Context, userID string) ([]*models.Registration, error) {
	regs, err := s.registrations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (s *RegistrationService) find(ctx context.Context, id string) (*models.Registration, error) {
	reg, err := s.registrations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return reg, nil
}

type RegistrationStatusView struct {
	Registered     bool                      `json:"registered"`
	Status         models.RegistrationStatus `json:"status,omitempty"`
	RegistrationID string                    `json:"registrationId,omitempty"`
}

// StatusFor reports whether the user holds an active registration for the event.
func (s *RegistrationService) StatusFor(ctx context.Context, userID, eventID string) (*RegistrationStatusView, error) {
	reg, err := s.registrations.FindByUserAndEvent(ctx, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("registration status: %w", err)
	}
	if reg == nil {
		return &RegistrationStatusView{Registered: false}, nil
	}

	return &RegistrationStatusView{
		Registered:     reg.Status.Active(),
		Status:         reg.Status,
		RegistrationID: reg.ID,
	}, nil
}
