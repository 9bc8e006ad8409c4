package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"event-ticketing/internal/services"
	"event-ticketing/models"
)

type RegistrationLookup interface {
	ListForUser(ctx context.Context, userID string) ([]*models.Registration, error)
	StatusFor(ctx context.Context, userID, eventID string) (*services.RegistrationStatusView, error)
}

type RegistrationHandler struct {
	registrations RegistrationLookup
}

func NewRegistrationHandler(registrations RegistrationLookup) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// MyRegistrations - registrations of the authenticated user
func (h *RegistrationHandler) MyRegistrations(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	regs, err := h.registrations.ListForUser(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return writeError(e, err)
	}

	out := make([]map[string]any, 0, len(regs))
	for _, r := range regs {
		out = append(out, map[string]any{
			"id":        r.ID,
			"eventId":   r.EventID,
			"paymentId": r.PaymentID,
			"status":    r.Status,
			"created":   r.CreatedAt,
		})
	}

	return e.JSON(http.StatusOK, map[string]any{
		"success":       true,
		"registrations": out,
	})
}

// Status - whether the authenticated user is registered for an event
func (h *RegistrationHandler) Status(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	view, err := h.registrations.StatusFor(e.Request.Context(), e.Auth.Id, e.Request.PathValue("eventId"))
	if err != nil {
		return writeError(e, err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"success":        true,
		"registered":     view.Registered,
		"status":         view.Status,
		"registrationId": view.RegistrationID,
	})
}
