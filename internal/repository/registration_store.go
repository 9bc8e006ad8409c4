package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"event-ticketing/internal/status"
	"event-ticketing/models"
)

var errRegistrationNotFound = &status.Error{Kind: status.KindNotFound, Code: "NotFound", Message: "Registration not found"}

// RegistrationStore keeps registrations in PocketBase. The collection has a
// unique index on (user_id, event_id).
type RegistrationStore struct {
	app core.App
}

func NewRegistrationStore(app core.App) *RegistrationStore {
	return &RegistrationStore{app: app}
}

func (s *RegistrationStore) FindOrCreateByUniqueKey(ctx context.Context, reg *models.Registration) (*models.Registration, bool, error) {
	existing, err := s.FindByUserAndEvent(ctx, reg.UserID, reg.EventID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	record, err := newRecord(s.app, CollectionRegistrations)
	if err != nil {
		return nil, false, err
	}
	record.Set("user_id", reg.UserID)
	record.Set("event_id", reg.EventID)
	record.Set("payment_id", reg.PaymentID)
	record.Set("status", string(reg.Status))

	saveErr := s.app.SaveWithContext(ctx, record)
	if saveErr == nil {
		return registrationFromRecord(record), true, nil
	}

	// Lost the insert race on the unique index: the winner's row is the answer.
	existing, err = s.FindByUserAndEvent(ctx, reg.UserID, reg.EventID)
	if err != nil {
		return nil, false, errors.Join(saveErr, err)
	}
	if existing == nil {
		return nil, false, fmt.Errorf("save registration: %w", saveErr)
	}

	slog.DebugContext(ctx, "registration insert lost race",
		"user_id", reg.UserID,
		"event_id", reg.EventID,
		"registration_id", existing.ID,
	)
	return existing, false, nil
}

func (s *RegistrationStore) FindByUserAndEvent(ctx context.Context, userID, eventID string) (*models.Registration, error) {
	record, err := findOne(ctx, s.app, CollectionRegistrations,
		dbx.HashExp{"user_id": userID, "event_id": eventID}, errRegistrationNotFound)
	if errors.Is(err, errRegistrationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return registrationFromRecord(record), nil
}

func (s *RegistrationStore) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	record, err := findOne(ctx, s.app, CollectionRegistrations, dbx.HashExp{"id": id}, errRegistrationNotFound)
	if err != nil {
		return nil, err
	}
	return registrationFromRecord(record), nil
}

func (s *RegistrationStore) ListByUser(ctx context.Context, userID string) ([]*models.Registration, error) {
	records, err := s.app.FindRecordsByFilter(
		CollectionRegistrations,
		"user_id = {:user}",
		"-created",
		0,
		0,
		dbx.Params{"user": userID},
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	regs := make([]*models.Registration, 0, len(records))
	for _, r := range records {
		regs = append(regs, registrationFromRecord(r))
	}
	return regs, nil
}

func (s *RegistrationStore) SetCredentialToken(ctx context.Context, id, token string) error {
	res, err := s.app.DB().NewQuery(`
		UPDATE {{registrations}}
		SET [[credential_token]] = {:token}, [[updated]] = {:updated}
		WHERE [[id]] = {:id}
	`).WithContext(ctx).Bind(dbx.Params{
		"id":      id,
		"token":   token,
		"updated": types.NowDateTime().String(),
	}).Execute()
	if err != nil {
		return fmt.Errorf("store credential token: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store credential token: %w", err)
	}
	if n == 0 {
		return errRegistrationNotFound
	}
	return nil
}

func registrationFromRecord(r *core.Record) *models.Registration {
	return &models.Registration{
		ID:              r.Id,
		UserID:          r.GetString("user_id"),
		EventID:         r.GetString("event_id"),
		PaymentID:       r.GetString("payment_id"),
		Status:          models.RegistrationStatus(r.GetString("status")),
		CredentialToken: r.GetString("credential_token"),
		CreatedAt:       r.GetDateTime("created").Time(),
	}
}
