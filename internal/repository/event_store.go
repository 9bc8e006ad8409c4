package repository

import (
	"context"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"event-ticketing/internal/status"
	"event-ticketing/models"
)

type EventStore struct {
	app core.App
}

func NewEventStore(app core.App) *EventStore {
	return &EventStore{app: app}
}

func (s *EventStore) FindByID(ctx context.Context, id string) (*models.Event, error) {
	record, err := findOne(ctx, s.app, CollectionEvents, dbx.HashExp{"id": id}, status.ErrEventNotFound)
	if err != nil {
		return nil, err
	}

	return &models.Event{
		ID:                   record.Id,
		Name:                 record.GetString("name"),
		Venue:                record.GetString("venue"),
		Price:                record.GetFloat("price"),
		RegistrationDeadline: record.GetDateTime("registration_deadline").Time(),
		OrganizerID:          record.GetString("created_by"),
	}, nil
}

type UserStore struct {
	app core.App
}

func NewUserStore(app core.App) *UserStore {
	return &UserStore{app: app}
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	record, err := findOne(ctx, s.app, CollectionUsers, dbx.HashExp{"id": id}, status.ErrNotFound)
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:    record.Id,
		Name:  record.GetString("name"),
		Email: record.Email(),
	}, nil
}
