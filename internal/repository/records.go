package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"event-ticketing/internal/status"
)

const (
	CollectionEvents        = "events"
	CollectionPayments      = "payments"
	CollectionRegistrations = "registrations"
	CollectionUsers         = "users"
)

// findOne loads the first record of collection matching exp. A miss is
// reported as notFound.
func findOne(ctx context.Context, app core.App, collection string, exp dbx.Expression, notFound *status.Error) (*core.Record, error) {
	record := &core.Record{}
	err := app.RecordQuery(collection).
		WithContext(ctx).
		AndWhere(exp).
		Limit(1).
		One(record)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, err
	}
	return record, nil
}

func newRecord(app core.App, collection string) (*core.Record, error) {
	coll, err := app.FindCachedCollectionByNameOrId(collection)
	if err != nil {
		return nil, err
	}
	return core.NewRecord(coll), nil
}
