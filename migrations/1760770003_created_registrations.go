package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		payments, err := app.FindCollectionByNameOrId("payments")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("registrations")
		collection.ListRule = types.Pointer("user_id = @request.auth.id")
		collection.ViewRule = types.Pointer("user_id = @request.auth.id")

		collection.Fields.Add(
			&core.RelationField{Name: "user_id", CollectionId: users.Id, MaxSelect: 1, Required: true},
			&core.RelationField{Name: "event_id", CollectionId: events.Id, MaxSelect: 1, Required: true},
			&core.RelationField{Name: "payment_id", CollectionId: payments.Id, MaxSelect: 1},
			&core.SelectField{Name: "status", Required: true, MaxSelect: 1, Values: []string{"pending", "paid", "checked_in"}},
			&core.TextField{Name: "credential_token", Hidden: true},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		// one registration per user and event
		collection.AddIndex("idx_registrations_user_event", true, "`user_id`, `event_id`", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("registrations")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
