package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
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

		// superuser-only access, the API goes through custom routes
		collection := core.NewBaseCollection("payments")

		collection.Fields.Add(
			&core.RelationField{Name: "user_id", CollectionId: users.Id, MaxSelect: 1, Required: true},
			&core.RelationField{Name: "event_id", CollectionId: events.Id, MaxSelect: 1, Required: true},
			&core.RelationField{Name: "organizer_id", CollectionId: users.Id, MaxSelect: 1},
			&core.NumberField{Name: "amount", OnlyInt: true},
			&core.TextField{Name: "currency", Required: true, Max: 3},
			&core.TextField{Name: "receipt", Max: 40},
			&core.TextField{Name: "gateway_order_id", Required: true},
			&core.TextField{Name: "gateway_payment_id"},
			&core.SelectField{Name: "status", Required: true, MaxSelect: 1, Values: []string{"created", "paid", "failed"}},
			&core.TextField{Name: "failure_reason"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_payments_gateway_order", true, "`gateway_order_id`", "")
		collection.AddIndex("idx_payments_user_event", false, "`user_id`, `event_id`", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("payments")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
