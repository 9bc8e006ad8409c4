package repository

import (
	"context"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"event-ticketing/internal/services"
	"event-ticketing/internal/status"
	"event-ticketing/models"
)

// PaymentStore keeps payments in the PocketBase payments collection.
type PaymentStore struct {
	app core.App
}

func NewPaymentStore(app core.App) *PaymentStore {
	return &PaymentStore{app: app}
}

func (s *PaymentStore) Create(ctx context.Context, p *models.Payment) error {
	record, err := newRecord(s.app, CollectionPayments)
	if err != nil {
		return err
	}

	record.Set("user_id", p.UserID)
	record.Set("event_id", p.EventID)
	record.Set("organizer_id", p.OrganizerID)
	record.Set("amount", p.Amount)
	record.Set("currency", p.Currency)
	record.Set("receipt", p.Receipt)
	record.Set("gateway_order_id", p.GatewayOrderID)
	record.Set("status", string(p.Status))

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return fmt.Errorf("save payment: %w", err)
	}

	p.ID = record.Id
	p.CreatedAt = record.GetDateTime("created").Time()
	p.UpdatedAt = record.GetDateTime("updated").Time()
	return nil
}

func (s *PaymentStore) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	record, err := findOne(ctx, s.app, CollectionPayments, dbx.HashExp{"id": id}, status.ErrPaymentNotFound)
	if err != nil {
		return nil, err
	}
	return paymentFromRecord(record), nil
}

func (s *PaymentStore) FindByGatewayOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	record, err := findOne(ctx, s.app, CollectionPayments, dbx.HashExp{"gateway_order_id": orderID}, status.ErrPaymentNotFound)
	if err != nil {
		return nil, err
	}
	return paymentFromRecord(record), nil
}

// CompareAndSetStatus is a single conditional UPDATE. SQLite serializes
// writers, so exactly one caller observes a changed row.
func (s *PaymentStore) CompareAndSetStatus(ctx context.Context, id string, from, to models.PaymentStatus, upd services.StatusUpdate) (bool, error) {
	if !from.CanTransition(to) {
		return false, fmt.Errorf("payment %s: illegal transition %s -> %s", id, from, to)
	}

	res, err := s.app.DB().NewQuery(`
		UPDATE {{payments}}
		SET [[status]] = {:to},
			[[gateway_payment_id]] = CASE WHEN {:gpid} = '' THEN [[gateway_payment_id]] ELSE {:gpid} END,
			[[failure_reason]] = CASE WHEN {:reason} = '' THEN [[failure_reason]] ELSE {:reason} END,
			[[updated]] = {:updated}
		WHERE [[id]] = {:id} AND [[status]] = {:from}
	`).WithContext(ctx).Bind(dbx.Params{
		"id":      id,
		"from":    string(from),
		"to":      string(to),
		"gpid":    upd.GatewayPaymentID,
		"reason":  upd.FailureReason,
		"updated": types.NowDateTime().String(),
	}).Execute()
	if err != nil {
		return false, fmt.Errorf("update payment status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update payment status: %w", err)
	}
	return n == 1, nil
}

func paymentFromRecord(r *core.Record) *models.Payment {
	return &models.Payment{
		ID:               r.Id,
		UserID:           r.GetString("user_id"),
		EventID:          r.GetString("event_id"),
		OrganizerID:      r.GetString("organizer_id"),
		Amount:           int64(r.GetInt("amount")),
		Currency:         r.GetString("currency"),
		Receipt:          r.GetString("receipt"),
		GatewayOrderID:   r.GetString("gateway_order_id"),
		GatewayPaymentID: r.GetString("gateway_payment_id"),
		Status:           models.PaymentStatus(r.GetString("status")),
		FailureReason:    r.GetString("failure_reason"),
		CreatedAt:        r.GetDateTime("created").Time(),
		UpdatedAt:        r.GetDateTime("updated").Time(),
	}
}
