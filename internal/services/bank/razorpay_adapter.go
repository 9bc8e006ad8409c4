package bank

import (
	"context"

	"event-ticketing/internal/services/bank/razorpay"
)

// RazorpayAdapter wraps the Razorpay client to conform to Gateway
type RazorpayAdapter struct {
	client *razorpay.Client
}

func NewRazorpayAdapter(client *razorpay.Client) *RazorpayAdapter {
	return &RazorpayAdapter{client: client}
}

func (r *RazorpayAdapter) GetProvider() Provider {
	return ProviderRazorpay
}

func (r *RazorpayAdapter) PublicKey() string {
	return r.client.KeyID()
}

func (r *RazorpayAdapter) CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	o, err := r.client.CreateOrder(ctx, &razorpay.FormOrder{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, err
	}

	return &Order{
		ID:        o.ID,
		Amount:    o.Amount,
		Currency:  o.Currency,
		Receipt:   o.Receipt,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}, nil
}

// Close gracefully closes any connections
func (r *RazorpayAdapter) Close(ctx context.Context) error {
	// plain HTTP client, nothing to release
	return nil
}
