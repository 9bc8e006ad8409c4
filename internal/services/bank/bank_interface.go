package bank

import (
	"context"
)

// Provider represents different payment gateway types
type Provider string

const (
	ProviderRazorpay Provider = "razorpay"
	ProviderSandbox  Provider = "sandbox"
)

// OrderRequest represents a generic order request. Amount is in minor units.
type OrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Order is the remote order created by the gateway.
type Order struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// Gateway defines the common interface for all payment gateways
type Gateway interface {
	// GetProvider returns the gateway provider type
	GetProvider() Provider

	// PublicKey is the key the browser checkout widget is initialised with
	PublicKey() string

	// CreateOrder creates a remote order the customer pays against
	CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error)

	// Close gracefully closes any connections
	Close(ctx context.Context) error
}
