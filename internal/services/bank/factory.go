package bank

import (
	"context"
	"fmt"

	"event-ticketing/config"
	"event-ticketing/internal/services/bank/razorpay"
)

// Factory creates gateway instances based on provider type
type Factory struct{}

// NewFactory creates a new gateway factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateGateway creates a gateway instance based on provider type and configuration
func (f *Factory) CreateGateway(ctx context.Context, cfg config.GatewayConfig) (Gateway, error) {
	switch Provider(cfg.Provider) {
	case ProviderRazorpay:
		if cfg.KeyID == "" || cfg.KeySecret == "" {
			return nil, fmt.Errorf("razorpay gateway requires key id and key secret")
		}
		return NewRazorpayAdapter(razorpay.NewClient(&razorpay.ClientConfig{
			BaseURL:   cfg.BaseURL,
			KeyID:     cfg.KeyID,
			KeySecret: cfg.KeySecret,
			Timeout:   cfg.RequestTimeout,
		})), nil

	case ProviderSandbox:
		return NewSandboxGateway(cfg.KeyID), nil

	default:
		return nil, fmt.Errorf("unsupported gateway provider: %s", cfg.Provider)
	}
}

// GetSupportedProviders returns list of supported gateway providers
func (f *Factory) GetSupportedProviders() []Provider {
	return []Provider{
		ProviderRazorpay,
		ProviderSandbox,
	}
}
