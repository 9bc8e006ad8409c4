package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GATEWAY_PROVIDER", "")
	t.Setenv("TICKET_TTL", "")

	cfg := LoadConfig()

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "sandbox", cfg.Gateway.Provider)
	assert.Equal(t, "INR", cfg.Gateway.Currency)
	assert.Equal(t, 48*time.Hour, cfg.TicketTTL)
	assert.Equal(t, 800, cfg.TicketQRSize)
	assert.Equal(t, 30, cfg.VerifyRateLimit)
	assert.Equal(t, 600, cfg.WebhookRateLimit)
	assert.Equal(t, 0.6, cfg.Gateway.BreakerFailureRatio)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("GATEWAY_PROVIDER", "razorpay")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("VERIFY_RATE_LIMIT", "5")
	t.Setenv("WEBHOOK_RATE_LIMIT", "1200")
	t.Setenv("EVENT_CACHE_TTL", "90s")
	t.Setenv("ENABLE_METRICS", "false")
	t.Setenv("ENVIRONMENT", "production")

	cfg := LoadConfig()

	assert.Equal(t, "razorpay", cfg.Gateway.Provider)
	assert.Equal(t, "rzp_test_key", cfg.Gateway.KeyID)
	assert.Equal(t, 5, cfg.VerifyRateLimit)
	assert.Equal(t, 1200, cfg.WebhookRateLimit)
	assert.Equal(t, 90*time.Second, cfg.EventCacheTTL)
	assert.False(t, cfg.EnableMetrics)
	assert.False(t, cfg.IsDevelopment())
}

func TestGetEnvAsDuration_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, 5*time.Minute, getEnvAsDuration("SOME_DURATION", "5m"))
}

func TestGetEnvAsInt_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "ten")
	assert.Equal(t, 10, getEnvAsInt("SOME_INT", 10))
}

func TestValidate_DevelopmentFallbacks(t *testing.T) {
	cfg := &Config{
		Environment: "development",
		Gateway:     GatewayConfig{Provider: "sandbox"},
	}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, devTicketSecret, cfg.TicketSecret)
	assert.Equal(t, devGatewaySecret, cfg.Gateway.KeySecret)
}

func TestValidate_ProductionRequiresSecrets(t *testing.T) {
	cfg := &Config{
		Environment: "production",
		Gateway:     GatewayConfig{Provider: "razorpay"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QR_SECRET_KEY")
	assert.Contains(t, err.Error(), "RAZORPAY_KEY_SECRET")
	assert.Contains(t, err.Error(), "RAZORPAY_KEY_ID")
}

func TestValidate_ProductionRejectsSandbox(t *testing.T) {
	cfg := &Config{
		Environment:  "production",
		TicketSecret: "s",
		Gateway:      GatewayConfig{Provider: "sandbox", KeySecret: "k"},
	}

	assert.ErrorContains(t, cfg.Validate(), "sandbox")
}

func TestValidate_ProductionOK(t *testing.T) {
	cfg := &Config{
		Environment:  "production",
		TicketSecret: "ticket",
		Gateway: GatewayConfig{
			Provider:      "razorpay",
			KeyID:         "rzp_live_x",
			KeySecret:     "secret",
			WebhookSecret: "whsec",
		},
	}

	assert.NoError(t, cfg.Validate())
}
