package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUserID       string

	// Gateway configuration
	Gateway GatewayConfig

	// Ticket configuration
	TicketSecret    string
	TicketTTL       time.Duration
	TicketClockSkew time.Duration
	TicketQRSize    int

	// Cache and rate limiting
	EventCacheTTL    time.Duration
	VerifyRateLimit  int
	WebhookRateLimit int
	RateLimitWindow  time.Duration

	// Mail
	MailFromAddress string
	MailFromName    string

	// Monitoring
	EnableMetrics bool
}

type GatewayConfig struct {
	Provider       string // razorpay, sandbox
	BaseURL        string
	KeyID          string
	KeySecret      string
	WebhookSecret  string
	Currency       string
	RequestTimeout time.Duration

	BreakerMaxRequests  uint32
	BreakerTimeout      time.Duration
	BreakerFailureRatio float64
}

// LoadConfig reads the environment, optionally seeded from a .env file.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config: could not load .env file", "error", err)
	}

	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUserID:       getEnv("PUBNUB_USER_ID", "ticket-server"),

		// Gateway
		Gateway: GatewayConfig{
			Provider:       getEnv("GATEWAY_PROVIDER", "sandbox"),
			BaseURL:        getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
			KeyID:          getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret:      getEnv("RAZORPAY_KEY_SECRET", ""),
			WebhookSecret:  getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
			Currency:       getEnv("GATEWAY_CURRENCY", "INR"),
			RequestTimeout: getEnvAsDuration("GATEWAY_TIMEOUT", "10s"),

			BreakerMaxRequests:  uint32(getEnvAsInt("GATEWAY_BREAKER_MAX_REQUESTS", 20)),
			BreakerTimeout:      getEnvAsDuration("GATEWAY_BREAKER_TIMEOUT", "30s"),
			BreakerFailureRatio: getEnvAsFloat("GATEWAY_BREAKER_FAILURE_RATIO", 0.6),
		},

		// Tickets
		TicketSecret:    getEnv("QR_SECRET_KEY", ""),
		TicketTTL:       getEnvAsDuration("TICKET_TTL", "48h"),
		TicketClockSkew: getEnvAsDuration("TICKET_CLOCK_SKEW", "30s"),
		TicketQRSize:    getEnvAsInt("TICKET_QR_SIZE", 800),

		// Cache and rate limiting
		EventCacheTTL:    getEnvAsDuration("EVENT_CACHE_TTL", "1m"),
		VerifyRateLimit:  getEnvAsInt("VERIFY_RATE_LIMIT", 30),
		WebhookRateLimit: getEnvAsInt("WEBHOOK_RATE_LIMIT", 600),
		RateLimitWindow:  getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),

		// Mail
		MailFromAddress: getEnv("MAIL_FROM_ADDRESS", "no-reply@localhost"),
		MailFromName:    getEnv("MAIL_FROM_NAME", "Event Tickets"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

const (
	devTicketSecret  = "dev-ticket-secret"
	devGatewaySecret = "sandbox_secret"
)

// Validate checks that the secrets the payment flow depends on are present.
// Development falls back to fixed secrets so the sandbox gateway works
// without any setup.
func (c *Config) Validate() error {
	if c.IsDevelopment() {
		if c.TicketSecret == "" {
			slog.Warn("config: QR_SECRET_KEY not set, using development secret")
			c.TicketSecret = devTicketSecret
		}
		if c.Gateway.KeySecret == "" && c.Gateway.Provider == "sandbox" {
			c.Gateway.KeySecret = devGatewaySecret
		}
	}

	var errs []error
	if c.TicketSecret == "" {
		errs = append(errs, errors.New("QR_SECRET_KEY is required"))
	}
	if c.Gateway.KeySecret == "" {
		errs = append(errs, errors.New("RAZORPAY_KEY_SECRET is required"))
	}
	if c.Gateway.Provider == "razorpay" && c.Gateway.KeyID == "" {
		errs = append(errs, errors.New("RAZORPAY_KEY_ID is required for the razorpay provider"))
	}
	if c.Gateway.Provider == "sandbox" && !c.IsDevelopment() {
		errs = append(errs, errors.New("sandbox gateway is only allowed in development"))
	}
	if c.Gateway.WebhookSecret == "" {
		slog.Warn("config: RAZORPAY_WEBHOOK_SECRET not set, webhooks will be rejected")
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
