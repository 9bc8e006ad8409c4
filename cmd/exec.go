package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go/v7"

	"event-ticketing/config"
	"event-ticketing/internal/handlers"
	"event-ticketing/internal/repository"
	"event-ticketing/internal/services"
	"event-ticketing/internal/services/bank"
	_ "event-ticketing/migrations"
	"event-ticketing/security"
	"event-ticketing/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize Redis
	redisClient, err := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}

	// Initialize PubNub
	pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUserID))
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey
	pnConfig.MaxWorkers = 0 // publish on the caller's goroutine so its context applies
	pn := pubnub.NewPubNub(pnConfig)

	// Payment gateway behind a circuit breaker
	gateway, err := bank.NewFactory().CreateGateway(context.Background(), cfg.Gateway)
	if err != nil {
		return err
	}
	guarded := bank.NewGuardedGateway(gateway, utils.BreakerSettings{
		MinRequests:  cfg.Gateway.BreakerMaxRequests,
		Timeout:      cfg.Gateway.BreakerTimeout,
		FailureRatio: cfg.Gateway.BreakerFailureRatio,
	})

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.IsDevelopment(),
	})

	// Storage
	st := &stores{
		payments:      repository.NewPaymentStore(app),
		registrations: repository.NewRegistrationStore(app),
		events:        repository.NewEventCache(repository.NewEventStore(app), redisClient, cfg.EventCacheTTL),
		users:         repository.NewUserStore(app),
	}
	buildPayments := func() (*services.PaymentService, error) {
		return newPaymentService(app, cfg, st, pn, guarded)
	}

	app.RootCmd.AddCommand(NewSignCallbackCommand(cfg))
	app.RootCmd.AddCommand(NewReissueTicketCommand(func() (TicketReissuer, error) {
		return buildPayments()
	}))

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		logger := se.App.Logger()

		// Services
		paymentService, err := buildPayments()
		if err != nil {
			return err
		}
		registrationService := services.NewRegistrationService(st.registrations)

		// Handlers
		paymentHandler := handlers.NewPaymentHandler(paymentService)
		registrationHandler := handlers.NewRegistrationHandler(registrationService)
		verifyLimiter := security.NewRateLimiter(redisClient, cfg.VerifyRateLimit, cfg.RateLimitWindow)
		webhookLimiter := security.NewRateLimiter(redisClient, cfg.WebhookRateLimit, cfg.RateLimitWindow)

		v1 := se.Router.Group("/api/v1")

		// Payment endpoints
		v1.POST("/payments/create-order/{eventId}", paymentHandler.CreateOrder).
			Bind(apis.RequireAuth(), security.AntiBot())
		v1.POST("/payments/verify", paymentHandler.Verify).
			Bind(apis.RequireAuth(), verifyLimiter.Middleware("verify"))
		v1.POST("/payments/webhook", paymentHandler.Webhook).
			Bind(webhookLimiter.Middleware("webhook"))

		// Registration endpoints
		v1.GET("/registrations/my", registrationHandler.MyRegistrations).Bind(apis.RequireAuth())
		v1.GET("/registrations/status/{eventId}", registrationHandler.Status).Bind(apis.RequireAuth())

		// Health check
		se.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{
				"status":  "healthy",
				"gateway": guarded.BreakerState().String(),
			})
		})

		if cfg.EnableMetrics {
			se.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
		}

		logger.Info("Server routes registered", "gateway", guarded.GetProvider())

		return se.Next()
	})

	// Drop cached events when organizers edit them
	app.OnRecordAfterUpdateSuccess(repository.CollectionEvents).BindFunc(func(e *core.RecordEvent) error {
		invalidateEvent(e, st.events)
		return e.Next()
	})
	app.OnRecordAfterDeleteSuccess(repository.CollectionEvents).BindFunc(func(e *core.RecordEvent) error {
		invalidateEvent(e, st.events)
		return e.Next()
	})

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := guarded.Close(ctx); err != nil {
			slog.Error("gateway close failed", "error", err)
		}
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close failed", "error", err)
		}
		return e.Next()
	})

	return app.Start()
}

type stores struct {
	payments      *repository.PaymentStore
	registrations *repository.RegistrationStore
	events        *repository.EventCache
	users         *repository.UserStore
}

// newPaymentService assembles the payment pipeline. It reads mail settings,
// so it must run after the app is bootstrapped.
func newPaymentService(app core.App, cfg *config.Config, st *stores, pn *pubnub.PubNub, gateway bank.Gateway) (*services.PaymentService, error) {
	tickets, err := services.NewTicketService(st.registrations, cfg.TicketSecret, services.TicketOptions{
		TTL:       cfg.TicketTTL,
		ClockSkew: cfg.TicketClockSkew,
		QRSize:    cfg.TicketQRSize,
	})
	if err != nil {
		return nil, err
	}

	notifier := services.NewMultiNotifier(
		services.NewEmailNotifier(app.NewMailClient(), mailFrom(app, cfg), cfg.MailFromName),
		services.NewRealtimeNotifier(services.NewPubNubPublisher(pn)),
	)

	return services.NewPaymentService(services.PaymentDeps{
		Payments:      st.payments,
		Events:        st.events,
		Users:         st.users,
		Registrations: st.registrations,
		Tickets:       tickets,
		Notifier:      notifier,
		Gateway:       gateway,
		Verifier:      services.NewSignatureVerifier(cfg.Gateway.KeySecret, cfg.Gateway.WebhookSecret),
		Currency:      cfg.Gateway.Currency,
		Logger:        app.Logger(),
	}), nil
}

func invalidateEvent(e *core.RecordEvent, cache *repository.EventCache) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := cache.Invalidate(ctx, e.Record.Id); err != nil {
		e.App.Logger().Error("Failed to invalidate cached event", "eventID", e.Record.Id, "error", err)
	}
}

// mailFrom prefers the sender configured in the PocketBase settings.
func mailFrom(app core.App, cfg *config.Config) string {
	if addr := app.Settings().Meta.SenderAddress; addr != "" {
		return addr
	}
	return cfg.MailFromAddress
}
