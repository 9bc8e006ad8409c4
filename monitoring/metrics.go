package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_orders_total",
			Help: "Order creation attempts by result",
		},
		[]string{"result"},
	)

	finalizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_finalizations_total",
			Help: "Payment verification outcomes",
		},
		[]string{"source", "outcome"},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Admission credentials minted",
		},
	)

	dispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_dispatch_failures_total",
			Help: "Ticket deliveries that failed per channel",
		},
		[]string{"channel"},
	)

	gatewayLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of payment gateway calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"provider", "operation", "status"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half open, 2 open)",
		},
		[]string{"name"},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)
)

// TrackOrder records an order creation attempt, result is a status code or "ok".
func TrackOrder(result string) {
	ordersCreated.WithLabelValues(result).Inc()
}

// TrackFinalization records a verification outcome from the callback or webhook path.
func TrackFinalization(source, outcome string) {
	finalizations.WithLabelValues(source, outcome).Inc()
}

func TrackTicketIssued() {
	ticketsIssued.Inc()
}

func TrackDispatchFailure(channel string) {
	dispatchFailures.WithLabelValues(channel).Inc()
}

func TrackGatewayCall(provider, operation string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	gatewayLatency.WithLabelValues(provider, operation, status).Observe(duration.Seconds())
}

func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}

func TrackRateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}
