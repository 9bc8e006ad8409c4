package bank

import (
	"context"
	"time"

	"event-ticketing/monitoring"
	"event-ticketing/utils"
)

// GuardedGateway puts a circuit breaker and latency metrics in front of a
// Gateway. Failed calls are not retried.
type GuardedGateway struct {
	Gateway
	breaker *utils.CircuitBreaker
}

func NewGuardedGateway(g Gateway, st utils.BreakerSettings) *GuardedGateway {
	name := "gateway_" + string(g.GetProvider())
	st.OnStateChange = func(name string, _, to utils.State) {
		monitoring.SetBreakerState(name, int(to))
	}
	monitoring.SetBreakerState(name, int(utils.StateClosed))

	return &GuardedGateway{
		Gateway: g,
		breaker: utils.NewCircuitBreaker(name, st),
	}
}

func (g *GuardedGateway) CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	start := time.Now()
	order, err := utils.Execute(ctx, g.breaker, func(ctx context.Context) (*Order, error) {
		return g.Gateway.CreateOrder(ctx, req)
	})
	monitoring.TrackGatewayCall(string(g.GetProvider()), "create_order", err, time.Since(start))
	return order, err
}

func (g *GuardedGateway) BreakerState() utils.State {
	return g.breaker.State()
}
