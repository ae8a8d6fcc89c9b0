package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrGatewayUnavailable is returned while the breaker is open or the order
// throttle denies the call. Callers convert it into a structured action
// failure instead of letting it escape the loop.
var ErrGatewayUnavailable = errors.New("gateway unavailable")

// GuardedGateway wraps a Gateway with a circuit breaker and an order-rate
// limiter. Repeated collaborator failures open the breaker so the trading
// loop degrades to structured errors instead of hammering a sick venue.
type GuardedGateway struct {
	inner   Gateway
	breaker *gobreaker.CircuitBreaker
	orders  *rate.Limiter
	log     zerolog.Logger
}

type GuardConfig struct {
	ConsecutiveFailures uint32        // trips the breaker, default 5
	OpenTimeout         time.Duration // how long the breaker stays open, default 30s
	OrdersPerSecond     float64       // order submission throttle, default 2
	OrderBurst          int           // default 4
}

func (c *GuardConfig) fill() {
	if c.ConsecutiveFailures == 0 {
		c.ConsecutiveFailures = 5
	}
	if c.OpenTimeout == 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.OrdersPerSecond == 0 {
		c.OrdersPerSecond = 2
	}
	if c.OrderBurst == 0 {
		c.OrderBurst = 4
	}
}

func NewGuardedGateway(inner Gateway, cfg GuardConfig, log zerolog.Logger) *GuardedGateway {
	cfg.fill()

	g := &GuardedGateway{
		inner:  inner,
		orders: rate.NewLimiter(rate.Limit(cfg.OrdersPerSecond), cfg.OrderBurst),
		log:    log,
	}

	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "position-gateway",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("gateway breaker state change")
		},
	})

	return g
}

func (g *GuardedGateway) PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	if !g.orders.Allow() {
		g.log.Warn().Str("symbol", req.Symbol).Msg("order throttled")
		return OrderResult{}, fmt.Errorf("%w: order rate limit", ErrGatewayUnavailable)
	}

	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.PlaceOrder(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return OrderResult{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return OrderResult{}, err
	}
	return res.(OrderResult), nil
}

func (g *GuardedGateway) GetPositions(ctx context.Context) ([]Position, error) {
	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.GetPositions(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return nil, err
	}
	return res.([]Position), nil
}

func (g *GuardedGateway) CancelAllOrders(ctx context.Context) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.inner.CancelAllOrders(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return err
}
