package broker

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tradeforge/perpcore/pkg/id"
)

// DryRunGateway accepts every order without talking to a venue. It stands
// in for the live exchange client when the core runs detached from one.
type DryRunGateway struct {
	log zerolog.Logger
}

func NewDryRunGateway(log zerolog.Logger) *DryRunGateway {
	return &DryRunGateway{log: log}
}

func (g *DryRunGateway) PlaceOrder(_ context.Context, req OrderRequest) (OrderResult, error) {
	g.log.Info().
		Str("symbol", req.Symbol).
		Bool("is_buy", req.IsBuy).
		Float64("size", req.Size).
		Float64("price", req.Price).
		Bool("reduce_only", req.ReduceOnly).
		Msg("dry-run order accepted")
	return OrderResult{Status: "ok", OrderID: id.New()}, nil
}

func (g *DryRunGateway) GetPositions(context.Context) ([]Position, error) {
	return nil, nil
}

func (g *DryRunGateway) CancelAllOrders(context.Context) error {
	g.log.Info().Msg("dry-run cancel all orders")
	return nil
}
