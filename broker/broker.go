package broker

import (
	"context"
	"time"
)

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Direction returns +1 for longs and -1 for shorts, the sign used in PnL
// arithmetic throughout the core.
func (s Side) Direction() float64 {
	if s == SideShort {
		return -1
	}
	return 1
}

// AccountSnapshot is the externally refreshed view of the real account.
// The core only ever reads it.
type AccountSnapshot struct {
	Equity      float64
	MarginAvail float64
	MarginUsed  float64
}

// Position is one open position on a ledger. At most one per symbol per
// ledger; mutated only through router-issued operations.
type Position struct {
	Symbol      string
	Side        Side
	Size        float64 // coin quantity, positive
	EntryPrice  float64
	StopLoss    *float64
	TakeProfit  *float64
	PyramidAdds int
	OpenTime    time.Time
}

// Notional returns the USD value of the position at price.
func (p Position) Notional(price float64) float64 {
	return p.Size * price
}

type OrderRequest struct {
	Symbol     string
	IsBuy      bool
	Size       float64
	Price      float64
	ReduceOnly bool
}

type OrderResult struct {
	Status  string // "ok" on acceptance, venue reason otherwise
	OrderID string
}

func (r OrderResult) OK() bool { return r.Status == "ok" }

// Gateway is the abstract sink that mutates a position: the live exchange
// client, the paper ledger, or a shadow ledger. Network behavior belongs to
// implementations; the core treats failures as values.
type Gateway interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	GetPositions(ctx context.Context) ([]Position, error)
	CancelAllOrders(ctx context.Context) error
}

// PriceSource supplies mark prices. A returned price of 0 means the price
// is unavailable.
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (float64, error)
}
