package action

import (
	"github.com/tradeforge/perpcore/broker"
)

// Intent is the raw, ephemeral trade intent as produced by a decision
// engine: a free-form alias plus loosely named numeric parameters. It is
// canonicalized before anything executes and never persisted.
type Intent struct {
	Name   string
	Symbol string
	Params map[string]float64
	Reason string
}

// param returns the first present key, absorbing the parameter-name drift
// the original vocabularies carry (sl_price vs new_sl_price vs stop_loss).
func (in Intent) param(keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := in.Params[k]; ok {
			return v, true
		}
	}
	return 0, false
}

func (in Intent) paramOr(def float64, keys ...string) float64 {
	if v, ok := in.param(keys...); ok {
		return v
	}
	return def
}

// Op is a canonicalized action, one variant per Type so each handler only
// sees the parameters that can apply to it.
type Op interface {
	op() Type
}

// OpenOp opens a new position from a USD notional.
type OpenOp struct {
	Symbol        string
	Side          broker.Side
	NotionalUSD   float64
	Leverage      int
	StopLossPct   float64 // distance from entry, percent
	TakeProfitPct float64
	StopPrice     *float64 // absolute overrides, win over the pcts
	TakePrice     *float64
	Reason        string
}

// CloseOp closes all or part of a position. Percent is 0..100; zero means
// full close.
type CloseOp struct {
	Symbol  string
	Percent float64
	Reason  string
}

// IncreaseOp pyramids into an existing position. Exactly one of
// DeltaNotionalUSD (preferred) or DeltaSize (coin quantity) is set.
type IncreaseOp struct {
	Symbol           string
	DeltaNotionalUSD float64
	DeltaSize        float64
	Reason           string
}

// DecreaseOp partially closes a position by percent (already normalized to
// 0..100 at canonicalization).
type DecreaseOp struct {
	Symbol  string
	Percent float64
	Reason  string
}

// LevelsOp updates protective levels; at least one of Stop/Take is non-nil.
type LevelsOp struct {
	Symbol string
	Stop   *float64
	Take   *float64
}

// BreakevenOp moves the stop to the entry price.
type BreakevenOp struct {
	Symbol string
}

// HoldOp is the audited no-op.
type HoldOp struct {
	Symbol string
	Reason string
}

// CancelOp cancels all open orders. Symbol-scoped cancellation is a future
// extension; the field is carried for the audit trail only.
type CancelOp struct {
	Symbol string
}

func (OpenOp) op() Type      { return OpenLong } // side-resolved in Result
func (CloseOp) op() Type     { return Close }
func (IncreaseOp) op() Type  { return Increase }
func (DecreaseOp) op() Type  { return Decrease }
func (LevelsOp) op() Type    { return SetSLTP }
func (BreakevenOp) op() Type { return Breakeven }
func (HoldOp) op() Type      { return Hold }
func (CancelOp) op() Type    { return CancelOrders }
