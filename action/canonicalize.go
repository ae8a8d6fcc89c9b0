package action

import (
	"fmt"

	"github.com/tradeforge/perpcore/broker"
)

// Default protective distances for opens that specify none, in percent.
const (
	defaultStopLossPct   = 2.0
	defaultTakeProfitPct = 4.0
	defaultLeverage      = 5
)

// Canonicalize resolves an intent's alias and parameters into a tagged Op.
// Validation failures come back as a structured Result with no side
// effects.
func Canonicalize(in Intent) (Op, *Result) {
	if in.Name == "" {
		r := failure("", orUnknown(in.Symbol), "intent not specified", ErrMissingIntent)
		return nil, &r
	}

	t, ok := Resolve(in.Name)
	if !ok {
		r := failure("", orUnknown(in.Symbol), fmt.Sprintf("unknown intent: %s", in.Name), ErrUnknownIntent)
		return nil, &r
	}

	if in.Symbol == "" && t != Hold {
		r := failure(t, "UNKNOWN", "symbol not specified", ErrMissingSymbol)
		return nil, &r
	}

	switch t {
	case OpenLong, OpenShort:
		side := broker.SideLong
		if t == OpenShort {
			side = broker.SideShort
		}
		op := OpenOp{
			Symbol:        in.Symbol,
			Side:          side,
			NotionalUSD:   in.paramOr(0, "notional_usd", "size_usd"),
			Leverage:      int(in.paramOr(defaultLeverage, "leverage")),
			StopLossPct:   in.paramOr(defaultStopLossPct, "stop_loss_pct"),
			TakeProfitPct: in.paramOr(defaultTakeProfitPct, "take_profit_pct"),
			Reason:        in.Reason,
		}
		if v, ok := in.param("sl_price", "stop_loss"); ok {
			op.StopPrice = &v
		}
		if v, ok := in.param("tp_price", "take_profit"); ok {
			op.TakePrice = &v
		}
		if op.NotionalUSD <= 0 {
			r := failure(t, in.Symbol, "notional_usd missing or not positive", ErrInvalidNotional)
			return nil, &r
		}
		return op, nil

	case Close:
		return CloseOp{
			Symbol:  in.Symbol,
			Percent: normalizePercent(in.paramOr(100, "percent", "partial_close_pct")),
			Reason:  in.Reason,
		}, nil

	case Increase:
		op := IncreaseOp{
			Symbol:           in.Symbol,
			DeltaNotionalUSD: in.paramOr(0, "delta_notional_usd", "size_usd"),
			DeltaSize:        in.paramOr(0, "delta_size", "add_size"),
			Reason:           in.Reason,
		}
		if op.DeltaNotionalUSD <= 0 && op.DeltaSize <= 0 {
			r := failure(t, in.Symbol, "delta_notional_usd missing or not positive", ErrInvalidDelta)
			return nil, &r
		}
		return op, nil

	case Decrease:
		return DecreaseOp{
			Symbol:  in.Symbol,
			Percent: normalizePercent(in.paramOr(50, "percent", "partial_close_pct")),
			Reason:  in.Reason,
		}, nil

	case SetStopLoss, SetTakeProfit, SetSLTP:
		op := LevelsOp{Symbol: in.Symbol}
		if v, ok := in.param("sl_price", "new_sl_price", "stop_loss"); ok && t != SetTakeProfit {
			op.Stop = &v
		}
		if v, ok := in.param("tp_price", "new_tp_price", "take_profit"); ok && t != SetStopLoss {
			op.Take = &v
		}
		if op.Stop == nil && op.Take == nil {
			r := failure(t, in.Symbol, "no stop-loss or take-profit given", ErrNoSLTP)
			return nil, &r
		}
		return op, nil

	case Breakeven:
		return BreakevenOp{Symbol: in.Symbol}, nil

	case Hold:
		return HoldOp{Symbol: in.Symbol, Reason: in.Reason}, nil

	case CancelOrders:
		return CancelOp{Symbol: in.Symbol}, nil
	}

	r := failure(t, in.Symbol, fmt.Sprintf("no handler for %s", t), ErrUnknownIntent)
	return nil, &r
}

// normalizePercent maps the loose percent vocabularies onto 0..100:
// fractions (<=1) scale up, percentage points pass through, anything above
// 100 clamps.
func normalizePercent(p float64) float64 {
	switch {
	case p <= 0:
		return 0
	case p <= 1:
		return p * 100
	case p <= 100:
		return p
	default:
		return 100
	}
}

func orUnknown(symbol string) string {
	if symbol == "" {
		return "UNKNOWN"
	}
	return symbol
}
