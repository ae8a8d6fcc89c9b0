package action

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeforge/perpcore/broker"
	"github.com/tradeforge/perpcore/market"
)

// Router validates and executes canonical actions against one position
// gateway and its position book. It owns no policy: the risk gate runs
// before intents reach it, and which ledger it points at is the execution
// router's call.
type Router struct {
	gateway broker.Gateway
	book    *broker.Book
	equity  func() float64
	log     zerolog.Logger
	now     func() time.Time
}

func NewRouter(gateway broker.Gateway, book *broker.Book, equity func() float64, log zerolog.Logger) *Router {
	return &Router{
		gateway: gateway,
		book:    book,
		equity:  equity,
		log:     log,
		now:     time.Now,
	}
}

// Execute canonicalizes in and dispatches it. Collaborator failures are
// caught here and come back as structured results; Execute never panics the
// loop.
func (r *Router) Execute(ctx context.Context, in Intent, prices market.Prices) Result {
	op, fail := Canonicalize(in)
	if fail != nil {
		r.log.Warn().
			Str("intent", in.Name).
			Str("symbol", fail.Symbol).
			Str("error", fail.Err).
			Msg("intent rejected")
		return *fail
	}

	switch op := op.(type) {
	case OpenOp:
		return r.executeOpen(ctx, op, prices)
	case CloseOp:
		return r.executeClose(ctx, op, prices)
	case IncreaseOp:
		return r.executeIncrease(ctx, op, prices)
	case DecreaseOp:
		return r.executeDecrease(ctx, op, prices)
	case LevelsOp:
		return r.executeLevels(op)
	case BreakevenOp:
		return r.executeBreakeven(op)
	case HoldOp:
		return r.executeHold(op)
	case CancelOp:
		return r.executeCancel(ctx, op)
	}

	return failure("", in.Symbol, "unreachable op", ErrUnknownIntent)
}

func (r *Router) executeOpen(ctx context.Context, op OpenOp, prices market.Prices) Result {
	actionType := OpenLong
	if op.Side == broker.SideShort {
		actionType = OpenShort
	}

	price, ok := prices.Get(op.Symbol)
	if !ok {
		return failure(actionType, op.Symbol, "price not available", ErrPriceUnavailable)
	}

	notional := op.NotionalUSD
	sanity := CheckNotional(notional, r.equity())
	if sanity.Clamped {
		r.log.Warn().
			Str("symbol", op.Symbol).
			Float64("original", sanity.Original).
			Float64("clamped", sanity.Value).
			Str("reason", sanity.Reason).
			Msg("open notional clamped by sanity check")
		notional = sanity.Value
	}

	decimals := market.SizeDecimalsFor(op.Symbol)
	size, err := USDToSize(notional, price, decimals)
	if err != nil {
		return failure(actionType, op.Symbol, err.Error(), ErrPriceUnavailable)
	}
	if size < MinSize(decimals) {
		return failure(actionType, op.Symbol,
			fmt.Sprintf("size %.8f below minimum %g", size, MinSize(decimals)), ErrBelowMinSize)
	}
	if size*price < market.MinNotionalFor(op.Symbol) {
		return failure(actionType, op.Symbol,
			fmt.Sprintf("notional $%.2f below minimum $%.2f", size*price, market.MinNotionalFor(op.Symbol)), ErrBelowMinNotional)
	}

	res, err := r.gateway.PlaceOrder(ctx, broker.OrderRequest{
		Symbol: op.Symbol,
		IsBuy:  op.Side == broker.SideLong,
		Size:   size,
		Price:  price,
	})
	if err != nil {
		return r.gatewayFailure(actionType, op.Symbol, err)
	}
	if !res.OK() {
		return failure(actionType, op.Symbol, fmt.Sprintf("order rejected: %s", res.Status), ErrOrderFailed)
	}

	stop, take := protectiveLevels(op, price)
	r.book.Open(broker.Position{
		Symbol:     op.Symbol,
		Side:       op.Side,
		Size:       size,
		EntryPrice: price,
		StopLoss:   stop,
		TakeProfit: take,
		OpenTime:   r.now().UTC(),
	})

	r.log.Info().
		Str("symbol", op.Symbol).
		Str("side", string(op.Side)).
		Float64("size", size).
		Float64("notional", size*price).
		Int("leverage", op.Leverage).
		Bool("sanity_clamped", sanity.Clamped).
		Str("reason", op.Reason).
		Msg("position opened")

	out := success(actionType, op.Symbol,
		fmt.Sprintf("opened %s %s: %.8f @ $%.4f", op.Side, op.Symbol, size, price))
	out.Details = map[string]any{
		"size":           size,
		"notional":       size * price,
		"leverage":       op.Leverage,
		"sanity_clamped": sanity.Clamped,
	}
	return out
}

func (r *Router) executeClose(ctx context.Context, op CloseOp, prices market.Prices) Result {
	pos, ok := r.book.Get(op.Symbol)
	if !ok {
		return failure(Close, op.Symbol, "position not found", ErrPositionNotFound)
	}

	if op.Percent > 0 && op.Percent < 100 {
		res := r.executeDecrease(ctx, DecreaseOp{Symbol: op.Symbol, Percent: op.Percent, Reason: op.Reason}, prices)
		res.Action = Close
		return res
	}

	price, ok := prices.Get(op.Symbol)
	if !ok {
		price = pos.EntryPrice // close at entry as a last resort
	}

	res, err := r.gateway.PlaceOrder(ctx, broker.OrderRequest{
		Symbol:     op.Symbol,
		IsBuy:      pos.Side == broker.SideShort,
		Size:       pos.Size,
		Price:      price,
		ReduceOnly: true,
	})
	if err != nil {
		return r.gatewayFailure(Close, op.Symbol, err)
	}
	if !res.OK() {
		return failure(Close, op.Symbol, fmt.Sprintf("order rejected: %s", res.Status), ErrOrderFailed)
	}

	r.book.Remove(op.Symbol)

	r.log.Info().
		Str("symbol", op.Symbol).
		Str("side", string(pos.Side)).
		Float64("size", pos.Size).
		Str("reason", op.Reason).
		Msg("position closed")

	return success(Close, op.Symbol, fmt.Sprintf("closed %s", op.Symbol))
}

func (r *Router) executeIncrease(ctx context.Context, op IncreaseOp, prices market.Prices) Result {
	pos, ok := r.book.Get(op.Symbol)
	if !ok {
		return failure(Increase, op.Symbol, "position not found", ErrPositionNotFound)
	}

	price, ok := prices.Get(op.Symbol)
	if !ok {
		return failure(Increase, op.Symbol, "price not available", ErrPriceUnavailable)
	}

	// A coin-quantity delta is converted to USD first so every increase is
	// validated in one unit.
	delta := op.DeltaNotionalUSD
	if delta <= 0 && op.DeltaSize > 0 {
		delta = op.DeltaSize * price
		r.log.Info().
			Str("symbol", op.Symbol).
			Float64("delta_size", op.DeltaSize).
			Float64("delta_notional_usd", delta).
			Msg("coin delta converted to USD for validation")
	}
	if delta <= 0 {
		return failure(Increase, op.Symbol, "delta_notional_usd missing or not positive", ErrInvalidDelta)
	}

	sanity := CheckNotional(delta, r.equity())
	if sanity.Clamped {
		r.log.Warn().
			Str("symbol", op.Symbol).
			Float64("original", sanity.Original).
			Float64("clamped", sanity.Value).
			Str("reason", sanity.Reason).
			Msg("increase clamped by sanity check")
		delta = sanity.Value
	}

	decimals := market.SizeDecimalsFor(op.Symbol)
	addSize, err := USDToSize(delta, price, decimals)
	if err != nil {
		return failure(Increase, op.Symbol, err.Error(), ErrPriceUnavailable)
	}
	if addSize < MinSize(decimals) {
		return failure(Increase, op.Symbol,
			fmt.Sprintf("add size %.8f below minimum %g", addSize, MinSize(decimals)), ErrBelowMinSize)
	}
	actualNotional := addSize * price
	if actualNotional < market.MinNotionalFor(op.Symbol) {
		return failure(Increase, op.Symbol,
			fmt.Sprintf("notional $%.2f below minimum $%.2f", actualNotional, market.MinNotionalFor(op.Symbol)), ErrBelowMinNotional)
	}

	res, err := r.gateway.PlaceOrder(ctx, broker.OrderRequest{
		Symbol: op.Symbol,
		IsBuy:  pos.Side == broker.SideLong,
		Size:   addSize,
		Price:  price,
	})
	if err != nil {
		return r.gatewayFailure(Increase, op.Symbol, err)
	}
	if !res.OK() {
		return failure(Increase, op.Symbol, fmt.Sprintf("order rejected: %s", res.Status), ErrOrderFailed)
	}

	r.book.ApplyAdd(op.Symbol, addSize, price)
	newPos, _ := r.book.Get(op.Symbol)

	r.log.Info().
		Str("symbol", op.Symbol).
		Float64("delta_notional_usd", delta).
		Float64("mark_price", price).
		Float64("add_size", addSize).
		Float64("new_size", newPos.Size).
		Bool("sanity_clamped", sanity.Clamped).
		Str("reason", op.Reason).
		Msg("position increased")

	out := success(Increase, op.Symbol,
		fmt.Sprintf("increased %s by %.8f ($%.2f)", op.Symbol, addSize, actualNotional))
	out.Details = map[string]any{
		"add_size":       addSize,
		"add_notional":   actualNotional,
		"new_size":       newPos.Size,
		"sanity_clamped": sanity.Clamped,
	}
	return out
}

func (r *Router) executeDecrease(ctx context.Context, op DecreaseOp, prices market.Prices) Result {
	pos, ok := r.book.Get(op.Symbol)
	if !ok {
		return failure(Decrease, op.Symbol, "position not found", ErrPositionNotFound)
	}
	if op.Percent <= 0 {
		return failure(Decrease, op.Symbol, "percent missing or not positive", ErrInvalidDelta)
	}

	price, ok := prices.Get(op.Symbol)
	if !ok {
		price = pos.EntryPrice
	}

	fraction := op.Percent / 100
	reduceSize := pos.Size * fraction

	res, err := r.gateway.PlaceOrder(ctx, broker.OrderRequest{
		Symbol:     op.Symbol,
		IsBuy:      pos.Side == broker.SideShort,
		Size:       reduceSize,
		Price:      price,
		ReduceOnly: true,
	})
	if err != nil {
		return r.gatewayFailure(Decrease, op.Symbol, err)
	}
	if !res.OK() {
		return failure(Decrease, op.Symbol, fmt.Sprintf("order rejected: %s", res.Status), ErrOrderFailed)
	}

	r.book.ApplyReduce(op.Symbol, fraction)

	r.log.Info().
		Str("symbol", op.Symbol).
		Float64("percent", op.Percent).
		Float64("reduce_size", reduceSize).
		Str("reason", op.Reason).
		Msg("position decreased")

	out := success(Decrease, op.Symbol, fmt.Sprintf("partial close %.0f%% executed", op.Percent))
	out.Details = map[string]any{"percent": op.Percent}
	return out
}

func (r *Router) executeLevels(op LevelsOp) Result {
	if !r.book.Has(op.Symbol) {
		return failure(SetSLTP, op.Symbol, "position not found", ErrPositionNotFound)
	}

	r.book.SetLevels(op.Symbol, op.Stop, op.Take)

	msg := op.Symbol + ":"
	if op.Stop != nil {
		msg += fmt.Sprintf(" SL -> $%.4f", *op.Stop)
	}
	if op.Take != nil {
		msg += fmt.Sprintf(" TP -> $%.4f", *op.Take)
	}

	r.log.Info().Str("symbol", op.Symbol).Msg("protective levels updated")
	return success(SetSLTP, op.Symbol, msg)
}

func (r *Router) executeBreakeven(op BreakevenOp) Result {
	pos, ok := r.book.Get(op.Symbol)
	if !ok {
		return failure(Breakeven, op.Symbol, "position not found", ErrPositionNotFound)
	}

	entry := pos.EntryPrice
	r.book.SetLevels(op.Symbol, &entry, nil)

	r.log.Info().
		Str("symbol", op.Symbol).
		Float64("entry", entry).
		Msg("stop moved to breakeven")

	return success(Breakeven, op.Symbol, fmt.Sprintf("stop moved to breakeven @ $%.4f", entry))
}

func (r *Router) executeHold(op HoldOp) Result {
	symbol := op.Symbol
	if symbol == "" {
		symbol = "N/A"
	}
	r.log.Info().Str("symbol", symbol).Str("reason", op.Reason).Msg("hold")
	return success(Hold, symbol, "hold: "+op.Reason)
}

func (r *Router) executeCancel(ctx context.Context, op CancelOp) Result {
	if err := r.gateway.CancelAllOrders(ctx); err != nil {
		return r.gatewayFailure(CancelOrders, orUnknown(op.Symbol), err)
	}

	symbol := op.Symbol
	if symbol == "" {
		symbol = "ALL"
	}
	r.log.Info().Str("symbol", symbol).Msg("open orders cancelled")
	return success(CancelOrders, symbol, "orders cancelled")
}

func (r *Router) gatewayFailure(t Type, symbol string, err error) Result {
	kind := ErrOrderFailed
	if errors.Is(err, broker.ErrGatewayUnavailable) {
		kind = ErrGateway
	}
	r.log.Error().Err(err).Str("symbol", symbol).Str("action", string(t)).Msg("gateway call failed")
	return failure(t, symbol, err.Error(), kind)
}

// protectiveLevels computes absolute stop/take prices: explicit prices win,
// otherwise the percent distances are applied around the entry.
func protectiveLevels(op OpenOp, entry float64) (stop, take *float64) {
	dir := op.Side.Direction()

	if op.StopPrice != nil {
		v := *op.StopPrice
		stop = &v
	} else if op.StopLossPct > 0 {
		v := entry * (1 - dir*op.StopLossPct/100)
		stop = &v
	}

	if op.TakePrice != nil {
		v := *op.TakePrice
		take = &v
	} else if op.TakeProfitPct > 0 {
		v := entry * (1 + dir*op.TakeProfitPct/100)
		take = &v
	}
	return stop, take
}
