// Package core wires the execution components into one trading loop: the
// entry gates run before the action router, approved decisions fan out to
// the live and simulated ledgers, and every cycle ends with a stop sweep
// and a guardian equity update.
package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeforge/perpcore/action"
	"github.com/tradeforge/perpcore/broker"
	"github.com/tradeforge/perpcore/execution"
	"github.com/tradeforge/perpcore/journal"
	"github.com/tradeforge/perpcore/market"
	"github.com/tradeforge/perpcore/paper"
	"github.com/tradeforge/perpcore/risk"
)

// Deps are the collaborators the engine is wired with. All are required
// except Journal, which may be nil to disable trade recording.
type Deps struct {
	Gateway  broker.Gateway
	Book     *broker.Book
	Account  func() broker.AccountSnapshot
	Guardian *risk.Guardian
	Cooldown *risk.CooldownGuard
	Actions  *action.Router
	Exec     *execution.Router
	Journal  journal.Journal
	Log      zerolog.Logger
}

// Engine runs the trading cycle. One logical loop drives it; concurrent
// status readers are safe because every component snapshots under its own
// lock.
type Engine struct {
	gateway  broker.Gateway
	book     *broker.Book
	account  func() broker.AccountSnapshot
	guardian *risk.Guardian
	cooldown *risk.CooldownGuard
	actions  *action.Router
	exec     *execution.Router
	journal  journal.Journal
	log      zerolog.Logger
	now      func() time.Time
}

func New(d Deps) *Engine {
	return &Engine{
		gateway:  d.Gateway,
		book:     d.Book,
		account:  d.Account,
		guardian: d.Guardian,
		cooldown: d.Cooldown,
		actions:  d.Actions,
		exec:     d.Exec,
		journal:  d.Journal,
		log:      d.Log,
		now:      time.Now,
	}
}

// ProcessIntent runs one intent through the entry gates and the router, and
// mirrors opening decisions onto the paper side when the mode calls for it.
func (e *Engine) ProcessIntent(ctx context.Context, in action.Intent, prices market.Prices) action.Result {
	t, known := action.Resolve(in.Name)

	if known && t.OpensExposure() {
		if blocked := e.gateEntry(t, in.Symbol); blocked != nil {
			return *blocked
		}
	}

	var res action.Result
	if e.exec.ShouldExecuteLive() {
		res = e.actions.Execute(ctx, in, prices)
	} else {
		// PAPER_ONLY: validate without touching the live ledger, then
		// simulate. Canonicalization catches the same rejections the live
		// path would.
		if _, fail := action.Canonicalize(in); fail != nil {
			return *fail
		}
		res = action.Result{
			Success: true,
			Action:  t,
			Symbol:  in.Symbol,
			Message: "simulated only",
		}
	}

	if known && (t == action.OpenLong || t == action.OpenShort) && res.Success {
		e.mirrorOpen(in, prices)
	}

	return res
}

// gateEntry applies the risk-state and symbol-cooldown gates to an
// exposure-adding intent. Returns nil when the entry may proceed.
func (e *Engine) gateEntry(t action.Type, symbol string) *action.Result {
	if ok, reason := e.guardian.CanOpenNewTrade(); !ok {
		e.log.Warn().
			Str("symbol", symbol).
			Str("reason", reason).
			Msg("entry blocked by risk state")
		return &action.Result{
			Action:  t,
			Symbol:  symbol,
			Message: reason,
			Err:     action.ErrEntryBlocked,
		}
	}

	if symbol != "" && e.cooldown.IsInCooldown(symbol) {
		remaining := e.cooldown.Remaining(symbol)
		e.log.Info().
			Str("symbol", symbol).
			Dur("remaining", remaining).
			Msg("entry blocked by symbol cooldown")
		return &action.Result{
			Action:  t,
			Symbol:  symbol,
			Message: fmt.Sprintf("symbol in cooldown for %s after a stop-loss", remaining.Round(time.Second)),
			Err:     action.ErrSymbolCooldown,
		}
	}

	return nil
}

// mirrorOpen forwards an approved open to the simulated side: the plain
// paper ledger when the mode simulates, plus the shadow variants in SHADOW
// mode.
func (e *Engine) mirrorOpen(in action.Intent, prices market.Prices) {
	price, ok := prices.Get(in.Symbol)
	if !ok {
		return
	}

	op, fail := action.Canonicalize(in)
	if fail != nil {
		return
	}
	open, ok := op.(action.OpenOp)
	if !ok {
		return
	}

	equity := e.account().Equity
	riskPct := 0.0
	if equity > 0 {
		riskPct = open.NotionalUSD / equity * 100
	}

	d := paper.Decision{
		Symbol:     open.Symbol,
		Side:       open.Side,
		Source:     "engine",
		RiskPct:    riskPct,
		EntryPrice: price,
		StopLoss:   open.StopPrice,
		TakeProfit: open.TakePrice,
		Reason:     open.Reason,
	}
	if d.StopLoss == nil && open.StopLossPct > 0 {
		v := price * (1 - open.Side.Direction()*open.StopLossPct/100)
		d.StopLoss = &v
	}
	if d.TakeProfit == nil && open.TakeProfitPct > 0 {
		v := price * (1 + open.Side.Direction()*open.TakeProfitPct/100)
		d.TakeProfit = &v
	}

	if _, err := e.exec.ExecutePaperTrade(d, price, ""); err != nil {
		e.log.Error().Err(err).Str("symbol", d.Symbol).Msg("paper mirror failed")
	}
	e.exec.ProcessShadowExperiments(d, price)
}

// Tick runs the end-of-cycle housekeeping: sweep simulated stops and
// targets, journal the closes, arm symbol cooldowns for stopped-out
// symbols, then feed the live equity to the guardian and act on whatever it
// orders.
func (e *Engine) Tick(ctx context.Context, prices market.Prices) risk.Update {
	closed := e.exec.UpdatePaperPositions(prices)
	for _, trade := range closed {
		if trade.Reason == "stop_loss" {
			e.cooldown.RegisterStop(trade.Symbol)
		}
		e.recordPaperTrade(trade)
	}

	snap := e.account()
	upd := e.guardian.UpdateEquity(snap.Equity, nil)
	e.applyRiskActions(ctx, upd, prices)
	e.recordEquity(snap, upd)
	return upd
}

// ReportClosedTrade settles one live trade with the guardian and, when it
// was a stop-out, arms the symbol cooldown.
func (e *Engine) ReportClosedTrade(symbol string, pnl float64, stoppedOut bool) risk.Update {
	if stoppedOut {
		e.cooldown.RegisterStop(symbol)
	}
	snap := e.account()
	return e.guardian.UpdateEquity(snap.Equity, &risk.TradeOutcome{PnL: pnl, Loss: pnl < 0})
}

// applyRiskActions executes the guardian's orders. CLOSE_ALL_POSITIONS
// flattens the live book and cancels resting orders.
func (e *Engine) applyRiskActions(ctx context.Context, upd risk.Update, prices market.Prices) {
	for _, act := range upd.Actions {
		if act != risk.ActionCloseAll {
			continue
		}

		e.log.Warn().Str("state", string(upd.State)).Msg("risk halt: flattening all positions")
		if err := e.gateway.CancelAllOrders(ctx); err != nil {
			e.log.Error().Err(err).Msg("cancel all orders failed")
		}
		for _, pos := range e.book.List() {
			res := e.actions.Execute(ctx, action.Intent{
				Name:   "close",
				Symbol: pos.Symbol,
				Reason: "risk halt " + string(upd.State),
			}, prices)
			if !res.Success {
				e.log.Error().
					Str("symbol", pos.Symbol).
					Str("error", res.Err).
					Msg("forced close failed")
			}
		}
	}
}

func (e *Engine) recordPaperTrade(trade paper.ClosedTrade) {
	if e.journal == nil {
		return
	}

	err := e.journal.RecordTrade(journal.TradeRecord{
		TradeID:     trade.ID,
		Symbol:      trade.Symbol,
		Side:        trade.Side,
		Style:       trade.Style,
		Source:      trade.Source,
		Profile:     trade.Profile,
		StrategyTag: trade.StrategyTag,
		EntryPrice:  trade.EntryPrice,
		ExitPrice:   trade.ExitPrice,
		StopLoss:    trade.StopLoss,
		TakeProfit:  trade.TakeProfit,
		SizeUSD:     trade.SizeUSD,
		PnLPct:      trade.PnLPct,
		PnLUSD:      trade.PnLUSD,
		OpenTime:    trade.OpenTime,
		CloseTime:   trade.CloseTime,
		IsPaper:     true,
		Reason:      trade.Reason,
	})
	if err != nil {
		e.log.Error().Err(err).Str("id", trade.ID).Msg("journal trade failed")
	}
}

func (e *Engine) recordEquity(snap broker.AccountSnapshot, upd risk.Update) {
	if e.journal == nil {
		return
	}

	err := e.journal.RecordEquity(journal.EquitySnapshot{
		Time:         e.now().UTC(),
		Equity:       snap.Equity,
		MarginAvail:  snap.MarginAvail,
		MarginUsed:   snap.MarginUsed,
		DailyPnLPct:  upd.DailyPnLPct,
		WeeklyPnLPct: upd.WeeklyPnLPct,
		DrawdownPct:  upd.DrawdownPct,
		RiskState:    string(upd.State),
	})
	if err != nil {
		e.log.Error().Err(err).Msg("journal equity failed")
	}
}

// Status is the operator view across all components.
type Status struct {
	Risk      risk.Status       `json:"risk"`
	Execution execution.Status  `json:"execution"`
	Positions []broker.Position `json:"positions"`
}

func (e *Engine) Status() Status {
	return Status{
		Risk:      e.guardian.Status(),
		Execution: e.exec.Status(),
		Positions: e.book.List(),
	}
}

// Summary renders a one-screen status text for the CLI.
func (s Status) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "risk state:   %s\n", s.Risk.State)
	fmt.Fprintf(&b, "daily pnl:    %+.2f%% (limit -%.2f%%)\n", s.Risk.DailyPnLPct, s.Risk.Limits.DailyLossPct)
	fmt.Fprintf(&b, "weekly pnl:   %+.2f%% (limit -%.2f%%)\n", s.Risk.WeeklyPnLPct, s.Risk.Limits.WeeklyLossPct)
	fmt.Fprintf(&b, "drawdown:     %.2f%% (limit -%.2f%%)\n", s.Risk.DrawdownPct, s.Risk.Limits.MaxDrawdownPct)
	fmt.Fprintf(&b, "losing streak: %d (limit %d)\n", s.Risk.LosingStreak, s.Risk.Limits.MaxLosingStreak)
	fmt.Fprintf(&b, "mode:         %s\n", s.Execution.Mode)
	fmt.Fprintf(&b, "paper equity: $%.2f (%+.2f%%, %d open, %d closed)\n",
		s.Execution.Paper.EquityCurrent, s.Execution.Paper.PnLPct,
		s.Execution.Paper.OpenPositions, s.Execution.Paper.ClosedTrades)
	fmt.Fprintf(&b, "live positions: %d\n", len(s.Positions))
	for _, p := range s.Positions {
		fmt.Fprintf(&b, "  %s %s %.6f @ %.4f\n", p.Symbol, p.Side, p.Size, p.EntryPrice)
	}
	return b.String()
}
