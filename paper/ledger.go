// Package paper keeps simulated positions on an isolated ledger with its own
// equity. Paper fills are always at the given mark price; the ledger never
// touches the live account.
package paper

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeforge/perpcore/broker"
	"github.com/tradeforge/perpcore/market"
	"github.com/tradeforge/perpcore/pkg/id"
	"github.com/tradeforge/perpcore/statefile"
)

// DefaultEquity seeds a fresh ledger.
const DefaultEquity = 10000.0

// ProfileGlobal tags plain paper positions; shadow experiments use
// "SHADOW:<variant>".
const ProfileGlobal = "GLOBAL_PAPER"

// Default protective distance when a decision carries no levels, percent.
const defaultLevelPct = 2.0

// Decision is an approved trade decision handed to the simulated side.
type Decision struct {
	Symbol      string
	Side        broker.Side
	Style       string
	Source      string
	StrategyTag string
	RiskPct     float64 // position size as percent of ledger equity
	EntryPrice  float64 // 0 means use the mark price
	StopLoss    *float64
	TakeProfit  *float64
	Reason      string
}

// SimPosition is one open simulated position.
type SimPosition struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Side        broker.Side `json:"side"`
	Style       string    `json:"style"`
	Source      string    `json:"source"`
	Profile     string    `json:"profile"`
	EntryPrice  float64   `json:"entry_price"`
	SizeUSD     float64   `json:"size_usd"`
	StopLoss    float64   `json:"stop_loss"`
	TakeProfit  float64   `json:"take_profit"`
	OpenTime    time.Time `json:"open_time"`
	StrategyTag string    `json:"strategy_tag"`
	Reason      string    `json:"reason"`
}

// ClosedTrade is the journal-ready record of one completed simulated trade.
type ClosedTrade struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Side        broker.Side `json:"side"`
	Style       string    `json:"style"`
	Source      string    `json:"source"`
	Profile     string    `json:"profile"`
	StrategyTag string    `json:"strategy_tag"`
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   float64   `json:"exit_price"`
	StopLoss    float64   `json:"stop_loss"`
	TakeProfit  float64   `json:"take_profit"`
	SizeUSD     float64   `json:"size_usd"`
	PnLPct      float64   `json:"pnl_pct"`
	PnLUSD      float64   `json:"pnl_usd"`
	OpenTime    time.Time `json:"open_time"`
	CloseTime   time.Time `json:"close_time"`
	Duration    time.Duration `json:"duration"`
	Reason      string    `json:"reason"`
}

// Status summarizes the ledger for operators.
type Status struct {
	EquityStart   float64 `json:"equity_start"`
	EquityCurrent float64 `json:"equity_current"`
	PnLTotal      float64 `json:"pnl_total"`
	PnLPct        float64 `json:"pnl_pct"`
	OpenPositions int     `json:"open_positions"`
	ClosedTrades  int     `json:"closed_trades"`
}

type state struct {
	EquityStart   float64                `json:"equity_start"`
	EquityCurrent float64                `json:"equity_current"`
	Positions     map[string]SimPosition `json:"positions"`
	ClosedTrades  int                    `json:"closed_trades"`
}

// Ledger holds the simulated portfolio. All methods are safe for a
// concurrent status reader; mutations persist the full state.
type Ledger struct {
	mu    sync.Mutex
	st    state
	store *statefile.Store[state]
	now   func() time.Time
	newID func() string
	log   zerolog.Logger
}

func NewLedger(path string, initialEquity float64, log zerolog.Logger) (*Ledger, error) {
	if initialEquity <= 0 {
		initialEquity = DefaultEquity
	}

	l := &Ledger{
		st: state{
			EquityStart:   initialEquity,
			EquityCurrent: initialEquity,
			Positions:     map[string]SimPosition{},
		},
		store: statefile.NewStore[state](path),
		now:   time.Now,
		newID: id.New,
		log:   log,
	}

	loaded, found, err := l.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load paper ledger: %w", err)
	}
	if found {
		l.st = loaded
		if l.st.Positions == nil {
			l.st.Positions = map[string]SimPosition{}
		}
		log.Info().
			Float64("equity", l.st.EquityCurrent).
			Int("open_positions", len(l.st.Positions)).
			Msg("paper ledger restored")
	} else {
		log.Info().Float64("equity", initialEquity).Msg("paper ledger initialized")
	}
	return l, nil
}

// OpenPosition opens a simulated position sized as RiskPct of the ledger's
// own current equity, never the live account's.
func (l *Ledger) OpenPosition(d Decision, markPrice float64, profile string) (string, error) {
	if d.Symbol == "" {
		return "", fmt.Errorf("decision has no symbol")
	}
	if markPrice <= 0 && d.EntryPrice <= 0 {
		return "", fmt.Errorf("no price for %s", d.Symbol)
	}

	entry := d.EntryPrice
	if entry <= 0 {
		entry = markPrice
	}
	if profile == "" {
		profile = ProfileGlobal
	}

	riskPct := d.RiskPct
	if riskPct <= 0 {
		riskPct = 0.5
	}

	dir := d.Side.Direction()
	stop := entry * (1 - dir*defaultLevelPct/100)
	if d.StopLoss != nil {
		stop = *d.StopLoss
	}
	take := entry * (1 + dir*defaultLevelPct/100)
	if d.TakeProfit != nil {
		take = *d.TakeProfit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pos := SimPosition{
		ID:          l.newID(),
		Symbol:      d.Symbol,
		Side:        d.Side,
		Style:       d.Style,
		Source:      d.Source,
		Profile:     profile,
		EntryPrice:  entry,
		SizeUSD:     l.st.EquityCurrent * riskPct / 100,
		StopLoss:    stop,
		TakeProfit:  take,
		OpenTime:    l.now().UTC(),
		StrategyTag: d.StrategyTag,
		Reason:      d.Reason,
	}
	l.st.Positions[pos.ID] = pos

	if err := l.store.Save(l.st); err != nil {
		delete(l.st.Positions, pos.ID)
		return "", fmt.Errorf("persist paper ledger: %w", err)
	}

	l.log.Info().
		Str("id", pos.ID).
		Str("symbol", pos.Symbol).
		Str("side", string(pos.Side)).
		Str("profile", profile).
		Float64("entry", entry).
		Float64("size_usd", pos.SizeUSD).
		Msg("paper position opened")

	return pos.ID, nil
}

// ClosePosition closes the whole position at exitPrice and credits the PnL
// to the ledger equity. Partial closes are not simulated.
func (l *Ledger) ClosePosition(posID string, exitPrice float64, reason string) (ClosedTrade, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked(posID, exitPrice, reason)
}

func (l *Ledger) closeLocked(posID string, exitPrice float64, reason string) (ClosedTrade, bool) {
	pos, ok := l.st.Positions[posID]
	if !ok {
		return ClosedTrade{}, false
	}

	pnlPct := (exitPrice - pos.EntryPrice) / pos.EntryPrice * 100 * pos.Side.Direction()
	pnlUSD := pos.SizeUSD * pnlPct / 100
	closeTime := l.now().UTC()

	l.st.EquityCurrent += pnlUSD
	delete(l.st.Positions, posID)
	l.st.ClosedTrades++

	if err := l.store.Save(l.st); err != nil {
		l.log.Error().Err(err).Str("id", posID).Msg("persist paper ledger failed")
	}

	trade := ClosedTrade{
		ID:          pos.ID,
		Symbol:      pos.Symbol,
		Side:        pos.Side,
		Style:       pos.Style,
		Source:      pos.Source,
		Profile:     pos.Profile,
		StrategyTag: pos.StrategyTag,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   exitPrice,
		StopLoss:    pos.StopLoss,
		TakeProfit:  pos.TakeProfit,
		SizeUSD:     pos.SizeUSD,
		PnLPct:      pnlPct,
		PnLUSD:      pnlUSD,
		OpenTime:    pos.OpenTime,
		CloseTime:   closeTime,
		Duration:    closeTime.Sub(pos.OpenTime),
		Reason:      reason,
	}

	l.log.Info().
		Str("id", pos.ID).
		Str("symbol", pos.Symbol).
		Str("side", string(pos.Side)).
		Float64("pnl_pct", pnlPct).
		Float64("pnl_usd", pnlUSD).
		Str("reason", reason).
		Msg("paper position closed")

	return trade, true
}

// CheckStopsAndTargets closes every position whose stop or target has been
// crossed at the current prices. Stops are evaluated before targets.
func (l *Ledger) CheckStopsAndTargets(prices market.Prices) []ClosedTrade {
	l.mu.Lock()
	defer l.mu.Unlock()

	type hit struct {
		id     string
		price  float64
		reason string
	}
	var hits []hit

	for posID, pos := range l.st.Positions {
		price, ok := prices.Get(pos.Symbol)
		if !ok {
			continue
		}

		long := pos.Side == broker.SideLong
		switch {
		case long && price <= pos.StopLoss,
			!long && price >= pos.StopLoss:
			hits = append(hits, hit{posID, price, "stop_loss"})
		case long && price >= pos.TakeProfit,
			!long && price <= pos.TakeProfit:
			hits = append(hits, hit{posID, price, "take_profit"})
		}
	}

	var closed []ClosedTrade
	for _, h := range hits {
		if trade, ok := l.closeLocked(h.id, h.price, h.reason); ok {
			closed = append(closed, trade)
		}
	}
	return closed
}

// Positions returns a snapshot of the open simulated positions.
func (l *Ledger) Positions() []SimPosition {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]SimPosition, 0, len(l.st.Positions))
	for _, pos := range l.st.Positions {
		out = append(out, pos)
	}
	return out
}

func (l *Ledger) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	pnl := l.st.EquityCurrent - l.st.EquityStart
	return Status{
		EquityStart:   l.st.EquityStart,
		EquityCurrent: l.st.EquityCurrent,
		PnLTotal:      pnl,
		PnLPct:        pnl / l.st.EquityStart * 100,
		OpenPositions: len(l.st.Positions),
		ClosedTrades:  l.st.ClosedTrades,
	}
}
