// journal/journal.go
package journal

import (
	"time"

	"github.com/tradeforge/perpcore/broker"
)

// TradeRecord is one completed trade, live or simulated.
type TradeRecord struct {
	TradeID     string
	Symbol      string
	Side        broker.Side
	Style       string
	Source      string
	Profile     string // GLOBAL_PAPER, SHADOW:<variant>, or empty for live
	StrategyTag string
	EntryPrice  float64
	ExitPrice   float64
	StopLoss    float64
	TakeProfit  float64
	SizeUSD     float64
	PnLPct      float64
	PnLUSD      float64
	OpenTime    time.Time
	CloseTime   time.Time
	IsPaper     bool
	Reason      string
}

// Duration is the holding time of the trade.
func (t TradeRecord) Duration() time.Duration {
	return t.CloseTime.Sub(t.OpenTime)
}

// EquitySnapshot is one point on the account equity curve, annotated with
// the risk picture at that moment.
type EquitySnapshot struct {
	Time         time.Time
	Equity       float64
	MarginAvail  float64
	MarginUsed   float64
	DailyPnLPct  float64
	WeeklyPnLPct float64
	DrawdownPct  float64
	RiskState    string
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}
