package paper

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/perpcore/broker"
	"github.com/tradeforge/perpcore/market"
)

func newLedger(t *testing.T, equity float64) *Ledger {
	t.Helper()
	l, err := NewLedger(filepath.Join(t.TempDir(), "paper.json"), equity, zerolog.Nop())
	require.NoError(t, err)
	return l
}

func ptr(v float64) *float64 { return &v }

func TestOpenPositionSizedFromLedgerEquity(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 10000)
	posID, err := l.OpenPosition(Decision{
		Symbol:  "ETHUSDC",
		Side:    broker.SideLong,
		RiskPct: 2,
	}, 3000, "")
	require.NoError(t, err)
	require.NotEmpty(t, posID)

	positions := l.Positions()
	require.Len(t, positions, 1)
	pos := positions[0]
	assert.Equal(t, ProfileGlobal, pos.Profile)
	assert.Equal(t, 3000.0, pos.EntryPrice)
	assert.InDelta(t, 200.0, pos.SizeUSD, 1e-9) // 2% of 10k, not of live equity
	assert.InDelta(t, 2940.0, pos.StopLoss, 1e-9)
	assert.InDelta(t, 3060.0, pos.TakeProfit, 1e-9)
}

func TestOpenCloseAtSamePriceIsFlat(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 10000)
	posID, err := l.OpenPosition(Decision{
		Symbol: "ETHUSDC", Side: broker.SideLong, RiskPct: 5,
	}, 3000, "")
	require.NoError(t, err)

	trade, ok := l.ClosePosition(posID, 3000, "manual")
	require.True(t, ok)
	assert.InDelta(t, 0.0, trade.PnLPct, 1e-9)
	assert.InDelta(t, 0.0, trade.PnLUSD, 1e-9)

	st := l.Status()
	assert.InDelta(t, 10000.0, st.EquityCurrent, 1e-9)
	assert.Equal(t, 0, st.OpenPositions)
	assert.Equal(t, 1, st.ClosedTrades)
}

func TestClosePnLFormulas(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		side        broker.Side
		entry, exit float64
		wantPct     float64
	}{
		{"long gain", broker.SideLong, 100, 104, 4},
		{"long loss", broker.SideLong, 100, 97, -3},
		{"short gain", broker.SideShort, 100, 96, 4},
		{"short loss", broker.SideShort, 100, 103, -3},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			l := newLedger(t, 10000)
			posID, err := l.OpenPosition(Decision{
				Symbol:  "SOLUSDC",
				Side:    tc.side,
				RiskPct: 10, // $1000
			}, tc.entry, "")
			require.NoError(t, err)

			trade, ok := l.ClosePosition(posID, tc.exit, "manual")
			require.True(t, ok)
			assert.InDelta(t, tc.wantPct, trade.PnLPct, 1e-9)
			assert.InDelta(t, 1000*tc.wantPct/100, trade.PnLUSD, 1e-9)
			assert.InDelta(t, 10000+1000*tc.wantPct/100, l.Status().EquityCurrent, 1e-9)
		})
	}
}

func TestCloseUnknownPosition(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 10000)
	_, ok := l.ClosePosition("nope", 3000, "manual")
	assert.False(t, ok)
}

func TestCheckStopsAndTargets(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 10000)

	longID, err := l.OpenPosition(Decision{
		Symbol: "ETHUSDC", Side: broker.SideLong, RiskPct: 1,
		StopLoss: ptr(2900.0), TakeProfit: ptr(3200.0),
	}, 3000, "")
	require.NoError(t, err)

	shortID, err := l.OpenPosition(Decision{
		Symbol: "BTCUSDC", Side: broker.SideShort, RiskPct: 1,
		StopLoss: ptr(66000.0), TakeProfit: ptr(60000.0),
	}, 64000, "")
	require.NoError(t, err)

	// Neither level crossed: nothing closes.
	closed := l.CheckStopsAndTargets(market.Prices{"ETHUSDC": 3050, "BTCUSDC": 64500})
	assert.Empty(t, closed)
	assert.Equal(t, 2, l.Status().OpenPositions)

	// Long stop and short target crossed in the same sweep.
	closed = l.CheckStopsAndTargets(market.Prices{"ETHUSDC": 2880, "BTCUSDC": 59500})
	require.Len(t, closed, 2)

	byID := map[string]ClosedTrade{}
	for _, trade := range closed {
		byID[trade.ID] = trade
	}
	assert.Equal(t, "stop_loss", byID[longID].Reason)
	assert.Equal(t, "take_profit", byID[shortID].Reason)
	assert.Equal(t, 0, l.Status().OpenPositions)
}

func TestCheckStopsSkipsSymbolsWithoutPrice(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 10000)
	_, err := l.OpenPosition(Decision{
		Symbol: "ETHUSDC", Side: broker.SideLong, RiskPct: 1,
		StopLoss: ptr(2900.0),
	}, 3000, "")
	require.NoError(t, err)

	closed := l.CheckStopsAndTargets(market.Prices{"BTCUSDC": 1})
	assert.Empty(t, closed)
	assert.Equal(t, 1, l.Status().OpenPositions)
}

func TestLedgerPersistsAcrossRestart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "paper.json")

	l, err := NewLedger(path, 5000, zerolog.Nop())
	require.NoError(t, err)

	posID, err := l.OpenPosition(Decision{
		Symbol: "ETHUSDC", Side: broker.SideShort, RiskPct: 3,
	}, 3000, "SHADOW:aggressive_swing")
	require.NoError(t, err)

	restarted, err := NewLedger(path, 5000, zerolog.Nop())
	require.NoError(t, err)

	positions := restarted.Positions()
	require.Len(t, positions, 1)
	assert.Equal(t, posID, positions[0].ID)
	assert.Equal(t, "SHADOW:aggressive_swing", positions[0].Profile)
	assert.InDelta(t, 150.0, positions[0].SizeUSD, 1e-9)
}

func TestClosedTradeCarriesDuration(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 10000)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	posID, err := l.OpenPosition(Decision{
		Symbol: "ETHUSDC", Side: broker.SideLong, RiskPct: 1, Style: "SWING",
	}, 3000, "")
	require.NoError(t, err)

	l.now = func() time.Time { return base.Add(45 * time.Minute) }
	trade, ok := l.ClosePosition(posID, 3030, "take_profit")
	require.True(t, ok)
	assert.Equal(t, 45*time.Minute, trade.Duration)
	assert.Equal(t, "SWING", trade.Style)
}
