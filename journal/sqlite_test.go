package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/perpcore/broker"
)

func newSQLite(t *testing.T) *SQLite {
	t.Helper()
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleTrade(id string, pnlUSD float64, closeTime time.Time) TradeRecord {
	return TradeRecord{
		TradeID:     id,
		Symbol:      "ETHUSDC",
		Side:        broker.SideLong,
		Style:       "SWING",
		Source:      "engine",
		Profile:     "GLOBAL_PAPER",
		StrategyTag: "trend",
		EntryPrice:  3000,
		ExitPrice:   3000 + pnlUSD, // shape only, not arithmetic under test
		SizeUSD:     100,
		PnLPct:      pnlUSD,
		PnLUSD:      pnlUSD,
		OpenTime:    closeTime.Add(-time.Hour),
		CloseTime:   closeTime,
		IsPaper:     true,
		Reason:      "manual",
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	j := newSQLite(t)
	closeTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	want := sampleTrade("T1", 12.5, closeTime)
	want.StopLoss = 2940
	want.TakeProfit = 3120
	require.NoError(t, j.RecordTrade(want))

	got, err := j.GetTrade("T1")
	require.NoError(t, err)
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.Equal(t, want.Side, got.Side)
	assert.Equal(t, want.Profile, got.Profile)
	assert.InDelta(t, want.PnLUSD, got.PnLUSD, 1e-9)
	assert.InDelta(t, want.StopLoss, got.StopLoss, 1e-9)
	assert.True(t, got.IsPaper)
	assert.Equal(t, time.Hour, got.Duration())
}

func TestSQLiteGetTradeMissing(t *testing.T) {
	t.Parallel()

	j := newSQLite(t)
	_, err := j.GetTrade("nope")
	assert.Error(t, err)
}

func TestSQLiteListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j := newSQLite(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordTrade(sampleTrade("T1", 5, base.Add(1*time.Hour))))
	require.NoError(t, j.RecordTrade(sampleTrade("T2", -3, base.Add(2*time.Hour))))
	require.NoError(t, j.RecordTrade(sampleTrade("T3", 7, base.Add(30*time.Hour)))) // next day

	trades, err := j.ListTradesClosedBetween(base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "T1", trades[0].TradeID)
	assert.Equal(t, "T2", trades[1].TradeID)
}

func TestSQLiteListTradesByProfile(t *testing.T) {
	t.Parallel()

	j := newSQLite(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	shadow := sampleTrade("S1", 2, base.Add(time.Hour))
	shadow.Profile = "SHADOW:aggressive_swing"
	require.NoError(t, j.RecordTrade(shadow))
	require.NoError(t, j.RecordTrade(sampleTrade("T1", 5, base.Add(2*time.Hour))))

	trades, err := j.ListTradesByProfile("SHADOW:aggressive_swing", 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "S1", trades[0].TradeID)
}

func TestSQLiteSummarize(t *testing.T) {
	t.Parallel()

	j := newSQLite(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordTrade(sampleTrade("T1", 10, base.Add(1*time.Hour))))
	require.NoError(t, j.RecordTrade(sampleTrade("T2", 6, base.Add(2*time.Hour))))
	require.NoError(t, j.RecordTrade(sampleTrade("T3", -8, base.Add(3*time.Hour))))

	s, err := j.Summarize(base, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Trades)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.InDelta(t, 66.6667, s.WinRate, 0.01)
	assert.InDelta(t, 16.0, s.GrossProfit, 1e-9)
	assert.InDelta(t, 8.0, s.GrossLoss, 1e-9)
	assert.InDelta(t, 8.0, s.NetPnL, 1e-9)
	assert.InDelta(t, 2.0, s.ProfitFactor, 1e-9)
}

func TestSQLiteRecordEquity(t *testing.T) {
	t.Parallel()

	j := newSQLite(t)
	require.NoError(t, j.RecordEquity(EquitySnapshot{
		Time:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Equity:      10000,
		DrawdownPct: -2.5,
		RiskState:   "RUNNING",
	}))
}
