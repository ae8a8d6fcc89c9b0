package risk

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/perpcore/statefile"
)

func newGuardian(t *testing.T, limits Limits) *Guardian {
	t.Helper()
	store := statefile.NewStore[Metrics](filepath.Join(t.TempDir(), "risk_state.json"))
	g, err := NewGuardian(limits, store, zerolog.Nop())
	require.NoError(t, err)
	return g
}

func loss() *TradeOutcome { return &TradeOutcome{PnL: -10, Loss: true} }
func win() *TradeOutcome  { return &TradeOutcome{PnL: 10, Loss: false} }

func writeFile(path string) error {
	return os.WriteFile(path, []byte("x"), 0o644)
}

func TestEquityPeakMonotonicAndDrawdownNonPositive(t *testing.T) {
	t.Parallel()

	g := newGuardian(t, DefaultLimits())

	sequence := []float64{1000, 1100, 900, 950, 1200, 1150, 1000}
	var peak float64
	for _, eq := range sequence {
		upd := g.UpdateEquity(eq, nil)
		st := g.Status()
		assert.GreaterOrEqual(t, st.EquityPeak, peak, "peak decreased at equity %.0f", eq)
		peak = st.EquityPeak
		assert.LessOrEqual(t, upd.DrawdownPct, 0.0)
	}
	assert.InDelta(t, 1200.0, g.Status().EquityPeak, 1e-9)
}

func TestPeakAndDrawdownScenario(t *testing.T) {
	t.Parallel()

	g := newGuardian(t, DefaultLimits())
	g.UpdateEquity(1000, nil)
	g.UpdateEquity(1100, nil)
	upd := g.UpdateEquity(1000, nil)

	st := g.Status()
	assert.InDelta(t, 1100.0, st.EquityPeak, 1e-9)
	assert.InDelta(t, -9.0909, upd.DrawdownPct, 0.001)
	assert.Equal(t, Running, upd.State)
}

func TestDailyLossHalts(t *testing.T) {
	t.Parallel()

	g := newGuardian(t, DefaultLimits())
	g.UpdateEquity(1000, nil)
	upd := g.UpdateEquity(965, nil) // -3.5% on the day

	assert.Equal(t, HaltedDaily, upd.State)
	assert.Contains(t, upd.Actions, ActionHaltDaily)
	assert.Contains(t, upd.Actions, ActionCloseAll)

	ok, reason := g.CanOpenNewTrade()
	assert.False(t, ok)
	assert.Contains(t, strings.ToLower(reason), "daily")
}

func TestHaltEmittedOnFirstEntryOnly(t *testing.T) {
	t.Parallel()

	g := newGuardian(t, DefaultLimits())
	g.UpdateEquity(1000, nil)

	first := g.UpdateEquity(960, nil)
	assert.Contains(t, first.Actions, ActionHaltDaily)

	second := g.UpdateEquity(955, nil)
	assert.Equal(t, HaltedDaily, second.State)
	assert.NotContains(t, second.Actions, ActionHaltDaily)
}

func TestDrawdownOutranksWeeklyAndDaily(t *testing.T) {
	t.Parallel()

	g := newGuardian(t, DefaultLimits())
	g.UpdateEquity(1000, nil)
	upd := g.UpdateEquity(700, nil) // -30% everywhere at once

	assert.Equal(t, HaltedDrawdown, upd.State)
	assert.Contains(t, upd.Actions, ActionHaltDrawdown)
	assert.NotContains(t, upd.Actions, ActionHaltWeekly)
	assert.NotContains(t, upd.Actions, ActionHaltDaily)
}

func TestWeeklyLossHalts(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.DailyLossPct = 50 // keep the daily breaker out of the way
	g := newGuardian(t, limits)
	g.UpdateEquity(1000, nil)
	upd := g.UpdateEquity(910, nil) // -9% on the week

	assert.Equal(t, HaltedWeekly, upd.State)

	ok, reason := g.CanOpenNewTrade()
	assert.False(t, ok)
	assert.Contains(t, strings.ToLower(reason), "weekly")
}

func TestLosingStreakCountsAndResets(t *testing.T) {
	t.Parallel()

	g := newGuardian(t, DefaultLimits())
	g.UpdateEquity(1000, nil)

	g.UpdateEquity(1000, loss())
	g.UpdateEquity(1000, loss())
	assert.Equal(t, 2, g.Status().LosingStreak)

	g.UpdateEquity(1000, nil) // no settlement, streak untouched
	assert.Equal(t, 2, g.Status().LosingStreak)

	g.UpdateEquity(1000, win())
	assert.Equal(t, 0, g.Status().LosingStreak)
}

func TestFourLossesTriggerCooldownOnFourthCall(t *testing.T) {
	t.Parallel()

	g := newGuardian(t, DefaultLimits())

	for i := 1; i <= 4; i++ {
		upd := g.UpdateEquity(1000, loss())
		if i < 4 {
			assert.Equal(t, Running, upd.State, "call %d", i)
		} else {
			assert.Equal(t, Cooldown, upd.State)
			assert.Contains(t, upd.Actions, ActionCooldown)
		}
	}
}

func TestStreakCooldownIsNotAHalt(t *testing.T) {
	t.Parallel()

	g := newGuardian(t, DefaultLimits())
	g.UpdateEquity(1000, nil)
	for i := 0; i < 4; i++ {
		g.UpdateEquity(1000, loss())
	}

	assert.Equal(t, Cooldown, g.Status().State)
	assert.False(t, g.Status().State.Halted())
}

func TestCooldownExpiryIsIdempotent(t *testing.T) {
	t.Parallel()

	g := newGuardian(t, DefaultLimits())
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return base }

	require.NoError(t, g.ForceCooldown(0, "test"))

	ok, _ := g.CanOpenNewTrade()
	assert.False(t, ok)

	g.now = func() time.Time { return base.Add(61 * time.Minute) }

	ok, reason := g.CanOpenNewTrade()
	assert.True(t, ok)
	assert.Equal(t, "OK", reason)
	assert.Equal(t, Running, g.Status().State)

	// Second call after expiry: still RUNNING, still OK.
	ok, reason = g.CanOpenNewTrade()
	assert.True(t, ok)
	assert.Equal(t, "OK", reason)
}

func TestResetDailyRevertsHalt(t *testing.T) {
	t.Parallel()

	g := newGuardian(t, DefaultLimits())
	g.UpdateEquity(1000, nil)
	g.UpdateEquity(960, nil)
	require.Equal(t, HaltedDaily, g.Status().State)

	require.NoError(t, g.ResetDailyLimits("operator"))

	st := g.Status()
	assert.Equal(t, Running, st.State)
	assert.Zero(t, st.DailyPnLPct)
	assert.InDelta(t, st.EquityPeak, st.EquityStartDay, 1e-9)

	ok, _ := g.CanOpenNewTrade()
	assert.True(t, ok)
}

func TestDailyRolloverClearsHaltAndStreak(t *testing.T) {
	t.Parallel()

	g := newGuardian(t, DefaultLimits())
	day1 := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return day1 }

	g.UpdateEquity(1000, nil)
	g.UpdateEquity(960, loss())
	require.Equal(t, HaltedDaily, g.Status().State)

	// Equity recovers to within the daily limit of the rebased start.
	g.now = func() time.Time { return day1.Add(2 * time.Hour) } // next UTC day
	upd := g.UpdateEquity(985, nil)

	assert.Equal(t, Running, upd.State)
	st := g.Status()
	assert.Zero(t, st.LosingStreak)
	assert.InDelta(t, st.EquityPeak, st.EquityStartDay, 1e-9)
}

func TestWeeklyRolloverRebasesWeekStart(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.DailyLossPct = 50
	g := newGuardian(t, limits)

	sunday := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return sunday }

	g.UpdateEquity(1000, nil)
	g.UpdateEquity(900, nil)
	require.Equal(t, HaltedWeekly, g.Status().State)

	g.now = func() time.Time { return sunday.Add(24 * time.Hour) } // Monday, new ISO week
	upd := g.UpdateEquity(940, nil)

	assert.Equal(t, Running, upd.State)
	assert.InDelta(t, -6.0, g.Status().WeeklyPnLPct, 1e-9)
}

func TestDowngraderReportedOnTransition(t *testing.T) {
	t.Parallel()

	g := newGuardian(t, DefaultLimits())
	g.SetDowngrader(func(s State) (string, bool) {
		if s.Halted() {
			return "MODE_DOWNGRADED_TO_CONSERVATIVE", true
		}
		return "", false
	})

	g.UpdateEquity(1000, nil)
	upd := g.UpdateEquity(960, nil)

	assert.Contains(t, upd.Actions, "MODE_DOWNGRADED_TO_CONSERVATIVE")
}

func TestFailSafeCooldownOnPersistFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := statefile.NewStore[Metrics](filepath.Join(dir, "risk.json"))
	g, err := NewGuardian(DefaultLimits(), store, zerolog.Nop())
	require.NoError(t, err)

	// Swap in a store whose parent "directory" is a regular file so every
	// save fails.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, writeFile(blocker))
	g.store = statefile.NewStore[Metrics](filepath.Join(blocker, "risk.json"))

	upd := g.UpdateEquity(1000, nil)
	assert.Equal(t, Cooldown, upd.State)
	assert.Contains(t, upd.Actions, ActionBlockEntries)

	ok, _ := g.CanOpenNewTrade()
	assert.False(t, ok)
}

func TestStatePersistsAcrossRestart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "risk.json")
	store := statefile.NewStore[Metrics](path)

	g1, err := NewGuardian(DefaultLimits(), store, zerolog.Nop())
	require.NoError(t, err)
	g1.UpdateEquity(1000, nil)
	g1.UpdateEquity(960, nil)
	require.Equal(t, HaltedDaily, g1.Status().State)

	g2, err := NewGuardian(DefaultLimits(), statefile.NewStore[Metrics](path), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, HaltedDaily, g2.Status().State)
	assert.InDelta(t, 1000.0, g2.Status().EquityPeak, 1e-9)
}
