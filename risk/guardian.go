package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeforge/perpcore/statefile"
)

// Metrics is the persisted guardrail state. It is serialized whole after
// every mutation so a concurrent status reader never sees a torn snapshot.
type Metrics struct {
	State           State   `json:"state"`
	EquityPeak      float64 `json:"equity_peak"`
	EquityStartDay  float64 `json:"equity_start_day"`
	EquityStartWeek float64 `json:"equity_start_week"`
	DailyPnL        float64 `json:"daily_pnl"`
	DailyPnLPct     float64 `json:"daily_pnl_pct"`
	WeeklyPnL       float64 `json:"weekly_pnl"`
	WeeklyPnLPct    float64 `json:"weekly_pnl_pct"`
	DrawdownPct     float64 `json:"drawdown_pct"`
	LosingStreak    int     `json:"losing_streak"`
	CooldownUntil   int64   `json:"cooldown_until"` // unix seconds, 0 = none
	LastDay         string  `json:"last_day"`       // YYYY-MM-DD, UTC
	LastWeekYear    int     `json:"last_week_year"` // ISO week year
	LastWeek        int     `json:"last_week"`      // ISO week number
}

// TradeOutcome reports one settled trade to the guardian.
type TradeOutcome struct {
	PnL  float64
	Loss bool
}

// Update is the result of one equity observation.
type Update struct {
	State        State
	Actions      []string
	DailyPnLPct  float64
	WeeklyPnLPct float64
	DrawdownPct  float64
	LosingStreak int
}

// Status is a read-only snapshot of the guardian for operators.
type Status struct {
	Metrics
	Limits Limits `json:"limits"`
}

// Downgrader couples the guardian to an external trading-aggressiveness
// selector. It is invoked on every state transition and returns an action
// string to report, or ok=false when no downgrade applies. Which
// aggressiveness levels map to which risk states is the callback's policy,
// not the guardian's.
type Downgrader func(s State) (action string, ok bool)

// Guardian is the circuit-breaker state machine over equity, PnL and
// losing-streak signals. It gates whether new trades may open.
type Guardian struct {
	mu        sync.Mutex
	limits    Limits
	st        Metrics
	store     *statefile.Store[Metrics]
	downgrade Downgrader
	now       func() time.Time
	log       zerolog.Logger
}

func NewGuardian(limits Limits, store *statefile.Store[Metrics], log zerolog.Logger) (*Guardian, error) {
	g := &Guardian{
		limits: limits,
		store:  store,
		now:    time.Now,
		log:    log,
	}

	st, ok, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load risk state: %w", err)
	}
	if ok {
		g.st = st
		log.Info().Str("state", string(st.State)).Float64("equity_peak", st.EquityPeak).Msg("risk state loaded")
	} else {
		g.st.State = Running
		now := g.now().UTC()
		g.st.LastDay = now.Format("2006-01-02")
		g.st.LastWeekYear, g.st.LastWeek = now.ISOWeek()
	}
	if g.st.State == "" {
		g.st.State = Running
	}

	return g, nil
}

// SetDowngrader installs the aggressiveness-downgrade callback.
func (g *Guardian) SetDowngrader(d Downgrader) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.downgrade = d
}

// UpdateEquity recomputes peak, drawdown, daily/weekly PnL and the losing
// streak from one equity observation, evaluates thresholds in priority
// order drawdown > weekly > daily > losing streak, and persists the result.
// Any internal failure trips the fail-safe: COOLDOWN plus a
// BLOCK_NEW_ENTRIES action. The guardian never fails open.
func (g *Guardian) UpdateEquity(equity float64, trade *TradeOutcome) Update {
	g.mu.Lock()
	defer g.mu.Unlock()

	upd, err := g.updateLocked(equity, trade)
	if err != nil {
		g.log.Error().Err(err).Msg("equity update failed, entering fail-safe cooldown")
		g.st.State = Cooldown
		g.st.CooldownUntil = g.now().Add(g.limits.CooldownFor).Unix()
		_ = g.store.Save(g.st) // best effort; the in-memory state already blocks
		return Update{State: Cooldown, Actions: []string{ActionBlockEntries}}
	}
	return upd
}

func (g *Guardian) updateLocked(equity float64, trade *TradeOutcome) (Update, error) {
	g.rolloverLocked()

	// First observation seeds the baselines.
	if g.st.EquityPeak == 0 {
		g.st.EquityPeak = equity
		g.st.EquityStartDay = equity
		g.st.EquityStartWeek = equity
	}

	if equity > g.st.EquityPeak {
		g.st.EquityPeak = equity
		g.st.DrawdownPct = 0
	} else {
		g.st.DrawdownPct = (equity - g.st.EquityPeak) / g.st.EquityPeak * 100
	}

	g.st.DailyPnL = equity - g.st.EquityStartDay
	if g.st.EquityStartDay > 0 {
		g.st.DailyPnLPct = g.st.DailyPnL / g.st.EquityStartDay * 100
	} else {
		g.st.DailyPnLPct = 0
	}

	g.st.WeeklyPnL = equity - g.st.EquityStartWeek
	if g.st.EquityStartWeek > 0 {
		g.st.WeeklyPnLPct = g.st.WeeklyPnL / g.st.EquityStartWeek * 100
	} else {
		g.st.WeeklyPnLPct = 0
	}

	if trade != nil {
		if trade.Loss {
			g.st.LosingStreak++
		} else {
			g.st.LosingStreak = 0
		}
	}

	actions := g.checkLimitsLocked()

	if err := g.store.Save(g.st); err != nil {
		return Update{}, err
	}

	return Update{
		State:        g.st.State,
		Actions:      actions,
		DailyPnLPct:  g.st.DailyPnLPct,
		WeeklyPnLPct: g.st.WeeklyPnLPct,
		DrawdownPct:  g.st.DrawdownPct,
		LosingStreak: g.st.LosingStreak,
	}, nil
}

// checkLimitsLocked evaluates breaches worst-first so a drawdown halt is
// never masked by a daily one. States only escalate here; the way back to
// RUNNING is a reset or a calendar rollover.
func (g *Guardian) checkLimitsLocked() []string {
	var actions []string
	old := g.st.State

	switch {
	case g.st.DrawdownPct <= -g.limits.MaxDrawdownPct:
		g.st.State = HaltedDrawdown
		if old != HaltedDrawdown {
			g.log.Error().
				Float64("drawdown_pct", g.st.DrawdownPct).
				Float64("limit_pct", g.limits.MaxDrawdownPct).
				Msg("drawdown circuit breaker tripped")
			actions = append(actions, ActionHaltDrawdown)
			if g.limits.AutoCloseOnHalt {
				actions = append(actions, ActionCloseAll)
			}
		}

	case g.st.WeeklyPnLPct <= -g.limits.WeeklyLossPct:
		g.st.State = HaltedWeekly
		if old != HaltedWeekly {
			g.log.Error().
				Float64("weekly_pnl_pct", g.st.WeeklyPnLPct).
				Float64("limit_pct", g.limits.WeeklyLossPct).
				Msg("weekly circuit breaker tripped")
			actions = append(actions, ActionHaltWeekly)
			if g.limits.AutoCloseOnHalt {
				actions = append(actions, ActionCloseAll)
			}
		}

	case g.st.DailyPnLPct <= -g.limits.DailyLossPct:
		g.st.State = HaltedDaily
		if old != HaltedDaily {
			g.log.Error().
				Float64("daily_pnl_pct", g.st.DailyPnLPct).
				Float64("limit_pct", g.limits.DailyLossPct).
				Msg("daily circuit breaker tripped")
			actions = append(actions, ActionHaltDaily)
			if g.limits.AutoCloseOnHalt {
				actions = append(actions, ActionCloseAll)
			}
		}

	case g.st.LosingStreak >= g.limits.MaxLosingStreak:
		if g.st.State != Cooldown {
			g.st.State = Cooldown
			g.st.CooldownUntil = g.now().Add(g.limits.CooldownFor).Unix()
			g.log.Warn().
				Int("losing_streak", g.st.LosingStreak).
				Time("until", time.Unix(g.st.CooldownUntil, 0).UTC()).
				Msg("losing streak cooldown")
			actions = append(actions, ActionCooldown)
		}
	}

	if old != g.st.State && g.downgrade != nil {
		if action, ok := g.downgrade(g.st.State); ok {
			actions = append(actions, action)
		}
	}

	return actions
}

// CanOpenNewTrade reports whether a new position may open and why not.
// An expired cooldown reverts the state to RUNNING here, exactly once.
func (g *Guardian) CanOpenNewTrade() (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.st.State == Cooldown {
		if g.now().Unix() < g.st.CooldownUntil {
			until := time.Unix(g.st.CooldownUntil, 0).UTC()
			return false, fmt.Sprintf("cooldown active until %s", until.Format("15:04"))
		}
		g.st.State = Running
		g.st.CooldownUntil = 0
		if err := g.store.Save(g.st); err != nil {
			g.log.Error().Err(err).Msg("persist cooldown exit failed")
		}
		g.log.Info().Msg("cooldown expired, resuming")
	}

	switch g.st.State {
	case HaltedDaily:
		return false, fmt.Sprintf("daily circuit breaker active (loss %.2f%%)", g.st.DailyPnLPct)
	case HaltedWeekly:
		return false, fmt.Sprintf("weekly circuit breaker active (loss %.2f%%)", g.st.WeeklyPnLPct)
	case HaltedDrawdown:
		return false, fmt.Sprintf("drawdown circuit breaker active (DD %.2f%%)", g.st.DrawdownPct)
	}

	return true, "OK"
}

// ForceCooldown puts the guardian into COOLDOWN for d (or the configured
// default when d is zero). Administrative override.
func (g *Guardian) ForceCooldown(d time.Duration, source string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if d <= 0 {
		d = g.limits.CooldownFor
	}
	g.st.State = Cooldown
	g.st.CooldownUntil = g.now().Add(d).Unix()

	g.log.Info().
		Str("source", source).
		Dur("for", d).
		Msg("cooldown forced")

	return g.store.Save(g.st)
}

// ResetDailyLimits zeroes the daily accumulators and rebases the day-start
// equity to the peak. A HALTED_DAILY state reverts to RUNNING.
func (g *Guardian) ResetDailyLimits(source string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.st.DailyPnL = 0
	g.st.DailyPnLPct = 0
	g.st.EquityStartDay = g.st.EquityPeak
	if g.st.State == HaltedDaily {
		g.st.State = Running
	}

	g.log.Warn().Str("source", source).Msg("daily limits reset")
	return g.store.Save(g.st)
}

// ResetWeeklyLimits zeroes the weekly accumulators and rebases the
// week-start equity to the peak. A HALTED_WEEKLY state reverts to RUNNING.
func (g *Guardian) ResetWeeklyLimits(source string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.st.WeeklyPnL = 0
	g.st.WeeklyPnLPct = 0
	g.st.EquityStartWeek = g.st.EquityPeak
	if g.st.State == HaltedWeekly {
		g.st.State = Running
	}

	g.log.Warn().Str("source", source).Msg("weekly limits reset")
	return g.store.Save(g.st)
}

// Status returns a copy of all metrics plus the static limit table.
func (g *Guardian) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Status{Metrics: g.st, Limits: g.limits}
}

// rolloverLocked resets the daily/weekly accumulators on UTC calendar
// changes. This is the only automatic path out of a halt besides a manual
// reset.
func (g *Guardian) rolloverLocked() {
	now := g.now().UTC()
	day := now.Format("2006-01-02")
	weekYear, week := now.ISOWeek()

	if day != g.st.LastDay {
		g.log.Info().Str("day", day).Msg("daily rollover")
		g.st.DailyPnL = 0
		g.st.DailyPnLPct = 0
		g.st.EquityStartDay = g.st.EquityPeak
		g.st.LosingStreak = 0
		if g.st.State == HaltedDaily {
			g.st.State = Running
		}
		g.st.LastDay = day
	}

	if week != g.st.LastWeek || weekYear != g.st.LastWeekYear {
		g.log.Info().Int("week", week).Msg("weekly rollover")
		g.st.WeeklyPnL = 0
		g.st.WeeklyPnLPct = 0
		g.st.EquityStartWeek = g.st.EquityPeak
		if g.st.State == HaltedWeekly {
			g.st.State = Running
		}
		g.st.LastWeekYear = weekYear
		g.st.LastWeek = week
	}
}
