package risk

import "time"

// Limits holds the guardrail thresholds. These are numeric policy
// parameters, not hard-coded business rules; config overrides them.
type Limits struct {
	DailyLossPct    float64       // halt when daily PnL% <= -DailyLossPct
	WeeklyLossPct   float64       // halt when weekly PnL% <= -WeeklyLossPct
	MaxDrawdownPct  float64       // halt when drawdown from peak <= -MaxDrawdownPct
	MaxLosingStreak int           // cooldown after this many consecutive losses
	CooldownFor     time.Duration // length of a forced or streak cooldown
	AutoCloseOnHalt bool          // flatten everything when a halt trips
}

func DefaultLimits() Limits {
	return Limits{
		DailyLossPct:    3.0,
		WeeklyLossPct:   8.0,
		MaxDrawdownPct:  25.0,
		MaxLosingStreak: 4,
		CooldownFor:     60 * time.Minute,
		AutoCloseOnHalt: true,
	}
}
