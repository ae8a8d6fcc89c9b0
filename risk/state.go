package risk

// State is the circuit-breaker state. Exactly one value is active
// process-wide. HALTED_* states are entered only by threshold breach and
// leave only through an explicit reset or a calendar rollover; COOLDOWN is
// time-bounded and expires on its own.
type State string

const (
	Running        State = "RUNNING"
	Cooldown       State = "COOLDOWN"
	HaltedDaily    State = "HALTED_DAILY"
	HaltedWeekly   State = "HALTED_WEEKLY"
	HaltedDrawdown State = "HALTED_DRAWDOWN"
)

// Halted reports whether s is one of the HALTED_* circuit-breaker states.
func (s State) Halted() bool {
	switch s {
	case HaltedDaily, HaltedWeekly, HaltedDrawdown:
		return true
	}
	return false
}

// Action strings emitted by the guardian for the trading loop to act on.
const (
	ActionHaltDaily     = "HALT_DAILY"
	ActionHaltWeekly    = "HALT_WEEKLY"
	ActionHaltDrawdown  = "HALT_DRAWDOWN"
	ActionCooldown      = "COOLDOWN"
	ActionCloseAll      = "CLOSE_ALL_POSITIONS"
	ActionBlockEntries  = "BLOCK_NEW_ENTRIES"
)
