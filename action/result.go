package action

// Error kinds carried on failed Results. These are values, not Go errors:
// a rejected action is a normal outcome of the loop.
const (
	ErrMissingIntent    = "MISSING_INTENT"
	ErrUnknownIntent    = "UNKNOWN_INTENT"
	ErrMissingSymbol    = "MISSING_SYMBOL"
	ErrPriceUnavailable = "PRICE_UNAVAILABLE"
	ErrPositionNotFound = "POSITION_NOT_FOUND"
	ErrInvalidNotional  = "INVALID_NOTIONAL"
	ErrInvalidDelta     = "INVALID_DELTA"
	ErrBelowMinSize     = "BELOW_MIN_SIZE"
	ErrBelowMinNotional = "BELOW_MIN_NOTIONAL"
	ErrNoSLTP           = "NO_SL_TP"
	ErrOrderFailed      = "ORDER_FAILED"
	ErrGateway          = "GATEWAY_ERROR"
	ErrEntryBlocked     = "ENTRY_BLOCKED"
	ErrSymbolCooldown   = "SYMBOL_COOLDOWN"
)

// Result is the structured outcome of one executed (or rejected) action.
// Every rejection carries a reason; there is no silent failure path.
type Result struct {
	Success bool
	Action  Type
	Symbol  string
	Message string
	Details map[string]any
	Err     string
}

func failure(action Type, symbol, message, kind string) Result {
	return Result{
		Action:  action,
		Symbol:  symbol,
		Message: message,
		Err:     kind,
	}
}

func success(action Type, symbol, message string) Result {
	return Result{
		Success: true,
		Action:  action,
		Symbol:  symbol,
		Message: message,
	}
}
