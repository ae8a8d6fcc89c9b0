package action

import "fmt"

// maxEquityMultiple is the bug-detection ceiling: a notional above this
// multiple of equity almost certainly means a coin quantity was handed
// somewhere a USD amount belongs. This is not a risk limit; clamping here
// corrects a unit bug, it does not enforce trading policy.
const maxEquityMultiple = 5.0

// SanityResult reports one sanity check. Ephemeral; produced and consumed
// within a single execution call.
type SanityResult struct {
	Passed   bool
	Clamped  bool
	Original float64
	Value    float64
	Reason   string
}

// CheckNotional clamps a USD notional that implies more than 5x equity in
// position value. The clamp is always reported so callers can tell a bug
// correction from a policy rejection.
func CheckNotional(notionalUSD, equity float64) SanityResult {
	max := equity * maxEquityMultiple
	if equity > 0 && notionalUSD > max {
		return SanityResult{
			Clamped:  true,
			Original: notionalUSD,
			Value:    max,
			Reason:   fmt.Sprintf("notional $%.2f exceeds %gx equity", notionalUSD, maxEquityMultiple),
		}
	}
	return SanityResult{Passed: true, Original: notionalUSD, Value: notionalUSD}
}

// CheckSize clamps a coin quantity whose notional at price implies more
// than 5x equity, the usual symptom of a USD/coin mixup.
func CheckSize(size, price, equity float64) SanityResult {
	notional := size * price
	max := equity * maxEquityMultiple
	if equity > 0 && price > 0 && notional > max {
		return SanityResult{
			Clamped:  true,
			Original: size,
			Value:    max / price,
			Reason:   fmt.Sprintf("size %.8f implies notional $%.2f above %gx equity", size, notional, maxEquityMultiple),
		}
	}
	return SanityResult{Passed: true, Original: size, Value: size}
}
