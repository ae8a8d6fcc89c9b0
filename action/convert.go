package action

import (
	"fmt"
	"math"
)

// USDToSize converts a USD notional into a coin quantity at price, floored
// to the asset's declared decimal precision. Rounding is always toward
// zero so the resulting order never spends more than the USD budget.
func USDToSize(notionalUSD, price float64, decimals int) (float64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("invalid price %.8f", price)
	}
	factor := math.Pow(10, float64(decimals))
	return math.Floor(notionalUSD / price * factor) / factor, nil
}

// MinSize is the smallest representable quantity at the given precision.
func MinSize(decimals int) float64 {
	return math.Pow(10, -float64(decimals))
}
