package market

// Prices is a per-cycle snapshot of mark prices keyed by symbol.
// A zero or missing entry means the price is unavailable, never "free".
type Prices map[string]float64

// Get returns the price for symbol and whether a usable price exists.
func (p Prices) Get(symbol string) (float64, bool) {
	px, ok := p[symbol]
	if !ok || px <= 0 {
		return 0, false
	}
	return px, true
}
