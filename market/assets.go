// market/assets.go
package market

// DefaultSizeDecimals is used for symbols without declared metadata.
const DefaultSizeDecimals = 4

type AssetMeta struct {
	Symbol       string
	SizeDecimals int     // coin-quantity precision accepted by the venue
	MinNotional  float64 // smallest order value in USD
}

var Assets = map[string]AssetMeta{
	"BTCUSDC": {
		Symbol:       "BTCUSDC",
		SizeDecimals: 5,
		MinNotional:  0.5,
	},
	"ETHUSDC": {
		Symbol:       "ETHUSDC",
		SizeDecimals: 4,
		MinNotional:  0.5,
	},
	"SOLUSDC": {
		Symbol:       "SOLUSDC",
		SizeDecimals: 2,
		MinNotional:  0.5,
	},
	"APTUSDC": {
		Symbol:       "APTUSDC",
		SizeDecimals: 2,
		MinNotional:  0.5,
	},
	"SUIUSDC": {
		Symbol:       "SUIUSDC",
		SizeDecimals: 1,
		MinNotional:  0.5,
	},
	"NEARUSDC": {
		Symbol:       "NEARUSDC",
		SizeDecimals: 1,
		MinNotional:  0.5,
	},
}

// SizeDecimalsFor returns the declared size precision for symbol, or
// DefaultSizeDecimals when the symbol is unknown.
func SizeDecimalsFor(symbol string) int {
	if meta, ok := Assets[symbol]; ok {
		return meta.SizeDecimals
	}
	return DefaultSizeDecimals
}

// MinNotionalFor returns the minimum order value for symbol in USD.
func MinNotionalFor(symbol string) float64 {
	if meta, ok := Assets[symbol]; ok && meta.MinNotional > 0 {
		return meta.MinNotional
	}
	return 0.5
}
