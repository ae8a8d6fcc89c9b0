package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeDecimalsFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5, SizeDecimalsFor("BTCUSDC"))
	assert.Equal(t, 2, SizeDecimalsFor("SOLUSDC"))
	assert.Equal(t, DefaultSizeDecimals, SizeDecimalsFor("DOGEUSDC"))
}

func TestMinNotionalFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.5, MinNotionalFor("ETHUSDC"))
	assert.Equal(t, 0.5, MinNotionalFor("DOGEUSDC"))
}

func TestPricesZeroMeansUnavailable(t *testing.T) {
	t.Parallel()

	prices := Prices{"ETHUSDC": 3000, "SOLUSDC": 0}

	v, ok := prices.Get("ETHUSDC")
	assert.True(t, ok)
	assert.Equal(t, 3000.0, v)

	_, ok = prices.Get("SOLUSDC")
	assert.False(t, ok)

	_, ok = prices.Get("BTCUSDC")
	assert.False(t, ok)
}
