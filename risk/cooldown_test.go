package risk

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCooldownGuardBlocksThenExpires(t *testing.T) {
	t.Parallel()

	g := NewCooldownGuard(30*time.Minute, zerolog.Nop())
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return base }

	assert.False(t, g.IsInCooldown("BTCUSDC"))
	assert.Zero(t, g.Remaining("BTCUSDC"))

	g.RegisterStop("BTCUSDC")
	assert.True(t, g.IsInCooldown("BTCUSDC"))
	assert.Equal(t, 30*time.Minute, g.Remaining("BTCUSDC"))

	g.now = func() time.Time { return base.Add(29 * time.Minute) }
	assert.True(t, g.IsInCooldown("BTCUSDC"))
	assert.Equal(t, time.Minute, g.Remaining("BTCUSDC"))

	g.now = func() time.Time { return base.Add(31 * time.Minute) }
	assert.False(t, g.IsInCooldown("BTCUSDC"))
	assert.Zero(t, g.Remaining("BTCUSDC"))
}

func TestCooldownGuardIsPerSymbol(t *testing.T) {
	t.Parallel()

	g := NewCooldownGuard(0, zerolog.Nop()) // default duration
	g.RegisterStop("ETHUSDC")

	assert.True(t, g.IsInCooldown("ETHUSDC"))
	assert.False(t, g.IsInCooldown("BTCUSDC"))
}

func TestCooldownGuardRestampOnRepeatStop(t *testing.T) {
	t.Parallel()

	g := NewCooldownGuard(30*time.Minute, zerolog.Nop())
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return base }
	g.RegisterStop("SOLUSDC")

	g.now = func() time.Time { return base.Add(20 * time.Minute) }
	g.RegisterStop("SOLUSDC")

	assert.Equal(t, 30*time.Minute, g.Remaining("SOLUSDC"))
}
