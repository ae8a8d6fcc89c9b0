package risk

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CooldownGuard blocks re-entry on a symbol for a while after a stop-loss,
// so one bad fill does not turn into revenge trading. Entries are never
// deleted; stale ones simply age out.
type CooldownGuard struct {
	mu       sync.Mutex
	duration time.Duration
	lastStop map[string]time.Time
	now      func() time.Time
	log      zerolog.Logger
}

const DefaultSymbolCooldown = 30 * time.Minute

func NewCooldownGuard(duration time.Duration, log zerolog.Logger) *CooldownGuard {
	if duration <= 0 {
		duration = DefaultSymbolCooldown
	}
	return &CooldownGuard{
		duration: duration,
		lastStop: make(map[string]time.Time),
		now:      time.Now,
		log:      log,
	}
}

// RegisterStop stamps now as the symbol's last stop-loss.
func (c *CooldownGuard) RegisterStop(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastStop[symbol] = c.now()
	c.log.Info().
		Str("symbol", symbol).
		Dur("for", c.duration).
		Msg("symbol cooldown started")
}

// IsInCooldown reports whether symbol was stopped out within the window.
func (c *CooldownGuard) IsInCooldown(symbol string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.lastStop[symbol]
	if !ok {
		return false
	}
	return c.now().Sub(last) < c.duration
}

// Remaining returns how much cooldown is left for symbol, zero when none.
func (c *CooldownGuard) Remaining(symbol string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.lastStop[symbol]
	if !ok {
		return 0
	}
	left := c.duration - c.now().Sub(last)
	if left < 0 {
		return 0
	}
	return left
}
