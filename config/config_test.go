package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 3.0, cfg.Risk.DailyLossPct)
	assert.Equal(t, 8.0, cfg.Risk.WeeklyLossPct)
	assert.Equal(t, 25.0, cfg.Risk.MaxDrawdownPct)
	assert.Equal(t, 4, cfg.Risk.MaxLosingStreak)
	assert.Equal(t, 60, cfg.Risk.CooldownMinutes)
	assert.True(t, cfg.Risk.AutoCloseOnHalt)
	assert.Len(t, cfg.Execution.Variants, 2)
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
data_dir: /tmp/perpcore
risk:
  daily_loss_pct: 2
  weekly_loss_pct: 6
  max_drawdown_pct: 20
  max_losing_streak: 3
  cooldown_minutes: 45
  auto_close_on_halt: false
cooldown:
  symbol_minutes: 15
execution:
  paper_equity: 5000
journal:
  type: csv
  trades_file: /tmp/trades.csv
  equity_file: /tmp/equity.csv
gateway:
  max_consecutive_failures: 3
  open_timeout_seconds: 10
  orders_per_second: 1
  order_burst: 2
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.Risk.DailyLossPct)
	assert.Equal(t, 3, cfg.Risk.MaxLosingStreak)
	assert.False(t, cfg.Risk.AutoCloseOnHalt)
	assert.Equal(t, 15, cfg.Cooldown.SymbolMinutes)
	assert.Equal(t, 5000.0, cfg.Execution.PaperEquity)
	assert.Equal(t, "csv", cfg.Journal.Type)
}

func TestLoadJSONFallback(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.Risk.DailyLossPct = 1.5
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, loaded.Risk.DailyLossPct)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing data dir", func(c *Config) { c.DataDir = "" }},
		{"zero daily loss", func(c *Config) { c.Risk.DailyLossPct = 0 }},
		{"weekly below daily", func(c *Config) { c.Risk.WeeklyLossPct = 1 }},
		{"drawdown above 100", func(c *Config) { c.Risk.MaxDrawdownPct = 150 }},
		{"zero streak", func(c *Config) { c.Risk.MaxLosingStreak = 0 }},
		{"zero cooldown", func(c *Config) { c.Risk.CooldownMinutes = 0 }},
		{"negative symbol cooldown", func(c *Config) { c.Cooldown.SymbolMinutes = -1 }},
		{"zero paper equity", func(c *Config) { c.Execution.PaperEquity = 0 }},
		{"nameless variant", func(c *Config) { c.Execution.Variants[0].Name = "" }},
		{"zero risk multiplier", func(c *Config) { c.Execution.Variants[0].RiskMult = 0 }},
		{"bad journal type", func(c *Config) { c.Journal.Type = "parquet" }},
		{"sqlite without path", func(c *Config) { c.Journal.DBPath = "" }},
		{"zero order rate", func(c *Config) { c.Gateway.OrdersPerSecond = 0 }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, "1h0m0s", cfg.Risk.CooldownFor().String())
	assert.Equal(t, "30m0s", cfg.Cooldown.SymbolCooldown().String())
}
