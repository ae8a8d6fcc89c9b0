package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tradeforge/perpcore/execution"
)

// Config is the complete execution-core configuration.
type Config struct {
	DataDir   string          `json:"data_dir" yaml:"data_dir"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Cooldown  CooldownConfig  `json:"cooldown" yaml:"cooldown"`
	Execution ExecutionConfig `json:"execution" yaml:"execution"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Gateway   GatewayConfig   `json:"gateway" yaml:"gateway"`
}

// RiskConfig contains the guardrail thresholds, in percent of equity.
type RiskConfig struct {
	DailyLossPct    float64 `json:"daily_loss_pct" yaml:"daily_loss_pct"`
	WeeklyLossPct   float64 `json:"weekly_loss_pct" yaml:"weekly_loss_pct"`
	MaxDrawdownPct  float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`
	MaxLosingStreak int     `json:"max_losing_streak" yaml:"max_losing_streak"`
	CooldownMinutes int     `json:"cooldown_minutes" yaml:"cooldown_minutes"`
	AutoCloseOnHalt bool    `json:"auto_close_on_halt" yaml:"auto_close_on_halt"`
}

// CooldownConfig controls the per-symbol stop-loss cooldown.
type CooldownConfig struct {
	SymbolMinutes int `json:"symbol_minutes" yaml:"symbol_minutes"`
}

// ExecutionConfig selects the initial mode and the shadow experiments.
type ExecutionConfig struct {
	PaperEquity float64                   `json:"paper_equity" yaml:"paper_equity"`
	Variants    []execution.ShadowVariant `json:"shadow_variants,omitempty" yaml:"shadow_variants,omitempty"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// GatewayConfig tunes the guarded gateway decorator.
type GatewayConfig struct {
	MaxConsecutiveFailures int     `json:"max_consecutive_failures" yaml:"max_consecutive_failures"`
	OpenTimeoutSeconds     int     `json:"open_timeout_seconds" yaml:"open_timeout_seconds"`
	OrdersPerSecond        float64 `json:"orders_per_second" yaml:"orders_per_second"`
	OrderBurst             int     `json:"order_burst" yaml:"order_burst"`
}

// SymbolCooldown returns the per-symbol cooldown as a duration.
func (c CooldownConfig) SymbolCooldown() time.Duration {
	return time.Duration(c.SymbolMinutes) * time.Minute
}

// CooldownFor returns the losing-streak cooldown as a duration.
func (r RiskConfig) CooldownFor() time.Duration {
	return time.Duration(r.CooldownMinutes) * time.Minute
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (format chosen by extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Risk.DailyLossPct <= 0 || c.Risk.DailyLossPct > 100 {
		return fmt.Errorf("risk.daily_loss_pct must be in (0, 100]")
	}
	if c.Risk.WeeklyLossPct <= 0 || c.Risk.WeeklyLossPct > 100 {
		return fmt.Errorf("risk.weekly_loss_pct must be in (0, 100]")
	}
	if c.Risk.WeeklyLossPct < c.Risk.DailyLossPct {
		return fmt.Errorf("risk.weekly_loss_pct must not be below daily_loss_pct")
	}
	if c.Risk.MaxDrawdownPct <= 0 || c.Risk.MaxDrawdownPct > 100 {
		return fmt.Errorf("risk.max_drawdown_pct must be in (0, 100]")
	}
	if c.Risk.MaxLosingStreak < 1 {
		return fmt.Errorf("risk.max_losing_streak must be at least 1")
	}
	if c.Risk.CooldownMinutes < 1 {
		return fmt.Errorf("risk.cooldown_minutes must be at least 1")
	}
	if c.Cooldown.SymbolMinutes < 0 {
		return fmt.Errorf("cooldown.symbol_minutes must not be negative")
	}
	if c.Execution.PaperEquity <= 0 {
		return fmt.Errorf("execution.paper_equity must be positive")
	}
	for _, v := range c.Execution.Variants {
		if v.Name == "" {
			return fmt.Errorf("shadow variant without a name")
		}
		if v.RiskMult <= 0 || v.StopLossMult <= 0 || v.TakeProfitMult <= 0 {
			return fmt.Errorf("shadow variant %q: multipliers must be positive", v.Name)
		}
	}
	if c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && (c.Journal.TradesFile == "" || c.Journal.EquityFile == "") {
		return fmt.Errorf("journal trades_file and equity_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	if c.Gateway.OrdersPerSecond <= 0 {
		return fmt.Errorf("gateway.orders_per_second must be positive")
	}
	return nil
}

// Default returns a configuration with the stock guardrail thresholds.
func Default() *Config {
	return &Config{
		DataDir: "./data",
		Risk: RiskConfig{
			DailyLossPct:    3,
			WeeklyLossPct:   8,
			MaxDrawdownPct:  25,
			MaxLosingStreak: 4,
			CooldownMinutes: 60,
			AutoCloseOnHalt: true,
		},
		Cooldown: CooldownConfig{
			SymbolMinutes: 30,
		},
		Execution: ExecutionConfig{
			PaperEquity: 10000,
			Variants:    execution.DefaultVariants(),
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./data/journal.db",
		},
		Gateway: GatewayConfig{
			MaxConsecutiveFailures: 5,
			OpenTimeoutSeconds:     30,
			OrdersPerSecond:        2,
			OrderBurst:             4,
		},
	}
}
