package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tradeforge/perpcore/action"
	"github.com/tradeforge/perpcore/broker"
	"github.com/tradeforge/perpcore/config"
	"github.com/tradeforge/perpcore/core"
	"github.com/tradeforge/perpcore/execution"
	"github.com/tradeforge/perpcore/journal"
	"github.com/tradeforge/perpcore/paper"
	"github.com/tradeforge/perpcore/risk"
	"github.com/tradeforge/perpcore/statefile"
)

var rootCmd = &cobra.Command{
	Use:   "perpcore",
	Short: "Execution core for a leveraged-derivatives trading agent",
	Long: `Perpcore is the execution core of an automated perpetual-futures
trading agent.

It provides:
  - A risk guardrail state machine (daily/weekly loss, drawdown and
    losing-streak circuit breakers with cooldowns)
  - Canonicalization and execution of free-form trade intents
  - LIVE / PAPER_ONLY / SHADOW execution routing with an isolated
    simulation ledger and shadow experiments
  - Trade and equity journaling to CSV or SQLite`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

var cfgPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "f", "", "path to config file (YAML or JSON)")
}

func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(cfgPath)
}

func newLogger() zerolog.Logger {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(writer).With().Timestamp().Logger()
}

// app is the fully wired component set behind every subcommand.
type app struct {
	cfg      *config.Config
	engine   *core.Engine
	guardian *risk.Guardian
	cooldown *risk.CooldownGuard
	exec     *execution.Router
	journal  journal.Journal
}

// buildApp wires the core from the config. The live account reader is an
// external collaborator; detached runs stub it with a fixed equity.
func buildApp(equity float64) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := newLogger()

	guardian, err := risk.NewGuardian(risk.Limits{
		DailyLossPct:    cfg.Risk.DailyLossPct,
		WeeklyLossPct:   cfg.Risk.WeeklyLossPct,
		MaxDrawdownPct:  cfg.Risk.MaxDrawdownPct,
		MaxLosingStreak: cfg.Risk.MaxLosingStreak,
		CooldownFor:     cfg.Risk.CooldownFor(),
		AutoCloseOnHalt: cfg.Risk.AutoCloseOnHalt,
	}, statefile.NewStore[risk.Metrics](filepath.Join(cfg.DataDir, "risk_state.json")), log)
	if err != nil {
		return nil, err
	}

	ledger, err := paper.NewLedger(filepath.Join(cfg.DataDir, "paper_state.json"), cfg.Execution.PaperEquity, log)
	if err != nil {
		return nil, err
	}

	exec, err := execution.NewRouter(filepath.Join(cfg.DataDir, "execution_state.json"),
		ledger, cfg.Execution.Variants, log)
	if err != nil {
		return nil, err
	}

	var j journal.Journal
	if cfg.Journal.Type == "csv" {
		j, err = journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	} else {
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	}
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}

	gateway := broker.NewGuardedGateway(broker.NewDryRunGateway(log), broker.GuardConfig{
		ConsecutiveFailures: uint32(cfg.Gateway.MaxConsecutiveFailures),
		OpenTimeout:         time.Duration(cfg.Gateway.OpenTimeoutSeconds) * time.Second,
		OrdersPerSecond:     cfg.Gateway.OrdersPerSecond,
		OrderBurst:          cfg.Gateway.OrderBurst,
	}, log)

	book := broker.NewBook()
	cooldown := risk.NewCooldownGuard(cfg.Cooldown.SymbolCooldown(), log)

	engine := core.New(core.Deps{
		Gateway: gateway,
		Book:    book,
		Account: func() broker.AccountSnapshot {
			return broker.AccountSnapshot{Equity: equity, MarginAvail: equity}
		},
		Guardian: guardian,
		Cooldown: cooldown,
		Actions:  action.NewRouter(gateway, book, func() float64 { return equity }, log),
		Exec:     exec,
		Journal:  j,
		Log:      log,
	})

	return &app{
		cfg:      cfg,
		engine:   engine,
		guardian: guardian,
		cooldown: cooldown,
		exec:     exec,
		journal:  j,
	}, nil
}

func (a *app) close() {
	if a.journal != nil {
		a.journal.Close()
	}
}
