package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, side, style, source, profile, strategy_tag,
		 entry_price, exit_price, stop_loss, take_profit, size_usd,
		 pnl_pct, pnl_usd, open_time, close_time, is_paper, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, t.Side, t.Style, t.Source, t.Profile, t.StrategyTag,
		t.EntryPrice, t.ExitPrice, t.StopLoss, t.TakeProfit, t.SizeUSD,
		t.PnLPct, t.PnLUSD, t.OpenTime, t.CloseTime, t.IsPaper, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, equity, margin_avail, margin_used, daily_pnl_pct, weekly_pnl_pct, drawdown_pct, risk_state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Time, e.Equity, e.MarginAvail, e.MarginUsed,
		e.DailyPnLPct, e.WeeklyPnLPct, e.DrawdownPct, e.RiskState,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
