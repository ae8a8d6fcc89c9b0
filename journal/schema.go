// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	style TEXT NOT NULL,
	source TEXT NOT NULL,
	profile TEXT NOT NULL,
	strategy_tag TEXT NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	take_profit REAL NOT NULL,
	size_usd REAL NOT NULL,
	pnl_pct REAL NOT NULL,
	pnl_usd REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	is_paper INTEGER NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	equity REAL NOT NULL,
	margin_avail REAL NOT NULL,
	margin_used REAL NOT NULL,
	daily_pnl_pct REAL NOT NULL,
	weekly_pnl_pct REAL NOT NULL,
	drawdown_pct REAL NOT NULL,
	risk_state TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);
CREATE INDEX IF NOT EXISTS idx_trades_profile ON trades(profile);
CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
