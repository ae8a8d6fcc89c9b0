package journal

import (
	"database/sql"
	"fmt"
	"time"
)

const tradeColumns = `trade_id, symbol, side, style, source, profile, strategy_tag,
	entry_price, exit_price, stop_loss, take_profit, size_usd,
	pnl_pct, pnl_usd, open_time, close_time, is_paper, reason`

func scanTrade(row interface{ Scan(...any) error }) (TradeRecord, error) {
	var rec TradeRecord
	err := row.Scan(
		&rec.TradeID,
		&rec.Symbol,
		&rec.Side,
		&rec.Style,
		&rec.Source,
		&rec.Profile,
		&rec.StrategyTag,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.StopLoss,
		&rec.TakeProfit,
		&rec.SizeUSD,
		&rec.PnLPct,
		&rec.PnLUSD,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.IsPaper,
		&rec.Reason,
	)
	return rec, err
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTradesByProfile returns trades for one paper profile (e.g. a shadow
// variant), most recent first.
func (j *SQLite) ListTradesByProfile(profile string, limit int) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE profile = ?
		ORDER BY close_time DESC
		LIMIT ?`, profile, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary aggregates closed-trade performance over [start, end).
type Summary struct {
	Trades       int
	Wins         int
	Losses       int
	WinRate      float64
	GrossProfit  float64
	GrossLoss    float64
	NetPnL       float64
	ProfitFactor float64
}

// Summarize computes win rate and profit factor over the window.
func (j *SQLite) Summarize(start, end time.Time) (Summary, error) {
	trades, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return Summary{}, err
	}

	var s Summary
	s.Trades = len(trades)
	for _, t := range trades {
		if t.PnLUSD >= 0 {
			s.Wins++
			s.GrossProfit += t.PnLUSD
		} else {
			s.Losses++
			s.GrossLoss += -t.PnLUSD
		}
		s.NetPnL += t.PnLUSD
	}
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades) * 100
	}
	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}
	return s, nil
}
