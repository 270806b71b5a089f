package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"forex-trading-agent/internal/types"
)

// Journal persists trade history and the agent running flag across process
// restarts. Read once at startup to resume or remain idle.
type Journal struct {
	db *sql.DB
}

func NewSQLite(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

// RecordTrade inserts one trade record. Decision and execution are stored as
// JSON documents; profit_loss stays NULL until resolved.
func (j *Journal) RecordTrade(rec types.TradeRecord) error {
	decisionJSON, err := json.Marshal(rec.Decision)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	var executionJSON any
	if rec.Execution != nil {
		b, err := json.Marshal(rec.Execution)
		if err != nil {
			return fmt.Errorf("marshal execution: %w", err)
		}
		executionJSON = string(b)
	}
	var pl any
	if rec.ProfitLoss != nil {
		pl = *rec.ProfitLoss
	}

	_, err = j.db.Exec(`
		INSERT INTO trades (id, timestamp, instrument, decision, execution, profit_loss)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp.UTC(), rec.Instrument, string(decisionJSON), executionJSON, pl,
	)
	return err
}

// ResolveTrade fills in the realized profit/loss of a recorded trade.
func (j *Journal) ResolveTrade(id string, pl float64) error {
	_, err := j.db.Exec(`UPDATE trades SET profit_loss = ? WHERE id = ?`, pl, id)
	return err
}

// RecentTrades loads up to limit of the most recent trades, oldest first,
// for restoring the performance tracker at startup.
func (j *Journal) RecentTrades(limit int) ([]types.TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, timestamp, instrument, decision, execution, profit_loss
		FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.TradeRecord
	for rows.Next() {
		var (
			rec           types.TradeRecord
			ts            time.Time
			decisionJSON  string
			executionJSON sql.NullString
			pl            sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Instrument, &decisionJSON, &executionJSON, &pl); err != nil {
			return nil, err
		}
		rec.Timestamp = ts
		if err := json.Unmarshal([]byte(decisionJSON), &rec.Decision); err != nil {
			return nil, fmt.Errorf("unmarshal decision for %s: %w", rec.ID, err)
		}
		if executionJSON.Valid {
			var exec types.ExecutionResult
			if err := json.Unmarshal([]byte(executionJSON.String), &exec); err != nil {
				return nil, fmt.Errorf("unmarshal execution for %s: %w", rec.ID, err)
			}
			rec.Execution = &exec
		}
		if pl.Valid {
			v := pl.Float64
			rec.ProfitLoss = &v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returned newest first; restore oldest-first order.
	for i, k := 0, len(out)-1; i < k; i, k = i+1, k-1 {
		out[i], out[k] = out[k], out[i]
	}
	return out, nil
}

// SetRunning persists the agent lifecycle flag.
func (j *Journal) SetRunning(running bool) error {
	v := "false"
	if running {
		v = "true"
	}
	_, err := j.db.Exec(`
		INSERT INTO agent_state (key, value) VALUES ('running', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, v)
	return err
}

// WasRunning reports the persisted lifecycle flag; false when never set.
func (j *Journal) WasRunning() (bool, error) {
	var v string
	err := j.db.QueryRow(`SELECT value FROM agent_state WHERE key = 'running'`).Scan(&v)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
