package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	time TIMESTAMP NOT NULL,
	action TEXT NOT NULL,
	symbol TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	price DOUBLE PRECISION NOT NULL,
	total DOUBLE PRECISION NOT NULL,
	balance_after DOUBLE PRECISION NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_symbol_time ON trades(symbol, time);
`

const selectTrades = `SELECT trade_id, time, action, symbol, quantity, price, total, balance_after, reason FROM trades`

// DefaultWriteTimeout bounds a single trade insert.
const DefaultWriteTimeout = 5 * time.Second

// SQLJournal stores trades in SQLite ("sqlite3") or Postgres ("postgres").
type SQLJournal struct {
	db *sqlx.DB

	// WriteTimeout bounds each RecordTrade; zero means DefaultWriteTimeout.
	WriteTimeout time.Duration
}

func OpenSQL(driver, dsn string) (*SQLJournal, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s journal: %w", driver, err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLJournal{db: db, WriteTimeout: DefaultWriteTimeout}, nil
}

func NewSQLite(path string) (*SQLJournal, error) {
	return OpenSQL("sqlite3", path)
}

// RecordTrade stores t. Times are kept in UTC so range queries compare
// consistently on SQLite, which stores them as text.
func (j *SQLJournal) RecordTrade(t TradeRecord) error {
	t.Time = t.Time.UTC()

	timeout := j.WriteTimeout
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := j.db.NamedExecContext(ctx, `
		INSERT INTO trades
		(trade_id, time, action, symbol, quantity, price, total, balance_after, reason)
		VALUES (:trade_id, :time, :action, :symbol, :quantity, :price, :total, :balance_after, :reason)`,
		t,
	)
	return err
}

// GetTrade returns a single trade record by ID.
func (j *SQLJournal) GetTrade(id string) (TradeRecord, error) {
	var rec TradeRecord
	err := j.db.Get(&rec, j.db.Rebind(selectTrades+` WHERE trade_id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return TradeRecord{}, fmt.Errorf("trade %q not found", id)
	}
	return rec, err
}

// ListTrades returns the most recent limit trades, oldest first. An empty
// symbol matches every symbol; limit <= 0 means no limit.
func (j *SQLJournal) ListTrades(symbol string, limit int) ([]TradeRecord, error) {
	q := selectTrades
	var args []interface{}
	if symbol != "" {
		q += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	q += ` ORDER BY time DESC, trade_id DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	var out []TradeRecord
	if err := j.db.Select(&out, j.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	for i, k := 0, len(out)-1; i < k; i, k = i+1, k-1 {
		out[i], out[k] = out[k], out[i]
	}
	return out, nil
}

// ListTradesBetween returns trades executed within [start, end).
func (j *SQLJournal) ListTradesBetween(start, end time.Time) ([]TradeRecord, error) {
	var out []TradeRecord
	err := j.db.Select(&out, j.db.Rebind(selectTrades+`
		WHERE time >= ? AND time < ?
		ORDER BY time ASC, trade_id ASC`), start.UTC(), end.UTC())
	return out, err
}

func (j *SQLJournal) Close() error {
	return j.db.Close()
}
