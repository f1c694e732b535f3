// Package journal persists executed trades. The ledger keeps the
// authoritative history in memory; a journal is a durable copy of it.
package journal

import (
	"fmt"
	"time"
)

type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// TradeRecord is one executed trade. It is never modified once written.
type TradeRecord struct {
	ID           string    `json:"id" db:"trade_id"`
	Time         time.Time `json:"time" db:"time"`
	Action       Action    `json:"action" db:"action"`
	Symbol       string    `json:"symbol" db:"symbol"`
	Quantity     int       `json:"quantity" db:"quantity"`
	Price        float64   `json:"price" db:"price"`
	Total        float64   `json:"total" db:"total"`
	BalanceAfter float64   `json:"balance_after" db:"balance_after"`
	Reason       string    `json:"reason" db:"reason"`
}

type Journal interface {
	RecordTrade(TradeRecord) error
	Close() error
}

// Nop discards every record.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error { return nil }
func (Nop) Close() error                  { return nil }

// Open returns the journal named by kind: "none" (or empty), "csv" and
// "sqlite" write to path, "postgres" connects to dsn.
func Open(kind, path, dsn string) (Journal, error) {
	switch kind {
	case "", "none":
		return Nop{}, nil
	case "csv":
		return NewCSV(path)
	case "sqlite":
		return NewSQLite(path)
	case "postgres":
		return OpenSQL("postgres", dsn)
	default:
		return nil, fmt.Errorf("unknown journal type %q", kind)
	}
}
