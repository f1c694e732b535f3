package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"
	"time"
)

var csvHeader = []string{"id", "time", "action", "symbol", "quantity", "price", "total", "balance_after", "reason"}

type CSVJournal struct {
	mu sync.Mutex
	w  *csv.Writer
	f  *os.File
}

func NewCSV(path string) (*CSVJournal, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, err
	}
	return &CSVJournal{w: w, f: f}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.w.Write([]string{
		t.ID,
		t.Time.Format(time.RFC3339),
		string(t.Action),
		t.Symbol,
		strconv.Itoa(t.Quantity),
		formatMoney(t.Price),
		formatMoney(t.Total),
		formatMoney(t.BalanceAfter),
		t.Reason,
	})
	if err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSVJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Close()
}

// formatMoney renders an amount with two decimals.
func formatMoney(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
