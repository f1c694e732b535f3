package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLJournal {
	t.Helper()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func trade(id string, ts time.Time, action Action, symbol string, qty int, price float64) TradeRecord {
	return TradeRecord{
		ID:       id,
		Time:     ts,
		Action:   action,
		Symbol:   symbol,
		Quantity: qty,
		Price:    price,
		Total:    price * float64(qty),
		Reason:   "test",
	}
}

func TestSQLiteRecordAndGetTrade(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ts := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	rec := trade("T1", ts, Buy, "AAPL", 10, 150)
	rec.BalanceAfter = 8500
	require.NoError(t, j.RecordTrade(rec))

	got, err := j.GetTrade("T1")
	require.NoError(t, err)
	assert.True(t, got.Time.Equal(ts))
	got.Time = ts
	assert.Equal(t, rec, got)

	_, err = j.GetTrade("missing")
	assert.ErrorContains(t, err, `trade "missing" not found`)
}

func TestSQLiteDuplicateIDRejected(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	rec := trade("T1", time.Unix(100, 0).UTC(), Buy, "AAPL", 1, 150)
	require.NoError(t, j.RecordTrade(rec))
	assert.Error(t, j.RecordTrade(rec))
}

func TestSQLiteListTrades(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	base := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(trade("T1", base, Buy, "AAPL", 10, 150)))
	require.NoError(t, j.RecordTrade(trade("T2", base.Add(time.Minute), Buy, "MSFT", 2, 300)))
	require.NoError(t, j.RecordTrade(trade("T3", base.Add(2*time.Minute), Sell, "AAPL", 5, 155)))
	require.NoError(t, j.RecordTrade(trade("T4", base.Add(3*time.Minute), Sell, "AAPL", 5, 149)))

	all, err := j.ListTrades("", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "T1", all[0].ID)
	assert.Equal(t, "T4", all[3].ID)

	aapl, err := j.ListTrades("AAPL", 2)
	require.NoError(t, err)
	require.Len(t, aapl, 2)
	assert.Equal(t, "T3", aapl[0].ID)
	assert.Equal(t, "T4", aapl[1].ID)
	assert.Equal(t, Sell, aapl[1].Action)
}

func TestSQLiteListTradesBetween(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	base := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	for i, id := range []string{"A", "B", "C"} {
		require.NoError(t, j.RecordTrade(trade(id, base.Add(time.Duration(i)*time.Hour), Buy, "TSLA", 1, 250)))
	}

	recs, err := j.ListTradesBetween(base.Add(30*time.Minute), base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "B", recs[0].ID)
}

func TestSQLiteRecordTradeIsBounded(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	assert.Equal(t, DefaultWriteTimeout, j.WriteTimeout)

	j.WriteTimeout = time.Nanosecond
	err := j.RecordTrade(trade("T1", time.Unix(100, 0).UTC(), Buy, "AAPL", 1, 150))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	j.WriteTimeout = 0
	_, err = j.GetTrade("T1")
	assert.Error(t, err)
}
