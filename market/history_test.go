package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryAppendComputesChange(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	h := NewHistory(10)

	first := h.Append(base, 100)
	assert.Equal(t, 0.0, first.Change)
	assert.Equal(t, 0.0, first.ChangePct)

	second := h.Append(base.Add(time.Minute), 102)
	assert.InDelta(t, 2.0, second.Change, 1e-9)
	assert.InDelta(t, 2.0, second.ChangePct, 1e-9)

	third := h.Append(base.Add(2*time.Minute), 96.9)
	assert.InDelta(t, -5.1, third.Change, 1e-9)
	assert.InDelta(t, -5.0, third.ChangePct, 1e-9)

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, third, last)
}

func TestHistoryEvictsOldestFirst(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Append(base.Add(time.Duration(i)*time.Minute), float64(100+i))
	}

	pts := h.Points()
	require.Len(t, pts, 3)
	assert.Equal(t, []float64{102, 103, 104}, []float64{pts[0].Price, pts[1].Price, pts[2].Price})
	assert.Equal(t, 3, h.Len())
}

func TestHistoryDefaultCap(t *testing.T) {
	t.Parallel()

	h := NewHistory(0)
	for i := 0; i < DefaultHistoryCap+25; i++ {
		h.Append(time.Unix(int64(i), 0), float64(i+1))
	}
	assert.Equal(t, DefaultHistoryCap, h.Len())

	pts := h.Points()
	assert.Equal(t, 26.0, pts[0].Price)
}

func TestHistoryEmptyLast(t *testing.T) {
	t.Parallel()

	_, ok := NewHistory(5).Last()
	assert.False(t, ok)
}
