// Package chart projects trades onto a fixed axis of time buckets for
// display. The projection is lossy: several trades may share a bucket.
package chart

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/papertrader/indicators"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
)

// DefaultGranularity is the spacing of chart buckets.
const DefaultGranularity = 5 * time.Minute

// LabelLayout is the layout of bucket labels.
const LabelLayout = "15:04"

// Marker is a trade placed on the bucket axis.
type Marker struct {
	Index        int            `json:"index"`
	Action       journal.Action `json:"action"`
	Quantity     int            `json:"quantity"`
	Price        float64        `json:"price"`
	Time         time.Time      `json:"timestamp"`
	BalanceAfter float64        `json:"balance_after"`
}

// Align maps each trade to a bucket index. A trade lands on the nearest
// bucket within granularity/2 of its time, with bucket labels read as
// clock times on the trade's own day. Trades with no such bucket are
// spread evenly across the axis by their chronological position.
// Markers are returned in chronological order.
func Align(trades []journal.TradeRecord, buckets []string, granularity time.Duration) ([]Marker, error) {
	if len(buckets) == 0 {
		return nil, nil
	}
	if granularity <= 0 {
		granularity = DefaultGranularity
	}

	clocks := make([]time.Duration, len(buckets))
	for i, b := range buckets {
		t, err := time.Parse(LabelLayout, b)
		if err != nil {
			return nil, fmt.Errorf("bucket %d: %w", i, err)
		}
		clocks[i] = time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
	}
	if len(trades) == 0 {
		return nil, nil
	}

	sorted := append([]journal.TradeRecord(nil), trades...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	n := len(sorted)
	tolerance := granularity / 2
	out := make([]Marker, 0, n)
	for i, tr := range sorted {
		idx, ok := nearest(tr.Time, clocks, tolerance)
		if !ok {
			idx = spread(i, n, len(buckets))
		}
		out = append(out, Marker{
			Index:        idx,
			Action:       tr.Action,
			Quantity:     tr.Quantity,
			Price:        tr.Price,
			Time:         tr.Time,
			BalanceAfter: tr.BalanceAfter,
		})
	}
	return out, nil
}

func nearest(t time.Time, clocks []time.Duration, tolerance time.Duration) (int, bool) {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())

	best, bestDist := -1, time.Duration(math.MaxInt64)
	for i, c := range clocks {
		dist := t.Sub(day.Add(c))
		if dist < 0 {
			dist = -dist
		}
		if dist <= tolerance && dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best, best >= 0
}

func spread(i, n, buckets int) int {
	if n <= 1 {
		return 0
	}
	idx := int(math.Round(float64(i) / float64(n-1) * float64(buckets-1)))
	return max(0, min(buckets-1, idx))
}

// Series is everything a price chart for one symbol needs.
type Series struct {
	Symbol  string     `json:"symbol"`
	Labels  []string   `json:"labels"`
	Prices  []float64  `json:"prices"`
	SMA20   []*float64 `json:"sma20"`
	RSI     *float64   `json:"rsi"`
	Markers []Marker   `json:"trades"`
}

// BuildSeries labels each price point with its clock time, computes the
// rolling SMA20 where enough points exist and aligns trades to the labels.
func BuildSeries(symbol string, points []market.PricePoint, snap indicators.Snapshot, trades []journal.TradeRecord, granularity time.Duration) (Series, error) {
	s := Series{
		Symbol: symbol,
		Labels: make([]string, len(points)),
		Prices: make([]float64, len(points)),
		SMA20:  make([]*float64, len(points)),
	}
	if snap.RSIReady {
		rsi := snap.RSI
		s.RSI = &rsi
	}
	closes := make([]float64, len(points))
	for i, p := range points {
		s.Labels[i] = p.Time.Format(LabelLayout)
		s.Prices[i] = p.Price
		closes[i] = p.Price
		if sma, err := indicators.SMA(closes[:i+1], indicators.SMAPeriod); err == nil {
			s.SMA20[i] = &sma
		}
	}

	markers, err := Align(trades, s.Labels, granularity)
	if err != nil {
		return Series{}, err
	}
	s.Markers = markers
	return s, nil
}
