// Package indicators computes the technical indicators the decision engine
// reads: a 20-period simple moving average, a 14-period RSI and the latest
// bar volume.
package indicators

import (
	"time"

	"github.com/rustyeddy/papertrader/market"
)

const (
	SMAPeriod = 20
	RSIPeriod = 14
)

// Snapshot is the indicator state for one symbol. It is replaced as a whole
// on every recomputation and never patched in place. SMA20 and RSI are only
// meaningful once their Ready flag is set; a zero RSI is not "oversold".
type Snapshot struct {
	SMA20      float64   `json:"sma20"`
	SMAReady   bool      `json:"sma_ready"`
	RSI        float64   `json:"rsi"`
	RSIReady   bool      `json:"rsi_ready"`
	Volume     float64   `json:"volume"`
	ComputedAt time.Time `json:"computed_at"`
}

// Stale reports whether the snapshot is older than maxAge at now. A zero
// snapshot is always stale.
func (s Snapshot) Stale(now time.Time, maxAge time.Duration) bool {
	return s.ComputedAt.IsZero() || now.Sub(s.ComputedAt) > maxAge
}

// Compute derives a new snapshot from bars, starting from prev. Indicators
// without enough bars keep their previous value; a partial window is never
// used. ok is false when bars is empty, in which case prev is returned
// untouched.
func Compute(bars []market.Bar, prev Snapshot, now time.Time) (next Snapshot, ok bool) {
	if len(bars) == 0 {
		return prev, false
	}

	next = prev
	closes := market.Closes(bars)
	if sma, err := SMA(closes, SMAPeriod); err == nil {
		next.SMA20 = sma
		next.SMAReady = true
	}
	if rsi, err := RSI(closes, RSIPeriod); err == nil {
		next.RSI = rsi
		next.RSIReady = true
	}
	next.Volume = bars[len(bars)-1].Volume
	next.ComputedAt = now
	return next, true
}
