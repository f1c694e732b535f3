// Package sentiment folds per-source sentiment readings into one weighted
// score and a bounded trading signal.
package sentiment

import (
	"time"
)

type Source string

const (
	Reddit Source = "reddit"
	News   Source = "news"
	Social Source = "social"
)

// Sources lists every source in a fixed order.
var Sources = []Source{Reddit, News, Social}

// Weights are the contribution of each source to the overall score.
var Weights = map[Source]float64{
	Reddit: 0.4,
	News:   0.4,
	Social: 0.2,
}

// Reading is one source's score in [-1, 1] and the number of samples it
// was derived from.
type Reading struct {
	Score float64 `json:"score"`
	Count int     `json:"count"`
}

// Snapshot is the aggregated sentiment for one symbol. It is replaced as a
// whole on every recomputation.
type Snapshot struct {
	Overall float64            `json:"overall_score"`
	Sources map[Source]Reading `json:"sources"`
	Time    time.Time          `json:"timestamp"`
}

// Stale reports whether the snapshot is older than maxAge at now.
func (s Snapshot) Stale(now time.Time, maxAge time.Duration) bool {
	return s.Time.IsZero() || now.Sub(s.Time) > maxAge
}

// Signal is the directional signal derived from the overall score.
func (s Snapshot) Signal() float64 {
	return Signal(s.Overall)
}

// Aggregate weights every source that has samples. With no samples at all
// the overall score is exactly zero.
func Aggregate(readings map[Source]Reading, now time.Time) Snapshot {
	snap := Snapshot{
		Sources: make(map[Source]Reading, len(Sources)),
		Time:    now,
	}

	var total float64
	for _, src := range Sources {
		r := readings[src]
		snap.Sources[src] = r
		if r.Count > 0 {
			total += Weights[src]
		}
	}
	if total == 0 {
		return snap
	}

	// Normalizing each weight first keeps a lone source's score exact.
	for _, src := range Sources {
		if r := snap.Sources[src]; r.Count > 0 {
			snap.Overall += r.Score * (Weights[src] / total)
		}
	}
	return snap
}

// Signal maps an overall score to a trading signal in [-1, 1], with a dead
// zone of ±0.1 around neutral.
func Signal(overall float64) float64 {
	switch {
	case overall > 0.1:
		return min(overall, 1.0)
	case overall < -0.1:
		return max(overall, -1.0)
	default:
		return 0
	}
}
