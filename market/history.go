package market

import (
	"sync"
	"time"
)

// DefaultHistoryCap is the number of price points kept per symbol.
const DefaultHistoryCap = 100

// History is a bounded, ordered record of price observations for one
// symbol. When full the oldest point is evicted first.
type History struct {
	mu     sync.RWMutex
	cap    int
	points []PricePoint
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &History{
		cap:    capacity,
		points: make([]PricePoint, 0, capacity),
	}
}

// Append records price at t, deriving the change from the previous point.
func (h *History) Append(t time.Time, price float64) PricePoint {
	h.mu.Lock()
	defer h.mu.Unlock()

	p := PricePoint{Time: t, Price: price}
	if n := len(h.points); n > 0 {
		prev := h.points[n-1].Price
		p.Change = price - prev
		if prev != 0 {
			p.ChangePct = p.Change / prev * 100
		}
	}

	if len(h.points) == h.cap {
		copy(h.points, h.points[1:])
		h.points = h.points[:h.cap-1]
	}
	h.points = append(h.points, p)
	return p
}

// Points returns a copy of the history, oldest first.
func (h *History) Points() []PricePoint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]PricePoint, len(h.points))
	copy(out, h.points)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.points)
}

// Last returns the most recent point.
func (h *History) Last() (PricePoint, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.points) == 0 {
		return PricePoint{}, false
	}
	return h.points[len(h.points)-1], true
}
