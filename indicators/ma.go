package indicators

import "fmt"

// SMA returns the arithmetic mean of the last period closes.
func SMA(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(closes) < period {
		return 0, fmt.Errorf("not enough closes: need %d, got %d", period, len(closes))
	}

	sum := 0.0
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	return sum / float64(period), nil
}
