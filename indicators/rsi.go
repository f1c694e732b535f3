package indicators

import "fmt"

// RSI returns the relative strength index over the trailing period deltas
// (fewer when exactly period closes are available). Average gain and loss
// are plain means, not Wilder-smoothed. A window with no losses reads 100.
func RSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(closes) < period {
		return 0, fmt.Errorf("not enough closes: need %d, got %d", period, len(closes))
	}

	start := len(closes) - period
	if start == 0 {
		start = 1
	}
	n := float64(len(closes) - start)
	if n == 0 {
		return 0, fmt.Errorf("not enough closes for a delta: got %d", len(closes))
	}

	var gain, loss float64
	for i := start; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}

	avgGain, avgLoss := gain/n, loss/n
	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}
