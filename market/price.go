package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one observation in a symbol's price history.
type PricePoint struct {
	Time      time.Time `json:"time"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_pct"`
}

// Bar is a closed OHLCV bar reduced to the fields the indicators use.
type Bar struct {
	Time   time.Time `json:"time"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Closes returns the close of every bar, oldest first.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// RoundCents rounds a price to two decimal places.
func RoundCents(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
