package market

import "sort"

// DefaultUniverse maps the tracked symbols to their opening prices.
var DefaultUniverse = map[string]float64{
	"AAPL":  150.0,
	"GOOGL": 2800.0,
	"TSLA":  250.0,
	"MSFT":  300.0,
	"AMZN":  3300.0,
}

// Symbols returns the keys of a price map in sorted order.
func Symbols(prices map[string]float64) []string {
	out := make([]string, 0, len(prices))
	for s := range prices {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
