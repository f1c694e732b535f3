// Package strategies turns one symbol's indicators, sentiment, recent prices
// and account state into at most one sized buy or sell per tick.
package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/papertrader/indicators"
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
)

type Signal int

const (
	Hold Signal = iota
	Buy
	Sell
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// MarshalText encodes s as BUY, SELL or HOLD.
func (s Signal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Signal) UnmarshalText(b []byte) error {
	switch string(b) {
	case "BUY":
		*s = Buy
	case "SELL":
		*s = Sell
	case "HOLD", "":
		*s = Hold
	default:
		return fmt.Errorf("unknown signal %q", b)
	}
	return nil
}

// MinHistory is the number of price points a symbol needs before it is
// traded at all.
const MinHistory = 20

// Inputs is everything the cascade reads for one symbol on one tick.
// History is oldest first and its last point is the current observation.
type Inputs struct {
	Symbol     string
	Price      float64
	Prev       market.PricePoint
	History    []market.PricePoint
	Indicators indicators.Snapshot
	Sentiment  float64
	Account    ledger.Account

	// HoldingsValue is the account's holdings marked to current prices.
	HoldingsValue float64

	// AverageCost is only meaningful when HasCost is true.
	AverageCost float64
	HasCost     bool
}

// Momentum is the percent change from the prior observation to Price.
func (in Inputs) Momentum() float64 {
	if in.Prev.Price <= 0 {
		return 0
	}
	return (in.Price - in.Prev.Price) / in.Prev.Price * 100
}

// GainPct is the percent gain of Price over the average cost.
func (in Inputs) GainPct() (float64, bool) {
	if !in.HasCost || in.AverageCost <= 0 {
		return 0, false
	}
	return (in.Price - in.AverageCost) / in.AverageCost * 100, true
}

// PriceAgo returns the price n observations before the current one.
func (in Inputs) PriceAgo(n int) (float64, bool) {
	i := len(in.History) - 1 - n
	if n < 0 || i < 0 {
		return 0, false
	}
	return in.History[i].Price, true
}

// priorChanges returns the change percentages of the n points before the
// current one, newest first.
func (in Inputs) priorChanges(n int) ([]float64, bool) {
	if len(in.History) < n+1 {
		return nil, false
	}
	out := make([]float64, 0, n)
	for i := len(in.History) - 2; i >= len(in.History)-1-n; i-- {
		out = append(out, in.History[i].ChangePct)
	}
	return out, true
}

func (in Inputs) held() int {
	return in.Account.Holdings[in.Symbol]
}

func (in Inputs) hasSMA() bool {
	return in.Indicators.SMAReady && in.Indicators.SMA20 > 0
}

func (in Inputs) hasRSI() bool {
	return in.Indicators.RSIReady
}

// Risk caps the size of a single trade.
type Risk struct {
	BalanceFraction   float64 `yaml:"balance_fraction" json:"balance_fraction"`
	PortfolioFraction float64 `yaml:"portfolio_fraction" json:"portfolio_fraction"`
}

func DefaultRisk() Risk {
	return Risk{BalanceFraction: 0.03, PortfolioFraction: 0.05}
}

// MaxTradeAmount is the most cash a single buy may commit:
// min(balance × BalanceFraction, (balance + holdingsValue) × PortfolioFraction).
func (r Risk) MaxTradeAmount(balance, holdingsValue float64) float64 {
	return math.Min(balance*r.BalanceFraction, (balance+holdingsValue)*r.PortfolioFraction)
}

// Decision is the outcome of one cascade evaluation.
type Decision struct {
	Symbol     string  `json:"symbol"`
	Action     Signal  `json:"action"`
	Rule       string  `json:"rule,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Quantity   int     `json:"quantity,omitempty"`
	Fraction   float64 `json:"fraction,omitempty"`
	MaxTrade   float64 `json:"max_trade"`
	Skipped    string  `json:"skipped,omitempty"`
}

// Reason is the text recorded on the resulting trade.
func (d Decision) Reason() string {
	if d.Rule == "" {
		return d.Skipped
	}
	return fmt.Sprintf("%s (confidence %.2f)", d.Rule, d.Confidence)
}

func (d Decision) Fired() bool {
	return d.Action != Hold && d.Quantity > 0
}
