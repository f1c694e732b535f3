package strategies

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/indicators"
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
)

var t0 = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

// inputs builds a flat 20-point history at 100 followed by tail, with
// neutral indicators and sentiment.
func inputs(tail ...float64) Inputs {
	h := market.NewHistory(0)
	n := 0
	for ; n < MinHistory; n++ {
		h.Append(t0.Add(time.Duration(n)*time.Minute), 100)
	}
	for _, p := range tail {
		h.Append(t0.Add(time.Duration(n)*time.Minute), p)
		n++
	}
	pts := h.Points()
	return Inputs{
		Symbol:  "AAPL",
		Price:   pts[len(pts)-1].Price,
		Prev:    pts[len(pts)-2],
		History: pts,
		Indicators: indicators.Snapshot{
			SMA20:      100,
			SMAReady:   true,
			RSI:        50,
			RSIReady:   true,
			ComputedAt: t0,
		},
		Account: ledger.Account{Balance: 10000, Holdings: map[string]int{}},
	}
}

func held(in Inputs, qty int) Inputs {
	in.Account.Holdings = map[string]int{in.Symbol: qty}
	in.HoldingsValue = float64(qty) * in.Price
	return in
}

func withCost(in Inputs, cost float64) Inputs {
	in.AverageCost = cost
	in.HasCost = true
	return in
}

func TestNeutralInputsHold(t *testing.T) {
	t.Parallel()

	c := NewCascade(DefaultRisk())
	assert.Equal(t, Hold, c.Decide(inputs()).Action)
	assert.Equal(t, Hold, c.Decide(held(inputs(), 10)).Action)
}

func TestBuyRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   func() Inputs
		rule string
		conf float64
	}{
		{
			name: "rsi below 25",
			in: func() Inputs {
				in := inputs()
				in.Indicators.RSI = 20
				return in
			},
			rule: "strong oversold",
			conf: 0.9,
		},
		{
			name: "discount with momentum",
			in: func() Inputs {
				in := inputs(101.5)
				in.Indicators.SMA20 = 115
				return in
			},
			rule: "deep discount with momentum",
			conf: 0.7,
		},
		{
			name: "snapback",
			in: func() Inputs {
				in := inputs(99, 98, 97, 96, 99)
				in.Indicators.SMA20 = 95
				return in
			},
			rule: "snapback after decline",
			conf: 0.8,
		},
		{
			name: "crossing up",
			in: func() Inputs {
				return inputs(98, 98.5, 99, 101)
			},
			rule: "crossing above SMA20",
			conf: 0.75,
		},
		{
			name: "strong sentiment",
			in: func() Inputs {
				in := inputs()
				in.Sentiment = 0.35
				return in
			},
			rule: "strong positive sentiment",
			conf: 0.8,
		},
		{
			name: "mild sentiment",
			in: func() Inputs {
				in := inputs()
				in.Sentiment = 0.2
				return in
			},
			rule: "positive sentiment below resistance",
			conf: 0.6,
		},
	}

	c := NewCascade(DefaultRisk())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Decide(tt.in())
			assert.Equal(t, Buy, d.Action)
			assert.Equal(t, tt.rule, d.Rule)
			assert.Equal(t, tt.conf, d.Confidence)
			assert.GreaterOrEqual(t, d.Quantity, 1)
		})
	}
}

func TestIndicatorRulesNeedReadyIndicators(t *testing.T) {
	t.Parallel()

	noRSI := func(in Inputs) Inputs {
		in.Indicators.RSIReady = false
		return in
	}
	noSMA := func(in Inputs) Inputs {
		in.Indicators.SMAReady = false
		return in
	}

	tests := []struct {
		name string
		in   func() Inputs
	}{
		{
			name: "oversold rsi not ready",
			in: func() Inputs {
				in := noRSI(inputs())
				in.Indicators.RSI = 0
				return in
			},
		},
		{
			name: "mild sentiment rsi not ready",
			in: func() Inputs {
				in := noRSI(inputs())
				in.Sentiment = 0.2
				return in
			},
		},
		{
			name: "discount sma not ready",
			in: func() Inputs {
				in := noSMA(inputs(101.5))
				in.Indicators.SMA20 = 115
				return in
			},
		},
		{
			name: "crossing up sma not ready",
			in:   func() Inputs { return noSMA(inputs(98, 98.5, 99, 101)) },
		},
		{
			name: "overbought rsi not ready",
			in: func() Inputs {
				in := noRSI(held(inputs(), 10))
				in.Indicators.RSI = 80
				return in
			},
		},
		{
			name: "extended sma not ready",
			in: func() Inputs {
				in := noSMA(held(inputs(98.5), 10))
				in.Indicators.SMA20 = 90
				return in
			},
		},
		{
			name: "crossing down sma not ready",
			in:   func() Inputs { return noSMA(held(inputs(102, 101.5, 101, 99.5), 10)) },
		},
		{
			name: "mild negative sentiment rsi not ready",
			in: func() Inputs {
				in := noRSI(held(inputs(), 10))
				in.Sentiment = -0.2
				return in
			},
		},
	}

	c := NewCascade(DefaultRisk())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Decide(tt.in())
			assert.Equal(t, Hold, d.Action)
			assert.Empty(t, d.Rule)
		})
	}
}

func TestSnapbackNeedsFourDeclines(t *testing.T) {
	t.Parallel()

	in := inputs(99, 98, 98, 97, 100)
	in.Indicators.SMA20 = 95
	d := NewCascade(DefaultRisk()).Decide(in)
	assert.NotEqual(t, "snapback after decline", d.Rule)
}

func TestBuyRequiresBalanceAboveMaxTrade(t *testing.T) {
	t.Parallel()

	in := inputs()
	in.Indicators.RSI = 20
	in.Account.Balance = 0
	d := NewCascade(DefaultRisk()).Decide(in)
	assert.Equal(t, Hold, d.Action)
}

func TestRSI20Sizing(t *testing.T) {
	t.Parallel()

	in := inputs()
	in.Indicators.RSI = 20
	in.Price = 10

	d := NewCascade(DefaultRisk()).Decide(in)
	require.Equal(t, Buy, d.Action)
	assert.Equal(t, 300.0, d.MaxTrade)
	assert.Equal(t, 0.9, d.Confidence)
	assert.Equal(t, 27, d.Quantity)

	// Expensive symbols still buy one share.
	in.Price = 150
	d = NewCascade(DefaultRisk()).Decide(in)
	assert.Equal(t, 1, d.Quantity)
}

func TestMaxTradeAmount(t *testing.T) {
	t.Parallel()

	r := DefaultRisk()
	assert.Equal(t, 300.0, r.MaxTradeAmount(10000, 0))
	assert.InDelta(t, 60.0, r.MaxTradeAmount(2000, 0), 1e-9)
	assert.InDelta(t, 30.0, r.MaxTradeAmount(1000, 200), 1e-9)

	r = Risk{BalanceFraction: 0.5, PortfolioFraction: 0.1}
	assert.InDelta(t, 120.0, r.MaxTradeAmount(1000, 200), 1e-9)
}

func TestSellRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       func() Inputs
		rule     string
		fraction float64
		qty      int
	}{
		{
			name: "rsi above 75",
			in: func() Inputs {
				in := inputs()
				in.Indicators.RSI = 80
				return in
			},
			rule: "strong overbought", fraction: 0.5, qty: 5,
		},
		{
			name: "extended and fading",
			in: func() Inputs {
				in := inputs(98.5)
				in.Indicators.SMA20 = 90
				return in
			},
			rule: "extended and fading", fraction: 0.25, qty: 2,
		},
		{
			name: "major gain",
			in:   func() Inputs { return withCost(inputs(), 80) },
			rule: "major gain above 20%", fraction: 0.75, qty: 7,
		},
		{
			name: "gain above 15",
			in:   func() Inputs { return withCost(inputs(), 85) },
			rule: "gain above 15%", fraction: 0.5, qty: 5,
		},
		{
			name: "gain above 10",
			in:   func() Inputs { return withCost(inputs(), 90) },
			rule: "gain above 10%", fraction: 0.25, qty: 2,
		},
		{
			name: "hard stop",
			in:   func() Inputs { return withCost(inputs(), 110) },
			rule: "hard stop below -8%", fraction: 1, qty: 10,
		},
		{
			name: "loss below 5",
			in:   func() Inputs { return withCost(inputs(), 106) },
			rule: "loss below -5%", fraction: 0.5, qty: 5,
		},
		{
			name: "crossing down",
			in:   func() Inputs { return inputs(102, 101.5, 101, 99.5) },
			rule: "crossing below SMA20", fraction: 0.25, qty: 2,
		},
		{
			name: "strong negative sentiment",
			in: func() Inputs {
				in := inputs()
				in.Sentiment = -0.4
				return in
			},
			rule: "strong negative sentiment", fraction: 0.5, qty: 5,
		},
		{
			name: "mild negative sentiment",
			in: func() Inputs {
				in := inputs()
				in.Sentiment = -0.2
				return in
			},
			rule: "negative sentiment near support", fraction: 0.25, qty: 2,
		},
	}

	c := NewCascade(DefaultRisk())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Decide(held(tt.in(), 10))
			assert.Equal(t, Sell, d.Action)
			assert.Equal(t, tt.rule, d.Rule)
			assert.Equal(t, tt.fraction, d.Fraction)
			assert.Equal(t, tt.qty, d.Quantity)
		})
	}
}

func TestGainRulesNeedAverageCost(t *testing.T) {
	t.Parallel()

	in := held(inputs(), 10)
	in.Price = 200
	d := NewCascade(DefaultRisk()).Decide(in)
	assert.NotContains(t, d.Rule, "gain")
}

func TestSellQuantityAtLeastOne(t *testing.T) {
	t.Parallel()

	in := held(inputs(), 1)
	in.Sentiment = -0.2
	d := NewCascade(DefaultRisk()).Decide(in)
	require.Equal(t, Sell, d.Action)
	assert.Equal(t, 1, d.Quantity)
}

func TestNoSellWhenNotHeld(t *testing.T) {
	t.Parallel()

	in := inputs()
	in.Indicators.RSI = 80
	assert.Equal(t, Hold, NewCascade(DefaultRisk()).Decide(in).Action)
}

func TestBuyTableRunsFirst(t *testing.T) {
	t.Parallel()

	in := withCost(held(inputs(), 10), 110)
	in.Indicators.RSI = 20
	d := NewCascade(DefaultRisk()).Decide(in)
	assert.Equal(t, Buy, d.Action)
	assert.Equal(t, "strong oversold", d.Rule)
}

func TestShortHistorySkipped(t *testing.T) {
	t.Parallel()

	in := inputs()
	in.History = in.History[1:]
	in.Indicators.RSI = 20
	d := NewCascade(DefaultRisk()).Decide(in)
	assert.Equal(t, Hold, d.Action)
	assert.Equal(t, "insufficient history", d.Skipped)
	assert.False(t, d.Fired())
}

func TestDecideDeterministic(t *testing.T) {
	t.Parallel()

	in := withCost(held(inputs(102, 101.5, 101, 99.5), 7), 99)
	in.Sentiment = -0.25
	c := NewCascade(DefaultRisk())
	first := c.Decide(in)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, c.Decide(in))
	}
}

func TestSellFraction(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, SellFraction(Rule{Confidence: 1, Fraction: 1}))
	assert.Equal(t, 0.75, SellFraction(Rule{Confidence: 0.95, Fraction: 0.75}))
	assert.Equal(t, 0.5, SellFraction(Rule{Confidence: 0.85}))
	assert.Equal(t, 0.25, SellFraction(Rule{Confidence: 0.8}))
}

type rejectingTrader struct{ err error }

func (r rejectingTrader) Buy(string, int, string) (ledger.Fill, error)  { return ledger.Fill{}, r.err }
func (r rejectingTrader) Sell(string, int, string) (ledger.Fill, error) { return ledger.Fill{}, r.err }

func TestExecuteThroughLedger(t *testing.T) {
	t.Parallel()

	l := ledger.New(10000)
	l.SetPrice("AAPL", 10)

	in := inputs()
	in.Indicators.RSI = 20
	in.Price = 10
	d := NewCascade(DefaultRisk()).Decide(in)

	fill, err := Execute(l, d, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 27, fill.Quantity)
	assert.Equal(t, 27, l.Holding("AAPL"))
	assert.Equal(t, "strong oversold (confidence 0.90)", l.History()[0].Reason)
}

func TestExecuteRejected(t *testing.T) {
	t.Parallel()

	d := Decision{Symbol: "AAPL", Action: Sell, Quantity: 3, Rule: "x", Confidence: 0.7}
	_, err := Execute(rejectingTrader{err: ledger.ErrInsufficientShares}, d, zerolog.Nop())
	assert.True(t, errors.Is(err, ledger.ErrInsufficientShares))

	fill, err := Execute(rejectingTrader{err: errors.New("boom")}, Decision{Action: Hold}, zerolog.Nop())
	assert.NoError(t, err)
	assert.Zero(t, fill)
}
