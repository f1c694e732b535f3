package strategies

// Rule is one row of a cascade table. The first rule whose Match returns
// true wins.
type Rule struct {
	Name       string
	Confidence float64
	Match      func(in Inputs) bool

	// Fraction, when non-zero, is the share of the holding a sell rule
	// disposes of regardless of confidence.
	Fraction float64
}

// SellFraction is the share of the holding sold when r fires.
func SellFraction(r Rule) float64 {
	switch {
	case r.Fraction > 0:
		return r.Fraction
	case r.Confidence > 0.8:
		return 0.5
	default:
		return 0.25
	}
}

// BuyRules is the default buy table in priority order.
var BuyRules = []Rule{
	{
		Name:       "strong oversold",
		Confidence: 0.9,
		Match: func(in Inputs) bool {
			return in.hasRSI() && in.Indicators.RSI < 25
		},
	},
	{
		Name:       "deep discount with momentum",
		Confidence: 0.7,
		Match: func(in Inputs) bool {
			return in.hasSMA() && in.Price < in.Indicators.SMA20*0.92 && in.Momentum() > 1
		},
	},
	{
		Name:       "snapback after decline",
		Confidence: 0.8,
		Match: func(in Inputs) bool {
			if in.Momentum() <= 2.5 {
				return false
			}
			prior, ok := in.priorChanges(4)
			if !ok {
				return false
			}
			for _, c := range prior {
				if c >= -0.5 {
					return false
				}
			}
			return true
		},
	},
	{
		Name:       "crossing above SMA20",
		Confidence: 0.75,
		Match: func(in Inputs) bool {
			ago, ok := in.PriceAgo(3)
			return ok && in.hasSMA() &&
				ago < in.Indicators.SMA20 && in.Price > in.Indicators.SMA20 &&
				in.Momentum() > 1
		},
	},
	{
		Name:       "strong positive sentiment",
		Confidence: 0.8,
		Match: func(in Inputs) bool {
			return in.Sentiment > 0.3
		},
	},
	{
		Name:       "positive sentiment below resistance",
		Confidence: 0.6,
		Match: func(in Inputs) bool {
			return in.Sentiment > 0.1 && in.hasRSI() && in.hasSMA() &&
				in.Indicators.RSI < 60 && in.Price < in.Indicators.SMA20*1.05
		},
	},
}

func gainAbove(pct float64) func(Inputs) bool {
	return func(in Inputs) bool {
		g, ok := in.GainPct()
		return ok && g > pct
	}
}

func gainBelow(pct float64) func(Inputs) bool {
	return func(in Inputs) bool {
		g, ok := in.GainPct()
		return ok && g < pct
	}
}

// SellRules is the default sell table in priority order. It is only
// consulted for held symbols.
var SellRules = []Rule{
	{
		Name:       "strong overbought",
		Confidence: 0.9,
		Match: func(in Inputs) bool {
			return in.hasRSI() && in.Indicators.RSI > 75
		},
	},
	{
		Name:       "extended and fading",
		Confidence: 0.8,
		Match: func(in Inputs) bool {
			return in.hasSMA() && in.Price > in.Indicators.SMA20*1.08 && in.Momentum() < -1
		},
	},
	{Name: "major gain above 20%", Confidence: 0.95, Fraction: 0.75, Match: gainAbove(20)},
	{Name: "gain above 15%", Confidence: 0.85, Match: gainAbove(15)},
	{Name: "gain above 10%", Confidence: 0.7, Match: gainAbove(10)},
	{Name: "hard stop below -8%", Confidence: 1.0, Fraction: 1.0, Match: gainBelow(-8)},
	{Name: "loss below -5%", Confidence: 0.85, Match: gainBelow(-5)},
	{
		Name:       "crossing below SMA20",
		Confidence: 0.75,
		Match: func(in Inputs) bool {
			ago, ok := in.PriceAgo(3)
			return ok && in.hasSMA() &&
				ago > in.Indicators.SMA20 && in.Price < in.Indicators.SMA20 &&
				in.Momentum() < -1
		},
	},
	{
		Name:       "strong negative sentiment",
		Confidence: 0.85,
		Match: func(in Inputs) bool {
			return in.Sentiment < -0.3
		},
	},
	{
		Name:       "negative sentiment near support",
		Confidence: 0.7,
		Match: func(in Inputs) bool {
			return in.Sentiment < -0.1 && in.hasRSI() && in.hasSMA() &&
				in.Indicators.RSI > 40 && in.Price > in.Indicators.SMA20*0.95
		},
	},
}

func firstMatch(rules []Rule, in Inputs) (Rule, bool) {
	for _, r := range rules {
		if r.Match(in) {
			return r, true
		}
	}
	return Rule{}, false
}
