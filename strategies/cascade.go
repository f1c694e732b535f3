package strategies

import (
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/papertrader/ledger"
)

// Cascade evaluates a buy table and then a sell table. It holds no mutable
// state, so identical inputs always produce the same decision.
type Cascade struct {
	Buy        []Rule
	Sell       []Rule
	Risk       Risk
	MinHistory int
}

func NewCascade(risk Risk) *Cascade {
	return &Cascade{
		Buy:        BuyRules,
		Sell:       SellRules,
		Risk:       risk,
		MinHistory: MinHistory,
	}
}

// Decide evaluates the buy table first. The sell table is consulted only
// when no buy rule fired and the symbol is held, so a tick never both buys
// and sells the same symbol.
func (c *Cascade) Decide(in Inputs) Decision {
	d := Decision{Symbol: in.Symbol, Action: Hold}

	if len(in.History) < c.MinHistory {
		d.Skipped = "insufficient history"
		return d
	}
	if in.Price <= 0 {
		d.Skipped = "no price"
		return d
	}

	balance := in.Account.Balance
	d.MaxTrade = c.Risk.MaxTradeAmount(balance, in.HoldingsValue)

	if balance > d.MaxTrade && d.MaxTrade > 0 {
		if r, ok := firstMatch(c.Buy, in); ok {
			d.Action = Buy
			d.Rule = r.Name
			d.Confidence = r.Confidence
			d.Quantity = max(1, int(math.Floor(d.MaxTrade*r.Confidence/in.Price)))
			return d
		}
	}

	held := in.held()
	if held <= 0 {
		return d
	}
	if r, ok := firstMatch(c.Sell, in); ok {
		d.Action = Sell
		d.Rule = r.Name
		d.Confidence = r.Confidence
		d.Fraction = SellFraction(r)
		d.Quantity = min(held, max(1, int(math.Floor(float64(held)*d.Fraction))))
	}
	return d
}

// Trader executes fills. *ledger.Ledger satisfies it.
type Trader interface {
	Buy(symbol string, qty int, reason string) (ledger.Fill, error)
	Sell(symbol string, qty int, reason string) (ledger.Fill, error)
}

// Execute carries out a fired decision. A rejection is logged and returned
// but never retried.
func Execute(t Trader, d Decision, log zerolog.Logger) (ledger.Fill, error) {
	if !d.Fired() {
		return ledger.Fill{}, nil
	}

	var (
		fill ledger.Fill
		err  error
	)
	switch d.Action {
	case Buy:
		fill, err = t.Buy(d.Symbol, d.Quantity, d.Reason())
	case Sell:
		fill, err = t.Sell(d.Symbol, d.Quantity, d.Reason())
	default:
		return ledger.Fill{}, errors.New("execute: hold has nothing to execute")
	}
	if err != nil {
		log.Warn().
			Err(err).
			Str("symbol", d.Symbol).
			Str("action", d.Action.String()).
			Str("rule", d.Rule).
			Int("quantity", d.Quantity).
			Msg("trade rejected")
		return ledger.Fill{}, err
	}
	return fill, nil
}
