// Package margin estimates cash and margin requirements for option
// strategies following the general shape of the CBOE margin manual.
// The figures are broker-style approximations, not regulatory advice.
package margin

import (
	"math"

	"option-sim/internal/models"
)

// StockMarginRate is the maintenance fraction applied to stock legs.
// Brokers range from 0.20 to 0.50.
const StockMarginRate = 0.25

// LongOptionLongDatedRate applies to listed long options with 90+ days
// remaining: 75% of total cost instead of payment in full.
const LongOptionLongDatedRate = 0.75

// Requirement is the estimated capital needed to hold a strategy.
type Requirement struct {
	Cash   float64 `json:"cash"`
	Margin float64 `json:"margin"`
}

// Estimator computes requirements from a strategy's resolved legs.
type Estimator struct {
	UnderlyingPrice  float64
	UnderlyingSymbol string
}

// NewEstimator creates an estimator for the given underlying.
func NewEstimator(underlyingPrice float64, symbol string) Estimator {
	return Estimator{UnderlyingPrice: underlyingPrice, UnderlyingSymbol: symbol}
}

// Estimate returns the combined cash and margin requirement. Cash is
// floored at the margin requirement.
func (e Estimator) Estimate(legs []models.LegView) (Requirement, error) {
	var options, stocks []models.LegView
	for _, leg := range legs {
		if leg.Kind.IsOption() {
			options = append(options, leg)
		} else {
			stocks = append(stocks, leg)
		}
	}

	req := e.stockRequirement(stocks)
	opt := e.optionRequirement(options)
	req.Cash += opt.Cash
	req.Margin += opt.Margin
	if req.Cash < req.Margin {
		req.Cash = req.Margin
	}
	return req, nil
}

// stockRequirement: pay in full for cash accounts, a maintenance fraction
// of market value on margin.
func (e Estimator) stockRequirement(legs []models.LegView) Requirement {
	var req Requirement
	for _, leg := range legs {
		notional := math.Abs(leg.Mark * float64(leg.Quantity))
		req.Cash += notional
		req.Margin += notional * StockMarginRate
	}
	return req
}

// optionRequirement dispatches on recognized combinations; anything not
// recognized is conservatively summed per leg.
func (e Estimator) optionRequirement(legs []models.LegView) Requirement {
	switch len(legs) {
	case 0:
		return Requirement{}
	case 1:
		return e.singleOption(legs[0])
	case 2:
		if legs[0].Quantity < 0 && legs[1].Quantity < 0 {
			return e.shortStrangle(legs[0], legs[1])
		}
		if legs[0].Kind == legs[1].Kind && legs[0].Quantity == -legs[1].Quantity {
			return e.verticalSpread(legs)
		}
	case 4:
		if req, ok := e.ironCondor(legs); ok {
			return req
		}
	}
	var req Requirement
	for _, leg := range legs {
		r := e.singleOption(leg)
		req.Cash += r.Cash
		req.Margin += r.Margin
	}
	return req
}

func (e Estimator) singleOption(leg models.LegView) Requirement {
	if leg.Quantity > 0 {
		return e.longOption(leg)
	}
	return e.shortOption(leg)
}

// longOption: pay for each put or call in full; listed options with 90+
// days to expiration margin at 75% of total cost.
func (e Estimator) longOption(leg models.LegView) Requirement {
	cost := leg.Mark * 100 * float64(leg.Quantity)
	margin := cost
	if leg.DaysToExpiration >= 90 {
		margin = cost * LongOptionLongDatedRate
	}
	return Requirement{Cash: cost, Margin: margin}
}

// shortOption: option proceeds plus a percentage of the underlying value
// less the out-of-the-money amount, floored at a minimum percentage of
// the exercise price (puts) or underlying (calls). Broad-based index
// products use 15% scaled by leverage, everything else 20%. Cash approximates
// the collateral to secure the obligation.
func (e Estimator) shortOption(leg models.LegView) Requirement {
	S := e.UnderlyingPrice
	var otm float64
	if leg.Kind == models.Put {
		otm = math.Max(0, S-leg.Strike)
	} else {
		otm = math.Max(0, leg.Strike-S)
	}

	var margin, cash float64
	if leverage, broad := broadBasedLeverage(e.UnderlyingSymbol); broad {
		base := leg.Mark + 0.15*S*leverage - otm
		var minimum float64
		if leg.Kind == models.Put {
			minimum = leg.Mark + 0.10*leg.Strike*leverage
		} else {
			minimum = leg.Mark + 0.10*S*leverage
		}
		margin = math.Max(minimum, base)
		cash = leg.Strike - leg.Mark
	} else {
		base := leg.Mark + 0.20*S - otm
		var minimum float64
		if leg.Kind == models.Put {
			minimum = leg.Mark + 0.10*leg.Strike
			cash = leg.Strike - leg.Mark
		} else {
			minimum = leg.Mark + 0.10*S
			cash = S - leg.Mark
		}
		margin = math.Max(minimum, base)
	}

	contracts := 100 * math.Abs(float64(leg.Quantity))
	return Requirement{Cash: cash * contracts, Margin: margin * contracts}
}

// shortStrangle: escrow both sides in cash; margin is the greater single
// requirement plus the option proceeds of the other side.
func (e Estimator) shortStrangle(a, b models.LegView) Requirement {
	ra := e.shortOption(a)
	rb := e.shortOption(b)
	req := Requirement{Cash: ra.Cash + rb.Cash}
	if ra.Margin > rb.Margin {
		req.Margin = ra.Margin + b.Mark*100*math.Abs(float64(b.Quantity))
	} else {
		req.Margin = rb.Margin + a.Mark*100*math.Abs(float64(a.Quantity))
	}
	return req
}

// verticalSpread: the worst expiration loss across the legs' strikes, net
// of the credit received or debit paid.
func (e Estimator) verticalSpread(legs []models.LegView) Requirement {
	var net float64
	for _, leg := range legs {
		net += float64(leg.Quantity) * leg.Mark * 100
	}
	worst := math.Inf(1)
	for _, pivot := range legs {
		var loss float64
		for _, leg := range legs {
			loss += leg.Kind.IntrinsicValue(pivot.Strike, leg.Strike) * float64(leg.Quantity) * 100
		}
		if loss < worst {
			worst = loss
		}
	}
	require := math.Abs(math.Min(worst, 0)) + net
	return Requirement{Cash: require, Margin: require}
}

// ironCondor: two offsetting verticals of equal size; the requirement is
// the larger side since only one side can lose at expiration.
func (e Estimator) ironCondor(legs []models.LegView) (Requirement, bool) {
	var calls, puts []models.LegView
	for _, leg := range legs {
		if leg.Kind == models.Call {
			calls = append(calls, leg)
		} else {
			puts = append(puts, leg)
		}
	}
	if len(calls) != 2 || len(puts) != 2 {
		return Requirement{}, false
	}
	if calls[0].Quantity+calls[1].Quantity != 0 || puts[0].Quantity+puts[1].Quantity != 0 {
		return Requirement{}, false
	}
	if abs(puts[0].Quantity) != abs(calls[0].Quantity) {
		return Requirement{}, false
	}
	rc := e.verticalSpread(calls)
	rp := e.verticalSpread(puts)
	return Requirement{
		Cash:   math.Max(rc.Cash, rp.Cash),
		Margin: math.Max(rc.Margin, rp.Margin),
	}, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
