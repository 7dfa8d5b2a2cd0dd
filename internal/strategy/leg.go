package strategy

import (
	"math"

	"option-sim/internal/models"
	"option-sim/internal/pricing"
)

// Leg is one resolved position in a strategy: an option contract or stock.
// Fields are resolved once at creation and never mutated; a Leg is owned
// exclusively by the Strategy that created it.
type Leg struct {
	Kind             models.OptionKind
	Strike           float64
	Quantity         int
	Volatility       float64
	DaysToExpiration float64
	Mark             float64
	Symbol           string
	Greeks           models.Greeks
}

// View returns the read-only projection of the leg.
func (l *Leg) View() models.LegView {
	return models.LegView{
		Kind:             l.Kind,
		Strike:           l.Strike,
		Quantity:         l.Quantity,
		Volatility:       l.Volatility,
		DaysToExpiration: l.DaysToExpiration,
		Mark:             l.Mark,
		Symbol:           l.Symbol,
		Greeks:           l.Greeks,
	}
}

// valueAt returns the leg's per-share market value at a hypothetical
// underlying price with the given days remaining: intrinsic value at
// expiration, model price otherwise. Stock is always worth the price.
func (l *Leg) valueAt(m pricing.Model, price, days float64) (float64, error) {
	if l.Kind == models.Stock {
		return price, nil
	}
	// A wide sampling grid can reach non-positive prices; the lognormal
	// form is undefined there, so fall back to the exercise value.
	if days <= 0 || price <= 0 {
		return l.Kind.IntrinsicValue(math.Max(price, 0), l.Strike), nil
	}
	res, err := m.Price(price, l.Strike, days, l.Volatility, l.Kind)
	if err != nil {
		return 0, err
	}
	return res.Price, nil
}

// PayoffAt returns the leg's dollar profit at expiration for the given
// underlying price, net of the entry mark and scaled by quantity and
// contract multiplier.
func (l *Leg) PayoffAt(price float64) float64 {
	value := l.Kind.IntrinsicValue(price, l.Strike)
	return (value - l.Mark) * float64(l.Quantity) * l.Kind.Multiplier()
}
