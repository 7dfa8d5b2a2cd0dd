// Package pricing implements closed-form option pricing, implied volatility
// recovery, and the probability math used for strategy simulation.
package pricing

import (
	"fmt"
	"math"

	"option-sim/internal/errors"
	"option-sim/internal/models"
)

// Default market parameters. Some prefer 252 trading days for the year;
// 365 calendar days matches the day counts used elsewhere in the engine.
const (
	DefaultRiskFreeRate = 0.05
	DefaultYearDays     = 365
)

// Model is a closed-form lognormal (Black-Scholes) option pricer with
// continuous discounting at a flat risk-free rate.
type Model struct {
	Rate     float64
	YearDays float64
}

// NewModel creates a pricing model, filling zero parameters with defaults.
func NewModel(rate, yearDays float64) Model {
	if yearDays <= 0 {
		yearDays = DefaultYearDays
	}
	return Model{Rate: rate, YearDays: yearDays}
}

// Price returns the theoretical price and Greeks for a European option.
// Days is calendar days to expiration; theta is the one-day decay
// (negative for a long position). Zero time or non-positive volatility
// degenerate to the intrinsic-value limit rather than failing, since
// volatility can legitimately approach zero.
func (m Model) Price(underlying, strike, days, volatility float64, kind models.OptionKind) (models.PricingResult, error) {
	if !kind.IsOption() {
		return models.PricingResult{}, fmt.Errorf("kind %s is not priceable: %w", kind, errors.ErrInvalidInput)
	}
	if underlying <= 0 {
		return models.PricingResult{}, fmt.Errorf("underlying price %.4f must be positive: %w", underlying, errors.ErrInvalidInput)
	}
	if strike <= 0 {
		return models.PricingResult{}, fmt.Errorf("strike price %.4f must be positive: %w", strike, errors.ErrInvalidInput)
	}
	if days < 0 {
		return models.PricingResult{}, fmt.Errorf("days to expiration %.2f must be non-negative: %w", days, errors.ErrInvalidInput)
	}

	if days == 0 || volatility <= 0 {
		return m.intrinsic(underlying, strike, kind), nil
	}

	res := m.price(underlying, strike, days, volatility, kind)
	// Theta as one calendar day of decay: reprice one day closer to expiry.
	next := m.price(underlying, strike, math.Max(days-1, 0), volatility, kind)
	res.Theta = next.Price - res.Price
	return res, nil
}

// price evaluates the closed form at a strictly positive time. The caller
// guards days > 0 except for the theta reprice, which may land on zero.
func (m Model) price(underlying, strike, days, volatility float64, kind models.OptionKind) models.PricingResult {
	if days <= 0 {
		return m.intrinsic(underlying, strike, kind)
	}
	t := days / m.YearDays
	sqrtT := math.Sqrt(t)
	sigmaT := volatility * sqrtT

	d1 := (math.Log(underlying/strike) + (m.Rate+0.5*volatility*volatility)*t) / sigmaT
	d2 := d1 - sigmaT
	discount := math.Exp(-m.Rate * t)

	var res models.PricingResult
	switch kind {
	case models.Call:
		res.Price = underlying*normCDF(d1) - strike*discount*normCDF(d2)
		res.Delta = normCDF(d1)
	case models.Put:
		res.Price = strike*discount*normCDF(-d2) - underlying*normCDF(-d1)
		res.Delta = normCDF(d1) - 1
	}
	res.Vega = underlying * normPDF(d1) * sqrtT
	res.Gamma = normPDF(d1) / (underlying * volatility * sqrtT)
	return res
}

// intrinsic is the zero-time / zero-volatility limit: exercise value with
// a step-function delta. At the money counts as out of the money.
func (m Model) intrinsic(underlying, strike float64, kind models.OptionKind) models.PricingResult {
	res := models.PricingResult{Price: kind.IntrinsicValue(underlying, strike)}
	switch {
	case kind == models.Call && underlying > strike:
		res.Delta = 1
	case kind == models.Put && underlying < strike:
		res.Delta = -1
	}
	return res
}

// normCDF is the standard normal cumulative distribution function. The
// erfc form keeps full precision in the tails.
func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// normPDF is the standard normal probability density function.
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
