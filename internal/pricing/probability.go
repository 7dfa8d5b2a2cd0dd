package pricing

import (
	"fmt"
	"math"

	"option-sim/internal/errors"
	"option-sim/internal/models"
)

// ProbabilityEngine turns volatility and time into move, probability and
// expected-value quantities under the risk-neutral lognormal assumption.
type ProbabilityEngine struct {
	Model Model
}

// NewProbabilityEngine creates a probability engine backed by the model.
func NewProbabilityEngine(m Model) ProbabilityEngine {
	return ProbabilityEngine{Model: m}
}

// ExpectedMove returns one standard deviation of the underlying price over
// the given horizon in days. Zero for non-positive horizons.
func (p ProbabilityEngine) ExpectedMove(underlying, volatility, days float64) float64 {
	if days <= 0 {
		return 0
	}
	return underlying * volatility * math.Sqrt(days/p.Model.YearDays)
}

// BreachProbability returns the probability that the underlying finishes
// beyond the strike at the horizon: above for calls, below for puts.
func (p ProbabilityEngine) BreachProbability(underlying, strike, days, volatility float64, kind models.OptionKind) (float64, error) {
	if !kind.IsOption() {
		return 0, fmt.Errorf("breach probability needs an option kind, got %s: %w", kind, errors.ErrInvalidInput)
	}
	if underlying <= 0 || strike <= 0 {
		return 0, fmt.Errorf("underlying %.4f and strike %.4f must be positive: %w", underlying, strike, errors.ErrInvalidInput)
	}
	if days <= 0 || volatility <= 0 {
		// Degenerate horizon: the outcome is already decided.
		breached := (kind == models.Call && underlying > strike) ||
			(kind == models.Put && underlying < strike)
		if breached {
			return 1, nil
		}
		return 0, nil
	}

	t := days / p.Model.YearDays
	sigmaT := volatility * math.Sqrt(t)
	d2 := (math.Log(underlying/strike) + (p.Model.Rate-0.5*volatility*volatility)*t) / sigmaT
	if kind == models.Call {
		return normCDF(d2), nil
	}
	return normCDF(-d2), nil
}

// PriceGrid returns n ordered prices spanning center ± rangeMult*stddev.
// Grid shape is validated at strategy construction; a malformed request
// here is a programming error.
func PriceGrid(center, stddev, rangeMult float64, n int) []float64 {
	if n < 2 {
		panic(fmt.Sprintf("pricing: price grid needs at least 2 points, got %d", n))
	}
	if stddev < 0 {
		panic(fmt.Sprintf("pricing: negative stddev %.6f", stddev))
	}
	low := center - rangeMult*stddev
	step := 2 * rangeMult * stddev / float64(n-1)
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = low + float64(i)*step
	}
	return grid
}

// GridWeights returns the normal density at each grid point, renormalized
// so the discretized weights sum to 1 across the finite grid.
func GridWeights(grid []float64, center, stddev float64) []float64 {
	weights := make([]float64, len(grid))
	if len(grid) == 0 {
		return weights
	}
	if stddev <= 0 {
		// All mass collapses onto the point closest to center.
		nearest := 0
		for i, p := range grid {
			if math.Abs(p-center) < math.Abs(grid[nearest]-center) {
				nearest = i
			}
		}
		weights[nearest] = 1
		return weights
	}
	var total float64
	for i, p := range grid {
		weights[i] = normPDF((p - center) / stddev)
		total += weights[i]
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}
