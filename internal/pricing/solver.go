package pricing

import (
	"option-sim/internal/errors"
	"option-sim/internal/models"
)

// Solver defaults.
const (
	DefaultInitialGuess  = 0.20
	DefaultTolerance     = 1e-5
	DefaultMaxIterations = 100
	MinVolatility        = 1e-4

	// vegaFloor guards the Newton update against division by a collapsed
	// vega (deep in/out of the money, or expiry).
	vegaFloor = 1e-10
)

// Solver recovers implied volatility from an observed mark by
// Newton-Raphson iteration on the pricing model's vega.
type Solver struct {
	Model         Model
	InitialGuess  float64
	Tolerance     float64
	MaxIterations int
}

// NewSolver creates a solver with the documented defaults.
func NewSolver(m Model) Solver {
	return Solver{
		Model:         m,
		InitialGuess:  DefaultInitialGuess,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
	}
}

// ImpliedVolatility returns the volatility at which the model price matches
// the mark, along with the pricing result at that volatility. Failure to
// converge is a caller-visible *errors.ConvergenceError; callers needing
// resilience should catch it and supply an explicit volatility instead.
func (s Solver) ImpliedVolatility(underlying, strike, days, mark float64, kind models.OptionKind) (float64, models.PricingResult, error) {
	if mark < 0 {
		return 0, models.PricingResult{}, errors.NewLegError(kind.String(), strike, "mark must be non-negative")
	}

	vol := s.InitialGuess
	if vol <= 0 {
		vol = DefaultInitialGuess
	}
	for i := 0; i < s.MaxIterations; i++ {
		res, err := s.Model.Price(underlying, strike, days, vol, kind)
		if err != nil {
			return 0, models.PricingResult{}, err
		}
		if res.Vega < vegaFloor {
			return 0, models.PricingResult{}, errors.NewConvergenceError(
				strike, mark, i, vol, "vega collapsed, update is ill-conditioned")
		}
		diff := res.Price - mark
		if diff < s.Tolerance && diff > -s.Tolerance {
			return vol, res, nil
		}
		vol -= diff / res.Vega
		// Floor rather than fail: negative volatility is non-physical but
		// an overshooting step can still recover from the floor.
		if vol < MinVolatility {
			vol = MinVolatility
		}
	}
	return 0, models.PricingResult{}, errors.NewConvergenceError(
		strike, mark, s.MaxIterations, vol, "iteration limit exceeded")
}
