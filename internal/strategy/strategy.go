// Package strategy models multi-leg option strategies: leg resolution,
// composite Greeks and cost, probability-weighted P&L snapshots, and
// margin estimates.
package strategy

import (
	"fmt"

	"github.com/rs/zerolog"

	"option-sim/internal/errors"
	"option-sim/internal/margin"
	"option-sim/internal/models"
	"option-sim/internal/pricing"
)

// Strategy-level defaults. DefaultVolatility applies only when neither the
// configuration nor any option leg supplies one.
const (
	DefaultVolatility  = 0.22
	DefaultStdDevRange = 3.0
	DefaultSimulations = 1000
)

// Config holds the construction options for a Strategy. All recognized
// options are enumerated here; zero values fall back to the documented
// defaults.
type Config struct {
	UnderlyingPrice   float64 // required
	Symbol            string
	Title             string
	DaysToExpiration  float64 // 0 = derive from legs
	Volatility        float64 // 0 = derive from legs
	StdDevRange       float64 // default 3.0
	NumSimulations    int     // default 1000
	MonteCarlo        bool    // reserved; the sampling path is unimplemented
	RiskFreeRate      float64 // default 0.05
	YearDays          float64 // default 365
	DefaultVolatility float64 // fallback when no leg supplies one; default 0.22
}

// Strategy owns an ordered, append-only collection of legs and the P&L
// snapshots computed from them. It is not safe for concurrent mutation;
// callers needing concurrent analysis should construct independent
// instances.
type Strategy struct {
	cfg    Config
	model  pricing.Model
	solver pricing.Solver
	prob   pricing.ProbabilityEngine
	logger zerolog.Logger

	legs      []Leg
	snapshots []PnLSnapshot
}

// New creates a strategy from the configuration.
func New(cfg Config) (*Strategy, error) {
	if cfg.UnderlyingPrice <= 0 {
		return nil, fmt.Errorf("underlying price %.4f must be positive: %w", cfg.UnderlyingPrice, errors.ErrInvalidInput)
	}
	if cfg.DaysToExpiration < 0 {
		return nil, fmt.Errorf("days to expiration %.2f must be non-negative: %w", cfg.DaysToExpiration, errors.ErrInvalidInput)
	}
	if cfg.Volatility < 0 {
		return nil, fmt.Errorf("volatility %.4f must be non-negative: %w", cfg.Volatility, errors.ErrInvalidInput)
	}
	if cfg.StdDevRange == 0 {
		cfg.StdDevRange = DefaultStdDevRange
	}
	if cfg.StdDevRange < 0 {
		return nil, fmt.Errorf("stddev range %.2f must be positive: %w", cfg.StdDevRange, errors.ErrInvalidInput)
	}
	if cfg.NumSimulations == 0 {
		cfg.NumSimulations = DefaultSimulations
	}
	if cfg.NumSimulations < 2 {
		return nil, fmt.Errorf("simulation point count %d must be at least 2: %w", cfg.NumSimulations, errors.ErrInvalidInput)
	}
	if cfg.RiskFreeRate == 0 {
		cfg.RiskFreeRate = pricing.DefaultRiskFreeRate
	}
	if cfg.YearDays == 0 {
		cfg.YearDays = pricing.DefaultYearDays
	}
	if cfg.DefaultVolatility == 0 {
		cfg.DefaultVolatility = DefaultVolatility
	}
	if cfg.DefaultVolatility < 0 {
		return nil, fmt.Errorf("default volatility %.4f must be positive: %w", cfg.DefaultVolatility, errors.ErrInvalidInput)
	}
	if cfg.Title == "" {
		cfg.Title = "Option Strategy"
	}
	if cfg.Symbol == "" {
		cfg.Symbol = "XYZ"
	}

	model := pricing.NewModel(cfg.RiskFreeRate, cfg.YearDays)
	return &Strategy{
		cfg:    cfg,
		model:  model,
		solver: pricing.NewSolver(model),
		prob:   pricing.NewProbabilityEngine(model),
		logger: zerolog.Nop(),
	}, nil
}

// WithLogger attaches a logger for resolution and snapshot diagnostics.
func (s *Strategy) WithLogger(logger zerolog.Logger) *Strategy {
	s.logger = logger
	return s
}

// Config returns a copy of the resolved configuration.
func (s *Strategy) Config() Config {
	return s.cfg
}

// AddLeg validates, resolves and appends one leg.
func (s *Strategy) AddLeg(spec models.LegSpec) error {
	leg, err := s.resolveLeg(spec)
	if err != nil {
		return err
	}
	s.legs = append(s.legs, leg)
	s.logger.Debug().
		Str("kind", leg.Kind.String()).
		Float64("strike", leg.Strike).
		Int("quantity", leg.Quantity).
		Float64("mark", leg.Mark).
		Float64("volatility", leg.Volatility).
		Msg("leg added")
	return nil
}

// AddLegs appends a sequence of legs, stopping at the first failure.
func (s *Strategy) AddLegs(specs []models.LegSpec) error {
	for i, spec := range specs {
		if err := s.AddLeg(spec); err != nil {
			return fmt.Errorf("leg %d: %w", i, err)
		}
	}
	return nil
}

// resolveLeg applies the input reconciliation policy:
//  1. mark and volatility given: both kept as supplied, Greeks from the
//     given volatility (the pair may be theoretically inconsistent; it is
//     never silently re-derived);
//  2. mark only: volatility and Greeks recovered via the solver;
//  3. volatility only: mark and Greeks from the model;
//  4. neither: the strategy default volatility, then as (3).
//
// Stock legs skip pricing entirely: mark = underlying price, delta =
// quantity, remaining Greeks zero.
func (s *Strategy) resolveLeg(spec models.LegSpec) (Leg, error) {
	if !spec.Kind.Valid() {
		return Leg{}, errors.NewLegError(spec.Kind.String(), spec.Strike, "invalid leg kind")
	}
	if spec.Quantity == 0 {
		return Leg{}, errors.NewLegError(spec.Kind.String(), spec.Strike, "quantity must be non-zero")
	}
	if spec.Kind.IsOption() && spec.Strike <= 0 {
		return Leg{}, errors.NewLegError(spec.Kind.String(), spec.Strike, "strike must be positive")
	}
	if spec.Volatility != nil && *spec.Volatility <= 0 {
		return Leg{}, errors.NewLegError(spec.Kind.String(), spec.Strike, "volatility must be positive")
	}
	if spec.Mark != nil && *spec.Mark < 0 {
		return Leg{}, errors.NewLegError(spec.Kind.String(), spec.Strike, "mark must be non-negative")
	}
	if spec.DaysToExpiration != nil && *spec.DaysToExpiration < 0 {
		return Leg{}, errors.NewLegError(spec.Kind.String(), spec.Strike, "days to expiration must be non-negative")
	}

	leg := Leg{
		Kind:     spec.Kind,
		Strike:   spec.Strike,
		Quantity: spec.Quantity,
		Symbol:   spec.Symbol,
	}

	if spec.Kind == models.Stock {
		leg.Mark = s.cfg.UnderlyingPrice
		if spec.Mark != nil {
			leg.Mark = *spec.Mark
		}
		leg.Greeks.Delta = float64(spec.Quantity)
		return leg, nil
	}

	leg.DaysToExpiration = s.DaysToExpiration()
	if spec.DaysToExpiration != nil {
		leg.DaysToExpiration = *spec.DaysToExpiration
	}

	S := s.cfg.UnderlyingPrice
	switch {
	case spec.Mark != nil && spec.Volatility != nil:
		leg.Mark = *spec.Mark
		leg.Volatility = *spec.Volatility
		res, err := s.model.Price(S, spec.Strike, leg.DaysToExpiration, leg.Volatility, spec.Kind)
		if err != nil {
			return Leg{}, err
		}
		leg.Greeks = res.Greeks
	case spec.Mark != nil:
		vol, res, err := s.solver.ImpliedVolatility(S, spec.Strike, leg.DaysToExpiration, *spec.Mark, spec.Kind)
		if err != nil {
			return Leg{}, err
		}
		leg.Mark = *spec.Mark
		leg.Volatility = vol
		leg.Greeks = res.Greeks
	default:
		vol := s.Volatility()
		if spec.Volatility != nil {
			vol = *spec.Volatility
		}
		res, err := s.model.Price(S, spec.Strike, leg.DaysToExpiration, vol, spec.Kind)
		if err != nil {
			return Leg{}, err
		}
		leg.Mark = res.Price
		leg.Volatility = vol
		leg.Greeks = res.Greeks
	}

	if spec.Delta != nil {
		leg.Greeks.Delta = *spec.Delta
	}
	return leg, nil
}

// Legs returns read-only views of the legs in insertion order.
func (s *Strategy) Legs() []models.LegView {
	views := make([]models.LegView, len(s.legs))
	for i := range s.legs {
		views[i] = s.legs[i].View()
	}
	return views
}

// optionLegs returns the option legs, excluding stock.
func (s *Strategy) optionLegs() []*Leg {
	var out []*Leg
	for i := range s.legs {
		if s.legs[i].Kind.IsOption() {
			out = append(out, &s.legs[i])
		}
	}
	return out
}

// Cost returns the signed total entry cost: mark x quantity x contract
// multiplier summed over all legs. Positive is a debit.
func (s *Strategy) Cost() float64 {
	var total float64
	for i := range s.legs {
		leg := &s.legs[i]
		total += leg.Mark * float64(leg.Quantity) * leg.Kind.Multiplier()
	}
	return total
}

// Delta returns the composite delta. Option legs contribute per-contract
// delta scaled by quantity; stock legs already carry their full share
// exposure in the leg delta.
func (s *Strategy) Delta() float64 {
	var total float64
	for i := range s.legs {
		leg := &s.legs[i]
		if leg.Kind == models.Stock {
			total += leg.Greeks.Delta
		} else {
			total += leg.Greeks.Delta * float64(leg.Quantity)
		}
	}
	return total
}

// Theta returns the composite one-day decay across option legs.
func (s *Strategy) Theta() float64 {
	var total float64
	for _, leg := range s.optionLegs() {
		total += leg.Greeks.Theta * float64(leg.Quantity)
	}
	return total
}

// Vega returns the composite vega across option legs.
func (s *Strategy) Vega() float64 {
	var total float64
	for _, leg := range s.optionLegs() {
		total += leg.Greeks.Vega * float64(leg.Quantity)
	}
	return total
}

// Gamma returns the composite gamma across option legs.
func (s *Strategy) Gamma() float64 {
	var total float64
	for _, leg := range s.optionLegs() {
		total += leg.Greeks.Gamma * float64(leg.Quantity)
	}
	return total
}

// Volatility returns the configured volatility override when set, else the
// quantity-weighted average of the option legs' volatilities, else the
// global default.
func (s *Strategy) Volatility() float64 {
	if s.cfg.Volatility > 0 {
		return s.cfg.Volatility
	}
	var weighted, weight float64
	for _, leg := range s.optionLegs() {
		q := float64(leg.Quantity)
		if q < 0 {
			q = -q
		}
		weighted += leg.Volatility * q
		weight += q
	}
	if weight == 0 {
		return s.cfg.DefaultVolatility
	}
	return weighted / weight
}

// DaysToExpiration returns the configured default when set, else the
// average of the option legs' days to expiration, recomputed on demand.
// A strategy with no option legs defaults to a one-day horizon.
func (s *Strategy) DaysToExpiration() float64 {
	if s.cfg.DaysToExpiration > 0 {
		return s.cfg.DaysToExpiration
	}
	legs := s.optionLegs()
	if len(legs) == 0 {
		return 1
	}
	var total float64
	for _, leg := range legs {
		total += leg.DaysToExpiration
	}
	return total / float64(len(legs))
}

// ExpectedMove returns one standard deviation of the underlying over the
// strategy's default horizon.
func (s *Strategy) ExpectedMove() float64 {
	return s.prob.ExpectedMove(s.cfg.UnderlyingPrice, s.Volatility(), s.DaysToExpiration())
}

// Summary computes the strategy-level aggregate view. Probability of
// profit and expected profit are evaluated at expiration over the default
// horizon.
func (s *Strategy) Summary() (models.StrategySummary, error) {
	snap, err := s.computeSnapshot(0)
	if err != nil {
		return models.StrategySummary{}, err
	}
	return models.StrategySummary{
		UnderlyingPrice:  s.cfg.UnderlyingPrice,
		Symbol:           s.cfg.Symbol,
		Title:            s.cfg.Title,
		DaysToExpiration: s.DaysToExpiration(),
		Volatility:       s.Volatility(),
		ExpectedMove:     s.ExpectedMove(),
		POP:              snap.ProbabilityOfProfit(),
		ExpectedProfit:   snap.ExpectedProfit(),
		Cost:             s.Cost(),
		Delta:            s.Delta(),
		Theta:            s.Theta(),
		Vega:             s.Vega(),
		StdDevRange:      s.cfg.StdDevRange,
	}, nil
}

// Margin estimates the cash and margin requirements for the current legs.
func (s *Strategy) Margin() (margin.Requirement, error) {
	est := margin.NewEstimator(s.cfg.UnderlyingPrice, s.cfg.Symbol)
	return est.Estimate(s.Legs())
}
