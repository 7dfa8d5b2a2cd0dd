package strategy

import (
	"fmt"
	"math"

	"option-sim/internal/errors"
	"option-sim/internal/models"
	"option-sim/internal/pricing"
)

// minHorizonDays keeps the sampling stddev strictly positive when a
// snapshot lands on the strategy's full remaining time.
const minHorizonDays = 0.5

// PnLSnapshot is an immutable record of the strategy's projected P&L at
// one future point in time, identified by the days to expiration remaining
// at that point.
type PnLSnapshot struct {
	daysToExpiration float64
	stddev           float64
	expectedProfit   float64
	pop              float64

	prices   []float64
	pnl      []float64
	weighted []float64
}

// DaysToExpiration returns the snapshot's days-to-expiration target.
func (p *PnLSnapshot) DaysToExpiration() float64 { return p.daysToExpiration }

// StdDev returns the one-standard-deviation price move at the snapshot time.
func (p *PnLSnapshot) StdDev() float64 { return p.stddev }

// ExpectedProfit returns the probability-weighted expected profit.
func (p *PnLSnapshot) ExpectedProfit() float64 { return p.expectedProfit }

// ProbabilityOfProfit returns the probability mass where net P&L is positive.
func (p *PnLSnapshot) ProbabilityOfProfit() float64 { return p.pop }

// PriceGrid returns a copy of the sampled underlying prices.
func (p *PnLSnapshot) PriceGrid() []float64 { return copyFloats(p.prices) }

// PnLValues returns a copy of the net P&L at each grid price.
func (p *PnLSnapshot) PnLValues() []float64 { return copyFloats(p.pnl) }

// WeightedPnLValues returns a copy of the probability-weighted P&L series.
func (p *PnLSnapshot) WeightedPnLValues() []float64 { return copyFloats(p.weighted) }

// View returns the read-only projection of the snapshot.
func (p *PnLSnapshot) View() models.SnapshotView {
	return models.SnapshotView{
		DaysToExpiration:    p.daysToExpiration,
		StdDev:              p.stddev,
		ExpectedProfit:      p.expectedProfit,
		ProbabilityOfProfit: p.pop,
	}
}

func copyFloats(src []float64) []float64 {
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

// SnapshotRequest selects the snapshot times for AddPnL. Exactly one of
// the three fields must be set:
//   - Partitions = N produces N snapshots at defaultDTE*i/N for i = 0..N-1,
//     ascending from expiration toward (but excluding) the present;
//   - DaysForward = d produces one snapshot at max(0, defaultDTE-d);
//   - DTE produces one snapshot at the given days to expiration.
type SnapshotRequest struct {
	Partitions  int
	DaysForward float64
	DTE         *float64
}

// AddPnL computes snapshots per the request and appends them to the
// strategy's snapshot sequence. Prior snapshots are never cleared.
func (s *Strategy) AddPnL(req SnapshotRequest) error {
	set := 0
	if req.Partitions != 0 {
		set++
	}
	if req.DaysForward != 0 {
		set++
	}
	if req.DTE != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("exactly one of partitions, days forward, or dte must be set, got %d: %w", set, errors.ErrInvalidArgument)
	}

	defaultDTE := s.DaysToExpiration()
	var targets []float64
	switch {
	case req.Partitions != 0:
		if req.Partitions < 2 {
			return fmt.Errorf("partitions %d must be greater than 1: %w", req.Partitions, errors.ErrInvalidArgument)
		}
		for i := 0; i < req.Partitions; i++ {
			targets = append(targets, defaultDTE*float64(i)/float64(req.Partitions))
		}
	case req.DaysForward != 0:
		if req.DaysForward < 0 {
			return fmt.Errorf("days forward %.2f must be positive: %w", req.DaysForward, errors.ErrInvalidArgument)
		}
		targets = append(targets, math.Max(0, defaultDTE-req.DaysForward))
	default:
		if *req.DTE < 0 || *req.DTE > defaultDTE {
			return fmt.Errorf("dte %.2f outside [0, %.2f]: %w", *req.DTE, defaultDTE, errors.ErrInvalidArgument)
		}
		targets = append(targets, *req.DTE)
	}

	computed := make([]PnLSnapshot, 0, len(targets))
	for _, dte := range targets {
		snap, err := s.computeSnapshot(dte)
		if err != nil {
			return err
		}
		computed = append(computed, snap)
	}
	s.snapshots = append(s.snapshots, computed...)
	s.logger.Debug().Int("count", len(computed)).Float64("default_dte", defaultDTE).Msg("pnl snapshots added")
	return nil
}

// Snapshots returns read-only views of the snapshots in request order.
func (s *Strategy) Snapshots() []models.SnapshotView {
	views := make([]models.SnapshotView, len(s.snapshots))
	for i := range s.snapshots {
		views[i] = s.snapshots[i].View()
	}
	return views
}

// PayoffCurve returns the ordered price grid and the strategy's net P&L at
// each grid price for the given days to expiration. Charting collaborators
// consume this instead of recomputing pricing logic.
func (s *Strategy) PayoffCurve(dte float64) (prices, pnl []float64, err error) {
	snap, err := s.computeSnapshot(dte)
	if err != nil {
		return nil, nil, err
	}
	return snap.PriceGrid(), snap.PnLValues(), nil
}

// computeSnapshot builds the P&L profile at the given days to expiration:
// sample a price grid at the horizon, reprice every leg at each grid price,
// net out the entry cost, and weight by the renormalized lognormal density.
func (s *Strategy) computeSnapshot(dte float64) (PnLSnapshot, error) {
	if s.cfg.MonteCarlo {
		// Deliberately loud: silently substituting the deterministic grid
		// would mislabel the results.
		return PnLSnapshot{}, fmt.Errorf("monte carlo expected value sampling: %w", errors.ErrNotImplemented)
	}

	horizon := math.Max(s.DaysToExpiration()-dte, minHorizonDays)
	stddev := s.prob.ExpectedMove(s.cfg.UnderlyingPrice, s.Volatility(), horizon)
	prices := pricing.PriceGrid(s.cfg.UnderlyingPrice, stddev, s.cfg.StdDevRange, s.cfg.NumSimulations)
	weights := pricing.GridWeights(prices, s.cfg.UnderlyingPrice, stddev)

	cost := s.Cost()
	snap := PnLSnapshot{
		daysToExpiration: dte,
		stddev:           stddev,
		prices:           prices,
		pnl:              make([]float64, len(prices)),
		weighted:         make([]float64, len(prices)),
	}
	for i, price := range prices {
		var value float64
		for j := range s.legs {
			leg := &s.legs[j]
			v, err := leg.valueAt(s.model, price, dte)
			if err != nil {
				return PnLSnapshot{}, err
			}
			value += v * float64(leg.Quantity) * leg.Kind.Multiplier()
		}
		net := value - cost
		snap.pnl[i] = net
		snap.weighted[i] = net * weights[i]
		snap.expectedProfit += net * weights[i]
		if net > 0 {
			snap.pop += weights[i]
		}
	}
	return snap, nil
}
