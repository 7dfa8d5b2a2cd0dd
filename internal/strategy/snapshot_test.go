package strategy

import (
	stderrors "errors"
	"math"
	"testing"

	"option-sim/internal/errors"
	"option-sim/internal/models"
)

func shortStrangle(t *testing.T) *Strategy {
	t.Helper()
	s := mustStrategy(t, Config{UnderlyingPrice: 100, DaysToExpiration: 30, Volatility: 0.2})
	mustAddLeg(t, s, models.LegSpec{Kind: models.Call, Strike: 110, Quantity: -1})
	mustAddLeg(t, s, models.LegSpec{Kind: models.Put, Strike: 90, Quantity: -1})
	return s
}

func TestAddPnL_ExactlyOneSelector(t *testing.T) {
	cases := []struct {
		name string
		req  SnapshotRequest
	}{
		{"none", SnapshotRequest{}},
		{"partitions and days", SnapshotRequest{Partitions: 3, DaysForward: 5}},
		{"partitions and dte", SnapshotRequest{Partitions: 3, DTE: models.Ptr(10.0)}},
		{"all three", SnapshotRequest{Partitions: 3, DaysForward: 5, DTE: models.Ptr(10.0)}},
		{"single partition", SnapshotRequest{Partitions: 1}},
		{"negative days forward", SnapshotRequest{DaysForward: -2}},
		{"dte beyond horizon", SnapshotRequest{DTE: models.Ptr(45.0)}},
		{"negative dte", SnapshotRequest{DTE: models.Ptr(-1.0)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := shortStrangle(t)
			err := s.AddPnL(tc.req)
			if !stderrors.Is(err, errors.ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
			if len(s.Snapshots()) != 0 {
				t.Errorf("rejected request appended %d snapshots", len(s.Snapshots()))
			}
		})
	}
}

func TestAddPnL_Partitions(t *testing.T) {
	s := shortStrangle(t)
	if err := s.AddPnL(SnapshotRequest{Partitions: 5}); err != nil {
		t.Fatalf("AddPnL failed: %v", err)
	}
	snapshots := s.Snapshots()
	want := []float64{0, 6, 12, 18, 24}
	if len(snapshots) != len(want) {
		t.Fatalf("snapshot count = %d, want %d", len(snapshots), len(want))
	}
	for i, snap := range snapshots {
		if math.Abs(snap.DaysToExpiration-want[i]) > 1e-9 {
			t.Errorf("snapshot[%d] dte = %.2f, want %.2f", i, snap.DaysToExpiration, want[i])
		}
	}
}

func TestAddPnL_DaysForward(t *testing.T) {
	s := shortStrangle(t)
	if err := s.AddPnL(SnapshotRequest{DaysForward: 10}); err != nil {
		t.Fatalf("AddPnL failed: %v", err)
	}
	snapshots := s.Snapshots()
	if len(snapshots) != 1 {
		t.Fatalf("snapshot count = %d, want 1", len(snapshots))
	}
	if snapshots[0].DaysToExpiration != 20 {
		t.Errorf("dte = %.2f, want 20", snapshots[0].DaysToExpiration)
	}

	// Past the horizon clamps to expiration.
	if err := s.AddPnL(SnapshotRequest{DaysForward: 45}); err != nil {
		t.Fatalf("AddPnL failed: %v", err)
	}
	snapshots = s.Snapshots()
	if snapshots[1].DaysToExpiration != 0 {
		t.Errorf("clamped dte = %.2f, want 0", snapshots[1].DaysToExpiration)
	}
}

func TestAddPnL_ExplicitDTE(t *testing.T) {
	s := shortStrangle(t)
	if err := s.AddPnL(SnapshotRequest{DTE: models.Ptr(15.0)}); err != nil {
		t.Fatalf("AddPnL failed: %v", err)
	}
	snapshots := s.Snapshots()
	if len(snapshots) != 1 || snapshots[0].DaysToExpiration != 15 {
		t.Fatalf("snapshots = %+v, want one at dte 15", snapshots)
	}
}

func TestAddPnL_Accumulates(t *testing.T) {
	s := shortStrangle(t)
	if err := s.AddPnL(SnapshotRequest{Partitions: 3}); err != nil {
		t.Fatalf("AddPnL failed: %v", err)
	}
	if err := s.AddPnL(SnapshotRequest{DaysForward: 10}); err != nil {
		t.Fatalf("AddPnL failed: %v", err)
	}
	if err := s.AddPnL(SnapshotRequest{DTE: models.Ptr(15.0)}); err != nil {
		t.Fatalf("AddPnL failed: %v", err)
	}
	if got := len(s.Snapshots()); got != 5 {
		t.Errorf("snapshot count = %d, want 5", got)
	}
}

func TestSnapshot_ShortStrangleProfile(t *testing.T) {
	s := shortStrangle(t)
	if err := s.AddPnL(SnapshotRequest{DTE: models.Ptr(0.0)}); err != nil {
		t.Fatalf("AddPnL failed: %v", err)
	}
	snap := s.Snapshots()[0]

	// A short strangle pins its maximum profit between the strikes, so the
	// center of the grid is profitable and the POP is comfortably high.
	if snap.ProbabilityOfProfit < 0.5 || snap.ProbabilityOfProfit > 1 {
		t.Errorf("POP = %.4f, want in [0.5, 1]", snap.ProbabilityOfProfit)
	}
	if snap.StdDev <= 0 {
		t.Errorf("stddev = %.4f, want positive", snap.StdDev)
	}

	prices, pnl, err := s.PayoffCurve(0)
	if err != nil {
		t.Fatalf("PayoffCurve failed: %v", err)
	}
	if len(prices) != len(pnl) || len(prices) != s.Config().NumSimulations {
		t.Fatalf("curve shape = %d/%d, want %d", len(prices), len(pnl), s.Config().NumSimulations)
	}
	// Maximum profit at expiration is the credit received, attained
	// between the strikes.
	credit := -s.Cost()
	mid := len(pnl) / 2
	if math.Abs(pnl[mid]-credit) > 1e-6 {
		t.Errorf("center pnl = %.4f, want full credit %.4f", pnl[mid], credit)
	}
	// Both tails lose.
	if pnl[0] >= 0 || pnl[len(pnl)-1] >= 0 {
		t.Errorf("tail pnl = %.2f / %.2f, want both negative", pnl[0], pnl[len(pnl)-1])
	}
}

func TestSnapshot_WeightedSeriesConsistency(t *testing.T) {
	s := shortStrangle(t)
	if err := s.AddPnL(SnapshotRequest{DTE: models.Ptr(10.0)}); err != nil {
		t.Fatalf("AddPnL failed: %v", err)
	}
	view := s.Snapshots()[0]
	if view.ExpectedProfit == 0 {
		t.Error("expected profit should not be exactly zero for a skewed profile")
	}
	if view.ProbabilityOfProfit < 0 || view.ProbabilityOfProfit > 1 {
		t.Errorf("POP = %.4f outside [0, 1]", view.ProbabilityOfProfit)
	}
}

func TestSnapshot_FullyHedgedPair(t *testing.T) {
	// Long and short the identical contract: every sensitivity cancels and
	// the position can only ever lose the net premium paid.
	s := mustStrategy(t, Config{UnderlyingPrice: 100, DaysToExpiration: 30})
	mustAddLeg(t, s, models.LegSpec{
		Kind: models.Call, Strike: 100, Quantity: 1,
		Mark: models.Ptr(2.10), Volatility: models.Ptr(0.20),
	})
	mustAddLeg(t, s, models.LegSpec{
		Kind: models.Call, Strike: 100, Quantity: -1,
		Mark: models.Ptr(1.90), Volatility: models.Ptr(0.20),
	})

	if got := s.Delta(); math.Abs(got) > 1e-12 {
		t.Errorf("hedged delta = %g, want 0", got)
	}
	if got := s.Theta(); math.Abs(got) > 1e-12 {
		t.Errorf("hedged theta = %g, want 0", got)
	}
	if got := s.Vega(); math.Abs(got) > 1e-12 {
		t.Errorf("hedged vega = %g, want 0", got)
	}
	if got := s.Gamma(); math.Abs(got) > 1e-12 {
		t.Errorf("hedged gamma = %g, want 0", got)
	}

	cost := s.Cost()
	if math.Abs(cost-20) > 1e-9 {
		t.Fatalf("cost = %.4f, want 20.00", cost)
	}

	summary, err := s.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if math.Abs(summary.ExpectedProfit-(-cost)) > 1e-9 {
		t.Errorf("expected profit = %.6f, want -cost %.6f", summary.ExpectedProfit, -cost)
	}
	if summary.POP != 0 {
		t.Errorf("POP = %.4f, want 0 for a pure premium loss", summary.POP)
	}

	// The expiration payoff is flat at the net debit across the whole grid.
	_, pnl, err := s.PayoffCurve(0)
	if err != nil {
		t.Fatalf("PayoffCurve failed: %v", err)
	}
	for i, v := range pnl {
		if math.Abs(v-(-cost)) > 1e-9 {
			t.Fatalf("pnl[%d] = %.6f, want %.6f everywhere", i, v, -cost)
		}
	}
}

func TestSnapshot_HedgedStock(t *testing.T) {
	// Covered call: long stock, short call.
	s := mustStrategy(t, Config{UnderlyingPrice: 100, DaysToExpiration: 30, Volatility: 0.2})
	mustAddLeg(t, s, models.LegSpec{Kind: models.Stock, Quantity: 100})
	mustAddLeg(t, s, models.LegSpec{Kind: models.Call, Strike: 105, Quantity: -1})

	prices, pnl, err := s.PayoffCurve(0)
	if err != nil {
		t.Fatalf("PayoffCurve failed: %v", err)
	}
	// Above the strike the payoff is capped: strike gain plus premium.
	credit := -s.Cost() // negative: the stock leg dominates
	maxProfit := (105-100)*100 + (10000 + credit)
	last := pnl[len(prices)-1]
	if math.Abs(last-maxProfit) > 1e-6 {
		t.Errorf("capped pnl = %.4f, want %.4f", last, maxProfit)
	}
	// Far below the strike the stock loss dominates.
	if pnl[0] >= 0 {
		t.Errorf("downside pnl = %.2f, want negative", pnl[0])
	}
}

func TestSnapshot_MonteCarloNotImplemented(t *testing.T) {
	s := mustStrategy(t, Config{UnderlyingPrice: 100, DaysToExpiration: 30, MonteCarlo: true})
	mustAddLeg(t, s, models.LegSpec{Kind: models.Call, Strike: 105, Quantity: 1})

	if err := s.AddPnL(SnapshotRequest{Partitions: 3}); !stderrors.Is(err, errors.ErrNotImplemented) {
		t.Errorf("AddPnL err = %v, want ErrNotImplemented", err)
	}
	if _, err := s.Summary(); !stderrors.Is(err, errors.ErrNotImplemented) {
		t.Errorf("Summary err = %v, want ErrNotImplemented", err)
	}
}
