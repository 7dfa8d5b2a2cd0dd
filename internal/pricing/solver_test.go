package pricing

import (
	stderrors "errors"
	"math"
	"testing"

	"option-sim/internal/errors"
	"option-sim/internal/models"
)

func TestImpliedVolatility_RecoversModelVol(t *testing.T) {
	m := NewModel(0.05, 365)
	s := NewSolver(m)

	cases := []struct {
		name                    string
		underlying, strike, vol float64
		days                    float64
		kind                    models.OptionKind
	}{
		{"atm call", 100, 100, 0.25, 30, models.Call},
		{"otm call", 100, 110, 0.40, 45, models.Call},
		{"itm put", 100, 110, 0.18, 60, models.Put},
		{"short dated", 250, 245, 0.30, 7, models.Put},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			priced, err := m.Price(tc.underlying, tc.strike, tc.days, tc.vol, tc.kind)
			if err != nil {
				t.Fatalf("Price failed: %v", err)
			}
			vol, res, err := s.ImpliedVolatility(tc.underlying, tc.strike, tc.days, priced.Price, tc.kind)
			if err != nil {
				t.Fatalf("ImpliedVolatility failed: %v", err)
			}
			if math.Abs(vol-tc.vol) > 1e-3 {
				t.Errorf("vol = %.6f, want %.6f", vol, tc.vol)
			}
			if math.Abs(res.Price-priced.Price) > DefaultTolerance {
				t.Errorf("repriced mark = %.6f, want %.6f", res.Price, priced.Price)
			}
		})
	}
}

func TestImpliedVolatility_VegaCollapseAtExpiry(t *testing.T) {
	s := NewSolver(NewModel(0.05, 365))
	_, _, err := s.ImpliedVolatility(100, 100, 0, 1.50, models.Call)
	if !stderrors.Is(err, errors.ErrNonConvergence) {
		t.Fatalf("err = %v, want ErrNonConvergence", err)
	}
	var convErr *errors.ConvergenceError
	if !stderrors.As(err, &convErr) {
		t.Fatalf("err = %T, want *errors.ConvergenceError", err)
	}
	if convErr.Strike != 100 || convErr.Mark != 1.50 {
		t.Errorf("error context = {strike %.2f, mark %.2f}, want {100, 1.50}", convErr.Strike, convErr.Mark)
	}
}

func TestImpliedVolatility_UnreachableMark(t *testing.T) {
	s := NewSolver(NewModel(0.05, 365))
	// A call can never be worth more than the underlying.
	_, _, err := s.ImpliedVolatility(100, 100, 30, 150, models.Call)
	if !stderrors.Is(err, errors.ErrNonConvergence) {
		t.Fatalf("err = %v, want ErrNonConvergence", err)
	}
}

func TestImpliedVolatility_NegativeMark(t *testing.T) {
	s := NewSolver(NewModel(0.05, 365))
	_, _, err := s.ImpliedVolatility(100, 100, 30, -0.5, models.Call)
	if !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
