package chain

import (
	"fmt"
	"math"

	"option-sim/internal/errors"
	"option-sim/internal/models"
)

// legSpec converts a quote plus a signed quantity into a strategy leg
// specification. Only the mark travels with the spec; the strategy's
// solver recovers volatility and Greeks from it.
func legSpec(q Quote, quantity int) models.LegSpec {
	return models.LegSpec{
		Kind:             q.Kind,
		Strike:           q.Strike,
		Quantity:         quantity,
		Mark:             models.Ptr(q.MidPrice()),
		DaysToExpiration: models.Ptr(q.DaysToExpiration),
		Symbol:           q.Symbol,
	}
}

// side returns the quotes for the given option kind.
func (e *ExpiryChain) side(kind models.OptionKind) []Quote {
	if kind == models.Call {
		return e.calls
	}
	return e.puts
}

// normalizeDelta flips the sign so the target matches the kind's
// convention: calls positive, puts negative.
func normalizeDelta(kind models.OptionKind, delta float64) float64 {
	if kind == models.Call && delta < 0 {
		return -delta
	}
	if kind == models.Put && delta > 0 {
		return -delta
	}
	return delta
}

// closest returns the quote minimizing |key(q) - target|.
func closest(quotes []Quote, target float64, key func(Quote) float64) (Quote, error) {
	if len(quotes) == 0 {
		return Quote{}, fmt.Errorf("no quotes on this side of the chain: %w", errors.ErrNotFound)
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		if math.Abs(key(q)-target) < math.Abs(key(best)-target) {
			best = q
		}
	}
	return best, nil
}

// nextOTM returns the first quote strictly further out of the money than
// the given strike.
func (e *ExpiryChain) nextOTM(kind models.OptionKind, strike float64) (Quote, error) {
	var best *Quote
	for _, q := range e.side(kind) {
		q := q
		if kind == models.Call && q.Strike > strike {
			if best == nil || q.Strike < best.Strike {
				best = &q
			}
		}
		if kind == models.Put && q.Strike < strike {
			if best == nil || q.Strike > best.Strike {
				best = &q
			}
		}
	}
	if best == nil {
		return Quote{}, fmt.Errorf("no strike beyond %.2f for %s: %w", strike, kind, errors.ErrNotFound)
	}
	return *best, nil
}

// ContractBySymbol builds one leg from the contract with the given symbol.
func (e *ExpiryChain) ContractBySymbol(quantity int, symbol string) (models.LegSpec, error) {
	for _, q := range append(append([]Quote{}, e.calls...), e.puts...) {
		if q.Symbol == symbol {
			return legSpec(q, quantity), nil
		}
	}
	return models.LegSpec{}, fmt.Errorf("contract %s: %w", symbol, errors.ErrNotFound)
}

// ContractByDelta builds one leg from the contract closest to the target
// delta.
func (e *ExpiryChain) ContractByDelta(quantity int, kind models.OptionKind, delta float64) (models.LegSpec, error) {
	q, err := closest(e.side(kind), normalizeDelta(kind, delta), func(q Quote) float64 { return q.Delta })
	if err != nil {
		return models.LegSpec{}, err
	}
	return legSpec(q, quantity), nil
}

// ContractByStrike builds one leg from the contract closest to the strike.
func (e *ExpiryChain) ContractByStrike(quantity int, kind models.OptionKind, strike float64) (models.LegSpec, error) {
	q, err := closest(e.side(kind), strike, func(q Quote) float64 { return q.Strike })
	if err != nil {
		return models.LegSpec{}, err
	}
	return legSpec(q, quantity), nil
}

// Straddle returns a call and put at the strike closest to the target.
func (e *ExpiryChain) Straddle(quantity int, strike float64) ([]models.LegSpec, error) {
	call, err := e.ContractByStrike(quantity, models.Call, strike)
	if err != nil {
		return nil, err
	}
	put, err := e.ContractByStrike(quantity, models.Put, strike)
	if err != nil {
		return nil, err
	}
	return []models.LegSpec{call, put}, nil
}

// Strangle returns a call and put at the given absolute delta on each wing.
func (e *ExpiryChain) Strangle(quantity int, delta float64) ([]models.LegSpec, error) {
	call, err := e.ContractByDelta(quantity, models.Call, delta)
	if err != nil {
		return nil, err
	}
	put, err := e.ContractByDelta(quantity, models.Put, -delta)
	if err != nil {
		return nil, err
	}
	return []models.LegSpec{call, put}, nil
}

// VerticalSpread returns an inner leg at the target delta and an outer leg
// width strikes further out of the money with opposite quantity.
func (e *ExpiryChain) VerticalSpread(quantity int, kind models.OptionKind, delta, width float64) ([]models.LegSpec, error) {
	inner, err := closest(e.side(kind), normalizeDelta(kind, delta), func(q Quote) float64 { return q.Delta })
	if err != nil {
		return nil, err
	}
	direction := 1.0
	if kind == models.Put {
		direction = -1
	}
	outer, err := closest(e.side(kind), inner.Strike+direction*width, func(q Quote) float64 { return q.Strike })
	if err != nil {
		return nil, err
	}
	if outer.Strike == inner.Strike {
		// Width landed back on the inner strike; step one strike out.
		outer, err = e.nextOTM(kind, inner.Strike)
		if err != nil {
			return nil, err
		}
	}
	return []models.LegSpec{legSpec(inner, quantity), legSpec(outer, -quantity)}, nil
}

// IronCondor returns short call and put wings at the given absolute delta
// with long protection width strikes further out. A positive quantity
// means a short condor (credit).
func (e *ExpiryChain) IronCondor(quantity int, delta, width float64) ([]models.LegSpec, error) {
	callSide, err := e.VerticalSpread(-quantity, models.Call, delta, width)
	if err != nil {
		return nil, err
	}
	putSide, err := e.VerticalSpread(-quantity, models.Put, -delta, width)
	if err != nil {
		return nil, err
	}
	return append(callSide, putSide...), nil
}
