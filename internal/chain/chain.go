// Package chain models option-chain quote snapshots and builds strategy
// leg specifications from them: single contracts by delta or symbol,
// straddles, strangles, vertical spreads and iron condors.
package chain

import (
	"fmt"
	"math"
	"sort"

	"option-sim/internal/errors"
	"option-sim/internal/models"
)

// Quote is one option contract quote in a chain snapshot.
type Quote struct {
	Symbol           string            `json:"symbol"`
	Underlying       string            `json:"underlying"`
	UnderlyingPrice  float64           `json:"underlying_price"`
	Kind             models.OptionKind `json:"kind"`
	Strike           float64           `json:"strike"`
	DaysToExpiration float64           `json:"days_to_expiration"`
	ExpirationDate   string            `json:"expiration_date,omitempty"`
	Bid              float64           `json:"bid"`
	Ask              float64           `json:"ask"`
	Mark             float64           `json:"mark"`
	Volatility       float64           `json:"volatility"`
	Delta            float64           `json:"delta"`
	OpenInterest     int64             `json:"open_interest"`
	Volume           int64             `json:"volume"`
}

// MidPrice returns the quoted mark, falling back to the bid/ask midpoint.
func (q Quote) MidPrice() float64 {
	if q.Mark > 0 {
		return q.Mark
	}
	return (q.Bid + q.Ask) / 2
}

// StrikePercent returns the strike's signed distance from the underlying
// as a fraction of the underlying price.
func (q Quote) StrikePercent() float64 {
	if q.UnderlyingPrice == 0 {
		return 0
	}
	return (q.Strike - q.UnderlyingPrice) / q.UnderlyingPrice
}

// Chain holds option chain quotes for one or more underlyings.
type Chain struct {
	quotes []Quote
}

// New creates a chain over the given quotes.
func New(quotes []Quote) *Chain {
	return &Chain{quotes: quotes}
}

// Len returns the number of quotes.
func (c *Chain) Len() int {
	return len(c.quotes)
}

// Quotes returns a copy of all quotes.
func (c *Chain) Quotes() []Quote {
	out := make([]Quote, len(c.quotes))
	copy(out, c.quotes)
	return out
}

// Underlyings returns the sorted unique underlying symbols.
func (c *Chain) Underlyings() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, q := range c.quotes {
		if _, ok := seen[q.Underlying]; !ok {
			seen[q.Underlying] = struct{}{}
			out = append(out, q.Underlying)
		}
	}
	sort.Strings(out)
	return out
}

// PurgeOptions filters out uninteresting contracts. Zero values use the
// documented defaults.
type PurgeOptions struct {
	MinOpenInterest    int64   // default 10
	DeltaMin           float64 // default 0.03
	DeltaMax           float64 // default 0.97
	MinUnderlyingPrice float64 // default 10
}

// Purge returns a new chain with illiquid and extreme-delta contracts
// removed.
func (c *Chain) Purge(opts PurgeOptions) *Chain {
	if opts.MinOpenInterest == 0 {
		opts.MinOpenInterest = 10
	}
	if opts.DeltaMin == 0 {
		opts.DeltaMin = 0.03
	}
	if opts.DeltaMax == 0 {
		opts.DeltaMax = 0.97
	}
	if opts.MinUnderlyingPrice == 0 {
		opts.MinUnderlyingPrice = 10
	}
	var kept []Quote
	for _, q := range c.quotes {
		if q.OpenInterest < opts.MinOpenInterest {
			continue
		}
		if q.UnderlyingPrice < opts.MinUnderlyingPrice {
			continue
		}
		d := math.Abs(q.Delta)
		if d < opts.DeltaMin || d > opts.DeltaMax {
			continue
		}
		kept = append(kept, q)
	}
	return New(kept)
}

// Underlying returns the symbol-scoped view of the chain.
func (c *Chain) Underlying(symbol string) (*SymbolChain, error) {
	var quotes []Quote
	for _, q := range c.quotes {
		if q.Underlying == symbol {
			quotes = append(quotes, q)
		}
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("underlying %s: %w", symbol, errors.ErrNotFound)
	}
	return &SymbolChain{underlying: symbol, quotes: quotes}, nil
}

// SymbolChain holds the chain quotes for a single underlying.
type SymbolChain struct {
	underlying string
	quotes     []Quote
}

// Underlying returns the underlying symbol.
func (s *SymbolChain) Underlying() string {
	return s.underlying
}

// UnderlyingPrice returns the quoted underlying price.
func (s *SymbolChain) UnderlyingPrice() float64 {
	if len(s.quotes) == 0 {
		return 0
	}
	return s.quotes[0].UnderlyingPrice
}

// ExpireDays returns the sorted unique days-to-expiration values.
func (s *SymbolChain) ExpireDays() []float64 {
	seen := make(map[float64]struct{})
	var out []float64
	for _, q := range s.quotes {
		if _, ok := seen[q.DaysToExpiration]; !ok {
			seen[q.DaysToExpiration] = struct{}{}
			out = append(out, q.DaysToExpiration)
		}
	}
	sort.Float64s(out)
	return out
}

// AtDTE returns the expiry-scoped chain at the given days to expiration.
// With exact unset, the closest available expiry is used.
func (s *SymbolChain) AtDTE(days float64, exact bool) (*ExpiryChain, error) {
	available := s.ExpireDays()
	if len(available) == 0 {
		return nil, fmt.Errorf("underlying %s has no expiries: %w", s.underlying, errors.ErrNotFound)
	}
	target := available[0]
	for _, d := range available {
		if math.Abs(d-days) < math.Abs(target-days) {
			target = d
		}
	}
	if exact && target != days {
		return nil, fmt.Errorf("underlying %s has no expiry at %.0f dte: %w", s.underlying, days, errors.ErrNotFound)
	}

	ec := &ExpiryChain{
		underlying:       s.underlying,
		underlyingPrice:  s.UnderlyingPrice(),
		daysToExpiration: target,
	}
	for _, q := range s.quotes {
		if q.DaysToExpiration != target {
			continue
		}
		if q.Kind == models.Call {
			ec.calls = append(ec.calls, q)
		} else if q.Kind == models.Put {
			ec.puts = append(ec.puts, q)
		}
	}
	sort.Slice(ec.calls, func(i, j int) bool { return ec.calls[i].Strike < ec.calls[j].Strike })
	sort.Slice(ec.puts, func(i, j int) bool { return ec.puts[i].Strike < ec.puts[j].Strike })
	return ec, nil
}

// ExpiryChain holds the quotes for one underlying at one expiry, with
// calls and puts ordered by strike.
type ExpiryChain struct {
	underlying       string
	underlyingPrice  float64
	daysToExpiration float64
	calls            []Quote
	puts             []Quote
}

// Underlying returns the underlying symbol.
func (e *ExpiryChain) Underlying() string { return e.underlying }

// UnderlyingPrice returns the quoted underlying price.
func (e *ExpiryChain) UnderlyingPrice() float64 { return e.underlyingPrice }

// DaysToExpiration returns the expiry's days to expiration.
func (e *ExpiryChain) DaysToExpiration() float64 { return e.daysToExpiration }

// Strikes returns the unique call strikes in ascending order.
func (e *ExpiryChain) Strikes() []float64 {
	var out []float64
	var last float64
	for i, q := range e.calls {
		if i == 0 || q.Strike != last {
			out = append(out, q.Strike)
			last = q.Strike
		}
	}
	return out
}

// ATMIV returns the average implied volatility of contracts whose strike
// is within 12% of the underlying price.
func (e *ExpiryChain) ATMIV() float64 {
	var sum float64
	var n int
	for _, q := range append(append([]Quote{}, e.calls...), e.puts...) {
		if math.Abs(q.StrikePercent()) < 0.12 {
			sum += q.Volatility
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// VolumeRatio returns the put/call volume skew in [-1, 1]: 0 is balanced,
// negative is put skewed, positive call skewed.
func (e *ExpiryChain) VolumeRatio() float64 {
	var tput, tcall float64
	for _, q := range e.puts {
		tput += float64(q.Volume)
	}
	for _, q := range e.calls {
		tcall += float64(q.Volume)
	}
	if tcall == 0 {
		return 1
	}
	if tput < tcall {
		return 1 - tput/tcall
	}
	return -(1 - tcall/tput)
}

// IVSkewRatio returns the put/call implied-volatility skew in [-1, 1]
// measured over the 10-40 delta wings: 0 is balanced, negative is put
// skewed, positive call skewed.
func (e *ExpiryChain) IVSkewRatio() float64 {
	var pv, cv float64
	var pn, cn int
	for _, q := range e.puts {
		if q.Delta > -0.4 && q.Delta < -0.1 {
			pv += q.Volatility
			pn++
		}
	}
	for _, q := range e.calls {
		if q.Delta > 0.1 && q.Delta < 0.4 {
			cv += q.Volatility
			cn++
		}
	}
	if pn == 0 || cn == 0 {
		return 0
	}
	pv /= float64(pn)
	cv /= float64(cn)
	if pv < cv {
		return 1 - pv/cv
	}
	return -(1 - cv/pv)
}
