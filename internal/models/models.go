// Package models defines the shared domain types for option strategy analytics.
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// OptionKind identifies the instrument type of a strategy leg.
type OptionKind int

const (
	Call OptionKind = iota
	Put
	Stock
)

// ParseOptionKind parses a kind code ("C", "P", "S", or the long form).
func ParseOptionKind(s string) (OptionKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "C", "CALL":
		return Call, nil
	case "P", "PUT":
		return Put, nil
	case "S", "STOCK":
		return Stock, nil
	default:
		return 0, fmt.Errorf("invalid option kind %q", s)
	}
}

func (k OptionKind) String() string {
	switch k {
	case Call:
		return "C"
	case Put:
		return "P"
	case Stock:
		return "S"
	default:
		return fmt.Sprintf("OptionKind(%d)", int(k))
	}
}

// Valid reports whether k is one of the known kinds.
func (k OptionKind) Valid() bool {
	return k == Call || k == Put || k == Stock
}

// IsOption reports whether k is an option contract kind.
func (k OptionKind) IsOption() bool {
	return k == Call || k == Put
}

// Multiplier returns the contract size scaling factor: 100 for option
// contracts, 1 for shares.
func (k OptionKind) Multiplier() float64 {
	if k.IsOption() {
		return 100
	}
	return 1
}

// IntrinsicValue returns the per-share exercise value at the given
// underlying price. Stock has no exercise concept and returns the price
// itself.
func (k OptionKind) IntrinsicValue(underlying, strike float64) float64 {
	switch k {
	case Call:
		return math.Max(0, underlying-strike)
	case Put:
		return math.Max(0, strike-underlying)
	default:
		return underlying
	}
}

// MarshalJSON renders the kind as its single-letter code.
func (k OptionKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON accepts either the code or the long form.
func (k *OptionKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseOptionKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Greeks holds the risk sensitivities of a position. Theta is quoted per
// calendar day, vega per unit of volatility.
type Greeks struct {
	Delta float64 `json:"delta"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Gamma float64 `json:"gamma"`
}

// PricingResult is the transient output of the pricing model: theoretical
// price plus Greeks.
type PricingResult struct {
	Price float64 `json:"price"`
	Greeks
}

// LegSpec describes a leg to be added to a strategy. Optional fields are
// pointers; nil means "not supplied" and triggers the resolution policy
// (volatility from mark, mark from volatility, or strategy defaults).
type LegSpec struct {
	Kind             OptionKind `json:"kind"`
	Strike           float64    `json:"strike"`
	Quantity         int        `json:"quantity"`
	Volatility       *float64   `json:"volatility,omitempty"`
	Mark             *float64   `json:"mark,omitempty"`
	DaysToExpiration *float64   `json:"days_to_expiration,omitempty"`
	Delta            *float64   `json:"delta,omitempty"`
	Symbol           string     `json:"symbol,omitempty"`
}

// Ptr returns a pointer to v, for filling optional LegSpec fields inline.
func Ptr[T any](v T) *T {
	return &v
}

// LegView is the read-only projection of a resolved strategy leg.
type LegView struct {
	Kind             OptionKind `json:"kind"`
	Strike           float64    `json:"strike"`
	Quantity         int        `json:"quantity"`
	Volatility       float64    `json:"volatility"`
	DaysToExpiration float64    `json:"days_to_expiration"`
	Mark             float64    `json:"mark"`
	Symbol           string     `json:"symbol,omitempty"`
	Greeks
}

// SnapshotView is the read-only projection of a P&L snapshot.
type SnapshotView struct {
	DaysToExpiration    float64 `json:"days_to_expiration"`
	StdDev              float64 `json:"stddev"`
	ExpectedProfit      float64 `json:"expected_profit"`
	ProbabilityOfProfit float64 `json:"pop"`
}

// StrategySummary is the read-only projection of a strategy's aggregate
// analytics.
type StrategySummary struct {
	UnderlyingPrice  float64 `json:"underlying_price"`
	Symbol           string  `json:"symbol"`
	Title            string  `json:"title"`
	DaysToExpiration float64 `json:"days_to_expiration"`
	Volatility       float64 `json:"volatility"`
	ExpectedMove     float64 `json:"expected_move"`
	POP              float64 `json:"pop"`
	ExpectedProfit   float64 `json:"expected_profit"`
	Cost             float64 `json:"cost"`
	Delta            float64 `json:"delta"`
	Theta            float64 `json:"theta"`
	Vega             float64 `json:"vega"`
	StdDevRange      float64 `json:"stddev_range"`
}

// AnalysisRecord is a persisted strategy analysis run.
type AnalysisRecord struct {
	ID        int64           `json:"id"`
	CreatedAt string          `json:"created_at"`
	Symbol    string          `json:"symbol"`
	Title     string          `json:"title"`
	Summary   StrategySummary `json:"summary"`
	Legs      []LegView       `json:"legs"`
	Snapshots []SnapshotView  `json:"snapshots"`
}
