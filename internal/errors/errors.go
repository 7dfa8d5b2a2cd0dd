// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotImplemented  = errors.New("not implemented")
	ErrNonConvergence  = errors.New("solver did not converge")
	ErrNotFound        = errors.New("not found")
)

// ConvergenceError reports a failed implied-volatility root-find. It wraps
// ErrNonConvergence so callers can match with errors.Is.
type ConvergenceError struct {
	Strike         float64
	Mark           float64
	Iterations     int
	LastVolatility float64
	Reason         string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("implied volatility for strike %.2f mark %.4f did not converge after %d iterations (last vol %.4f): %s",
		e.Strike, e.Mark, e.Iterations, e.LastVolatility, e.Reason)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrNonConvergence
}

// NewConvergenceError creates a new ConvergenceError.
func NewConvergenceError(strike, mark float64, iterations int, lastVol float64, reason string) *ConvergenceError {
	return &ConvergenceError{
		Strike:         strike,
		Mark:           mark,
		Iterations:     iterations,
		LastVolatility: lastVol,
		Reason:         reason,
	}
}

// LegError reports a leg specification that was rejected before pricing.
// It wraps ErrInvalidInput.
type LegError struct {
	Kind   string
	Strike float64
	Reason string
}

func (e *LegError) Error() string {
	return fmt.Sprintf("leg %s strike %.2f: %s", e.Kind, e.Strike, e.Reason)
}

func (e *LegError) Unwrap() error {
	return ErrInvalidInput
}

// NewLegError creates a new LegError.
func NewLegError(kind string, strike float64, reason string) *LegError {
	return &LegError{Kind: kind, Strike: strike, Reason: reason}
}
