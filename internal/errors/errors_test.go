package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestConvergenceError(t *testing.T) {
	err := NewConvergenceError(105, 2.35, 100, 0.0001, "iteration limit exceeded")
	if !errors.Is(err, ErrNonConvergence) {
		t.Error("ConvergenceError should match ErrNonConvergence")
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Error("ConvergenceError should not match ErrInvalidInput")
	}
	msg := err.Error()
	for _, want := range []string{"105.00", "2.3500", "100", "iteration limit exceeded"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestLegError(t *testing.T) {
	err := NewLegError("P", 95, "quantity must be non-zero")
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("LegError should match ErrInvalidInput")
	}
	var legErr *LegError
	if !errors.As(err, &legErr) {
		t.Fatal("errors.As failed for *LegError")
	}
	if legErr.Kind != "P" || legErr.Strike != 95 {
		t.Errorf("fields = %+v", legErr)
	}
}
