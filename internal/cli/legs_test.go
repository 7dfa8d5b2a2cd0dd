package cli

import (
	"testing"

	"option-sim/internal/models"
)

func TestParseLegSpec(t *testing.T) {
	spec, err := parseLegSpec("C:110:-1:mark=3.35")
	if err != nil {
		t.Fatalf("parseLegSpec failed: %v", err)
	}
	if spec.Kind != models.Call || spec.Strike != 110 || spec.Quantity != -1 {
		t.Errorf("spec = %+v", spec)
	}
	if spec.Mark == nil || *spec.Mark != 3.35 {
		t.Errorf("mark = %v, want 3.35", spec.Mark)
	}

	spec, err = parseLegSpec("P:90:2:vol=0.25,dte=45,delta=-0.3")
	if err != nil {
		t.Fatalf("parseLegSpec failed: %v", err)
	}
	if spec.Volatility == nil || *spec.Volatility != 0.25 {
		t.Errorf("vol = %v, want 0.25", spec.Volatility)
	}
	if spec.DaysToExpiration == nil || *spec.DaysToExpiration != 45 {
		t.Errorf("dte = %v, want 45", spec.DaysToExpiration)
	}
	if spec.Delta == nil || *spec.Delta != -0.3 {
		t.Errorf("delta = %v, want -0.3", spec.Delta)
	}

	spec, err = parseLegSpec("S:0:100")
	if err != nil {
		t.Fatalf("parseLegSpec failed: %v", err)
	}
	if spec.Kind != models.Stock || spec.Quantity != 100 {
		t.Errorf("stock spec = %+v", spec)
	}
}

func TestParseLegSpec_Errors(t *testing.T) {
	cases := []string{
		"C:110",             // too few parts
		"X:110:1",           // unknown kind
		"C:abc:1",           // bad strike
		"C:110:one",         // bad quantity
		"C:110:1:mark",      // malformed option
		"C:110:1:mark=abc",  // bad value
		"C:110:1:basis=1.0", // unknown key
	}
	for _, in := range cases {
		if _, err := parseLegSpec(in); err == nil {
			t.Errorf("parseLegSpec(%q) accepted invalid input", in)
		}
	}
}
