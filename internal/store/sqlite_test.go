package store

import (
	"context"
	"path/filepath"
	"testing"

	"option-sim/internal/chain"
	"option-sim/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testChainQuotes() []chain.Quote {
	return []chain.Quote{
		{
			Symbol: "XYZ 30C105", Underlying: "XYZ", UnderlyingPrice: 100,
			Kind: models.Call, Strike: 105, DaysToExpiration: 30,
			ExpirationDate: "2026-09-22", Bid: 1.0, Ask: 1.2, Mark: 1.1,
			Volatility: 0.21, Delta: 0.30, OpenInterest: 150, Volume: 40,
		},
		{
			Symbol: "XYZ 30P95", Underlying: "XYZ", UnderlyingPrice: 100,
			Kind: models.Put, Strike: 95, DaysToExpiration: 30,
			ExpirationDate: "2026-09-22", Bid: 0.9, Ask: 1.1, Mark: 1.0,
			Volatility: 0.23, Delta: -0.28, OpenInterest: 120, Volume: 60,
		},
		{
			Symbol: "ABC 45C55", Underlying: "ABC", UnderlyingPrice: 50,
			Kind: models.Call, Strike: 55, DaysToExpiration: 45,
			Bid: 0.4, Ask: 0.6, Mark: 0.5,
			Volatility: 0.35, Delta: 0.25, OpenInterest: 80, Volume: 10,
		},
	}
}

func TestChainRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveChain(ctx, "export.csv", testChainQuotes()); err != nil {
		t.Fatalf("SaveChain failed: %v", err)
	}

	got, err := s.GetChain(ctx, "XYZ")
	if err != nil {
		t.Fatalf("GetChain failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("quote count = %d, want 2", len(got))
	}
	// Rows come back ordered by dte, kind, strike; the call sorts first.
	q := got[0]
	if q.Symbol != "XYZ 30C105" || q.Kind != models.Call || q.Strike != 105 {
		t.Errorf("first quote = %+v", q)
	}
	if q.Mark != 1.1 || q.Volatility != 0.21 || q.Delta != 0.30 {
		t.Errorf("quote pricing fields = %+v", q)
	}
	if q.OpenInterest != 150 || q.Volume != 40 || q.ExpirationDate != "2026-09-22" {
		t.Errorf("quote metadata = %+v", q)
	}
}

func TestListAndDeleteChains(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveChain(ctx, "export.csv", testChainQuotes()); err != nil {
		t.Fatalf("SaveChain failed: %v", err)
	}

	symbols, err := s.ListUnderlyings(ctx)
	if err != nil {
		t.Fatalf("ListUnderlyings failed: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "ABC" || symbols[1] != "XYZ" {
		t.Fatalf("underlyings = %v, want [ABC XYZ]", symbols)
	}

	if err := s.DeleteChain(ctx, "XYZ"); err != nil {
		t.Fatalf("DeleteChain failed: %v", err)
	}
	symbols, err = s.ListUnderlyings(ctx)
	if err != nil {
		t.Fatalf("ListUnderlyings failed: %v", err)
	}
	if len(symbols) != 1 || symbols[0] != "ABC" {
		t.Fatalf("underlyings after delete = %v, want [ABC]", symbols)
	}

	got, err := s.GetChain(ctx, "XYZ")
	if err != nil {
		t.Fatalf("GetChain failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("deleted chain still has %d quotes", len(got))
	}
}

func TestAnalysisRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	record := &models.AnalysisRecord{
		Symbol: "XYZ",
		Title:  "Short Strangle",
		Summary: models.StrategySummary{
			UnderlyingPrice: 100, Symbol: "XYZ", Title: "Short Strangle",
			DaysToExpiration: 30, Volatility: 0.22, ExpectedMove: 6.3,
			POP: 0.71, ExpectedProfit: 24.5, Cost: -210,
			Delta: -0.02, Theta: 1.9, Vega: -21.2, StdDevRange: 3,
		},
		Legs: []models.LegView{
			{Kind: models.Call, Strike: 110, Quantity: -1, Volatility: 0.21, DaysToExpiration: 30, Mark: 1.05},
			{Kind: models.Put, Strike: 90, Quantity: -1, Volatility: 0.24, DaysToExpiration: 30, Mark: 1.05},
		},
		Snapshots: []models.SnapshotView{
			{DaysToExpiration: 0, StdDev: 6.3, ExpectedProfit: 24.5, ProbabilityOfProfit: 0.71},
		},
	}

	id, err := s.SaveAnalysis(ctx, record)
	if err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("id = %d, want positive", id)
	}

	records, err := s.GetAnalyses(ctx, "XYZ", 10)
	if err != nil {
		t.Fatalf("GetAnalyses failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("record count = %d, want 1", len(records))
	}
	got := records[0]
	if got.ID != id || got.Symbol != "XYZ" || got.Title != "Short Strangle" {
		t.Errorf("identity = %+v", got)
	}
	if got.Summary.POP != 0.71 || got.Summary.Cost != -210 {
		t.Errorf("summary = %+v", got.Summary)
	}
	if len(got.Legs) != 2 || got.Legs[0].Kind != models.Call || got.Legs[0].Strike != 110 {
		t.Errorf("legs = %+v", got.Legs)
	}
	if len(got.Snapshots) != 1 || got.Snapshots[0].ProbabilityOfProfit != 0.71 {
		t.Errorf("snapshots = %+v", got.Snapshots)
	}

	// Symbol filter excludes non-matching records.
	records, err = s.GetAnalyses(ctx, "ABC", 10)
	if err != nil {
		t.Fatalf("GetAnalyses failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("filtered count = %d, want 0", len(records))
	}
}
