// Package store provides persistence for imported chain snapshots and
// strategy analysis runs. The analytics engine itself is persistence-free;
// the store is the collaborator the CLI works through.
package store

import (
	"context"

	"option-sim/internal/chain"
	"option-sim/internal/models"
)

// DataStore defines the persistence interface.
type DataStore interface {
	// Chains
	SaveChain(ctx context.Context, source string, quotes []chain.Quote) error
	GetChain(ctx context.Context, underlying string) ([]chain.Quote, error)
	ListUnderlyings(ctx context.Context) ([]string, error)
	DeleteChain(ctx context.Context, underlying string) error

	// Analyses
	SaveAnalysis(ctx context.Context, record *models.AnalysisRecord) (int64, error)
	GetAnalyses(ctx context.Context, symbol string, limit int) ([]models.AnalysisRecord, error)

	// Lifecycle
	Close() error
}
