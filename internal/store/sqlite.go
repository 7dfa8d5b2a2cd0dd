package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"option-sim/internal/chain"
	"option-sim/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed data store at the given path.
// Use ":memory:" for an ephemeral store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Imported option chain quotes
	CREATE TABLE IF NOT EXISTS chain_quotes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		underlying TEXT NOT NULL,
		symbol TEXT NOT NULL,
		kind TEXT NOT NULL,
		strike REAL NOT NULL,
		days_to_expiration REAL NOT NULL,
		expiration_date TEXT,
		underlying_price REAL NOT NULL,
		bid REAL NOT NULL DEFAULT 0,
		ask REAL NOT NULL DEFAULT 0,
		mark REAL NOT NULL DEFAULT 0,
		volatility REAL NOT NULL DEFAULT 0,
		delta REAL NOT NULL DEFAULT 0,
		open_interest INTEGER NOT NULL DEFAULT 0,
		volume INTEGER NOT NULL DEFAULT 0,
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_chain_quotes_underlying ON chain_quotes(underlying);
	CREATE INDEX IF NOT EXISTS idx_chain_quotes_dte ON chain_quotes(underlying, days_to_expiration);

	-- Strategy analysis runs
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		symbol TEXT NOT NULL,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		legs TEXT NOT NULL,
		snapshots TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_symbol ON analyses(symbol);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveChain stores the quotes of a chain snapshot, tagged with the import
// source.
func (s *SQLiteStore) SaveChain(ctx context.Context, source string, quotes []chain.Quote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chain import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chain_quotes (
			source, underlying, symbol, kind, strike, days_to_expiration,
			expiration_date, underlying_price, bid, ask, mark, volatility,
			delta, open_interest, volume
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chain insert: %w", err)
	}
	defer stmt.Close()

	for _, q := range quotes {
		_, err := stmt.ExecContext(ctx,
			source, q.Underlying, q.Symbol, q.Kind.String(), q.Strike,
			q.DaysToExpiration, q.ExpirationDate, q.UnderlyingPrice,
			q.Bid, q.Ask, q.Mark, q.Volatility, q.Delta, q.OpenInterest, q.Volume)
		if err != nil {
			return fmt.Errorf("insert quote %s: %w", q.Symbol, err)
		}
	}
	return tx.Commit()
}

// GetChain returns all stored quotes for an underlying.
func (s *SQLiteStore) GetChain(ctx context.Context, underlying string) ([]chain.Quote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT underlying, symbol, kind, strike, days_to_expiration,
		       expiration_date, underlying_price, bid, ask, mark,
		       volatility, delta, open_interest, volume
		FROM chain_quotes
		WHERE underlying = ?
		ORDER BY days_to_expiration, kind, strike`, underlying)
	if err != nil {
		return nil, fmt.Errorf("query chain for %s: %w", underlying, err)
	}
	defer rows.Close()

	var quotes []chain.Quote
	for rows.Next() {
		var q chain.Quote
		var kind string
		if err := rows.Scan(&q.Underlying, &q.Symbol, &kind, &q.Strike,
			&q.DaysToExpiration, &q.ExpirationDate, &q.UnderlyingPrice,
			&q.Bid, &q.Ask, &q.Mark, &q.Volatility, &q.Delta,
			&q.OpenInterest, &q.Volume); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		q.Kind, err = models.ParseOptionKind(kind)
		if err != nil {
			return nil, fmt.Errorf("stored quote %s: %w", q.Symbol, err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// ListUnderlyings returns the distinct underlying symbols with stored
// quotes.
func (s *SQLiteStore) ListUnderlyings(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT underlying FROM chain_quotes ORDER BY underlying`)
	if err != nil {
		return nil, fmt.Errorf("list underlyings: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// DeleteChain removes all stored quotes for an underlying.
func (s *SQLiteStore) DeleteChain(ctx context.Context, underlying string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM chain_quotes WHERE underlying = ?`, underlying)
	if err != nil {
		return fmt.Errorf("delete chain for %s: %w", underlying, err)
	}
	return nil
}

// SaveAnalysis stores an analysis run and returns its row id.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, record *models.AnalysisRecord) (int64, error) {
	summary, err := json.Marshal(record.Summary)
	if err != nil {
		return 0, fmt.Errorf("marshal summary: %w", err)
	}
	legs, err := json.Marshal(record.Legs)
	if err != nil {
		return 0, fmt.Errorf("marshal legs: %w", err)
	}
	snapshots, err := json.Marshal(record.Snapshots)
	if err != nil {
		return 0, fmt.Errorf("marshal snapshots: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (symbol, title, summary, legs, snapshots)
		VALUES (?, ?, ?, ?, ?)`,
		record.Symbol, record.Title, string(summary), string(legs), string(snapshots))
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	return res.LastInsertId()
}

// GetAnalyses returns the most recent analyses, optionally filtered by
// symbol. A non-positive limit returns up to 50.
func (s *SQLiteStore) GetAnalyses(ctx context.Context, symbol string, limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, created_at, symbol, title, summary, legs, snapshots
		FROM analyses`
	args := []interface{}{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		var rec models.AnalysisRecord
		var summary, legs, snapshots string
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.Symbol, &rec.Title,
			&summary, &legs, &snapshots); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		if err := json.Unmarshal([]byte(summary), &rec.Summary); err != nil {
			return nil, fmt.Errorf("unmarshal summary for analysis %d: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(legs), &rec.Legs); err != nil {
			return nil, fmt.Errorf("unmarshal legs for analysis %d: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(snapshots), &rec.Snapshots); err != nil {
			return nil, fmt.Errorf("unmarshal snapshots for analysis %d: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
