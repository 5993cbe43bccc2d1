// Package store persists analyses, detector results and the propagation graph in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"spreadscope/internal/model"
)

var ErrNotFound = errors.New("store: not found")

// DB wraps the SQLite database. Safe for concurrent use through database/sql.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		d.SetMaxOpenConns(1)
	} else if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS analyses (
	  id TEXT PRIMARY KEY,
	  tweet_id TEXT NOT NULL,
	  status TEXT NOT NULL,
	  summary TEXT,
	  error TEXT,
	  created_at INTEGER NOT NULL,
	  updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_status ON analyses(status, created_at);
	CREATE TABLE IF NOT EXISTS bot_scores (
	  account_id TEXT NOT NULL,
	  signal_type TEXT NOT NULL,
	  analysis_id TEXT NOT NULL,
	  value REAL NOT NULL,
	  weight REAL NOT NULL,
	  probability REAL NOT NULL,
	  classification TEXT NOT NULL,
	  updated_at INTEGER NOT NULL,
	  PRIMARY KEY (account_id, signal_type)
	);
	CREATE TABLE IF NOT EXISTS coordination_patterns (
	  id TEXT PRIMARY KEY,
	  analysis_id TEXT NOT NULL,
	  type TEXT NOT NULL,
	  confidence REAL NOT NULL,
	  accounts TEXT NOT NULL,
	  payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_patterns_analysis ON coordination_patterns(analysis_id);
	CREATE TABLE IF NOT EXISTS anomalies (
	  id TEXT PRIMARY KEY,
	  analysis_id TEXT NOT NULL,
	  type TEXT NOT NULL,
	  severity TEXT NOT NULL,
	  ts INTEGER NOT NULL,
	  description TEXT NOT NULL,
	  payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_anomalies_analysis ON anomalies(analysis_id);
	CREATE TABLE IF NOT EXISTS graph_nodes (
	  analysis_id TEXT NOT NULL,
	  account_id TEXT NOT NULL,
	  role TEXT NOT NULL,
	  influence REAL NOT NULL,
	  first_seen INTEGER NOT NULL,
	  PRIMARY KEY (analysis_id, account_id)
	);
	CREATE TABLE IF NOT EXISTS graph_edges (
	  analysis_id TEXT NOT NULL,
	  source TEXT NOT NULL,
	  target TEXT NOT NULL,
	  type TEXT NOT NULL,
	  weight REAL NOT NULL,
	  ts INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_edges_source ON graph_edges(analysis_id, source);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON graph_edges(analysis_id, target);
	`)
	return err
}

// Analysis is one stored analysis record.
type Analysis struct {
	ID        string
	TweetID   string
	Status    model.AnalysisStatus
	Summary   string // JSON, set on completion
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateAnalysis records a pending analysis. Creating an existing id is a no-op.
func (d *DB) CreateAnalysis(ctx context.Context, id, tweetID string) error {
	now := time.Now().UTC().UnixNano()
	_, err := d.sql.ExecContext(ctx, `INSERT INTO analyses(id, tweet_id, status, created_at, updated_at) VALUES(?,?,?,?,?) ON CONFLICT(id) DO NOTHING`,
		id, tweetID, string(model.StatusPending), now, now)
	return err
}

// UpdateAnalysisStatus moves an analysis to status. A non-nil summary is
// stored as JSON; errMsg is stored as given (empty clears it).
func (d *DB) UpdateAnalysisStatus(ctx context.Context, id string, status model.AnalysisStatus, summary any, errMsg string) error {
	var sum *string
	if summary != nil {
		b, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		s := string(b)
		sum = &s
	}
	res, err := d.sql.ExecContext(ctx, `UPDATE analyses SET status=?, summary=COALESCE(?, summary), error=?, updated_at=? WHERE id=?`,
		string(status), sum, errMsg, time.Now().UTC().UnixNano(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	return nil
}

func (d *DB) GetAnalysis(ctx context.Context, id string) (Analysis, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT id, tweet_id, status, COALESCE(summary,''), COALESCE(error,''), created_at, updated_at FROM analyses WHERE id=?`, id)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return a, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	return a, err
}

// ListPending returns up to limit pending analyses, oldest first.
func (d *DB) ListPending(ctx context.Context, limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.sql.QueryContext(ctx, `SELECT id, tweet_id, status, COALESCE(summary,''), COALESCE(error,''), created_at, updated_at FROM analyses WHERE status=? ORDER BY created_at, id LIMIT ?`,
		string(model.StatusPending), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanAnalysis(s scanner) (Analysis, error) {
	var a Analysis
	var status string
	var created, updated int64
	if err := s.Scan(&a.ID, &a.TweetID, &status, &a.Summary, &a.Error, &created, &updated); err != nil {
		return Analysis{}, err
	}
	a.Status = model.AnalysisStatus(status)
	a.CreatedAt = time.Unix(0, created).UTC()
	a.UpdatedAt = time.Unix(0, updated).UTC()
	return a, nil
}

func unixNano(t time.Time) int64 { return t.UTC().UnixNano() }

func fromUnixNano(n int64) time.Time { return time.Unix(0, n).UTC() }
