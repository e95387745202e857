// Package store persists scan results in SQLite so repeated runs can be
// compared over time.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openmerchant/agentready/internal/batch"
	"github.com/openmerchant/agentready/internal/classify"
	"github.com/openmerchant/agentready/internal/protocol"
)

const schemaVersion = 1

const schema = `
CREATE TABLE schema_version(version INTEGER NOT NULL);

CREATE TABLE batches(
	id          TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	scanned     INTEGER NOT NULL,
	failed      INTEGER NOT NULL
);

CREATE TABLE scans(
	id              TEXT PRIMARY KEY,
	batch_id        TEXT NOT NULL REFERENCES batches(id),
	domain          TEXT NOT NULL,
	business_model  TEXT NOT NULL,
	grade           TEXT NOT NULL,
	readiness_score INTEGER NOT NULL,
	results_payload TEXT NOT NULL,
	score_payload   TEXT NOT NULL,
	failed          INTEGER NOT NULL,
	duration_ms     INTEGER NOT NULL,
	scanned_at      TEXT NOT NULL
);

CREATE INDEX idx_scans_domain ON scans(domain, scanned_at);
CREATE INDEX idx_scans_batch ON scans(batch_id);
`

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and initializes the schema.
// Creates the parent directory if it does not exist.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		// Fresh database.
		if _, err := s.db.Exec(schema); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}

	var v int
	if err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != schemaVersion {
		return fmt.Errorf("unknown schema version %d (this build expects %d)", v, schemaVersion)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBatch persists a whole batch run atomically.
func (s *Store) SaveBatch(sum *batch.Summary) error {
	if sum == nil {
		return errors.New("summary is nil")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	startedAt := time.Now().UTC().Add(-sum.Duration).Format(time.RFC3339)
	_, err = tx.Exec(
		"INSERT INTO batches(id, started_at, duration_ms, scanned, failed) VALUES(?, ?, ?, ?, ?)",
		sum.BatchID, startedAt, sum.Duration.Milliseconds(), sum.Scanned, sum.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	for i := range sum.Results {
		if err := saveScan(tx, &sum.Results[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func saveScan(tx *sql.Tx, res *batch.ScanResult) error {
	resultsPayload, err := json.Marshal(res.Results)
	if err != nil {
		return fmt.Errorf("marshal results for %s: %w", res.Domain, err)
	}
	scorePayload, err := json.Marshal(res.Score)
	if err != nil {
		return fmt.Errorf("marshal score for %s: %w", res.Domain, err)
	}

	failed := 0
	if res.Failed {
		failed = 1
	}
	_, err = tx.Exec(
		`INSERT INTO scans(id, batch_id, domain, business_model, grade, readiness_score,
		                   results_payload, score_payload, failed, duration_ms, scanned_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ScanID, res.BatchID, res.Domain, string(res.Model), res.Grade,
		res.Score.ReadinessScore, resultsPayload, scorePayload, failed,
		res.Duration.Milliseconds(), res.ScannedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert scan %s: %w", res.Domain, err)
	}
	return nil
}

// LatestScan returns the most recent scan for domain, or nil if the domain
// has never been scanned.
func (s *Store) LatestScan(domain string) (*batch.ScanResult, error) {
	row := s.db.QueryRow(
		`SELECT id, batch_id, domain, business_model, grade,
		        results_payload, score_payload, failed, duration_ms, scanned_at
		 FROM scans WHERE domain = ? ORDER BY scanned_at DESC LIMIT 1`,
		domain,
	)
	res, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return res, err
}

// History returns up to limit past scans for domain, newest first.
func (s *Store) History(domain string, limit int) ([]*batch.ScanResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, batch_id, domain, business_model, grade,
		        results_payload, score_payload, failed, duration_ms, scanned_at
		 FROM scans WHERE domain = ? ORDER BY scanned_at DESC LIMIT ?`,
		domain, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var list []*batch.ScanResult
	for rows.Next() {
		res, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return list, nil
}

// ListByBatch returns all scans from one batch in domain order.
func (s *Store) ListByBatch(batchID string) ([]*batch.ScanResult, error) {
	rows, err := s.db.Query(
		`SELECT id, batch_id, domain, business_model, grade,
		        results_payload, score_payload, failed, duration_ms, scanned_at
		 FROM scans WHERE batch_id = ? ORDER BY domain`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("query batch: %w", err)
	}
	defer rows.Close()

	var list []*batch.ScanResult
	for rows.Next() {
		res, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("batch rows: %w", err)
	}
	return list, nil
}

// scannable is satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanRow(row scannable) (*batch.ScanResult, error) {
	var res batch.ScanResult
	var model, scannedAt string
	var resultsPayload, scorePayload []byte
	var failed, durationMS int64

	err := row.Scan(&res.ScanID, &res.BatchID, &res.Domain, &model, &res.Grade,
		&resultsPayload, &scorePayload, &failed, &durationMS, &scannedAt)
	if err != nil {
		return nil, err
	}

	res.Model = classify.Model(model)
	res.Failed = failed == 1
	res.Duration = time.Duration(durationMS) * time.Millisecond
	if ts, err := time.Parse(time.RFC3339, scannedAt); err == nil {
		res.ScannedAt = ts
	}
	if err := json.Unmarshal(resultsPayload, &res.Results); err != nil {
		return nil, fmt.Errorf("unmarshal results for %s: %w", res.Domain, err)
	}
	if err := json.Unmarshal(scorePayload, &res.Score); err != nil {
		return nil, fmt.Errorf("unmarshal score for %s: %w", res.Domain, err)
	}

	// Old rows may predate a protocol; fill the gap with the safe default
	// so callers always see a complete set.
	known := make(map[protocol.Protocol]bool, len(res.Results))
	for _, pr := range res.Results {
		known[pr.Protocol] = true
	}
	for _, p := range protocol.All {
		if !known[p] {
			res.Results = append(res.Results, protocol.NotDetected(p))
		}
	}
	return &res, nil
}
