package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/PrabhdeepJassal/Safe-Steps/safety/model"
)

const schema = `
	CREATE TABLE IF NOT EXISTS model_snapshots (
		run_id           TEXT PRIMARY KEY,
		trained_at       INTEGER NOT NULL,
		dataset_size     INTEGER NOT NULL,
		accuracy_pct     REAL,
		mae              REAL,
		rmse             REAL,
		diagnostics_json TEXT NOT NULL,
		forest           BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_model_snapshots_trained_at ON model_snapshots(trained_at);
`

// SQLiteStore keeps every trained snapshot in a SQLite table; Load returns the newest.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save inserts s. An empty RunID is rejected; use NewSnapshot.
func (s *SQLiteStore) Save(ctx context.Context, snap *Snapshot) error {
	if snap.RunID == "" {
		return fmt.Errorf("snapshot has no run id")
	}
	var forest bytes.Buffer
	if err := gob.NewEncoder(&forest).Encode(snap.Forest); err != nil {
		return fmt.Errorf("encode forest: %w", err)
	}
	diag, err := json.Marshal(snap.Diagnostics)
	if err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO model_snapshots (
			run_id, trained_at, dataset_size, accuracy_pct, mae, rmse, diagnostics_json, forest
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.RunID, snap.TrainedAt.UnixNano(), snap.DatasetSize,
		snap.Diagnostics.AccuracyPct, snap.Diagnostics.MAE, snap.Diagnostics.RMSE,
		string(diag), forest.Bytes(),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot %s: %w", snap.RunID, err)
	}
	return nil
}

// Load returns the most recently trained snapshot.
func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, trained_at, dataset_size, diagnostics_json, forest
		FROM model_snapshots
		ORDER BY trained_at DESC
		LIMIT 1`)

	var (
		snap      Snapshot
		trainedAt int64
		diag      string
		blob      []byte
	)
	err := row.Scan(&snap.RunID, &trainedAt, &snap.DatasetSize, &diag, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}

	snap.TrainedAt = time.Unix(0, trainedAt).UTC()
	if err := json.Unmarshal([]byte(diag), &snap.Diagnostics); err != nil {
		return nil, fmt.Errorf("decode diagnostics of %s: %w", snap.RunID, err)
	}
	var forest model.Forest
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&forest); err != nil {
		return nil, fmt.Errorf("decode forest of %s: %w", snap.RunID, err)
	}
	snap.Forest = &forest
	return &snap, nil
}

// RunSummary is one row of the training history.
type RunSummary struct {
	RunID       string
	TrainedAt   time.Time
	DatasetSize int
	Diagnostics model.Diagnostics
}

// History lists up to limit past runs, newest first, without decoding forests.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, trained_at, dataset_size, diagnostics_json
		FROM model_snapshots
		ORDER BY trained_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r         RunSummary
			trainedAt int64
			diag      string
		)
		if err := rows.Scan(&r.RunID, &trainedAt, &r.DatasetSize, &diag); err != nil {
			return nil, err
		}
		r.TrainedAt = time.Unix(0, trainedAt).UTC()
		if err := json.Unmarshal([]byte(diag), &r.Diagnostics); err != nil {
			return nil, fmt.Errorf("decode diagnostics of %s: %w", r.RunID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
