package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
	"github.com/PrabhdeepJassal/Safe-Steps/safety/model"
)

func sampleSnapshot(trainedAt time.Time, mae float64) *Snapshot {
	s := NewSnapshot(&model.Forest{Trees: []model.Tree{{Nodes: []model.Node{
		{Feature: 0, Threshold: 2.5, Left: 1, Right: 2},
		{Feature: -1, Value: 80},
		{Feature: -1, Value: 35},
	}}}}, model.Diagnostics{AccuracyPct: 91.5, MAE: mae, RMSE: 2.2, Tolerance: 4, TrainSamples: 2000, HoldoutSamples: 200}, 60)
	s.TrainedAt = trainedAt
	return s
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	// GIVEN a saved snapshot
	path := filepath.Join(t.TempDir(), "model.gob")
	fs := NewFileStore(path)
	want := sampleSnapshot(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), 1.5)
	require.NoError(t, fs.Save(context.Background(), want))

	// WHEN loading it back
	got, err := fs.Load(context.Background())

	// THEN it is identical
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	var v [10]float64
	assert.Equal(t, 80.0, got.Forest.Predict(v))
}

func TestFileStore_Missing_ErrNotFound(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "absent.gob"))

	_, err := fs.Load(context.Background())

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_Corrupt_NotErrNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, os.WriteFile(path, []byte("not gob"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "model.gob"))
	require.NoError(t, fs.Save(context.Background(), sampleSnapshot(time.Unix(1, 0).UTC(), 1)))
	second := sampleSnapshot(time.Unix(2, 0).UTC(), 2)
	require.NoError(t, fs.Save(context.Background(), second))

	got, err := fs.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, second.RunID, got.RunID)
}

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "models.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_Empty_ErrNotFound(t *testing.T) {
	s := openTestSQLite(t)

	_, err := s.Load(context.Background())

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_LoadReturnsNewest(t *testing.T) {
	// GIVEN two runs saved out of chronological order
	s := openTestSQLite(t)
	older := sampleSnapshot(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 3.0)
	newer := sampleSnapshot(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 1.0)
	require.NoError(t, s.Save(context.Background(), newer))
	require.NoError(t, s.Save(context.Background(), older))

	// WHEN loading
	got, err := s.Load(context.Background())

	// THEN the most recently trained run wins, fully decoded
	require.NoError(t, err)
	if diff := cmp.Diff(newer, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	// AND the history lists both, newest first
	runs, err := s.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.RunID, runs[0].RunID)
	assert.Equal(t, older.RunID, runs[1].RunID)
	assert.Equal(t, 3.0, runs[1].Diagnostics.MAE)
}

func TestSQLiteStore_EmptyRunID_Rejected(t *testing.T) {
	s := openTestSQLite(t)
	snap := sampleSnapshot(time.Now(), 1)
	snap.RunID = ""

	assert.Error(t, s.Save(context.Background(), snap))
}

func TestOpen_Drivers(t *testing.T) {
	dir := t.TempDir()

	fileStore, err := Open(safety.StoreConfig{Driver: safety.StoreFile, Path: filepath.Join(dir, "m.gob")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, fileStore)

	sqliteStore, err := Open(safety.StoreConfig{Driver: safety.StoreSQLite, Path: filepath.Join(dir, "m.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, sqliteStore)
	require.NoError(t, sqliteStore.Close())

	_, err = Open(safety.StoreConfig{Driver: "redis", Path: "x"})
	assert.Error(t, err)
}
