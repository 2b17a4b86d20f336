package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesDirectoryAndOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lifecandle.db")

	db, err := New(Config{Path: path, Name: "analysis"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "analysis", db.Name())
	assert.Equal(t, ProfileStandard, db.Profile())
	assert.True(t, filepath.IsAbs(db.Path()))
	assert.NoError(t, db.QuickCheck(context.Background()))

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestNew_AppliesWAL(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "wal.db"), Profile: ProfileDurable, Name: "wal"})
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.Conn().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var synchronous int
	require.NoError(t, db.Conn().QueryRow("PRAGMA synchronous").Scan(&synchronous))
	assert.Equal(t, 2, synchronous) // FULL
}

func TestWALCheckpoint(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "cp.db"), Name: "cp"})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	assert.NoError(t, db.WALCheckpoint(ctx, ""))
	assert.NoError(t, db.WALCheckpoint(ctx, "PASSIVE"))
	assert.Error(t, db.WALCheckpoint(ctx, "DROP TABLE"))
}

func TestBuildConnectionString(t *testing.T) {
	s := buildConnectionString("/tmp/a.db", ProfileStandard)
	assert.Contains(t, s, "/tmp/a.db?_pragma=journal_mode(WAL)")
	assert.Contains(t, s, "synchronous(NORMAL)")

	s = buildConnectionString("file:test?mode=memory", ProfileDurable)
	assert.Contains(t, s, "file:test?mode=memory&_pragma=journal_mode(WAL)")
	assert.Contains(t, s, "synchronous(FULL)")
}
