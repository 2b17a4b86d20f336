package cache

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/aristath/lifecandle/internal/domain"
)

const testFingerprint = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// A second connection would open a separate in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func setupSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	store := NewSQLiteStore(setupTestDB(t))
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func sampleResult() domain.AnalysisResult {
	return domain.AnalysisResult{
		Timeline: []domain.ChartPoint{
			{Age: 1, Year: 1990, CycleTerm: "庚午", DecadePhase: "童限", Open: 50, Close: 55.3, High: 57.1, Low: 48.2, Score: 55.3, Reason: "开局平稳"},
			{Age: 2, Year: 1991, CycleTerm: "辛未", DecadePhase: "童限", Open: 55.3, Close: 41.9, High: 58, Low: 40.5, Score: 41.9, Reason: "小有波折"},
		},
		Report: domain.NarrativeReport{
			Pillars:      []string{"甲子", "丙寅", "戊辰", "壬戌"},
			Summary:      "命局稳定",
			SummaryScore: 7,
			Crypto:       "现货为主",
			CryptoScore:  6,
			CryptoYear:   "1990 (庚午)",
			CryptoStyle:  "现货定投",
		},
	}
}

// failingEphemeral errors on every call
type failingEphemeral struct{}

func (failingEphemeral) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (failingEphemeral) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (failingEphemeral) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

// failingDurable errors on every call
type failingDurable struct{}

func (failingDurable) FindByFingerprint(context.Context, string) (*Record, error) {
	return nil, errors.New("database is locked")
}

func (failingDurable) InsertIfAbsent(context.Context, string, []byte) (InsertOutcome, error) {
	return AlreadyExists, errors.New("database is locked")
}
