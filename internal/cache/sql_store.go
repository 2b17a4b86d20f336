package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// dialect holds the statements that differ between engines
type dialect struct {
	name   string
	schema []string
	find   string
	insert string
	count  string
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS analysis_results (
			id TEXT PRIMARY KEY,
			input_hash TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_analysis_results_input_hash
			ON analysis_results (input_hash)`,
	},
	find:   `SELECT id, input_hash, data, created_at FROM analysis_results WHERE input_hash = ?`,
	insert: `INSERT INTO analysis_results (id, input_hash, data, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (input_hash) DO NOTHING`,
	count:  `SELECT COUNT(*) FROM analysis_results`,
}

var postgresDialect = dialect{
	name: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS analysis_results (
			id TEXT PRIMARY KEY,
			input_hash TEXT NOT NULL,
			data JSONB NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_analysis_results_input_hash
			ON analysis_results (input_hash)`,
	},
	find:   `SELECT id, input_hash, data, created_at FROM analysis_results WHERE input_hash = $1`,
	insert: `INSERT INTO analysis_results (id, input_hash, data, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (input_hash) DO NOTHING`,
	count:  `SELECT COUNT(*) FROM analysis_results`,
}

// SQLStore is a DurableStore over database/sql. The unique index on
// input_hash decides concurrent inserts; the losing insert affects no rows.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// NewSQLiteStore returns a store for a SQLite connection (modernc or mattn driver)
func NewSQLiteStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, dialect: sqliteDialect, now: time.Now}
}

// NewPostgresStore returns a store for a lib/pq connection
func NewPostgresStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, dialect: postgresDialect, now: time.Now}
}

// EnsureSchema creates the table and unique index if missing
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply %s schema: %w", s.dialect.name, err)
		}
	}
	return nil
}

// FindByFingerprint returns the record for fingerprint, or nil if absent
func (s *SQLStore) FindByFingerprint(ctx context.Context, fingerprint string) (*Record, error) {
	var (
		rec       Record
		data      string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, s.dialect.find, fingerprint).
		Scan(&rec.ID, &rec.Fingerprint, &data, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find analysis %s: %w", fingerprint, err)
	}

	rec.Payload = []byte(data)
	rec.CreatedAt = time.UnixMilli(createdAt)
	return &rec, nil
}

// InsertIfAbsent writes a new record unless one exists for fingerprint
func (s *SQLStore) InsertIfAbsent(ctx context.Context, fingerprint string, payload []byte) (InsertOutcome, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.insert,
		uuid.NewString(), fingerprint, string(payload), s.now().UnixMilli())
	if err != nil {
		return AlreadyExists, fmt.Errorf("failed to insert analysis %s: %w", fingerprint, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return AlreadyExists, fmt.Errorf("failed to read rows affected for %s: %w", fingerprint, err)
	}
	if n == 0 {
		return AlreadyExists, nil
	}
	return Inserted, nil
}

// Count returns the number of stored records
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, s.dialect.count).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return n, nil
}
