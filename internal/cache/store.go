package cache

import (
	"context"
	"time"
)

// EphemeralStore is a fast key/value store with per-entry expiry.
// Get reports a miss with ok == false and a nil error.
type EphemeralStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// InsertOutcome is the result of a durable insert-if-absent
type InsertOutcome int

const (
	// Inserted means this call created the record
	Inserted InsertOutcome = iota
	// AlreadyExists means a record for the fingerprint was already present
	AlreadyExists
)

func (o InsertOutcome) String() string {
	if o == Inserted {
		return "inserted"
	}
	return "already_exists"
}

// Record is one persisted analysis
type Record struct {
	ID          string
	Fingerprint string
	Payload     []byte
	CreatedAt   time.Time
}

// DurableStore persists at most one record per fingerprint.
// FindByFingerprint returns nil, nil when no record exists.
type DurableStore interface {
	FindByFingerprint(ctx context.Context, fingerprint string) (*Record, error)
	InsertIfAbsent(ctx context.Context, fingerprint string, payload []byte) (InsertOutcome, error)
}
