// Package cache stores analysis results in two tiers keyed by request fingerprint.
//
// The ephemeral tier (Redis or in-process memory) is checked first and holds
// entries for seven days. The durable tier (SQLite or Postgres) keeps at most
// one record per fingerprint forever. Store failures in either tier are
// logged and absorbed; lookups degrade to a miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/lifecandle/internal/domain"
	"github.com/aristath/lifecandle/internal/work"
)

const (
	// EphemeralTTL is the expiry of every ephemeral entry
	EphemeralTTL = 7 * 24 * time.Hour
	// KeyPrefix namespaces ephemeral keys
	KeyPrefix = "analysis:"
)

// Level tells which tier answered a lookup
type Level string

const (
	LevelEphemeral Level = "ephemeral"
	LevelDurable   Level = "durable"
	LevelMiss      Level = "miss"
)

// Submitter hands work to a background queue without blocking
type Submitter interface {
	Submit(t work.Task) bool
}

// Stats counts lookups per answering tier
type Stats struct {
	EphemeralHits int64 `json:"ephemeral_hits"`
	DurableHits   int64 `json:"durable_hits"`
	Misses        int64 `json:"misses"`
	StoreFailures int64 `json:"store_failures"`
}

// TieredCache coordinates the ephemeral and durable stores
type TieredCache struct {
	ephemeral EphemeralStore
	durable   DurableStore
	codec     Codec
	queue     Submitter
	log       zerolog.Logger

	ephemeralHits atomic.Int64
	durableHits   atomic.Int64
	misses        atomic.Int64
	storeFailures atomic.Int64
}

// New creates a TieredCache. Background writes go to queue.
func New(ephemeral EphemeralStore, durable DurableStore, codec Codec, queue Submitter, log zerolog.Logger) *TieredCache {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &TieredCache{
		ephemeral: ephemeral,
		durable:   durable,
		codec:     codec,
		queue:     queue,
		log:       log.With().Str("component", "tiered_cache").Logger(),
	}
}

// Key returns the ephemeral key of a fingerprint
func Key(fingerprint string) string {
	return KeyPrefix + fingerprint
}

// Lookup returns the cached result for fingerprint and the tier that had it.
// A nil result means a miss. Store errors are logged and treated as a miss.
func (c *TieredCache) Lookup(ctx context.Context, fingerprint string) (*domain.AnalysisResult, Level) {
	if result, ok := c.lookupEphemeral(ctx, fingerprint); ok {
		c.ephemeralHits.Add(1)
		return result, LevelEphemeral
	}

	rec, err := c.durable.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		c.log.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Durable lookup failed")
	}
	if rec != nil {
		var result domain.AnalysisResult
		if err := json.Unmarshal(rec.Payload, &result); err != nil {
			c.log.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Discarding undecodable durable record")
		} else {
			c.durableHits.Add(1)
			c.repopulate(fingerprint, result)
			return &result, LevelDurable
		}
	}

	c.misses.Add(1)
	return nil, LevelMiss
}

func (c *TieredCache) lookupEphemeral(ctx context.Context, fingerprint string) (*domain.AnalysisResult, bool) {
	data, ok, err := c.ephemeral.Get(ctx, Key(fingerprint))
	if err != nil {
		c.log.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Ephemeral lookup failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	result, err := c.codec.Unmarshal(data)
	if err != nil {
		c.log.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Discarding undecodable ephemeral entry")
		if err := c.ephemeral.Delete(ctx, Key(fingerprint)); err != nil {
			c.log.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Failed to delete ephemeral entry")
		}
		return nil, false
	}
	return &result, true
}

// repopulate copies a durable hit back into the ephemeral store in the background
func (c *TieredCache) repopulate(fingerprint string, result domain.AnalysisResult) {
	c.queue.Submit(work.Task{
		Name:    "ephemeral_repopulate",
		Subject: fingerprint,
		Run: func(ctx context.Context) error {
			return c.storeEphemeral(ctx, fingerprint, result)
		},
	})
}

// StoreAsync schedules Store on the background queue and returns immediately
func (c *TieredCache) StoreAsync(fingerprint string, result domain.AnalysisResult) {
	c.queue.Submit(work.Task{
		Name:    "analysis_store",
		Subject: fingerprint,
		Run: func(ctx context.Context) error {
			return c.Store(ctx, fingerprint, result)
		},
	})
}

// Store writes result to both tiers. The ephemeral write always happens; the
// durable write only creates a record if none exists. The returned error is
// for observation only.
func (c *TieredCache) Store(ctx context.Context, fingerprint string, result domain.AnalysisResult) error {
	ephErr := c.storeEphemeral(ctx, fingerprint, result)
	durErr := c.storeDurable(ctx, fingerprint, result)

	err := errors.Join(ephErr, durErr)
	if err != nil {
		c.storeFailures.Add(1)
	}
	return err
}

func (c *TieredCache) storeEphemeral(ctx context.Context, fingerprint string, result domain.AnalysisResult) error {
	data, err := c.codec.Marshal(result)
	if err != nil {
		return fmt.Errorf("ephemeral encode: %w", err)
	}
	if err := c.ephemeral.Set(ctx, Key(fingerprint), data, EphemeralTTL); err != nil {
		return fmt.Errorf("ephemeral set: %w", err)
	}
	return nil
}

func (c *TieredCache) storeDurable(ctx context.Context, fingerprint string, result domain.AnalysisResult) error {
	existing, err := c.durable.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		c.log.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Durable existence check failed, attempting insert")
	}
	if existing != nil {
		return nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("durable encode: %w", err)
	}

	outcome, err := c.durable.InsertIfAbsent(ctx, fingerprint, payload)
	if err != nil {
		return fmt.Errorf("durable insert: %w", err)
	}
	c.log.Debug().
		Str("fingerprint", fingerprint).
		Str("outcome", outcome.String()).
		Msg("Durable store finished")
	return nil
}

// Stats returns lookup counters
func (c *TieredCache) Stats() Stats {
	return Stats{
		EphemeralHits: c.ephemeralHits.Load(),
		DurableHits:   c.durableHits.Load(),
		Misses:        c.misses.Load(),
		StoreFailures: c.storeFailures.Load(),
	}
}
