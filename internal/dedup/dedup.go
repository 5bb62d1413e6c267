// Package dedup filters a batch of observations against already-persisted
// data and against itself, keyed on (source, source_event_id).
package dedup

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/hazardwatch/internal/models"
)

// KeyStore is the slice of storage the deduplicator needs.
type KeyStore interface {
	ExistingKeys(ctx context.Context, source models.Source, since time.Time) (map[string]struct{}, error)
	KeyExists(ctx context.Context, source models.Source, key string) (bool, error)
}

type Deduplicator struct {
	store  KeyStore
	clock  clockwork.Clock
	window time.Duration
	logger *slog.Logger
}

func New(store KeyStore, clock clockwork.Clock, window time.Duration, logger *slog.Logger) *Deduplicator {
	return &Deduplicator{
		store:  store,
		clock:  clock,
		window: window,
		logger: logger,
	}
}

// Dedupe returns the observations that survive both passes: the intra-batch
// pass drops later repeats of a key already seen in this call, and the
// storage pass drops keys persisted within the recency window. Keyless
// observations (user submissions) always survive.
//
// The bulk prefetch of existing keys is per source; if it fails the pass
// degrades to per-record existence checks. A failed per-record check drops
// that single record, fail-closed, so a storage hiccup can never let a
// duplicate through.
func (d *Deduplicator) Dedupe(ctx context.Context, candidates []*models.Observation) []*models.Observation {
	if len(candidates) == 0 {
		return nil
	}

	since := d.clock.Now().Add(-d.window)

	// One prefetch per source present in the batch; nil marks degraded mode.
	existing := make(map[models.Source]map[string]struct{})
	for _, o := range candidates {
		if !o.HasKey() {
			continue
		}
		if _, done := existing[o.Source]; done {
			continue
		}
		keys, err := d.store.ExistingKeys(ctx, o.Source, since)
		if err != nil {
			d.logger.Error("bulk key prefetch failed, degrading to per-record checks",
				"source", o.Source, "error", err)
			keys = nil
		}
		existing[o.Source] = keys
	}

	seen := make(map[string]struct{}, len(candidates))
	survivors := make([]*models.Observation, 0, len(candidates))

	for _, o := range candidates {
		if !o.HasKey() {
			survivors = append(survivors, o)
			continue
		}

		key := o.DedupeKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if keys := existing[o.Source]; keys != nil {
			if _, dup := keys[o.SourceEventID]; dup {
				continue
			}
		} else {
			exists, err := d.store.KeyExists(ctx, o.Source, o.SourceEventID)
			if err != nil {
				d.logger.Error("per-record existence check failed, dropping record",
					"source", o.Source, "key", o.SourceEventID, "error", err)
				continue
			}
			if exists {
				continue
			}
		}

		survivors = append(survivors, o)
	}

	return survivors
}
