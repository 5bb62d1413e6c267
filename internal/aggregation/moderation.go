package aggregation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mr1hm/hazardwatch/internal/models"
)

// ObservationStore is the slice of storage moderation needs.
type ObservationStore interface {
	GetObservation(ctx context.Context, id int64) (*models.Observation, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) error
}

// Moderator applies a moderation decision to a pending user observation and
// feeds accepted ones into the aggregator. It is the entry point the external
// moderation surface calls; the decision itself (who approves what) lives
// outside this engine.
type Moderator struct {
	store      ObservationStore
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewModerator(store ObservationStore, aggregator *Aggregator, logger *slog.Logger) *Moderator {
	return &Moderator{
		store:      store,
		aggregator: aggregator,
		logger:     logger,
	}
}

// Moderate transitions the observation to next and, on verified_agg, runs
// aggregation for it. The returned event is non-nil only when aggregation
// linked or created one.
func (m *Moderator) Moderate(ctx context.Context, observationID int64, next models.Status) (*models.DisasterEvent, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("invalid status %q", next)
	}

	o, err := m.store.GetObservation(ctx, observationID)
	if err != nil {
		return nil, fmt.Errorf("error loading observation %d: %w", observationID, err)
	}

	if !o.Status.CanTransition(next) {
		return nil, fmt.Errorf("illegal transition %s -> %s for observation %d", o.Status, next, observationID)
	}

	if err := m.store.UpdateStatus(ctx, observationID, next); err != nil {
		return nil, fmt.Errorf("error updating status of observation %d: %w", observationID, err)
	}
	o.Status = next

	m.logger.Info("moderated observation", "observation_id", observationID, "status", next)

	if next != models.StatusVerifiedAgg {
		return nil, nil
	}

	event, err := m.aggregator.Aggregate(ctx, o)
	if err != nil {
		// The status change stands; the observation stays eligible and a
		// later run can aggregate it.
		m.logger.Error("aggregation after moderation failed",
			"observation_id", observationID, "error", err)
		return nil, err
	}
	return event, nil
}
