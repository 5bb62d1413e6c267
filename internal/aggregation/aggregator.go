// Package aggregation clusters trustworthy observations into persistent
// disaster events using a deterministic space/time matching rule.
package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mr1hm/hazardwatch/internal/geo"
	"github.com/mr1hm/hazardwatch/internal/models"
	"github.com/mr1hm/hazardwatch/internal/repository"
)

// Store is the slice of storage the aggregator needs.
type Store interface {
	FindCandidateEvents(ctx context.Context, q repository.CandidateQuery) ([]*models.DisasterEvent, error)
	CreateEvent(ctx context.Context, e *models.DisasterEvent) error
	LinkObservation(ctx context.Context, e *models.DisasterEvent, o *models.Observation) error
}

type Aggregator struct {
	store      Store
	timeWindow time.Duration
	boxDegrees float64
	logger     *slog.Logger
}

func New(store Store, timeWindow time.Duration, boxDegrees float64, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		store:      store,
		timeWindow: timeWindow,
		boxDegrees: boxDegrees,
		logger:     logger,
	}
}

// Aggregate links an eligible observation into a matching open event, or
// creates a new event seeded from it. Returns (nil, nil) as a no-op for
// ineligible or already-linked observations, and (nil, err) on any storage
// failure; the observation then stays unlinked and eligible for a later run.
//
// Candidates are ordered by last_updated descending and the first wins. A
// nearer but less recently active event loses to a more recent one; this
// tie-break is a documented limitation, kept for predictability.
func (a *Aggregator) Aggregate(ctx context.Context, o *models.Observation) (*models.DisasterEvent, error) {
	if o == nil {
		return nil, nil
	}
	if !o.Status.AggregationEligible() {
		a.logger.Warn("skipping aggregation: observation status not eligible",
			"observation_id", o.ID, "status", o.Status)
		return nil, nil
	}
	if o.EventID != nil {
		a.logger.Warn("skipping aggregation: observation already linked",
			"observation_id", o.ID, "event_id", *o.EventID)
		return nil, nil
	}
	if o.Timestamp.IsZero() {
		a.logger.Error("skipping aggregation: observation has no timestamp", "observation_id", o.ID)
		return nil, nil
	}

	q := repository.CandidateQuery{
		HazardType: o.HazardType,
		From:       o.Timestamp.Add(-a.timeWindow),
		To:         o.Timestamp.Add(a.timeWindow),
		Box:        geo.BoundingBox(o.Latitude, o.Longitude, a.boxDegrees),
	}

	candidates, err := a.store.FindCandidateEvents(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("error querying candidate events for observation %d: %w", o.ID, err)
	}

	var event *models.DisasterEvent
	if len(candidates) > 0 {
		event = candidates[0]
		a.logger.Info("matched observation to existing event",
			"observation_id", o.ID, "event_id", event.ID)
	} else {
		event = &models.DisasterEvent{
			Title:       fmt.Sprintf("%s event near %.2f, %.2f", titleCase(o.HazardType), o.Latitude, o.Longitude),
			HazardType:  o.HazardType,
			Status:      models.EventStatusActive,
			StartTime:   o.Timestamp,
			LastUpdated: o.Timestamp,
			Latitude:    o.Latitude,
			Longitude:   o.Longitude,
			Severity:    o.Severity,
			ReportCount: 0,
		}
		// The event needs a stable id before anything references it.
		if err := a.store.CreateEvent(ctx, event); err != nil {
			return nil, fmt.Errorf("error creating event for observation %d: %w", o.ID, err)
		}
		a.logger.Info("created new event for observation",
			"observation_id", o.ID, "event_id", event.ID)
	}

	if err := a.store.LinkObservation(ctx, event, o); err != nil {
		return nil, fmt.Errorf("error linking observation %d to event %d: %w", o.ID, event.ID, err)
	}

	return event, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
