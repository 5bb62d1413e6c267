package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mr1hm/hazardwatch/internal/geo"
	"github.com/mr1hm/hazardwatch/internal/models"
)

// ErrDuplicateKey reports a write rejected by the (source, source_event_id)
// unique constraint.
var ErrDuplicateKey = errors.New("duplicate idempotency key")

// ErrNotFound reports a lookup for a row that does not exist.
var ErrNotFound = errors.New("not found")

// CandidateQuery selects open events that could absorb an observation:
// same hazard type, activity interval overlapping [From, To], representative
// coordinates inside Box. Results are ordered by last_updated descending.
type CandidateQuery struct {
	HazardType string
	From       time.Time
	To         time.Time
	Box        geo.Box
}

type ObservationRepository interface {
	// InsertBatch persists all observations in one transaction. Either every
	// row is committed and has its ID set, or none are.
	InsertBatch(ctx context.Context, obs []*models.Observation) error
	// ExistingKeys returns the source event ids already stored for source
	// with timestamp at or after since.
	ExistingKeys(ctx context.Context, source models.Source, since time.Time) (map[string]struct{}, error)
	// KeyExists checks a single (source, source_event_id) pair.
	KeyExists(ctx context.Context, source models.Source, key string) (bool, error)
	GetObservation(ctx context.Context, id int64) (*models.Observation, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) error
	// CountByEvent counts observations linked to an event.
	CountByEvent(ctx context.Context, eventID int64) (int, error)
}

type EventRepository interface {
	FindCandidateEvents(ctx context.Context, q CandidateQuery) ([]*models.DisasterEvent, error)
	// CreateEvent persists a new event and sets its ID.
	CreateEvent(ctx context.Context, e *models.DisasterEvent) error
	// LinkObservation sets the observation's event reference and applies the
	// rollup update (report_count, last_updated, severity) in one
	// transaction. On success both structs reflect the committed state.
	LinkObservation(ctx context.Context, e *models.DisasterEvent, o *models.Observation) error
	GetEvent(ctx context.Context, id int64) (*models.DisasterEvent, error)
}
