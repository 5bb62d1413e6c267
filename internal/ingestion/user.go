package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/hazardwatch/internal/models"
)

// Submission is a raw user-submitted hazard report, handed over by the web
// layer. It carries no source event id; the generated row id serves as its
// identity once persisted.
type Submission struct {
	HazardType  string
	Title       string
	Description string
	Latitude    float64
	Longitude   float64
	Severity    *int
	Timestamp   time.Time
}

// UserQueue is the intake buffer between the web layer and the pipeline.
type UserQueue struct {
	mu      sync.Mutex
	pending []Submission
}

func NewUserQueue() *UserQueue {
	return &UserQueue{}
}

func (q *UserQueue) Enqueue(s Submission) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, s)
}

func (q *UserQueue) drain() []Submission {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// UserAdapter drains queued user submissions and normalizes them into
// untrusted pending observations awaiting moderation.
type UserAdapter struct {
	queue  *UserQueue
	clock  clockwork.Clock
	logger *slog.Logger
}

func NewUserAdapter(queue *UserQueue, clock clockwork.Clock, logger *slog.Logger) *UserAdapter {
	return &UserAdapter{
		queue:  queue,
		clock:  clock,
		logger: logger,
	}
}

func (a *UserAdapter) Name() string { return "user" }

func (a *UserAdapter) Fetch(_ context.Context) ([]*models.Observation, error) {
	submissions := a.queue.drain()
	observations := make([]*models.Observation, 0, len(submissions))

	for _, s := range submissions {
		if s.HazardType == "" {
			a.logger.Warn("skipping user submission: missing hazard type")
			continue
		}
		if !models.ValidCoordinates(s.Latitude, s.Longitude) {
			a.logger.Warn("skipping user submission: coordinates out of range",
				"lat", s.Latitude, "lon", s.Longitude)
			continue
		}
		if s.Severity != nil && (*s.Severity < 1 || *s.Severity > 5) {
			a.logger.Warn("skipping user submission: severity out of range", "severity", *s.Severity)
			continue
		}

		ts := s.Timestamp
		if ts.IsZero() {
			ts = a.clock.Now()
		}

		observations = append(observations, &models.Observation{
			Source:      models.SourceUser,
			HazardType:  s.HazardType,
			Title:       s.Title,
			Description: s.Description,
			Latitude:    s.Latitude,
			Longitude:   s.Longitude,
			Severity:    s.Severity,
			Timestamp:   ts.UTC(),
			TrustFlag:   false,
			Status:      models.StatusPending,
		})
	}

	return observations, nil
}
