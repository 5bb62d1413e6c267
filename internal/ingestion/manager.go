package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/hazardwatch/internal/cache"
	"github.com/mr1hm/hazardwatch/internal/config"
	"github.com/mr1hm/hazardwatch/internal/models"
	"github.com/mr1hm/hazardwatch/internal/observability"
	"github.com/mr1hm/hazardwatch/internal/worker"
)

// Deduper filters a combined batch against storage and itself.
type Deduper interface {
	Dedupe(ctx context.Context, candidates []*models.Observation) []*models.Observation
}

// EventAggregator links one committed observation into a disaster event.
type EventAggregator interface {
	Aggregate(ctx context.Context, o *models.Observation) (*models.DisasterEvent, error)
}

// BatchStore persists a deduplicated batch atomically.
type BatchStore interface {
	InsertBatch(ctx context.Context, obs []*models.Observation) error
}

// AdapterOutcome reports one adapter's run within a pipeline pass.
type AdapterOutcome struct {
	Adapter string
	Fetched int
	Err     error
}

// Result summarizes one pipeline run.
type Result struct {
	Committed  int
	Aggregated int
	Outcomes   []AdapterOutcome
	CommitErr  error
}

// Manager owns the fetch pipeline: it fans all adapters out, dedupes and
// commits the combined batch, triggers aggregation for the committed
// observations, and signals cache invalidation. Runs are serial; the caller
// must not start two runs concurrently against the same storage.
type Manager struct {
	cfg         *config.Config
	adapters    []Adapter
	store       BatchStore
	deduper     Deduper
	aggregator  EventAggregator
	invalidator cache.Invalidator
	metrics     *observability.Metrics
	clock       clockwork.Clock
	logger      *slog.Logger
	pool        *worker.Pool
	wg          sync.WaitGroup
	cancel      context.CancelFunc
}

func NewManager(
	cfg *config.Config,
	adapters []Adapter,
	store BatchStore,
	deduper Deduper,
	aggregator EventAggregator,
	invalidator cache.Invalidator,
	metrics *observability.Metrics,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Manager {
	m := &Manager{
		cfg:         cfg,
		adapters:    adapters,
		store:       store,
		deduper:     deduper,
		aggregator:  aggregator,
		invalidator: invalidator,
		metrics:     metrics,
		clock:       clock,
		logger:      logger,
	}
	m.pool = worker.NewPool(cfg.Worker.Count, func(ctx context.Context, job worker.Job) (any, error) {
		return job.(Adapter).Fetch(ctx)
	})
	return m
}

// RunAll executes one full pipeline pass. One adapter's failure never
// cancels the others; its outcome carries the error and the rest of the
// batch proceeds.
func (m *Manager) RunAll(ctx context.Context) Result {
	start := time.Now()
	m.metrics.RunsTotal.Inc()

	jobs := make([]worker.Job, len(m.adapters))
	for i, a := range m.adapters {
		jobs[i] = a
	}

	var (
		result   Result
		combined []*models.Observation
	)
	for _, r := range m.pool.Run(ctx, jobs) {
		a := r.Job.(Adapter)
		outcome := AdapterOutcome{Adapter: a.Name(), Err: r.Err}

		if r.Err != nil {
			m.logger.Error("adapter run failed", "adapter", a.Name(), "error", r.Err)
			m.metrics.AdapterErrors.WithLabelValues(a.Name()).Inc()
		} else if obs, ok := r.Value.([]*models.Observation); ok {
			outcome.Fetched = len(obs)
			combined = append(combined, obs...)
			m.metrics.ObservationsFetched.WithLabelValues(a.Name()).Add(float64(len(obs)))
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	survivors := m.deduper.Dedupe(ctx, combined)
	m.metrics.ObservationsDeduped.Add(float64(len(combined) - len(survivors)))

	if len(survivors) == 0 {
		m.logger.Info("pipeline run complete, nothing new to commit")
		m.metrics.RunDuration.Observe(time.Since(start).Seconds())
		return result
	}

	now := m.clock.Now().UTC()
	for _, o := range survivors {
		o.CreatedAt = now
	}

	// Single all-or-nothing commit for the whole batch.
	if err := m.store.InsertBatch(ctx, survivors); err != nil {
		m.logger.Error("batch commit failed, rolled back", "count", len(survivors), "error", err)
		m.metrics.CommitFailures.Inc()
		result.CommitErr = err
		m.metrics.RunDuration.Observe(time.Since(start).Seconds())
		return result
	}
	result.Committed = len(survivors)
	m.metrics.ObservationsCommitted.Add(float64(len(survivors)))

	// Aggregation runs in its own persistence boundary; a failure here never
	// reverses the committed observations, the record just stays unlinked.
	for _, o := range survivors {
		if !o.Status.AggregationEligible() {
			continue
		}
		event, err := m.aggregator.Aggregate(ctx, o)
		if err != nil {
			m.logger.Error("aggregation failed", "observation_id", o.ID, "error", err)
			m.metrics.AggregationErrors.Inc()
			continue
		}
		if event != nil {
			result.Aggregated++
			m.metrics.EventsAggregated.Inc()
		}
	}

	if err := m.invalidator.Invalidate(ctx); err != nil {
		// Best-effort: a stale cache is not a pipeline failure.
		m.logger.Warn("cache invalidation failed", "error", err)
	}

	m.logger.Info("pipeline run complete",
		"fetched", len(combined),
		"committed", result.Committed,
		"aggregated", result.Aggregated,
	)
	m.metrics.RunDuration.Observe(time.Since(start).Seconds())
	return result
}

// Start launches the poll loop: one run immediately, then one per interval.
func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.logger.Info("starting pipeline loop", "interval", m.cfg.Sources.PollInterval)

		ticker := time.NewTicker(m.cfg.Sources.PollInterval)
		defer ticker.Stop()

		m.RunAll(ctx)

		for {
			select {
			case <-ctx.Done():
				m.logger.Info("pipeline loop shutting down")
				return
			case <-ticker.C:
				m.RunAll(ctx)
			}
		}
	}()
}

func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.logger.Info("ingestion manager stopped")
}
