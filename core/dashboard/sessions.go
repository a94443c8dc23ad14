package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-dashboard/core"
)

// Sessions keeps one Aggregator per dashboard owner.
type Sessions struct {
	factory ProviderFactory
	logger  core.Logger
	metrics *Metrics
	opts    []Option

	mu   sync.Mutex
	aggs map[string]*Aggregator
}

// NewSessions creates the registry; metrics may be nil. opts are applied to every Aggregator it creates.
func NewSessions(factory ProviderFactory, logger core.Logger, metrics *Metrics, opts ...Option) *Sessions {
	vala.BeginValidation().Validate(
		vala.IsNotNil(factory, "factory"),
	).CheckAndPanic()
	if logger == nil {
		panic("dashboard: nil logger")
	}

	return &Sessions{
		factory: factory,
		logger:  logger,
		metrics: metrics,
		opts:    append([]Option{WithMetrics(metrics)}, opts...),
		aggs:    make(map[string]*Aggregator),
	}
}

// Get returns the Aggregator of ownerID, creating it on first use. created reports whether it is new.
func (s *Sessions) Get(ownerID string) (agg *Aggregator, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if agg, ok := s.aggs[ownerID]; ok {
		return agg, false
	}
	agg = NewAggregator(s.factory(ownerID), s.logger, s.opts...)
	s.aggs[ownerID] = agg
	s.metrics.setSessions(len(s.aggs))
	return agg, true
}

// Open returns the Aggregator of ownerID, loading it on first use.
func (s *Sessions) Open(ctx context.Context, ownerID string) (*Aggregator, error) {
	agg, created := s.Get(ownerID)
	if created {
		if err := agg.Load(ctx); err != nil && err != ErrSuperseded {
			return agg, err
		}
	}
	return agg, nil
}

// Forget drops the Aggregator of ownerID.
func (s *Sessions) Forget(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.aggs, ownerID)
	s.metrics.setSessions(len(s.aggs))
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.aggs)
}

// RefreshAll refreshes every open dashboard concurrently and returns the first provider error.
// Failures are also recorded in each Aggregator's state.
func (s *Sessions) RefreshAll(ctx context.Context) error {
	s.mu.Lock()
	aggs := make(map[string]*Aggregator, len(s.aggs))
	for id, agg := range s.aggs {
		aggs[id] = agg
	}
	s.mu.Unlock()

	var g errgroup.Group
	for id, agg := range aggs {
		id, agg := id, agg
		g.Go(func() error {
			if err := agg.Refresh(ctx); err != nil && err != ErrSuperseded {
				return errors.Wrapf(err, "refreshing dashboard of %s", id)
			}
			return nil
		})
	}
	return g.Wait()
}

// Run refreshes every open dashboard each interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshAll(ctx); err != nil {
				s.logger.Warn("dashboard: periodic refresh", err)
			}
		}
	}
}
