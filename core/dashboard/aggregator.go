package dashboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-dashboard/core"
)

// ErrSuperseded is returned by a load whose result was discarded because a newer load was issued meanwhile.
var ErrSuperseded = errors.New("dashboard load superseded by a newer one")

type (
	// State is what the presentation layer reads from an Aggregator.
	State struct {
		Metrics       []SummaryMetric `json:"metrics"`
		WorkItems     []WorkItem      `json:"work_items"`
		Activity      []ActivityEvent `json:"activity"`
		Announcements []Announcement  `json:"announcements"`
		Loading       bool            `json:"loading"`
		LastError     error           `json:"-"`
		LoadedAt      time.Time       `json:"loaded_at"`
		Seq           uint64          `json:"seq"`
	}

	// Aggregator holds the current dashboard snapshot of one owner and reloads it from a Provider.
	Aggregator struct {
		provider Provider
		logger   core.Logger
		metrics  *Metrics
		now      func() time.Time

		mu       sync.Mutex
		seq      uint64 // latest issued load
		state    State
		watchers map[chan State]struct{}
	}

	Option func(agg *Aggregator)
)

func WithClock(now func() time.Time) Option {
	return func(agg *Aggregator) { agg.now = now }
}

func WithMetrics(m *Metrics) Option {
	return func(agg *Aggregator) { agg.metrics = m }
}

func NewAggregator(provider Provider, logger core.Logger, opts ...Option) *Aggregator {
	if provider == nil {
		panic("dashboard: nil provider")
	}
	if logger == nil {
		panic("dashboard: nil logger")
	}

	agg := &Aggregator{
		provider: provider,
		logger:   logger,
		now:      time.Now,
		watchers: make(map[chan State]struct{}),
	}
	for _, opt := range opts {
		opt(agg)
	}
	vala.BeginValidation().Validate(
		vala.IsNotNil(agg.now, "clock"),
	).CheckAndPanic()
	return agg
}

// Load fetches a fresh snapshot and replaces the four collections at once.
// A provider failure is recorded in State().LastError and returned as a *ProviderError; prior collections are kept.
// When a newer load is issued before this one completes, its result is dropped and ErrSuperseded is returned.
func (agg *Aggregator) Load(ctx context.Context) error {
	agg.mu.Lock()
	agg.seq++
	seq := agg.seq
	agg.state.Loading = true
	agg.notifyLocked()
	agg.mu.Unlock()

	start := agg.now()
	snap, err := agg.provider.FetchSnapshot(ctx)
	elapsed := agg.now().Sub(start)

	agg.mu.Lock()
	defer agg.mu.Unlock()

	if seq != agg.seq {
		agg.metrics.observe(outcomeStale, elapsed)
		agg.logger.Debug("dashboard: dropping stale load", map[string]interface{}{"seq": seq, "latest": agg.seq})
		return ErrSuperseded
	}

	agg.state.Loading = false
	agg.state.Seq = seq
	if err != nil {
		var perr *ProviderError
		if !errors.As(err, &perr) {
			perr = &ProviderError{Err: err}
		}
		agg.state.LastError = perr
		agg.metrics.observe(outcomeError, elapsed)
		agg.logger.Warn("dashboard: load failed", perr)
		agg.notifyLocked()
		return perr
	}

	agg.state.Metrics = cloneMetrics(snap.Metrics)
	agg.state.WorkItems = cloneWorkItems(snap.WorkItems)
	agg.state.Activity = sortActivity(cloneActivity(snap.Activity))
	agg.state.Announcements = cloneAnnouncements(snap.Announcements)
	agg.state.LastError = nil
	agg.state.LoadedAt = snap.FetchedAt
	if agg.state.LoadedAt.IsZero() {
		agg.state.LoadedAt = agg.now()
	}
	agg.metrics.observe(outcomeSuccess, elapsed)
	agg.notifyLocked()
	return nil
}

// Refresh reloads the whole snapshot; same contract as Load.
func (agg *Aggregator) Refresh(ctx context.Context) error {
	return agg.Load(ctx)
}

// State returns a copy of the current state.
func (agg *Aggregator) State() State {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	return agg.state.clone()
}

// UpcomingWorkItems applies the window filter to the current snapshot.
func (agg *Aggregator) UpcomingWorkItems(w TimeWindow, now time.Time) []WorkItem {
	agg.mu.Lock()
	items := agg.state.WorkItems
	agg.mu.Unlock()
	return FilterWorkItemsByWindow(w, items, now)
}

// Watch returns a channel receiving the current state, then every state change until ctx is done.
// A slow reader only gets the latest state.
func (agg *Aggregator) Watch(ctx context.Context) <-chan State {
	ch := make(chan State, 1)

	agg.mu.Lock()
	agg.watchers[ch] = struct{}{}
	ch <- agg.state.clone()
	agg.mu.Unlock()

	go func() {
		<-ctx.Done()
		agg.mu.Lock()
		delete(agg.watchers, ch)
		close(ch)
		agg.mu.Unlock()
	}()
	return ch
}

// notifyLocked must be called with agg.mu held; it is the only sender on watcher channels.
func (agg *Aggregator) notifyLocked() {
	if len(agg.watchers) == 0 {
		return
	}
	st := agg.state.clone()
	for ch := range agg.watchers {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- st
		}
	}
}

func (st State) clone() State {
	st.Metrics = cloneMetrics(st.Metrics)
	st.WorkItems = cloneWorkItems(st.WorkItems)
	st.Activity = cloneActivity(st.Activity)
	st.Announcements = cloneAnnouncements(st.Announcements)
	return st
}

// sortActivity orders events newest first, ties by ID.
func sortActivity(events []ActivityEvent) []ActivityEvent {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].OccurredAt.Equal(events[j].OccurredAt) {
			return events[i].OccurredAt.After(events[j].OccurredAt)
		}
		return events[i].ID < events[j].ID
	})
	return events
}

func cloneMetrics(s []SummaryMetric) []SummaryMetric {
	return append(make([]SummaryMetric, 0, len(s)), s...)
}

func cloneWorkItems(s []WorkItem) []WorkItem {
	return append(make([]WorkItem, 0, len(s)), s...)
}

func cloneActivity(s []ActivityEvent) []ActivityEvent {
	return append(make([]ActivityEvent, 0, len(s)), s...)
}

func cloneAnnouncements(s []Announcement) []Announcement {
	return append(make([]Announcement, 0, len(s)), s...)
}
