package calendar

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

var errNoFeed = errors.New("no external calendar feed configured")

// Feed is a read-only pull of external events within a time window.
type Feed interface {
	Events(ctx context.Context, from, to time.Time) ([]Event, error)
}

// Reconciler merges locally created appointment events with the most
// recent external feed pull into one deterministic view. The external set
// is rebuilt wholesale on every applied pull; local events are owned
// separately and survive feed failures.
type Reconciler struct {
	feed         Feed
	windowPast   time.Duration
	windowFuture time.Duration
	log          *zap.Logger
	now          func() time.Time

	mu          sync.Mutex
	local       []Event
	external    []Event
	pullSeq     uint64
	lastApplied uint64
}

func NewReconciler(feed Feed, windowPast, windowFuture time.Duration, log *zap.Logger) *Reconciler {
	return &Reconciler{
		feed:         feed,
		windowPast:   windowPast,
		windowFuture: windowFuture,
		log:          log,
		now:          time.Now,
	}
}

// AddLocal records an event derived from a successfully submitted
// appointment request. An event with the same id replaces the previous one.
func (r *Reconciler) AddLocal(ev Event) {
	ev.Provenance = ProvenanceLocal
	if ev.Category == "" {
		ev.Category = CategoryTime
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.local {
		if r.local[i].ID == ev.ID {
			r.local[i] = ev
			return
		}
	}
	r.local = append(r.local, ev)
}

// RefreshExternal pulls the feed for the configured window. Pulls are
// sequence-stamped: a response belonging to a pull older than the last
// applied one is discarded, so two rapid pulls resolving out of order
// cannot leave stale data in the view. On failure the previous external
// set is kept and local events are never touched.
func (r *Reconciler) RefreshExternal(ctx context.Context) error {
	if r.feed == nil {
		return errNoFeed
	}

	r.mu.Lock()
	r.pullSeq++
	seq := r.pullSeq
	r.mu.Unlock()

	now := r.now()
	events, err := r.feed.Events(ctx, now.Add(-r.windowPast), now.Add(r.windowFuture))
	if err != nil {
		r.log.Warn("external feed refresh failed, view degrades to last pull", zap.Error(err))
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if seq <= r.lastApplied {
		r.log.Debug("discarding stale feed response",
			zap.Uint64("pull_seq", seq),
			zap.Uint64("last_applied", r.lastApplied),
		)
		return nil
	}
	r.lastApplied = seq

	r.external = r.external[:0]
	for _, ev := range events {
		ev.Provenance = ProvenanceExternal
		if ev.Category == "" {
			ev.Category = CategoryTime
		}
		r.external = append(r.external, ev)
	}

	r.log.Info("external feed applied", zap.Int("events", len(r.external)), zap.Uint64("pull_seq", seq))
	return nil
}

// MergedView returns the union of local events and the last applied
// external pull, ordered by start ascending. Ties break local before
// external, then by title, then by id, so repeated renders of the same
// state are byte-for-byte stable.
func (r *Reconciler) MergedView() []Event {
	r.mu.Lock()
	merged := make([]Event, 0, len(r.local)+len(r.external))
	merged = append(merged, r.local...)
	merged = append(merged, r.external...)
	r.mu.Unlock()

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.Provenance != b.Provenance {
			return a.Provenance == ProvenanceLocal
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})

	return merged
}
