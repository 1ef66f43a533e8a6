package view

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pos-dispatch/internal/order"
)

// Fetcher is the read side of the dispatch API consumed by the reconciler.
type Fetcher interface {
	FetchAvailable(ctx context.Context, page, limit int) ([]*order.Order, order.PageMeta, error)
	FetchMine(ctx context.Context, driverID string, page, limit int) ([]*order.Order, order.PageMeta, error)
}

// Snapshot is an immutable copy of both views handed to subscribers.
type Snapshot struct {
	Available []*order.Order
	Mine      []*order.Order
}

type Config struct {
	DriverID     string
	PollInterval time.Duration
	PageLimit    int
}

func DefaultConfig(driverID string) Config {
	return Config{
		DriverID:     driverID,
		PollInterval: 10 * time.Second,
		PageLimit:    50,
	}
}

// Reconciler keeps one client's "available" and "mine" order views
// consistent with server truth without a push channel: an unconditional
// periodic poll bounds staleness, and optimistic merges of locally-known
// mutations cover the latency in between. Server-polled state always wins.
type Reconciler struct {
	cfg     Config
	fetcher Fetcher

	mu        sync.Mutex
	available map[uuid.UUID]*order.Order
	mine      map[uuid.UUID]*order.Order
	subs      map[int]func(Snapshot)
	nextSub   int
	inFlight  bool
	pending   bool
	pollDone  chan struct{}
	running   bool
}

func NewReconciler(cfg Config, fetcher Fetcher) *Reconciler {
	return &Reconciler{
		cfg:       cfg,
		fetcher:   fetcher,
		available: make(map[uuid.UUID]*order.Order),
		mine:      make(map[uuid.UUID]*order.Order),
		subs:      make(map[int]func(Snapshot)),
	}
}

// Subscribe registers an observer for view changes and returns its
// unsubscribe func. Observers belong to this reconciler instance; there is
// no process-wide registry.
func (r *Reconciler) Subscribe(fn func(Snapshot)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Start begins the periodic poll loop and runs one refresh immediately.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.pollDone = make(chan struct{})
	done := r.pollDone
	r.mu.Unlock()

	r.Refresh(ctx)

	go func() {
		ticker := time.NewTicker(r.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Refresh(ctx)
			}
		}
	}()
}

func (r *Reconciler) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.pollDone)
	r.pollDone = nil
	r.mu.Unlock()
}

// Refresh requests a poll of both views. If one is already in flight the
// request collapses into a single pending flag: however many triggers
// arrive meanwhile, exactly one follow-up poll runs when the current one
// completes.
func (r *Reconciler) Refresh(ctx context.Context) {
	r.mu.Lock()
	if r.inFlight {
		r.pending = true
		r.mu.Unlock()
		return
	}
	r.inFlight = true
	r.mu.Unlock()

	go r.poll(ctx)
}

func (r *Reconciler) poll(ctx context.Context) {
	available, _, availErr := r.fetcher.FetchAvailable(ctx, 1, r.cfg.PageLimit)
	mine, _, mineErr := r.fetcher.FetchMine(ctx, r.cfg.DriverID, 1, r.cfg.PageLimit)

	r.mu.Lock()
	if availErr == nil {
		r.available = make(map[uuid.UUID]*order.Order, len(available))
		for _, o := range available {
			r.available[o.ID] = o
		}
	}
	if mineErr == nil {
		r.mine = make(map[uuid.UUID]*order.Order, len(mine))
		for _, o := range mine {
			r.mine[o.ID] = o
		}
	}
	r.inFlight = false
	rerun := r.pending
	r.pending = false
	if rerun {
		r.inFlight = true
	}
	snapshot, subs := r.snapshotLocked()
	r.mu.Unlock()

	if availErr != nil {
		slog.WarnContext(ctx, "available view poll failed", slog.String("error", availErr.Error()))
	}
	if mineErr != nil {
		slog.WarnContext(ctx, "mine view poll failed", slog.String("error", mineErr.Error()))
	}

	notify(subs, snapshot)

	if rerun {
		go r.poll(ctx)
	}
}

// Apply optimistically merges one updated order into both views: it stays
// in "available" only while genuinely claimable, and sits in "mine" iff its
// assignment matches this client's identity. The next poll supersedes the
// merge, bounding staleness to one poll interval.
func (r *Reconciler) Apply(o *order.Order) {
	r.mu.Lock()
	if o.Available() {
		r.available[o.ID] = o
	} else {
		delete(r.available, o.ID)
	}
	if o.AssignedDriverID != nil && *o.AssignedDriverID == r.cfg.DriverID {
		r.mine[o.ID] = o
	} else {
		delete(r.mine, o.ID)
	}
	snapshot, subs := r.snapshotLocked()
	r.mu.Unlock()

	notify(subs, snapshot)
}

// Snapshot returns the current state of both views.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, _ := r.snapshotLocked()
	return s
}

func (r *Reconciler) snapshotLocked() (Snapshot, []func(Snapshot)) {
	s := Snapshot{
		Available: sortedOrders(r.available),
		Mine:      sortedOrders(r.mine),
	}
	subs := make([]func(Snapshot), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	return s, subs
}

func sortedOrders(m map[uuid.UUID]*order.Order) []*order.Order {
	out := make([]*order.Order, 0, len(m))
	for _, o := range m {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func notify(subs []func(Snapshot), s Snapshot) {
	for _, fn := range subs {
		fn(s)
	}
}
