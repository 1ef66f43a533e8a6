package track

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainerrors "pos-dispatch/internal/errors"
	"pos-dispatch/internal/geo"
)

// Fix is a single position sample produced by the device's location API.
type Fix struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (f Fix) Point() geo.Point {
	return geo.NewPoint(f.Lat, f.Lng)
}

// Source is the single capability interface over the platform's location
// APIs: one fresh fix on demand, plus a continuous watch.
type Source interface {
	CurrentFix(ctx context.Context) (Fix, error)
	// Watch begins continuous sampling and invokes fn for every new sample.
	// The returned stop func cancels the subscription synchronously.
	Watch(ctx context.Context, fn func(Fix)) (stop func(), err error)
}

// Reporter transmits accepted samples to the server.
type Reporter interface {
	ReportPosition(ctx context.Context, fix Fix, orderID *string) error
	NotifyStopped(ctx context.Context) error
}

// Store persists the last accepted sample so a restarted process has a
// warm starting point.
type Store interface {
	Load() (*Fix, error)
	Save(Fix) error
}

type State string

const (
	StateStopped   State = "STOPPED"
	StateAcquiring State = "ACQUIRING"
	StateTracking  State = "TRACKING"
)

type Config struct {
	Filter             geo.Filter
	BaseLocation       geo.Point // the business's registered address, last-resort start point
	MinSendInterval    time.Duration
	MovementThresholdM float64
	HeartbeatPeriod    time.Duration
}

func DefaultConfig(filter geo.Filter, base geo.Point) Config {
	return Config{
		Filter:             filter,
		BaseLocation:       base,
		MinSendInterval:    5 * time.Second,
		MovementThresholdM: 8,
		HeartbeatPeriod:    20 * time.Second,
	}
}

// Tracker maintains one continuously-updated position for a driver and
// delivers acceptable samples to the server without overwhelming it.
type Tracker struct {
	cfg      Config
	source   Source
	reporter Reporter
	store    Store

	mu         sync.Mutex
	state      State
	gen        int // bumped on every Stop; stale callbacks check it
	lastKnown  *Fix
	lastSent   *Fix
	lastSentAt time.Time
	orderID    *string
	stopWatch  func()
	hbDone     chan struct{}
}

func New(cfg Config, source Source, reporter Reporter, store Store) *Tracker {
	return &Tracker{
		cfg:      cfg,
		source:   source,
		reporter: reporter,
		store:    store,
		state:    StateStopped,
	}
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetOrderID associates subsequent transmissions with an order.
func (t *Tracker) SetOrderID(orderID *string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.orderID = orderID
}

// Start acquires a starting point, transmits it immediately, and enters
// continuous sampling. Acquisition failures (permission denial, timeout,
// unavailable) leave the tracker STOPPED; a failed geo check does not fail
// the start, it falls back to the best plausible point instead.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.state != StateStopped {
		t.mu.Unlock()
		return domainerrors.NewConflict("tracking is already active")
	}
	t.state = StateAcquiring
	gen := t.gen
	t.mu.Unlock()

	start, err := t.acquireStart(ctx)
	if err != nil {
		t.mu.Lock()
		if t.gen == gen {
			t.state = StateStopped
		}
		t.mu.Unlock()
		return err
	}

	stop, err := t.source.Watch(ctx, func(fix Fix) { t.onSample(ctx, gen, fix) })
	if err != nil {
		t.mu.Lock()
		if t.gen == gen {
			t.state = StateStopped
		}
		t.mu.Unlock()
		return classifyAcquireError(err)
	}

	t.mu.Lock()
	if t.gen != gen {
		// Stop raced with Start; undo the subscription.
		t.mu.Unlock()
		stop()
		return domainerrors.NewConflict("tracking was stopped during start")
	}
	t.state = StateTracking
	t.lastKnown = &start
	t.stopWatch = stop
	t.hbDone = make(chan struct{})
	hbDone := t.hbDone
	t.mu.Unlock()

	// A stale board is worse than one extra request: the starting point
	// bypasses the throttle.
	t.send(ctx, start, true)

	go t.heartbeatLoop(ctx, gen, hbDone)

	return nil
}

// Stop cancels sampling and the heartbeat synchronously: once it returns no
// further samples are accepted. Notifying the server is best-effort.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.state == StateStopped {
		t.mu.Unlock()
		return
	}
	t.gen++
	t.state = StateStopped
	stopWatch := t.stopWatch
	hbDone := t.hbDone
	t.stopWatch = nil
	t.hbDone = nil
	t.lastSent = nil
	t.lastSentAt = time.Time{}
	t.mu.Unlock()

	if stopWatch != nil {
		stopWatch()
	}
	if hbDone != nil {
		close(hbDone)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.reporter.NotifyStopped(ctx); err != nil {
			slog.Warn("stop notification failed", slog.String("error", err.Error()))
		}
	}()
}

// acquireStart requests one fresh high-accuracy fix and, when it fails the
// geo checks, walks the fallback chain: in-process last accepted sample,
// persisted sample from a previous session (service area re-checked),
// finally the business's registered address.
func (t *Tracker) acquireStart(ctx context.Context) (Fix, error) {
	fix, err := t.source.CurrentFix(ctx)
	if err != nil {
		return Fix{}, classifyAcquireError(err)
	}

	if t.accept(fix) {
		t.persist(fix)
		return fix, nil
	}

	t.mu.Lock()
	last := t.lastKnown
	t.mu.Unlock()
	if last != nil {
		return *last, nil
	}

	if stored, err := t.store.Load(); err == nil && stored != nil {
		if t.cfg.Filter.WithinServiceArea(stored.Point()) {
			return *stored, nil
		}
	}

	return Fix{
		Lat:       t.cfg.BaseLocation.Lat,
		Lng:       t.cfg.BaseLocation.Lng,
		Timestamp: time.Now(),
	}, nil
}

func (t *Tracker) accept(fix Fix) bool {
	return t.cfg.Filter.AccuracyAcceptable(fix.Accuracy) &&
		t.cfg.Filter.WithinServiceArea(fix.Point())
}

func (t *Tracker) persist(fix Fix) {
	if err := t.store.Save(fix); err != nil {
		slog.Warn("failed to persist position sample", slog.String("error", err.Error()))
	}
}

// onSample runs for every sample the watch delivers. Samples failing the
// geo guards are dropped silently; accepted samples update last-known,
// are persisted, and go through the throttle.
func (t *Tracker) onSample(ctx context.Context, gen int, fix Fix) {
	if !t.accept(fix) {
		return
	}

	t.mu.Lock()
	if t.gen != gen || t.state != StateTracking {
		t.mu.Unlock()
		return
	}
	f := fix
	t.lastKnown = &f

	moved := t.lastSent == nil ||
		geo.DistanceMeters(t.lastSent.Point(), fix.Point()) > t.cfg.MovementThresholdM
	elapsed := time.Since(t.lastSentAt) >= t.cfg.MinSendInterval
	t.mu.Unlock()

	t.persist(fix)

	if moved || elapsed {
		t.send(ctx, fix, moved)
	}
}

// send transmits a sample. forced sends ignore the 5-second gate (initial
// point, movement beyond the threshold, heartbeats). A failed transmission
// clears the last-sent timestamp so the next sample retries without
// waiting out the throttle window.
func (t *Tracker) send(ctx context.Context, fix Fix, forced bool) {
	t.mu.Lock()
	if !forced && time.Since(t.lastSentAt) < t.cfg.MinSendInterval {
		t.mu.Unlock()
		return
	}
	orderID := t.orderID
	t.mu.Unlock()

	err := t.reporter.ReportPosition(ctx, fix, orderID)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.lastSentAt = time.Time{}
		slog.Warn("position report failed", slog.String("error", err.Error()))
		return
	}
	f := fix
	t.lastSent = &f
	t.lastSentAt = time.Now()
}

// heartbeatLoop re-sends the last known sample periodically so the server's
// last-seen timestamp stays fresh through GPS-quiet periods.
func (t *Tracker) heartbeatLoop(ctx context.Context, gen int, done chan struct{}) {
	ticker := time.NewTicker(t.cfg.HeartbeatPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.gen != gen || t.state != StateTracking || t.lastKnown == nil {
				t.mu.Unlock()
				continue
			}
			fix := *t.lastKnown
			t.mu.Unlock()
			t.send(ctx, fix, true)
		}
	}
}

func classifyAcquireError(err error) error {
	var de *domainerrors.DomainError
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domainerrors.LocationTimeout()
	}
	return domainerrors.LocationUnavailable(err)
}
