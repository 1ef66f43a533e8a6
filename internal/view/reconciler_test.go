package view

import (
	"context"
	"sync"
	"testing"
	"time"

	"pos-dispatch/internal/order"
)

type fakeFetcher struct {
	mu        sync.Mutex
	available []*order.Order
	mine      []*order.Order
	calls     int
	inFlight  int
	maxFlight int
	block     chan struct{} // when set, polls wait here
}

func (f *fakeFetcher) FetchAvailable(ctx context.Context, page, limit int) ([]*order.Order, order.PageMeta, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	block := f.block
	avail := f.available
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	return avail, order.PageMeta{}, nil
}

func (f *fakeFetcher) FetchMine(ctx context.Context, driverID string, page, limit int) ([]*order.Order, order.PageMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mine, order.PageMeta{}, nil
}

func (f *fakeFetcher) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testReconciler(f *fakeFetcher) *Reconciler {
	cfg := DefaultConfig("driver-1")
	cfg.PollInterval = time.Hour // polls in tests are explicit
	return NewReconciler(cfg, f)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.After(time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal(msg)
		case <-time.After(2 * time.Millisecond):
		}
	}
}

// --- Polling ---

func TestRefresh_PopulatesBothViews(t *testing.T) {
	o1 := order.New("A-1", order.FulfillmentDelivery, 20, 30)
	o2 := order.New("A-2", order.FulfillmentDelivery, 25, 30)
	driverID := "driver-1"
	o2.AssignedDriverID = &driverID
	o2.Status = order.StatusAssigned

	f := &fakeFetcher{available: []*order.Order{o1}, mine: []*order.Order{o2}}
	r := testReconciler(f)

	r.Refresh(context.Background())
	waitFor(t, func() bool {
		s := r.Snapshot()
		return len(s.Available) == 1 && len(s.Mine) == 1
	}, "views not populated by poll")
}

func TestRefresh_CoalescesBurstIntoOneFollowUp(t *testing.T) {
	f := &fakeFetcher{block: make(chan struct{})}
	r := testReconciler(f)

	r.Refresh(context.Background())
	waitFor(t, func() bool { return f.pollCount() == 1 }, "first poll not started")

	// A burst of triggers while the first poll is blocked in flight.
	for i := 0; i < 10; i++ {
		r.Refresh(context.Background())
	}

	close(f.block)
	f.mu.Lock()
	f.block = nil
	f.mu.Unlock()

	// Exactly one follow-up poll runs, not ten.
	waitFor(t, func() bool { return f.pollCount() == 2 }, "follow-up poll did not run")
	time.Sleep(20 * time.Millisecond)
	if got := f.pollCount(); got != 2 {
		t.Fatalf("expected exactly 2 polls, got %d", got)
	}
}

func TestRefresh_NeverMoreThanOneInFlight(t *testing.T) {
	f := &fakeFetcher{block: make(chan struct{})}
	r := testReconciler(f)

	for i := 0; i < 5; i++ {
		r.Refresh(context.Background())
	}
	time.Sleep(10 * time.Millisecond)
	close(f.block)
	f.mu.Lock()
	f.block = nil
	f.mu.Unlock()
	waitFor(t, func() bool { return f.pollCount() >= 2 }, "polls did not complete")

	f.mu.Lock()
	max := f.maxFlight
	f.mu.Unlock()
	if max > 1 {
		t.Fatalf("expected at most one poll in flight, saw %d", max)
	}
}

// --- Optimistic merge ---

func TestApply_ClaimedOrderMovesToMine(t *testing.T) {
	o := order.New("A-1", order.FulfillmentDelivery, 20, 30)
	f := &fakeFetcher{available: []*order.Order{o}}
	r := testReconciler(f)

	r.Refresh(context.Background())
	waitFor(t, func() bool { return len(r.Snapshot().Available) == 1 }, "poll did not land")

	claimed := *o
	driverID := "driver-1"
	claimed.AssignedDriverID = &driverID
	claimed.Status = order.StatusAssigned
	r.Apply(&claimed)

	s := r.Snapshot()
	if len(s.Available) != 0 {
		t.Fatal("claimed order must leave the available view")
	}
	if len(s.Mine) != 1 || s.Mine[0].ID != o.ID {
		t.Fatal("claimed order must appear in the mine view")
	}
}

func TestApply_OtherDriversClaimRemovesFromBothViews(t *testing.T) {
	o := order.New("A-1", order.FulfillmentDelivery, 20, 30)
	f := &fakeFetcher{available: []*order.Order{o}}
	r := testReconciler(f)

	r.Refresh(context.Background())
	waitFor(t, func() bool { return len(r.Snapshot().Available) == 1 }, "poll did not land")

	claimed := *o
	other := "driver-2"
	claimed.AssignedDriverID = &other
	claimed.Status = order.StatusAssigned
	r.Apply(&claimed)

	s := r.Snapshot()
	if len(s.Available) != 0 || len(s.Mine) != 0 {
		t.Fatal("an order claimed elsewhere must leave both views")
	}
}

func TestApply_AvailableOrderStaysAvailable(t *testing.T) {
	o := order.New("A-1", order.FulfillmentDelivery, 20, 30)
	r := testReconciler(&fakeFetcher{})

	r.Apply(o)
	s := r.Snapshot()
	if len(s.Available) != 1 {
		t.Fatal("an unassigned OPEN order must appear available")
	}
	if len(s.Mine) != 0 {
		t.Fatal("an unassigned order is nobody's")
	}
}

func TestPoll_SupersedesOptimisticMerge(t *testing.T) {
	o := order.New("A-1", order.FulfillmentDelivery, 20, 30)
	f := &fakeFetcher{available: []*order.Order{o}}
	r := testReconciler(f)

	// Optimistic merge says we own it; the server disagrees.
	claimed := *o
	driverID := "driver-1"
	claimed.AssignedDriverID = &driverID
	claimed.Status = order.StatusAssigned
	r.Apply(&claimed)
	if len(r.Snapshot().Mine) != 1 {
		t.Fatal("merge did not land")
	}

	r.Refresh(context.Background())
	waitFor(t, func() bool { return len(r.Snapshot().Mine) == 0 }, "server state must win over the merge")
	if len(r.Snapshot().Available) != 1 {
		t.Fatal("server's available view must be restored")
	}
}

// --- Subscriptions ---

func TestSubscribe_NotifiedOnApply(t *testing.T) {
	r := testReconciler(&fakeFetcher{})

	var mu sync.Mutex
	var got []Snapshot
	unsub := r.Subscribe(func(s Snapshot) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})
	defer unsub()

	r.Apply(order.New("A-1", order.FulfillmentDelivery, 20, 30))

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if len(got[0].Available) != 1 {
		t.Fatal("notification should carry the merged view")
	}
}

func TestSubscribe_UnsubscribeStopsNotifications(t *testing.T) {
	r := testReconciler(&fakeFetcher{})

	count := 0
	unsub := r.Subscribe(func(Snapshot) { count++ })
	r.Apply(order.New("A-1", order.FulfillmentDelivery, 20, 30))
	unsub()
	r.Apply(order.New("A-2", order.FulfillmentDelivery, 20, 30))

	if count != 1 {
		t.Fatalf("expected 1 notification after unsubscribe, got %d", count)
	}
}

func TestReconcilers_AreIndependent(t *testing.T) {
	r1 := testReconciler(&fakeFetcher{})
	r2 := testReconciler(&fakeFetcher{})

	notified := false
	r2.Subscribe(func(Snapshot) { notified = true })

	r1.Apply(order.New("A-1", order.FulfillmentDelivery, 20, 30))
	if notified {
		t.Fatal("observers must be scoped to their own reconciler instance")
	}
	if len(r2.Snapshot().Available) != 0 {
		t.Fatal("reconcilers must not share state")
	}
}

// --- Start/Stop ---

func TestStart_RunsImmediateRefresh(t *testing.T) {
	f := &fakeFetcher{}
	r := testReconciler(f)

	r.Start(context.Background())
	defer r.Stop()
	waitFor(t, func() bool { return f.pollCount() >= 1 }, "start must trigger an immediate poll")
}

func TestStart_PollsPeriodically(t *testing.T) {
	f := &fakeFetcher{}
	cfg := DefaultConfig("driver-1")
	cfg.PollInterval = 20 * time.Millisecond
	r := NewReconciler(cfg, f)

	r.Start(context.Background())
	defer r.Stop()
	waitFor(t, func() bool { return f.pollCount() >= 3 }, "expected periodic polls")
}

func TestStop_HaltsPolling(t *testing.T) {
	f := &fakeFetcher{}
	cfg := DefaultConfig("driver-1")
	cfg.PollInterval = 10 * time.Millisecond
	r := NewReconciler(cfg, f)

	r.Start(context.Background())
	waitFor(t, func() bool { return f.pollCount() >= 1 }, "poll did not start")
	r.Stop()

	settled := f.pollCount()
	time.Sleep(50 * time.Millisecond)
	// One tick may already have been in flight when Stop landed.
	if f.pollCount() > settled+1 {
		t.Fatalf("polling continued after Stop: %d -> %d", settled, f.pollCount())
	}
}
