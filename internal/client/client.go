package client

import (
	"context"
	"errors"

	"github.com/google/uuid"

	domainerrors "pos-dispatch/internal/errors"
	"pos-dispatch/internal/geo"
	"pos-dispatch/internal/order"
	"pos-dispatch/internal/track"
	"pos-dispatch/internal/view"
)

// Client is the driver-facing dispatch client: it composes the position
// tracker and the view reconciler over one API session. Mutations merge
// optimistically into the views and trigger a coalesced refresh; conflicts
// trigger a refresh only, so the views converge on server truth.
type Client struct {
	api      *API
	tracker  *track.Tracker
	recon    *view.Reconciler
	driverID string
}

type Options struct {
	BaseURL      string
	Token        string
	DriverID     string
	Filter       geo.Filter
	BaseLocation geo.Point
	Source       track.Source
	Store        track.Store
}

func New(opts Options) *Client {
	api := NewAPI(opts.BaseURL, opts.Token, opts.DriverID)

	store := opts.Store
	if store == nil {
		store = track.NewMemoryStore()
	}

	return &Client{
		api:      api,
		tracker:  track.New(track.DefaultConfig(opts.Filter, opts.BaseLocation), opts.Source, api, store),
		recon:    view.NewReconciler(view.DefaultConfig(opts.DriverID), api),
		driverID: opts.DriverID,
	}
}

// Start begins view polling. Tracking is started separately since it may
// legitimately fail on permission grounds while the views still work.
func (c *Client) Start(ctx context.Context) {
	c.recon.Start(ctx)
}

func (c *Client) Close() {
	c.tracker.Stop()
	c.recon.Stop()
}

func (c *Client) StartTracking(ctx context.Context) error {
	return c.tracker.Start(ctx)
}

func (c *Client) StopTracking() {
	c.tracker.Stop()
}

func (c *Client) TrackingState() track.State {
	return c.tracker.State()
}

// Claim attempts to take ownership of an unassigned order. A lost race
// comes back as ALREADY_CLAIMED and refreshes the views instead of being
// retried; the caller decides what to do next.
func (c *Client) Claim(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := c.api.Claim(ctx, orderID)
	if err != nil {
		if isRefreshable(err) {
			c.recon.Refresh(ctx)
		}
		return nil, err
	}

	c.recon.Apply(o)
	c.recon.Refresh(ctx)
	id := o.ID.String()
	c.tracker.SetOrderID(&id)
	return o, nil
}

func (c *Client) SetStatus(ctx context.Context, orderID uuid.UUID, status order.Status, pm *order.PaymentMethod) (*order.Order, error) {
	o, err := c.api.SetStatus(ctx, orderID, status, pm)
	if err != nil {
		if isRefreshable(err) {
			c.recon.Refresh(ctx)
		}
		return nil, err
	}

	c.recon.Apply(o)
	c.recon.Refresh(ctx)
	if o.Status == order.StatusDelivered {
		c.tracker.SetOrderID(nil)
	}
	return o, nil
}

func (c *Client) Subscribe(fn func(view.Snapshot)) func() {
	return c.recon.Subscribe(fn)
}

func (c *Client) Views() view.Snapshot {
	return c.recon.Snapshot()
}

// isRefreshable reports whether an error indicates stale local state that a
// silent view refresh resolves, as opposed to one the caller must handle.
func isRefreshable(err error) bool {
	var de *domainerrors.DomainError
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == domainerrors.ErrAlreadyClaimed || de.Code == domainerrors.ErrInvalidTransition
}
