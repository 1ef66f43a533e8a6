package board

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pos-dispatch/internal/driver"
	domainerrors "pos-dispatch/internal/errors"
	"pos-dispatch/internal/order"
	"pos-dispatch/internal/redis"
)

// DriverPresence is a board row: the presence record plus the cached
// last-known position when redis still has one.
type DriverPresence struct {
	Driver   *driver.Driver              `json:"driver"`
	Position *redis.CachedDriverPosition `json:"position,omitempty"`
}

type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*order.Order, error)
	ListOrders(ctx context.Context, status *order.Status, page, limit int) ([]*order.Order, int, error)
	ListDrivers(ctx context.Context, page, limit int) ([]*DriverPresence, int, error)
	CompleteOrder(ctx context.Context, orderID uuid.UUID, staffID string) (*order.Order, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
}

type CreateOrderInput struct {
	Number          string
	Fulfillment     order.Fulfillment
	TotalAmount     float64
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress *string
	PaymentMethod   *order.PaymentMethod
	PromisedMinutes int
}

type service struct {
	orders     order.Repository
	driverRepo driver.Repository
	cache      *redis.DriverPositionCache
	db         *sqlx.DB
}

func NewService(orders order.Repository, driverRepo driver.Repository, cache *redis.DriverPositionCache, db *sqlx.DB) Service {
	return &service{orders: orders, driverRepo: driverRepo, cache: cache, db: db}
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*order.Order, error) {
	if input.Number == "" {
		return nil, domainerrors.NewValidation("order number is required")
	}
	if input.Fulfillment == order.FulfillmentDelivery && (input.DeliveryAddress == nil || *input.DeliveryAddress == "") {
		return nil, domainerrors.NewValidation("delivery orders require an address")
	}

	o := order.New(input.Number, input.Fulfillment, input.TotalAmount, input.PromisedMinutes)
	o.CustomerName = input.CustomerName
	o.CustomerPhone = input.CustomerPhone
	o.DeliveryAddress = input.DeliveryAddress
	o.PaymentMethod = input.PaymentMethod

	if err := s.orders.Create(ctx, s.db, o); err != nil {
		return nil, domainerrors.NewInternal("failed to create order", err)
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, status *order.Status, page, limit int) ([]*order.Order, int, error) {
	return s.orders.ListAll(ctx, s.db, status, page, limit)
}

func (s *service) ListDrivers(ctx context.Context, page, limit int) ([]*DriverPresence, int, error) {
	drivers, total, err := s.driverRepo.ListTracking(ctx, s.db, page, limit)
	if err != nil {
		return nil, 0, domainerrors.NewInternal("failed to list drivers", err)
	}

	rows := make([]*DriverPresence, 0, len(drivers))
	for _, d := range drivers {
		row := &DriverPresence{Driver: d}
		pos, err := s.cache.Get(ctx, d.ID)
		if err != nil {
			slog.WarnContext(ctx, "driver position cache read failed",
				slog.String("driver_id", d.ID),
				slog.String("error", err.Error()),
			)
		} else {
			row.Position = pos
		}
		rows = append(rows, row)
	}
	return rows, total, nil
}

func (s *service) CompleteOrder(ctx context.Context, orderID uuid.UUID, staffID string) (*order.Order, error) {
	o, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	readStatus := o.Status
	if err := o.Complete(); err != nil {
		return nil, err
	}
	o.CompletedBy = &staffID

	if err := s.guardedUpdate(ctx, o, readStatus); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) CancelOrder(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	readStatus := o.Status
	if err := o.Cancel(); err != nil {
		return nil, err
	}

	if err := s.guardedUpdate(ctx, o, readStatus); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) get(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, s.db, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.OrderNotFound(orderID.String())
		}
		return nil, domainerrors.NewInternal("failed to load order", err)
	}
	return o, nil
}

func (s *service) guardedUpdate(ctx context.Context, o *order.Order, readStatus order.Status) error {
	err := s.orders.UpdateGuarded(ctx, s.db, o, readStatus)
	if errors.Is(err, order.ErrNoRowsUpdated) {
		// The order moved under us between the read and the write.
		return domainerrors.OrderInvalidTransition(string(readStatus), string(o.Status))
	}
	if err != nil {
		return domainerrors.NewInternal("failed to update order", err)
	}
	return nil
}
