package dispatch

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	domainerrors "pos-dispatch/internal/errors"
	"pos-dispatch/internal/order"
)

// Service arbitrates driver claims and status transitions over the order
// store. It never retries on its own: a conflict is surfaced and the caller
// refetches state.
type Service interface {
	Claim(ctx context.Context, orderID uuid.UUID, driverID string) (*order.Order, error)
	SetStatus(ctx context.Context, orderID uuid.UUID, driverID string, target order.Status, pm *order.PaymentMethod) (*order.Order, error)
	ListAvailable(ctx context.Context, page, limit int) ([]*order.Order, order.PageMeta, error)
	ListMine(ctx context.Context, driverID string, page, limit int) ([]*order.Order, order.PageMeta, error)
}

type service struct {
	repo order.Repository
	db   *sqlx.DB
}

func NewService(repo order.Repository, db *sqlx.DB) Service {
	return &service{repo: repo, db: db}
}

// Claim resolves the single-writer race through one conditional write at the
// storage boundary. Exactly one of any number of concurrent claims on the
// same order succeeds; the rest observe ALREADY_CLAIMED.
func (s *service) Claim(ctx context.Context, orderID uuid.UUID, driverID string) (*order.Order, error) {
	o, err := s.repo.ClaimAvailable(ctx, s.db, orderID, driverID)
	if errors.Is(err, order.ErrNoRowsUpdated) {
		// Distinguish a lost race from a missing order.
		if _, getErr := s.repo.GetByID(ctx, s.db, orderID); getErr != nil {
			return nil, domainerrors.OrderNotFound(orderID.String())
		}
		slog.InfoContext(ctx, "claim lost race",
			slog.String("order_id", orderID.String()),
			slog.String("driver_id", driverID),
		)
		return nil, domainerrors.OrderAlreadyClaimed(orderID.String())
	}
	if err != nil {
		return nil, domainerrors.NewInternal("failed to claim order", err)
	}
	return o, nil
}

// SetStatus validates the transition against the state the store currently
// holds, then applies it with a guard on that state. A concurrent transition
// makes the guarded write a no-op, which is reported as INVALID_TRANSITION so
// the caller refetches before retrying.
func (s *service) SetStatus(ctx context.Context, orderID uuid.UUID, driverID string, target order.Status, pm *order.PaymentMethod) (*order.Order, error) {
	o, err := s.repo.GetByID(ctx, s.db, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.OrderNotFound(orderID.String())
		}
		return nil, domainerrors.NewInternal("failed to load order", err)
	}

	readStatus := o.Status
	if err := o.DriverTransition(target, pm, driverID); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateGuarded(ctx, s.db, o, readStatus); err != nil {
		if errors.Is(err, order.ErrNoRowsUpdated) {
			return nil, domainerrors.OrderInvalidTransition(string(readStatus), string(target))
		}
		return nil, domainerrors.NewInternal("failed to update order status", err)
	}
	return o, nil
}

func (s *service) ListAvailable(ctx context.Context, page, limit int) ([]*order.Order, order.PageMeta, error) {
	orders, total, err := s.repo.ListAvailable(ctx, s.db, page, limit)
	if err != nil {
		return nil, order.PageMeta{}, domainerrors.NewInternal("failed to list available orders", err)
	}
	return orders, order.PageMeta{Page: page, Limit: limit, Total: total}, nil
}

func (s *service) ListMine(ctx context.Context, driverID string, page, limit int) ([]*order.Order, order.PageMeta, error) {
	orders, total, err := s.repo.ListByDriver(ctx, s.db, driverID, page, limit)
	if err != nil {
		return nil, order.PageMeta{}, domainerrors.NewInternal("failed to list driver orders", err)
	}
	return orders, order.PageMeta{Page: page, Limit: limit, Total: total}, nil
}
