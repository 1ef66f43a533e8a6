package driver

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	domainerrors "pos-dispatch/internal/errors"
	"pos-dispatch/internal/geo"
	"pos-dispatch/internal/redis"
)

type Service interface {
	ReportPosition(ctx context.Context, driverID string, lat, lng float64, accuracy *float64, orderID *uuid.UUID) (*Driver, error)
	StopTracking(ctx context.Context, driverID string) error
	GetPosition(ctx context.Context, driverID string) (*geo.Point, error)
	ListTracking(ctx context.Context, page, limit int) ([]*Driver, int, error)
}

type service struct {
	repo   Repository
	db     *sqlx.DB
	cache  *redis.DriverPositionCache
	filter geo.Filter
}

func NewService(repo Repository, db *sqlx.DB, cache *redis.DriverPositionCache, filter geo.Filter) Service {
	return &service{
		repo:   repo,
		db:     db,
		cache:  cache,
		filter: filter,
	}
}

// ReportPosition accepts a driver's position sample. The same geo guards
// the client applies run again here so a misbehaving client cannot put an
// out-of-area or inaccurate point on the dispatch board.
func (s *service) ReportPosition(ctx context.Context, driverID string, lat, lng float64, accuracy *float64, orderID *uuid.UUID) (*Driver, error) {
	if err := geo.ValidateLatLng(lat, lng); err != nil {
		return nil, domainerrors.NewValidation(err.Error())
	}
	if !s.filter.AccuracyAcceptable(accuracy) {
		return nil, domainerrors.NewValidation("position accuracy exceeds the acceptable threshold")
	}
	p := geo.NewPoint(lat, lng)
	if err := s.filter.ValidateInArea(p); err != nil {
		return nil, domainerrors.NewOutOfArea(err.Error())
	}

	d, err := s.repo.GetByID(ctx, s.db, driverID)
	if err != nil {
		d = New(driverID)
	}

	d.UpdatePosition(lat, lng, accuracy, orderID)
	if err := s.repo.Upsert(ctx, s.db, d); err != nil {
		return nil, domainerrors.NewInternal("failed to store driver position", err)
	}

	var orderRef *string
	if orderID != nil {
		str := orderID.String()
		orderRef = &str
	}
	if err := s.cache.Set(ctx, driverID, p, orderRef); err != nil {
		slog.WarnContext(ctx, "position cache write failed",
			slog.String("driver_id", driverID),
			slog.String("error", err.Error()),
		)
	}

	return d, nil
}

// StopTracking clears the driver's liveness. Best-effort from the client's
// point of view; a missing driver row is not an error.
func (s *service) StopTracking(ctx context.Context, driverID string) error {
	d, err := s.repo.GetByID(ctx, s.db, driverID)
	if err != nil {
		return nil
	}
	d.StopTracking()
	if err := s.repo.Upsert(ctx, s.db, d); err != nil {
		return domainerrors.NewInternal("failed to stop tracking", err)
	}
	_ = s.cache.Delete(ctx, driverID)
	return nil
}

func (s *service) GetPosition(ctx context.Context, driverID string) (*geo.Point, error) {
	cached, err := s.cache.Get(ctx, driverID)
	if err == nil && cached != nil {
		p := geo.NewPoint(cached.Lat, cached.Lng)
		return &p, nil
	}

	d, err := s.repo.GetByID(ctx, s.db, driverID)
	if err != nil {
		return nil, domainerrors.DriverNotFound(driverID)
	}
	p := d.Position()

	_ = s.cache.Set(ctx, driverID, p, nil)

	return &p, nil
}

func (s *service) ListTracking(ctx context.Context, page, limit int) ([]*Driver, int, error) {
	return s.repo.ListTracking(ctx, s.db, page, limit)
}
