package driver

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const columns = `id, latitude, longitude, accuracy, current_order_id, tracking, last_seen, created_at, updated_at`

type Repository interface {
	Upsert(ctx context.Context, ext sqlx.ExtContext, d *Driver) error
	GetByID(ctx context.Context, ext sqlx.ExtContext, id string) (*Driver, error)
	ListTracking(ctx context.Context, ext sqlx.ExtContext, page, limit int) ([]*Driver, int, error)
}

type driverRepository struct{}

func NewRepository() Repository {
	return &driverRepository{}
}

func (r *driverRepository) Upsert(ctx context.Context, ext sqlx.ExtContext, d *Driver) error {
	const query = `INSERT INTO drivers (id, latitude, longitude, accuracy, current_order_id, tracking, last_seen, created_at, updated_at)
		VALUES (:id, :latitude, :longitude, :accuracy, :current_order_id, :tracking, :last_seen, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			accuracy = EXCLUDED.accuracy,
			current_order_id = EXCLUDED.current_order_id,
			tracking = EXCLUDED.tracking,
			last_seen = EXCLUDED.last_seen,
			updated_at = EXCLUDED.updated_at`
	_, err := sqlx.NamedExecContext(ctx, ext, query, d)
	return err
}

func (r *driverRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id string) (*Driver, error) {
	var d Driver
	query := fmt.Sprintf(`SELECT %s FROM drivers WHERE id = $1`, columns)
	if err := sqlx.GetContext(ctx, ext, &d, query, id); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *driverRepository) ListTracking(ctx context.Context, ext sqlx.ExtContext, page, limit int) ([]*Driver, int, error) {
	offset := (page - 1) * limit

	var total int
	if err := sqlx.GetContext(ctx, ext, &total, `SELECT COUNT(*) FROM drivers WHERE tracking`); err != nil {
		return nil, 0, err
	}

	dataQuery := fmt.Sprintf(`SELECT %s FROM drivers WHERE tracking ORDER BY last_seen DESC LIMIT $1 OFFSET $2`, columns)
	var drivers []*Driver
	if err := sqlx.SelectContext(ctx, ext, &drivers, dataQuery, limit, offset); err != nil {
		return nil, 0, err
	}

	return drivers, total, nil
}
