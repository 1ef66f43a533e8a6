package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const columns = `id, number, status, fulfillment, total_amount, customer_name, customer_phone, delivery_address, assigned_driver_id, payment_method, promised_minutes, completed_by, created_at, updated_at`

var ErrNoRowsUpdated = errors.New("conditional update matched no rows")

type Repository interface {
	Create(ctx context.Context, ext sqlx.ExtContext, o *Order) error
	GetByID(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Order, error)
	Update(ctx context.Context, ext sqlx.ExtContext, o *Order) error
	ListAvailable(ctx context.Context, ext sqlx.ExtContext, page, limit int) ([]*Order, int, error)
	ListByDriver(ctx context.Context, ext sqlx.ExtContext, driverID string, page, limit int) ([]*Order, int, error)
	ListAll(ctx context.Context, ext sqlx.ExtContext, status *Status, page, limit int) ([]*Order, int, error)
	ClaimAvailable(ctx context.Context, ext sqlx.ExtContext, orderID uuid.UUID, driverID string) (*Order, error)
	UpdateGuarded(ctx context.Context, ext sqlx.ExtContext, o *Order, expectedStatus Status) error
}

type orderRepository struct{}

func NewRepository() Repository {
	return &orderRepository{}
}

func (r *orderRepository) Create(ctx context.Context, ext sqlx.ExtContext, o *Order) error {
	const query = `INSERT INTO orders (id, number, status, fulfillment, total_amount, customer_name, customer_phone, delivery_address, assigned_driver_id, payment_method, promised_minutes, completed_by, created_at, updated_at)
		VALUES (:id, :number, :status, :fulfillment, :total_amount, :customer_name, :customer_phone, :delivery_address, :assigned_driver_id, :payment_method, :promised_minutes, :completed_by, :created_at, :updated_at)`

	_, err := sqlx.NamedExecContext(ctx, ext, query, o)
	return err
}

func (r *orderRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*Order, error) {
	var o Order
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, columns)
	if err := sqlx.GetContext(ctx, ext, &o, query, id); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) Update(ctx context.Context, ext sqlx.ExtContext, o *Order) error {
	const query = `UPDATE orders SET status = :status, assigned_driver_id = :assigned_driver_id, payment_method = :payment_method, completed_by = :completed_by, updated_at = :updated_at WHERE id = :id`
	_, err := sqlx.NamedExecContext(ctx, ext, query, o)
	return err
}

// ClaimAvailable is the single serialization point for concurrent claims:
// a conditional write that only succeeds while the assignment reference is
// still null and the order is in the available set. Zero rows affected
// means another driver won the race (or the order does not exist).
func (r *orderRepository) ClaimAvailable(ctx context.Context, ext sqlx.ExtContext, orderID uuid.UUID, driverID string) (*Order, error) {
	query := fmt.Sprintf(`UPDATE orders
		SET assigned_driver_id = $2,
		    status = CASE WHEN status IN ('OPEN', 'PENDING', 'READY') THEN 'ASSIGNED' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1
		  AND assigned_driver_id IS NULL
		  AND status IN ('OPEN', 'PENDING', 'READY', 'ON_THE_WAY')
		RETURNING %s`, columns)

	var o Order
	err := sqlx.GetContext(ctx, ext, &o, query, orderID, driverID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRowsUpdated
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateGuarded writes the order's status fields conditioned on the status
// the caller read, so a concurrent transition makes the write a no-op
// instead of a silent overwrite.
func (r *orderRepository) UpdateGuarded(ctx context.Context, ext sqlx.ExtContext, o *Order, expectedStatus Status) error {
	const query = `UPDATE orders
		SET status = $2, payment_method = $3, completed_by = $4, updated_at = $5
		WHERE id = $1 AND status = $6`
	res, err := ext.ExecContext(ctx, query, o.ID, o.Status, o.PaymentMethod, o.CompletedBy, o.UpdatedAt, expectedStatus)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNoRowsUpdated
	}
	return nil
}

func (r *orderRepository) ListAvailable(ctx context.Context, ext sqlx.ExtContext, page, limit int) ([]*Order, int, error) {
	const where = ` WHERE assigned_driver_id IS NULL AND status IN ('OPEN', 'PENDING', 'READY', 'ON_THE_WAY') AND fulfillment = 'DELIVERY'`
	return r.list(ctx, ext, where, nil, page, limit)
}

func (r *orderRepository) ListByDriver(ctx context.Context, ext sqlx.ExtContext, driverID string, page, limit int) ([]*Order, int, error) {
	const where = ` WHERE assigned_driver_id = $1`
	return r.list(ctx, ext, where, []any{driverID}, page, limit)
}

func (r *orderRepository) ListAll(ctx context.Context, ext sqlx.ExtContext, status *Status, page, limit int) ([]*Order, int, error) {
	if status != nil {
		return r.list(ctx, ext, ` WHERE status = $1`, []any{*status}, page, limit)
	}
	return r.list(ctx, ext, ``, nil, page, limit)
}

func (r *orderRepository) list(ctx context.Context, ext sqlx.ExtContext, where string, args []any, page, limit int) ([]*Order, int, error) {
	offset := (page - 1) * limit

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM orders%s`, where)
	if err := sqlx.GetContext(ctx, ext, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	argIdx := len(args) + 1
	dataQuery := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, columns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	var orders []*Order
	if err := sqlx.SelectContext(ctx, ext, &orders, dataQuery, args...); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
