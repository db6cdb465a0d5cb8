package sqlite

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/lumipay/payflow/internal/domain/order"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO orders
		 (id, user_id, amount, status, payment_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID,
		o.UserID,
		o.Amount,
		string(o.Status),
		o.PaymentID,
		o.CreatedAt,
		o.UpdatedAt,
	)
	return err
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, amount, status, payment_id, created_at, updated_at
		 FROM orders
		 WHERE id = ?`,
		id,
	)

	var o domain.Order
	var status string

	if err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Amount,
		&status,
		&o.PaymentID,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	o.Status = domain.Status(status)
	return &o, nil
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders
		 SET status = ?, payment_id = ?, updated_at = ?
		 WHERE id = ?`,
		string(o.Status),
		o.PaymentID,
		o.UpdatedAt,
		o.ID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
