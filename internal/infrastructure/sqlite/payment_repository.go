package sqlite

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/lumipay/payflow/internal/domain/payment"
	"github.com/mattn/go-sqlite3"
)

// PaymentRepository is the sqlite-backed record store. The one-payment-per-order
// invariant lives in the schema (UNIQUE on order_id) and the optimistic check
// lives in the UPDATE predicate, so concurrent writers are arbitrated by the
// database, not by application logic.
type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Insert(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments
		 (id, order_id, amount, method, status, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.OrderID,
		p.Amount,
		string(p.Method),
		string(p.Status),
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return domain.ErrDuplicateOrderPayment
		}
		return err
	}
	return nil
}

func (r *PaymentRepository) Get(ctx context.Context, id string) (*domain.Payment, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, order_id, amount, method, status, version, created_at, updated_at
		 FROM payments
		 WHERE id = ?`,
		id,
	))
}

func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, order_id, amount, method, status, version, created_at, updated_at
		 FROM payments
		 WHERE order_id = ?`,
		orderID,
	))
}

func (r *PaymentRepository) UpdateVersioned(ctx context.Context, p *domain.Payment, expectedVersion int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments
		 SET status = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		string(p.Status),
		p.UpdatedAt,
		p.ID,
		expectedVersion,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Row gone or version moved on; tell them apart for the caller.
		var exists int
		scanErr := r.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM payments WHERE id = ?`, p.ID,
		).Scan(&exists)
		if scanErr == nil && exists == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrVersionConflict
	}

	p.Version = expectedVersion + 1
	return nil
}

func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM payments WHERE id = ?`,
		id,
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

func (r *PaymentRepository) scanOne(row *sql.Row) (*domain.Payment, error) {
	var p domain.Payment
	var method, status string

	if err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.Amount,
		&method,
		&status,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	p.Method = domain.Method(method)
	p.Status = domain.Status(status)
	return &p, nil
}
