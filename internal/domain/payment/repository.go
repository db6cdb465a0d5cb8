package payment

import "context"

// Repository is the record store contract. Implementations must enforce the
// one-payment-per-order invariant on Insert and reject versioned updates whose
// expected version no longer matches the stored row.
type Repository interface {
	// Insert persists a new payment. Returns ErrDuplicateOrderPayment when a
	// non-deleted payment already exists for the same order.
	Insert(ctx context.Context, p *Payment) error
	// Get returns the payment by ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Payment, error)
	// GetByOrderID returns the payment owned by the given order or ErrNotFound.
	GetByOrderID(ctx context.Context, orderID string) (*Payment, error)
	// UpdateVersioned commits p's current state only if the stored version still
	// equals expectedVersion, bumping the version on success. Returns
	// ErrVersionConflict when another writer committed first.
	UpdateVersioned(ctx context.Context, p *Payment, expectedVersion int64) error
	// Delete hard-deletes the row. The caller must have verified CANCELED
	// status immediately before calling.
	Delete(ctx context.Context, id string) error
}
