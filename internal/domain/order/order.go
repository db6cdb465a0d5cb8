package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("order: not found")
	ErrInvalidAmount  = errors.New("order: amount must be greater than zero")
	ErrInvalidUser    = errors.New("order: user id is required")
	ErrNotPayable     = errors.New("order: not in a payable status")
	ErrNotCancellable = errors.New("order: not in a cancellable status")
)

type Status string

const (
	StatusCreated  Status = "CREATED"
	StatusPaid     Status = "PAID"
	StatusCanceled Status = "CANCELED"
)

// Order is owned by the ordering context; this core only consults it and
// flips its status as a side effect of payment transitions. PaymentID is a
// non-owning back-reference to the current payment, looked up on demand.
type Order struct {
	ID        string
	UserID    string
	Amount    int64
	Status    Status
	PaymentID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, userID string, amount int64) (*Order, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now().UTC()
	return &Order{
		ID:        id,
		UserID:    userID,
		Amount:    amount,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkPaid links the winning payment and flips the order to PAID.
func (o *Order) MarkPaid(paymentID string) error {
	if o.Status != StatusCreated {
		return ErrNotPayable
	}
	o.Status = StatusPaid
	o.PaymentID = paymentID
	o.touch()
	return nil
}

// MarkCanceled reflects a cancelled payment on the order.
func (o *Order) MarkCanceled() error {
	if o.Status != StatusPaid {
		return ErrNotCancellable
	}
	o.Status = StatusCanceled
	o.touch()
	return nil
}

// ClearPayment drops the back-reference without touching the order status.
func (o *Order) ClearPayment() {
	o.PaymentID = ""
	o.touch()
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
