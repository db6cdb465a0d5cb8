package payment

import (
	"errors"
	"time"
)

var (
	ErrNotFound              = errors.New("payment: not found")
	ErrInvalidAmount         = errors.New("payment: amount must be greater than zero")
	ErrInvalidMethod         = errors.New("payment: unknown payment method")
	ErrAlreadyCompleted      = errors.New("payment: already completed")
	ErrAlreadyCancelled      = errors.New("payment: already cancelled")
	ErrNotCancellable        = errors.New("payment: only completed payments can be cancelled")
	ErrDeleteNotAllowed      = errors.New("payment: only cancelled payments can be deleted")
	ErrInvalidTransition     = errors.New("payment: invalid status transition")
	ErrDuplicateOrderPayment = errors.New("payment: order already has a payment")
	ErrVersionConflict       = errors.New("payment: version conflict")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCanceled  Status = "CANCELED"
)

// IsTerminal reports whether no further status transition is allowed.
// A CANCELED payment is terminal for transitions but may still be deleted.
func (s Status) IsTerminal() bool {
	return s == StatusFailed || s == StatusCanceled
}

type Method string

const (
	MethodCard Method = "CARD"
)

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodCard:
		return MethodCard, nil
	default:
		return "", ErrInvalidMethod
	}
}

// Payment is the unit of truth for a single charge attempt tied to exactly one order.
// OrderID and Amount are immutable after creation; Version is owned by the
// record store and bumped on every committed update.
type Payment struct {
	ID        string
	OrderID   string
	Amount    int64
	Method    Method
	Status    Status
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, orderID string, amount int64, method Method) (*Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Payment{
		ID:        id,
		OrderID:   orderID,
		Amount:    amount,
		Method:    method,
		Status:    StatusPending,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Complete transitions PENDING -> COMPLETED. A payment that is already
// COMPLETED reports ErrAlreadyCompleted so callers can tell "I completed it"
// apart from "someone else did" and skip re-running side effects.
func (p *Payment) Complete() error {
	switch p.Status {
	case StatusPending:
		p.Status = StatusCompleted
		p.touch()
		return nil
	case StatusCompleted:
		return ErrAlreadyCompleted
	default:
		return ErrInvalidTransition
	}
}

// Fail transitions PENDING -> FAILED. Only the request that inserted the
// PENDING row ever holds it, so there is no guard conflict to report.
func (p *Payment) Fail() error {
	if p.Status != StatusPending {
		return ErrInvalidTransition
	}
	p.Status = StatusFailed
	p.touch()
	return nil
}

// Cancel transitions COMPLETED -> CANCELED.
func (p *Payment) Cancel() error {
	switch p.Status {
	case StatusCompleted:
		p.Status = StatusCanceled
		p.touch()
		return nil
	case StatusCanceled:
		return ErrAlreadyCancelled
	default:
		return ErrNotCancellable
	}
}

// CanDelete reports whether the lifecycle permits hard deletion.
func (p *Payment) CanDelete() error {
	if p.Status != StatusCanceled {
		return ErrDeleteNotAllowed
	}
	return nil
}

func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Payment) touch() {
	p.UpdatedAt = time.Now().UTC()
}
