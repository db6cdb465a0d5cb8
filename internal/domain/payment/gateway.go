package payment

import "context"

// Details is the subset of payment data handed to the authorization gateway.
type Details struct {
	PaymentID string
	OrderID   string
	Amount    int64
	Method    Method
}

// Gateway performs the actual charge. It is untrusted, possibly slow I/O with
// a binary outcome: richer gateway responses are a processor-internal concern.
type Gateway interface {
	Authorize(ctx context.Context, d Details) (bool, error)
}
