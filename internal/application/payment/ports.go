package payment

import (
	"context"

	domorder "github.com/lumipay/payflow/internal/domain/order"
)

// Orders is the outbound linkage port to the ordering context. It belongs to
// the application layer to express use-case dependencies.
type Orders interface {
	GetOrderForUser(ctx context.Context, orderID, userID string) (*domorder.Order, error)
	MarkPaid(ctx context.Context, o *domorder.Order, paymentID string) error
	MarkCanceled(ctx context.Context, o *domorder.Order) error
	ClearPayment(ctx context.Context, o *domorder.Order) error
}

type IDGenerator interface {
	NewID() string
}
