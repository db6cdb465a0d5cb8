package payment

import (
	"time"

	dompay "github.com/lumipay/payflow/internal/domain/payment"
)

// PaymentView is the read model handed back to callers.
type PaymentView struct {
	ID        string
	OrderID   string
	Amount    int64
	Method    dompay.Method
	Status    dompay.Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func newView(p *dompay.Payment) *PaymentView {
	return &PaymentView{
		ID:        p.ID,
		OrderID:   p.OrderID,
		Amount:    p.Amount,
		Method:    p.Method,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
