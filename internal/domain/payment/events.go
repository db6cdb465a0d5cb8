package payment

type PaymentCompletedEvent struct {
	PaymentID string
	OrderID   string
	Amount    int64
}

func (PaymentCompletedEvent) EventName() string { return "payment.completed" }

type PaymentFailedEvent struct {
	PaymentID string
	OrderID   string
	Amount    int64
	Reason    string
}

func (PaymentFailedEvent) EventName() string { return "payment.failed" }

type PaymentCanceledEvent struct {
	PaymentID string
	OrderID   string
	Amount    int64
}

func (PaymentCanceledEvent) EventName() string { return "payment.canceled" }
