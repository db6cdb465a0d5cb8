package payment

import (
	"context"

	domoutbox "github.com/lumipay/payflow/internal/domain/outbox"
	dompay "github.com/lumipay/payflow/internal/domain/payment"
	"github.com/lumipay/payflow/internal/observability"
	"github.com/lumipay/payflow/internal/observability/logctx"
)

const paymentWorker = "payment_worker"

// Worker consumes payment lifecycle events for audit logging and outcome
// metrics, keeping that bookkeeping off the request path.
type Worker struct {
	subscriber domoutbox.Subscriber

	log      observability.Logger
	outcomes observability.Counter // payment_outcomes_total{outcome}
}

func NewWorker(subscriber domoutbox.Subscriber, tel observability.Observability) *Worker {
	baseLog := observability.NopLogger()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		metricsProvider = tel.Metrics()
	}
	return &Worker{
		subscriber: subscriber,
		log:        baseLog.With(observability.F("component", paymentWorker)),
		outcomes:   metricsProvider.Counter(observability.MPaymentOutcomes),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(dompay.PaymentCompletedEvent{}.EventName(), w.handleEvent)
	w.subscriber.Subscribe(dompay.PaymentFailedEvent{}.EventName(), w.handleEvent)
	w.subscriber.Subscribe(dompay.PaymentCanceledEvent{}.EventName(), w.handleEvent)
}

func (w *Worker) handleEvent(ctx context.Context, e domoutbox.Event) error {
	logger := logctx.FromOr(ctx, w.log).With(
		observability.F("event", e.EventName()),
	)

	var outcome, paymentID, orderID string
	switch evt := e.(type) {
	case dompay.PaymentCompletedEvent:
		outcome, paymentID, orderID = "completed", evt.PaymentID, evt.OrderID
	case dompay.PaymentFailedEvent:
		outcome, paymentID, orderID = "failed", evt.PaymentID, evt.OrderID
	case dompay.PaymentCanceledEvent:
		outcome, paymentID, orderID = "canceled", evt.PaymentID, evt.OrderID
	default:
		return nil
	}

	if w.outcomes != nil {
		w.outcomes.Add(1, observability.L("outcome", outcome))
	}
	logger.Info("payment_outcome_recorded",
		observability.F("outcome", outcome),
		observability.F("payment_id", paymentID),
		observability.F("order_id", orderID),
	)
	return nil
}
