package payment

import (
	"context"
	"errors"
	"time"

	domorder "github.com/lumipay/payflow/internal/domain/order"
	domoutbox "github.com/lumipay/payflow/internal/domain/outbox"
	dompay "github.com/lumipay/payflow/internal/domain/payment"
	"github.com/lumipay/payflow/internal/observability"
	"github.com/lumipay/payflow/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	paymentService        = "payment-service"
	useCasePaymentCreate  = "payment.create"
	useCasePaymentCancel  = "payment.cancel"
	useCasePaymentDelete  = "payment.delete"
	useCasePaymentInquiry = "payment.get"
	spanPrefix            = "UC."
)

var (
	ErrOrderNotFound  = domorder.ErrNotFound
	ErrNotFound       = dompay.ErrNotFound
	ErrAmountMismatch = errors.New("payment: amount does not match order amount")
	// ErrPaymentFailed is a business outcome, not an infrastructure fault: the
	// FAILED row stays committed and the order is left untouched.
	ErrPaymentFailed          = errors.New("payment: authorization declined")
	ErrConcurrentModification = errors.New("payment: lost race to a concurrent request")
	ErrDuplicatePayment       = dompay.ErrDuplicateOrderPayment
)

// Service coordinates validate -> authorize -> commit -> reconcile for a
// payment attempt. All conflict resolution rests on two store primitives: the
// one-payment-per-order uniqueness constraint at insert and the version check
// at commit. No lock is held across the gateway call.
type Service struct {
	repo        dompay.Repository
	orders      Orders
	gateway     dompay.Gateway
	idGenerator IDGenerator
	publisher   domoutbox.Publisher
	tel         observability.Observability

	log        observability.Logger
	reqCounter observability.Counter   // usecase_requests_total{use_case,outcome}
	durHist    observability.Histogram // usecase_duration_seconds{use_case}
	extCounter observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHist    observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewService(
	repo dompay.Repository,
	orders Orders,
	gateway dompay.Gateway,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *Service {
	baseLog := observability.NopLogger()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		metricsProvider = tel.Metrics()
	}
	baseLog = baseLog.With(observability.F("service", paymentService))

	return &Service{
		repo:        repo,
		orders:      orders,
		gateway:     gateway,
		idGenerator: idGen,
		publisher:   publisher,
		tel:         tel,
		log:         baseLog,
		reqCounter:  metricsProvider.Counter(observability.MUsecaseRequests),
		durHist:     metricsProvider.Histogram(observability.MUsecaseDuration),
		extCounter:  metricsProvider.Counter(observability.MExternalRequests),
		extHist:     metricsProvider.Histogram(observability.MExternalRequestDuration),
	}
}

type CreatePaymentInput struct {
	OrderID string
	Amount  int64
	Method  dompay.Method
	UserID  string
}

// CreatePayment drives a full payment attempt for an order.
//
// Two race-resolution layers protect the one-successful-payment invariant:
// the store's uniqueness constraint arbitrates between concurrent creators at
// insert, and the versioned update arbitrates the final commit. A conflict at
// either layer is terminal for this request; a charge is never retried.
func (s *Service) CreatePayment(ctx context.Context, cmd CreatePaymentInput) (_ *PaymentView, err error) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("use_case", useCasePaymentCreate),
		observability.F("order_id", cmd.OrderID),
	)

	tracer := observability.NopTracer()
	if s.tel != nil {
		tracer = s.tel.Tracer()
	}
	ctx, span := tracer.Start(ctx, spanPrefix+"CreatePayment",
		attribute.String("use_case", useCasePaymentCreate),
		attribute.String("order.id", cmd.OrderID),
		attribute.Int64("payment.amount_requested", cmd.Amount),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		s.finish(ctx, span, logger, useCasePaymentCreate, outcome, statusText, start, err)
	}()

	ord, err := s.orders.GetOrderForUser(ctx, cmd.OrderID, cmd.UserID)
	if err != nil {
		outcome, statusText = "error", "ORDER_NOT_FOUND"
		return nil, err
	}

	// Validated before any row is written so a doomed request never leaves a
	// PENDING record behind.
	if cmd.Amount != ord.Amount {
		outcome, statusText = "error", "AMOUNT_MISMATCH"
		return nil, ErrAmountMismatch
	}

	p, err := dompay.New(s.idGenerator.NewID(), ord.ID, cmd.Amount, cmd.Method)
	if err != nil {
		outcome, statusText = "error", "INVALID_REQUEST"
		return nil, err
	}

	if err = s.repo.Insert(ctx, p); err != nil {
		if errors.Is(err, dompay.ErrDuplicateOrderPayment) {
			outcome, statusText = "error", "DUPLICATE_PAYMENT"
			return nil, s.classifyDuplicate(ctx, ord.ID)
		}
		outcome, statusText = "error", "INSERT_FAILED"
		return nil, err
	}
	insertedVersion := p.Version

	authorized, gatewayErr := s.authorize(ctx, dompay.Details{
		PaymentID: p.ID,
		OrderID:   p.OrderID,
		Amount:    p.Amount,
		Method:    p.Method,
	})
	if gatewayErr != nil || !authorized {
		// Gateway failure and gateway error are the same business outcome.
		outcome, statusText = "error", "AUTHORIZATION_DECLINED"
		if commitErr := s.commitFailed(ctx, p, insertedVersion, gatewayErr); commitErr != nil {
			statusText = "COMMIT_FAILED"
			return nil, commitErr
		}
		return nil, ErrPaymentFailed
	}

	if err = p.Complete(); err != nil {
		outcome, statusText = "error", "STATE_TRANSITION_FAILED"
		return nil, err
	}
	if err = s.repo.UpdateVersioned(ctx, p, insertedVersion); err != nil {
		if errors.Is(err, dompay.ErrVersionConflict) {
			// Uniqueness at insert should make this unreachable; treat it
			// defensively as a lost race and never re-issue the charge.
			outcome, statusText = "error", "CONCURRENT_MODIFICATION"
			return nil, ErrConcurrentModification
		}
		outcome, statusText = "error", "COMMIT_FAILED"
		return nil, err
	}

	if linkErr := s.orders.MarkPaid(ctx, ord, p.ID); linkErr != nil {
		// The payment transition is already committed; an order-side failure
		// is a recoverable inconsistency to reconcile, never a rollback.
		logger.Error("order_mark_paid_failed",
			observability.F("payment_id", p.ID),
			observability.F("error", linkErr.Error()),
		)
	}

	s.publish(ctx, dompay.PaymentCompletedEvent{PaymentID: p.ID, OrderID: p.OrderID, Amount: p.Amount})
	logger.Info("payment_completed",
		observability.F("payment_id", p.ID),
		observability.F("amount", p.Amount),
	)
	return newView(p), nil
}

// classifyDuplicate inspects the payment that won the insert race so the
// caller receives a deterministic error tag.
func (s *Service) classifyDuplicate(ctx context.Context, orderID string) error {
	existing, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return ErrDuplicatePayment
	}
	if existing.Status == dompay.StatusCompleted {
		return dompay.ErrAlreadyCompleted
	}
	return ErrDuplicatePayment
}

// commitFailed records the FAILED outcome on the row this request inserted.
func (s *Service) commitFailed(ctx context.Context, p *dompay.Payment, expectedVersion int64, cause error) error {
	logger := logctx.FromOr(ctx, s.log)
	if cause != nil {
		logger.Warn("gateway_authorization_error",
			observability.F("payment_id", p.ID),
			observability.F("error", cause.Error()),
		)
	}

	if err := p.Fail(); err != nil {
		return err
	}
	if err := s.repo.UpdateVersioned(ctx, p, expectedVersion); err != nil {
		if errors.Is(err, dompay.ErrVersionConflict) {
			return ErrConcurrentModification
		}
		return err
	}

	reason := "declined"
	if cause != nil {
		reason = cause.Error()
	}
	s.publish(ctx, dompay.PaymentFailedEvent{PaymentID: p.ID, OrderID: p.OrderID, Amount: p.Amount, Reason: reason})
	return nil
}

// CancelPayment transitions exactly one of any number of concurrent cancel
// attempts to CANCELED. A losing request never blindly re-applies the write:
// the conflict is re-read and re-classified so the caller learns who won.
func (s *Service) CancelPayment(ctx context.Context, paymentID, userID string) (_ *PaymentView, err error) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("use_case", useCasePaymentCancel),
		observability.F("payment_id", paymentID),
	)

	tracer := observability.NopTracer()
	if s.tel != nil {
		tracer = s.tel.Tracer()
	}
	ctx, span := tracer.Start(ctx, spanPrefix+"CancelPayment",
		attribute.String("use_case", useCasePaymentCancel),
		attribute.String("payment.id", paymentID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		s.finish(ctx, span, logger, useCasePaymentCancel, outcome, statusText, start, err)
	}()

	p, ord, err := s.loadOwned(ctx, paymentID, userID)
	if err != nil {
		outcome, statusText = "error", "PAYMENT_NOT_FOUND"
		return nil, err
	}

	expectedVersion := p.Version
	if err = p.Cancel(); err != nil {
		outcome, statusText = "error", "NOT_CANCELLABLE"
		return nil, err
	}

	if err = s.repo.UpdateVersioned(ctx, p, expectedVersion); err != nil {
		if errors.Is(err, dompay.ErrVersionConflict) {
			outcome, statusText = "error", "CONCURRENT_MODIFICATION"
			return nil, s.classifyCancelConflict(ctx, paymentID)
		}
		outcome, statusText = "error", "COMMIT_FAILED"
		return nil, err
	}

	if linkErr := s.orders.MarkCanceled(ctx, ord); linkErr != nil {
		logger.Error("order_mark_canceled_failed",
			observability.F("order_id", ord.ID),
			observability.F("error", linkErr.Error()),
		)
	}

	s.publish(ctx, dompay.PaymentCanceledEvent{PaymentID: p.ID, OrderID: p.OrderID, Amount: p.Amount})
	logger.Info("payment_canceled", observability.F("order_id", p.OrderID))
	return newView(p), nil
}

// classifyCancelConflict re-reads the row after a lost cancel race. When the
// winner also cancelled, the caller gets the more specific ErrAlreadyCancelled
// instead of a generic conflict.
func (s *Service) classifyCancelConflict(ctx context.Context, paymentID string) error {
	current, err := s.repo.Get(ctx, paymentID)
	if err != nil {
		return ErrConcurrentModification
	}
	if current.Status == dompay.StatusCanceled {
		return dompay.ErrAlreadyCancelled
	}
	return ErrConcurrentModification
}

// DeletePayment hard-deletes a cancelled payment. The order's back-reference
// is cleared first; deletion order is explicit, never cascaded.
func (s *Service) DeletePayment(ctx context.Context, paymentID, userID string) (err error) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("use_case", useCasePaymentDelete),
		observability.F("payment_id", paymentID),
	)
	start := time.Now()
	outcome := "success"
	defer func() {
		s.record(useCasePaymentDelete, outcome, start)
	}()

	p, ord, err := s.loadOwned(ctx, paymentID, userID)
	if err != nil {
		outcome = "error"
		return err
	}
	if err = p.CanDelete(); err != nil {
		outcome = "error"
		return err
	}

	if err = s.orders.ClearPayment(ctx, ord); err != nil {
		outcome = "error"
		return err
	}
	if err = s.repo.Delete(ctx, paymentID); err != nil {
		outcome = "error"
		return err
	}

	logger.Info("payment_deleted", observability.F("order_id", p.OrderID))
	return nil
}

func (s *Service) GetPayment(ctx context.Context, paymentID, userID string) (*PaymentView, error) {
	start := time.Now()
	outcome := "success"
	p, _, err := s.loadOwned(ctx, paymentID, userID)
	if err != nil {
		outcome = "error"
	}
	s.record(useCasePaymentInquiry, outcome, start)
	if err != nil {
		return nil, err
	}
	return newView(p), nil
}

// loadOwned fetches a payment and checks ownership transitively through its
// order. Missing and not-owned are indistinguishable to the caller.
func (s *Service) loadOwned(ctx context.Context, paymentID, userID string) (*dompay.Payment, *domorder.Order, error) {
	p, err := s.repo.Get(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	ord, err := s.orders.GetOrderForUser(ctx, p.OrderID, userID)
	if err != nil {
		return nil, nil, dompay.ErrNotFound
	}
	return p, ord, nil
}

const (
	gatewayPeer     = "authorization_gateway"
	gatewayEndpoint = "authorize"
)

// authorize wraps the gateway call with external-call metrics.
func (s *Service) authorize(ctx context.Context, d dompay.Details) (ok bool, err error) {
	start := time.Now()
	defer func() {
		lat := time.Since(start).Seconds()
		result := "success"
		if err != nil || !ok {
			result = "error"
		}
		if s.extCounter != nil {
			s.extCounter.Add(1,
				observability.L("peer", gatewayPeer),
				observability.L("endpoint", gatewayEndpoint),
				observability.L("outcome", result),
			)
		}
		if s.extHist != nil {
			s.extHist.Observe(lat,
				observability.L("peer", gatewayPeer),
				observability.L("endpoint", gatewayEndpoint),
			)
		}
	}()
	return s.gateway.Authorize(ctx, d)
}

func (s *Service) publish(ctx context.Context, e domoutbox.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		logctx.FromOr(ctx, s.log).Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}
}

// finish closes the span and emits RED metrics plus the use-case summary log.
func (s *Service) finish(
	ctx context.Context,
	span trace.Span,
	logger observability.Logger,
	useCase, outcome, statusText string,
	start time.Time,
	err error,
) {
	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()
	}

	lat := time.Since(start).Seconds()
	if s.reqCounter != nil {
		s.reqCounter.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", outcome),
		)
	}
	if s.durHist != nil {
		s.durHist.Observe(lat, observability.L("use_case", useCase))
	}

	fields := []observability.Field{
		observability.F("outcome", outcome),
		observability.F("status", statusText),
		observability.F("latency_seconds", lat),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	logger.Info("use_case_done", fields...)
}

// record emits RED metrics for the lighter operations that carry no span.
func (s *Service) record(useCase, outcome string, start time.Time) {
	if s.reqCounter != nil {
		s.reqCounter.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", outcome),
		)
	}
	if s.durHist != nil {
		s.durHist.Observe(time.Since(start).Seconds(), observability.L("use_case", useCase))
	}
}
