package order

import (
	"context"
	"fmt"

	domain "github.com/lumipay/payflow/internal/domain/order"
	"github.com/lumipay/payflow/internal/observability"
	"github.com/lumipay/payflow/internal/observability/logctx"
)

const componentOrderService = "order_service"

// Service owns order persistence on behalf of the payment core. It implements
// the narrow linkage contract the payment coordinator consumes: resolve an
// order for a user, flip its status when a payment commits, and maintain the
// non-owning payment back-reference.
type Service struct {
	repo        domain.Repository
	idGenerator IDGenerator
	log         observability.Logger
}

func NewService(repo domain.Repository, idGen IDGenerator, tel observability.Observability) *Service {
	baseLog := observability.NopLogger()
	if tel != nil {
		baseLog = tel.Logger()
	}
	return &Service{
		repo:        repo,
		idGenerator: idGen,
		log:         baseLog.With(observability.F("component", componentOrderService)),
	}
}

type CreateOrderInput struct {
	UserID string
	Amount int64
}

type CreateOrderResult struct {
	OrderID string
	Status  domain.Status
}

func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	logger := logctx.FromOr(ctx, s.log)

	entity, err := domain.New(s.idGenerator.NewID(), input.UserID, input.Amount)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, entity); err != nil {
		logger.Error("order_insert_failed",
			observability.F("order_id", entity.ID),
			observability.F("error", err.Error()),
		)
		return nil, fmt.Errorf("order: insert: %w", err)
	}

	logger.Info("order_created",
		observability.F("order_id", entity.ID),
		observability.F("amount", entity.Amount),
	)
	return &CreateOrderResult{
		OrderID: entity.ID,
		Status:  entity.Status,
	}, nil
}

// GetOrderForUser resolves an order and enforces ownership. A mismatched user
// is indistinguishable from a missing order to the caller.
func (s *Service) GetOrderForUser(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (s *Service) MarkPaid(ctx context.Context, o *domain.Order, paymentID string) error {
	if err := o.MarkPaid(paymentID); err != nil {
		return err
	}
	return s.repo.Update(ctx, o)
}

func (s *Service) MarkCanceled(ctx context.Context, o *domain.Order) error {
	if err := o.MarkCanceled(); err != nil {
		return err
	}
	return s.repo.Update(ctx, o)
}

func (s *Service) ClearPayment(ctx context.Context, o *domain.Order) error {
	o.ClearPayment()
	return s.repo.Update(ctx, o)
}
