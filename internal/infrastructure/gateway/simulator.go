package gateway

import (
	"context"
	"math/rand"
	"sync"
	"time"

	dompay "github.com/lumipay/payflow/internal/domain/payment"
	"github.com/lumipay/payflow/internal/observability"
)

const componentGateway = "authorization_gateway"

// Simulator stands in for the real payment processor. Latency and declines
// are configurable so local runs exercise both coordinator branches.
type Simulator struct {
	mu          sync.Mutex
	random      *rand.Rand
	successRate float64
	latency     time.Duration
	log         observability.Logger
}

func NewSimulator(successRate float64, latency time.Duration, logger observability.Logger) *Simulator {
	if successRate < 0 {
		successRate = 0
	}
	if successRate > 1 {
		successRate = 1
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Simulator{
		random:      rand.New(rand.NewSource(time.Now().UnixNano())),
		successRate: successRate,
		latency:     latency,
		log:         logger.With(observability.F("component", componentGateway)),
	}
}

// Authorize simulates the charge. Once issued the call is atomic: it resolves
// to success or failure, never a partial state.
func (s *Simulator) Authorize(ctx context.Context, d dompay.Details) (bool, error) {
	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	} else {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}
	}

	s.mu.Lock()
	// Strict comparison keeps the extremes exact: 0 never authorizes, 1 always does.
	authorized := s.random.Float64() < s.successRate
	s.mu.Unlock()

	s.log.Debug("authorization_resolved",
		observability.F("payment_id", d.PaymentID),
		observability.F("amount", d.Amount),
		observability.F("authorized", authorized),
	)
	return authorized, nil
}
