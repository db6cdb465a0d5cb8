package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	domain "github.com/lumipay/payflow/internal/domain/payment"
	"github.com/stretchr/testify/require"
)

func newStoredPayment(t *testing.T, orderID string) *domain.Payment {
	t.Helper()
	p, err := domain.New("pay-"+orderID, orderID, 10000, domain.MethodCard)
	require.NoError(t, err)
	return p
}

func TestPaymentRepository_Insert(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and reads back", func(t *testing.T) {
		repo := NewPaymentRepository()
		p := newStoredPayment(t, "order-1")

		require.NoError(t, repo.Insert(ctx, p))

		got, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, p.ID, got.ID)
		require.Equal(t, domain.StatusPending, got.Status)
		require.Equal(t, int64(0), got.Version)

		byOrder, err := repo.GetByOrderID(ctx, "order-1")
		require.NoError(t, err)
		require.Equal(t, p.ID, byOrder.ID)
	})

	t.Run("second payment for the same order is rejected", func(t *testing.T) {
		repo := NewPaymentRepository()
		require.NoError(t, repo.Insert(ctx, newStoredPayment(t, "order-1")))

		second, err := domain.New("pay-other", "order-1", 10000, domain.MethodCard)
		require.NoError(t, err)
		require.ErrorIs(t, repo.Insert(ctx, second), domain.ErrDuplicateOrderPayment)
	})

	t.Run("concurrent inserts for one order admit exactly one", func(t *testing.T) {
		repo := NewPaymentRepository()

		const workers = 10
		var wg sync.WaitGroup
		var inserted atomic.Int64
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				p, err := domain.New("pay-"+string(rune('a'+n)), "order-1", 10000, domain.MethodCard)
				if err != nil {
					return
				}
				if repo.Insert(ctx, p) == nil {
					inserted.Add(1)
				}
			}(i)
		}
		wg.Wait()

		require.Equal(t, int64(1), inserted.Load())
	})
}

func TestPaymentRepository_UpdateVersioned(t *testing.T) {
	ctx := context.Background()

	t.Run("matching version commits and bumps", func(t *testing.T) {
		repo := NewPaymentRepository()
		p := newStoredPayment(t, "order-1")
		require.NoError(t, repo.Insert(ctx, p))

		require.NoError(t, p.Complete())
		require.NoError(t, repo.UpdateVersioned(ctx, p, 0))
		require.Equal(t, int64(1), p.Version)

		got, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StatusCompleted, got.Status)
		require.Equal(t, int64(1), got.Version)
	})

	t.Run("stale version is a conflict and leaves the row intact", func(t *testing.T) {
		repo := NewPaymentRepository()
		p := newStoredPayment(t, "order-1")
		require.NoError(t, repo.Insert(ctx, p))

		require.NoError(t, p.Complete())
		require.NoError(t, repo.UpdateVersioned(ctx, p, 0))

		stale := p.Clone()
		require.NoError(t, stale.Cancel())
		require.ErrorIs(t, repo.UpdateVersioned(ctx, stale, 0), domain.ErrVersionConflict)

		got, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StatusCompleted, got.Status)
		require.Equal(t, int64(1), got.Version)
	})

	t.Run("unknown payment is not found", func(t *testing.T) {
		repo := NewPaymentRepository()
		p := newStoredPayment(t, "order-1")
		require.ErrorIs(t, repo.UpdateVersioned(ctx, p, 0), domain.ErrNotFound)
	})

	t.Run("concurrent updates against one version admit exactly one", func(t *testing.T) {
		repo := NewPaymentRepository()
		p := newStoredPayment(t, "order-1")
		require.NoError(t, repo.Insert(ctx, p))

		const workers = 10
		var wg sync.WaitGroup
		var committed atomic.Int64
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				candidate := p.Clone()
				if err := candidate.Complete(); err != nil {
					return
				}
				if repo.UpdateVersioned(ctx, candidate, 0) == nil {
					committed.Add(1)
				}
			}()
		}
		wg.Wait()

		require.Equal(t, int64(1), committed.Load())

		got, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, int64(1), got.Version)
	})
}

func TestPaymentRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the row and frees the order slot", func(t *testing.T) {
		repo := NewPaymentRepository()
		p := newStoredPayment(t, "order-1")
		require.NoError(t, repo.Insert(ctx, p))

		require.NoError(t, repo.Delete(ctx, p.ID))

		_, err := repo.Get(ctx, p.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.GetByOrderID(ctx, "order-1")
		require.ErrorIs(t, err, domain.ErrNotFound)

		// A fresh payment for the order is admissible again.
		require.NoError(t, repo.Insert(ctx, newStoredPayment(t, "order-1")))
	})

	t.Run("unknown payment is not found", func(t *testing.T) {
		repo := NewPaymentRepository()
		require.ErrorIs(t, repo.Delete(ctx, "missing"), domain.ErrNotFound)
	})
}
