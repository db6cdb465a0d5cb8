package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	domain "github.com/lumipay/payflow/internal/domain/payment"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "payflow-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, RunMigrations(db))
	return db
}

func seedPayment(t *testing.T, repo *PaymentRepository, orderID string) *domain.Payment {
	t.Helper()
	p, err := domain.New("pay-"+orderID, orderID, 10000, domain.MethodCard)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), p))
	return p
}

func TestPaymentRepository_SQLite_Insert(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository(openTestDB(t))

	p := seedPayment(t, repo, "order-1")

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.OrderID, got.OrderID)
	require.Equal(t, domain.StatusPending, got.Status)
	require.Equal(t, int64(0), got.Version)

	byOrder, err := repo.GetByOrderID(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, p.ID, byOrder.ID)

	second, err := domain.New("pay-other", "order-1", 10000, domain.MethodCard)
	require.NoError(t, err)
	require.ErrorIs(t, repo.Insert(ctx, second), domain.ErrDuplicateOrderPayment)
}

func TestPaymentRepository_SQLite_UpdateVersioned(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository(openTestDB(t))

	p := seedPayment(t, repo, "order-1")

	require.NoError(t, p.Complete())
	require.NoError(t, repo.UpdateVersioned(ctx, p, 0))
	require.Equal(t, int64(1), p.Version)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, got.Status)
	require.Equal(t, int64(1), got.Version)

	// A writer still holding the pre-commit version loses and the row keeps
	// the winner's state.
	stale := p.Clone()
	require.NoError(t, stale.Cancel())
	require.ErrorIs(t, repo.UpdateVersioned(ctx, stale, 0), domain.ErrVersionConflict)

	got, err = repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, got.Status)

	missing, err := domain.New("pay-missing", "order-x", 10000, domain.MethodCard)
	require.NoError(t, err)
	require.ErrorIs(t, repo.UpdateVersioned(ctx, missing, 0), domain.ErrNotFound)
}

func TestPaymentRepository_SQLite_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository(openTestDB(t))

	p := seedPayment(t, repo, "order-1")

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err := repo.Get(ctx, p.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	// The unique slot is released with the row.
	seedPayment(t, repo, "order-1")

	require.ErrorIs(t, repo.Delete(ctx, "missing"), domain.ErrNotFound)
}
