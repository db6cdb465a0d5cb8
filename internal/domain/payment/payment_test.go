package payment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newPending(t *testing.T) *Payment {
	t.Helper()
	p, err := New("pay-1", "order-1", 10000, MethodCard)
	require.NoError(t, err)
	require.Equal(t, StatusPending, p.Status)
	return p
}

func TestNew(t *testing.T) {
	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := New("pay-1", "order-1", 0, MethodCard)
		require.ErrorIs(t, err, ErrInvalidAmount)

		_, err = New("pay-1", "order-1", -500, MethodCard)
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		_, err := New("pay-1", "order-1", 10000, Method("BARTER"))
		require.ErrorIs(t, err, ErrInvalidMethod)
	})

	t.Run("starts pending at version zero", func(t *testing.T) {
		p := newPending(t)
		require.Zero(t, p.Version)
		require.Equal(t, "order-1", p.OrderID)
	})
}

func TestComplete(t *testing.T) {
	t.Run("pending completes", func(t *testing.T) {
		p := newPending(t)
		require.NoError(t, p.Complete())
		require.Equal(t, StatusCompleted, p.Status)
	})

	t.Run("second complete reports already completed, never a silent success", func(t *testing.T) {
		p := newPending(t)
		require.NoError(t, p.Complete())
		require.ErrorIs(t, p.Complete(), ErrAlreadyCompleted)
		require.Equal(t, StatusCompleted, p.Status)
	})

	t.Run("complete from failed is invalid", func(t *testing.T) {
		p := newPending(t)
		require.NoError(t, p.Fail())
		require.ErrorIs(t, p.Complete(), ErrInvalidTransition)
	})
}

func TestFail(t *testing.T) {
	t.Run("pending fails", func(t *testing.T) {
		p := newPending(t)
		require.NoError(t, p.Fail())
		require.Equal(t, StatusFailed, p.Status)
	})

	t.Run("fail from completed is invalid", func(t *testing.T) {
		p := newPending(t)
		require.NoError(t, p.Complete())
		require.ErrorIs(t, p.Fail(), ErrInvalidTransition)
		require.Equal(t, StatusCompleted, p.Status)
	})
}

func TestCancel(t *testing.T) {
	t.Run("completed cancels", func(t *testing.T) {
		p := newPending(t)
		require.NoError(t, p.Complete())
		require.NoError(t, p.Cancel())
		require.Equal(t, StatusCanceled, p.Status)
	})

	t.Run("cancel from pending is not cancellable", func(t *testing.T) {
		p := newPending(t)
		require.ErrorIs(t, p.Cancel(), ErrNotCancellable)
		require.Equal(t, StatusPending, p.Status)
	})

	t.Run("cancel from failed is not cancellable", func(t *testing.T) {
		p := newPending(t)
		require.NoError(t, p.Fail())
		require.ErrorIs(t, p.Cancel(), ErrNotCancellable)
	})

	t.Run("second cancel reports already cancelled", func(t *testing.T) {
		p := newPending(t)
		require.NoError(t, p.Complete())
		require.NoError(t, p.Cancel())
		require.ErrorIs(t, p.Cancel(), ErrAlreadyCancelled)
	})
}

func TestCanDelete(t *testing.T) {
	p := newPending(t)
	require.ErrorIs(t, p.CanDelete(), ErrDeleteNotAllowed)

	require.NoError(t, p.Complete())
	require.ErrorIs(t, p.CanDelete(), ErrDeleteNotAllowed)

	require.NoError(t, p.Cancel())
	require.NoError(t, p.CanDelete())
}

func TestStatusIsTerminal(t *testing.T) {
	require.False(t, StatusPending.IsTerminal())
	require.False(t, StatusCompleted.IsTerminal())
	require.True(t, StatusFailed.IsTerminal())
	require.True(t, StatusCanceled.IsTerminal())
}
