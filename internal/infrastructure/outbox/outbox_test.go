package outbox

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	domoutbox "github.com/lumipay/payflow/internal/domain/outbox"
	dompay "github.com/lumipay/payflow/internal/domain/payment"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not met in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestBus_PublishFansOutToSubscribers(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	var completed, canceled atomic.Int64
	bus.Subscribe(dompay.PaymentCompletedEvent{}.EventName(), func(ctx context.Context, e domoutbox.Event) error {
		completed.Add(1)
		return nil
	})
	bus.Subscribe(dompay.PaymentCanceledEvent{}.EventName(), func(ctx context.Context, e domoutbox.Event) error {
		canceled.Add(1)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), dompay.PaymentCompletedEvent{PaymentID: "pay-1", OrderID: "order-1"}))
	require.NoError(t, bus.Publish(context.Background(), dompay.PaymentCompletedEvent{PaymentID: "pay-2", OrderID: "order-2"}))

	waitFor(t, func() bool { return completed.Load() == 2 })
	require.Equal(t, int64(0), canceled.Load())
}

func TestBus_EventWithoutSubscriberIsDropped(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	require.NoError(t, bus.Publish(context.Background(), dompay.PaymentFailedEvent{PaymentID: "pay-1"}))
}

func TestBus_HandlerPanicDoesNotStopDispatch(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	var delivered atomic.Int64
	name := dompay.PaymentCompletedEvent{}.EventName()
	bus.Subscribe(name, func(ctx context.Context, e domoutbox.Event) error {
		panic("handler blew up")
	})
	bus.Subscribe(name, func(ctx context.Context, e domoutbox.Event) error {
		delivered.Add(1)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), dompay.PaymentCompletedEvent{PaymentID: "pay-1"}))
	require.NoError(t, bus.Publish(context.Background(), dompay.PaymentCompletedEvent{PaymentID: "pay-2"}))

	waitFor(t, func() bool { return delivered.Load() == 2 })
}

func TestBus_PublishAfterContextCancel(t *testing.T) {
	bus := NewBus(nil)
	// Intentionally unstarted so the queue can fill without a consumer.
	for i := 0; i < cap(bus.queue); i++ {
		require.NoError(t, bus.Publish(context.Background(), dompay.PaymentCompletedEvent{PaymentID: "pay"}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := bus.Publish(ctx, dompay.PaymentCompletedEvent{PaymentID: "pay-overflow"})
	require.ErrorIs(t, err, context.Canceled)
}
