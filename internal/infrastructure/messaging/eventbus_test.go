package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
	"github.com/lentera-edu/lentera-lms-backend/pkg/logger"
)

func newSyncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

func resultEvent() shared.Event {
	return shared.NewResultRecordedEvent(
		"res-1",
		"11111111-1111-1111-1111-111111111111",
		"post-test-topik",
		85,
		"aaaaaaaa-0000-0000-0000-000000000001",
		"bbbbbbbb-0000-0000-0000-000000000001",
	)
}

func TestEventBus_DeliversToTypedSubscriber(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var received []shared.Event
	handler := shared.EventHandlerFunc{
		HandlerName: "collector",
		Fn: func(ev shared.Event) error {
			received = append(received, ev)
			return nil
		},
	}

	require.NoError(t, bus.Subscribe(shared.EventResultRecorded, handler))

	require.NoError(t, bus.Publish(resultEvent()))
	require.NoError(t, bus.Publish(shared.NewTopicCompletedEvent("u", "t", 90)))

	// Only the subscribed type is delivered.
	require.Len(t, received, 1)
	assert.Equal(t, shared.EventResultRecorded, received[0].EventType())
}

func TestEventBus_SubscribeAllReceivesEverything(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	count := 0
	handler := shared.EventHandlerFunc{
		HandlerName: "audit",
		Fn: func(shared.Event) error {
			count++
			return nil
		},
	}

	require.NoError(t, bus.SubscribeAll(handler))

	require.NoError(t, bus.Publish(resultEvent()))
	require.NoError(t, bus.Publish(shared.NewTopicCompletedEvent("u", "t", 90)))

	assert.Equal(t, 2, count)
}

func TestEventBus_HandlerErrorDoesNotBlockOthers(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	failing := shared.EventHandlerFunc{
		HandlerName: "failing",
		Fn:          func(shared.Event) error { return errors.New("handler boom") },
	}
	okCalled := false
	ok := shared.EventHandlerFunc{
		HandlerName: "ok",
		Fn: func(shared.Event) error {
			okCalled = true
			return nil
		},
	}

	require.NoError(t, bus.Subscribe(shared.EventResultRecorded, failing))
	require.NoError(t, bus.Subscribe(shared.EventResultRecorded, ok))

	require.NoError(t, bus.Publish(resultEvent()))
	assert.True(t, okCalled)
}

func TestEventBus_AsyncDelivery(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = true
	bus := NewInMemoryEventBus(cfg)

	var mu sync.Mutex
	count := 0
	handler := shared.EventHandlerFunc{
		HandlerName: "async-collector",
		Fn: func(shared.Event) error {
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		},
	}

	require.NoError(t, bus.Subscribe(shared.EventResultRecorded, handler))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(resultEvent()))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, count)
}

func TestEventBus_PublishAfterClose(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(resultEvent())
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestEventBus_RejectsNilInput(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	assert.ErrorIs(t, bus.Publish(nil), ErrNilEvent)
	assert.ErrorIs(t, bus.Subscribe(shared.EventResultRecorded, nil), ErrNilHandler)
	assert.ErrorIs(t, bus.SubscribeAll(nil), ErrNilHandler)
}

func TestEventBus_Metrics(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	ok := shared.EventHandlerFunc{
		HandlerName: "ok",
		Fn:          func(shared.Event) error { return nil },
	}
	failing := shared.EventHandlerFunc{
		HandlerName: "failing",
		Fn:          func(shared.Event) error { return errors.New("boom") },
	}

	require.NoError(t, bus.Subscribe(shared.EventResultRecorded, ok))
	require.NoError(t, bus.Subscribe(shared.EventResultRecorded, failing))

	require.NoError(t, bus.Publish(resultEvent()))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.Published)
	assert.Equal(t, int64(2), snap.Handled)
	assert.Equal(t, int64(1), snap.Failed)
}

func TestPublisher_AdaptsContext(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	count := 0
	require.NoError(t, bus.SubscribeAll(shared.EventHandlerFunc{
		HandlerName: "counter",
		Fn: func(shared.Event) error {
			count++
			return nil
		},
	}))

	pub := NewPublisher(bus)
	require.NoError(t, pub.Publish(context.Background(), resultEvent()))
	assert.Equal(t, 1, count)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err := pub.Publish(cancelled, resultEvent())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, count)
}

func TestCacheInvalidationHandler(t *testing.T) {
	inv := &fakeInvalidator{}
	handler := NewCacheInvalidationHandler(inv, time.Second, logger.Default())

	assert.Equal(t, "dashboard-cache-invalidation", handler.Name())
	require.NoError(t, handler.Handle(resultEvent()))
	assert.Equal(t, 1, inv.calls)
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateDashboard(context.Context) error {
	f.calls++
	return nil
}
