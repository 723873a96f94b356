package event

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradecraft/backend/internal/domain/shared"
)

type recordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	received   []shared.DomainEvent
	err        error
	panics     bool
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.received = append(h.received, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.received)
}

func newTestEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "Order", uuid.New())
	return &e
}

func TestInMemoryEventBus_PublishToSubscribedHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{eventTypes: []string{"OrderTransitioned"}}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderTransitioned")))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPaid")))

	assert.Equal(t, 1, handler.count(), "handler only sees its subscribed types")
}

func TestInMemoryEventBus_WildcardHandlerSeesAllEvents(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("OrderCreated"),
		newTestEvent("OrderPaid"),
		newTestEvent("OrderTransitioned"),
	))

	assert.Equal(t, 3, handler.count())
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{eventTypes: []string{"OrderPaid"}, err: assert.AnError}
	healthy := &recordingHandler{eventTypes: []string{"OrderPaid"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPaid")))

	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_PanickingHandlerIsContained(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	panicking := &recordingHandler{eventTypes: []string{"OrderPaid"}, panics: true}
	healthy := &recordingHandler{eventTypes: []string{"OrderPaid"}}
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	assert.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), newTestEvent("OrderPaid"))
	})
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{eventTypes: []string{"OrderPaid"}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPaid")))

	assert.Equal(t, 0, handler.count())
}

func TestHandlerRegistry_GetHandlers(t *testing.T) {
	registry := NewHandlerRegistry()
	specific := &recordingHandler{}
	wildcard := &recordingHandler{}

	registry.Register(specific, "OrderShipped")
	registry.Register(wildcard)

	assert.Len(t, registry.GetHandlers("OrderShipped"), 2)
	assert.Len(t, registry.GetHandlers("OrderPaid"), 1)

	registry.Unregister(wildcard)
	assert.Len(t, registry.GetHandlers("OrderPaid"), 0)
}
