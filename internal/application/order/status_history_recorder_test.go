package order

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tradecraft/backend/internal/domain/order"
	"go.uber.org/zap"
)

// MockStatusHistoryRepository is a mock implementation of order.StatusHistoryRepository
type MockStatusHistoryRepository struct {
	mock.Mock
}

func (m *MockStatusHistoryRepository) Append(ctx context.Context, entry *order.StatusHistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockStatusHistoryRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.StatusHistoryEntry, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.StatusHistoryEntry), args.Error(1)
}

func TestStatusHistoryRecorder_Handle(t *testing.T) {
	t.Run("records a shipping transition with the tracking note", func(t *testing.T) {
		o := createProcessingOrder(t)
		require.NoError(t, o.Ship("SF123456789", order.ActorAdmin))
		event := order.NewOrderTransitionedEvent(o, order.OrderStatusProcessing, order.ActorAdmin)

		historyRepo := new(MockStatusHistoryRepository)
		var appended *order.StatusHistoryEntry
		historyRepo.On("Append", mock.Anything, mock.AnythingOfType("*order.StatusHistoryEntry")).
			Run(func(args mock.Arguments) {
				appended = args.Get(1).(*order.StatusHistoryEntry)
			}).
			Return(nil)

		recorder := NewStatusHistoryRecorder(historyRepo, zap.NewNop())
		err := recorder.Handle(context.Background(), event)

		assert.NoError(t, err)
		historyRepo.AssertExpectations(t)
		require.NotNil(t, appended)
		assert.Equal(t, event.EventID(), appended.ID)
		assert.Equal(t, o.ID, appended.OrderID)
		assert.Equal(t, order.OrderStatusProcessing, appended.FromStatus)
		assert.Equal(t, order.OrderStatusShipped, appended.ToStatus)
		assert.Equal(t, order.ActorAdmin, appended.Actor)
		assert.Equal(t, "Tracking number SF123456789", appended.Note)
	})

	t.Run("records a cancellation with the reason as the note", func(t *testing.T) {
		o := createTestOrder(t)
		require.NoError(t, o.Cancel("Changed my mind", order.ActorCustomer))
		event := order.NewOrderTransitionedEvent(o, order.OrderStatusPending, order.ActorCustomer)

		historyRepo := new(MockStatusHistoryRepository)
		var appended *order.StatusHistoryEntry
		historyRepo.On("Append", mock.Anything, mock.AnythingOfType("*order.StatusHistoryEntry")).
			Run(func(args mock.Arguments) {
				appended = args.Get(1).(*order.StatusHistoryEntry)
			}).
			Return(nil)

		recorder := NewStatusHistoryRecorder(historyRepo, zap.NewNop())
		err := recorder.Handle(context.Background(), event)

		assert.NoError(t, err)
		require.NotNil(t, appended)
		assert.Equal(t, order.OrderStatusCancelled, appended.ToStatus)
		assert.Equal(t, "Changed my mind", appended.Note)
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		o := createProcessingOrder(t)
		require.NoError(t, o.Ship("SF123456789", order.ActorAdmin))
		event := order.NewOrderTransitionedEvent(o, order.OrderStatusProcessing, order.ActorAdmin)

		historyRepo := new(MockStatusHistoryRepository)
		historyRepo.On("Append", mock.Anything, mock.Anything).Return(errors.New("db error"))

		recorder := NewStatusHistoryRecorder(historyRepo, zap.NewNop())
		err := recorder.Handle(context.Background(), event)

		assert.Error(t, err)
	})

	t.Run("rejects events of another type", func(t *testing.T) {
		o := createTestOrder(t)
		event := order.NewOrderCreatedEvent(o)

		historyRepo := new(MockStatusHistoryRepository)
		recorder := NewStatusHistoryRecorder(historyRepo, zap.NewNop())

		err := recorder.Handle(context.Background(), event)

		assert.Error(t, err)
		historyRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}

func TestStatusHistoryRecorder_EventTypes(t *testing.T) {
	recorder := NewStatusHistoryRecorder(new(MockStatusHistoryRepository), zap.NewNop())
	assert.Equal(t, []string{order.EventTypeOrderTransitioned}, recorder.EventTypes())
}
