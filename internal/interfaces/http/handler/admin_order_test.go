package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	orderapp "github.com/tradecraft/backend/internal/application/order"
	"github.com/tradecraft/backend/internal/domain/order"
	"github.com/tradecraft/backend/internal/domain/shared"
	"github.com/tradecraft/backend/internal/infrastructure/auth"
	"github.com/tradecraft/backend/internal/interfaces/http/middleware"
)

func setupAdminOrderTestRouter() (*gin.Engine, *MockOrderRepository, *AdminOrderHandler) {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	mockRepo := new(MockOrderRepository)
	service := orderapp.NewLifecycleService(mockRepo)
	handler := NewAdminOrderHandler(service)

	router := gin.New()
	router.Use(testAuth(uuid.New(), auth.RoleAdmin))

	return router, mockRepo, handler
}

func createPaidOrder(t *testing.T) *order.Order {
	t.Helper()
	o := createTestOrder(t, testUserID)
	require.NoError(t, o.MarkPaid("txn-1"))
	o.ClearDomainEvents()
	return o
}

func TestAdminOrderHandler_List(t *testing.T) {
	router, mockRepo, handler := setupAdminOrderTestRouter()
	router.GET("/admin/orders", handler.List)

	o := createTestOrder(t, testUserID)
	mockRepo.On("FindAll", mock.Anything, mock.AnythingOfType("shared.Filter")).
		Return([]order.Order{*o}, nil)
	mockRepo.On("Count", mock.Anything, mock.AnythingOfType("shared.Filter")).
		Return(int64(1), nil)

	w := doJSON(router, http.MethodGet, "/admin/orders?status=PENDING", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), o.OrderNumber)
}

func TestAdminOrderHandler_Transition(t *testing.T) {
	t.Run("applies guarded transition", func(t *testing.T) {
		router, mockRepo, handler := setupAdminOrderTestRouter()
		router.POST("/admin/orders/:id/transition", handler.Transition)

		o := createPaidOrder(t)
		mockRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		mockRepo.On("SaveWithLock", mock.Anything, o).Return(nil)

		w := doJSON(router, http.MethodPost, "/admin/orders/"+o.ID.String()+"/transition",
			map[string]string{
				"expected_status":  "PROCESSING",
				"requested_status": "SHIPPED",
				"tracking_number":  "SF123456789",
			})

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "SHIPPED", data["status"])
		assert.Equal(t, "SF123456789", data["tracking_number"])
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects stale expected status", func(t *testing.T) {
		router, mockRepo, handler := setupAdminOrderTestRouter()
		router.POST("/admin/orders/:id/transition", handler.Transition)

		o := createPaidOrder(t)
		mockRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		w := doJSON(router, http.MethodPost, "/admin/orders/"+o.ID.String()+"/transition",
			map[string]string{
				"expected_status":  "PENDING",
				"requested_status": "PROCESSING",
			})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_CONCURRENCY_CONFLICT")
		mockRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("rejects illegal transition", func(t *testing.T) {
		router, mockRepo, handler := setupAdminOrderTestRouter()
		router.POST("/admin/orders/:id/transition", handler.Transition)

		o := createTestOrder(t, testUserID)
		mockRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		w := doJSON(router, http.MethodPost, "/admin/orders/"+o.ID.String()+"/transition",
			map[string]string{
				"expected_status":  "PENDING",
				"requested_status": "SHIPPED",
				"tracking_number":  "SF123456789",
			})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_INVALID_TRANSITION")
	})
}

func TestAdminOrderHandler_Ship(t *testing.T) {
	t.Run("ships processing order", func(t *testing.T) {
		router, mockRepo, handler := setupAdminOrderTestRouter()
		router.POST("/admin/orders/:id/ship", handler.Ship)

		o := createPaidOrder(t)
		mockRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		mockRepo.On("SaveWithLock", mock.Anything, o).Return(nil)

		w := doJSON(router, http.MethodPost, "/admin/orders/"+o.ID.String()+"/ship",
			map[string]string{"tracking_number": "SF123456789"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "SHIPPED")
	})

	t.Run("requires tracking number", func(t *testing.T) {
		router, mockRepo, handler := setupAdminOrderTestRouter()
		router.POST("/admin/orders/:id/ship", handler.Ship)

		o := createPaidOrder(t)

		w := doJSON(router, http.MethodPost, "/admin/orders/"+o.ID.String()+"/ship",
			map[string]string{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "tracking_number")
		mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestAdminOrderHandler_StatusSummary(t *testing.T) {
	router, mockRepo, handler := setupAdminOrderTestRouter()
	router.GET("/admin/orders/summary", handler.StatusSummary)

	for status, count := range map[order.OrderStatus]int64{
		order.OrderStatusPending:    4,
		order.OrderStatusProcessing: 3,
		order.OrderStatusShipped:    2,
		order.OrderStatusDelivered:  7,
		order.OrderStatusCancelled:  1,
		order.OrderStatusRefunding:  0,
		order.OrderStatusRefunded:   1,
	} {
		mockRepo.On("CountByStatus", mock.Anything, status).Return(count, nil)
	}

	w := doJSON(router, http.MethodGet, "/admin/orders/summary", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(18), data["total"])
	assert.Equal(t, float64(7), data["delivered"])
}

// MockStatusHistoryRepository implements order.StatusHistoryRepository for testing
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

func TestAdminOrderHandler_History(t *testing.T) {
	t.Run("returns the audit trail", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		middleware.SetupValidator()

		mockRepo := new(MockOrderRepository)
		mockHistoryRepo := new(MockStatusHistoryRepository)
		service := orderapp.NewLifecycleService(mockRepo)
		service.SetStatusHistory(mockHistoryRepo)
		handler := NewAdminOrderHandler(service)

		router := gin.New()
		router.Use(testAuth(uuid.New(), auth.RoleAdmin))
		router.GET("/admin/orders/:id/history", handler.History)

		o := createTestOrder(t, testUserID)
		mockRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		mockHistoryRepo.On("ListByOrder", mock.Anything, o.ID).Return([]order.StatusHistoryEntry{
			{
				OrderID:    o.ID,
				FromStatus: order.OrderStatusPending,
				ToStatus:   order.OrderStatusProcessing,
				Actor:      order.ActorSystem,
			},
		}, nil)

		w := doJSON(router, http.MethodGet, "/admin/orders/"+o.ID.String()+"/history", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].([]interface{})
		require.Len(t, data, 1)
		entry := data[0].(map[string]interface{})
		assert.Equal(t, "PENDING", entry["from_status"])
		assert.Equal(t, "PROCESSING", entry["to_status"])
		assert.Equal(t, "system", entry["actor"])
	})

	t.Run("unknown order returns not found", func(t *testing.T) {
		gin.SetMode(gin.TestMode)

		mockRepo := new(MockOrderRepository)
		mockHistoryRepo := new(MockStatusHistoryRepository)
		service := orderapp.NewLifecycleService(mockRepo)
		service.SetStatusHistory(mockHistoryRepo)
		handler := NewAdminOrderHandler(service)

		router := gin.New()
		router.Use(testAuth(uuid.New(), auth.RoleAdmin))
		router.GET("/admin/orders/:id/history", handler.History)

		orderID := uuid.New()
		mockRepo.On("FindByID", mock.Anything, orderID).Return(nil, shared.ErrNotFound)

		w := doJSON(router, http.MethodGet, "/admin/orders/"+orderID.String()+"/history", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockHistoryRepo.AssertNotCalled(t, "ListByOrder", mock.Anything, mock.Anything)
	})
}

func TestPaymentCallbackHandler(t *testing.T) {
	setupCallbackRouter := func() (*gin.Engine, *MockOrderRepository, *PaymentCallbackHandler) {
		gin.SetMode(gin.TestMode)
		mockRepo := new(MockOrderRepository)
		service := orderapp.NewLifecycleService(mockRepo)
		handler := NewPaymentCallbackHandler(service)
		return gin.New(), mockRepo, handler
	}

	t.Run("confirms payment", func(t *testing.T) {
		router, mockRepo, handler := setupCallbackRouter()
		router.POST("/payments/callback/:id/paid", handler.Confirm)

		o := createTestOrder(t, testUserID)
		mockRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		mockRepo.On("SaveWithLock", mock.Anything, o).Return(nil)

		w := doJSON(router, http.MethodPost, "/payments/callback/"+o.ID.String()+"/paid",
			map[string]string{"transaction_id": "txn-42"})

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "PAID", data["payment_status"])
		assert.Equal(t, "PROCESSING", data["status"])
	})

	t.Run("rejects double payment", func(t *testing.T) {
		router, mockRepo, handler := setupCallbackRouter()
		router.POST("/payments/callback/:id/paid", handler.Confirm)

		o := createPaidOrder(t)
		mockRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		w := doJSON(router, http.MethodPost, "/payments/callback/"+o.ID.String()+"/paid",
			map[string]string{"transaction_id": "txn-43"})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_INVALID_PAYMENT_TRANSITION")
	})

	t.Run("records failed payment", func(t *testing.T) {
		router, mockRepo, handler := setupCallbackRouter()
		router.POST("/payments/callback/:id/failed", handler.Fail)

		o := createTestOrder(t, testUserID)
		mockRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		mockRepo.On("SaveWithLock", mock.Anything, o).Return(nil)

		w := doJSON(router, http.MethodPost, "/payments/callback/"+o.ID.String()+"/failed", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "FAILED")
	})
}
