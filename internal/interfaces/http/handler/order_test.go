package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	orderapp "github.com/tradecraft/backend/internal/application/order"
	"github.com/tradecraft/backend/internal/domain/order"
	"github.com/tradecraft/backend/internal/domain/shared"
	"github.com/tradecraft/backend/internal/infrastructure/auth"
	"github.com/tradecraft/backend/internal/interfaces/http/middleware"
)

// MockOrderRepository implements order.Repository for testing
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CountByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CountByStatus(ctx context.Context, status order.OrderStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	args := m.Called(ctx, orderNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

var _ order.Repository = (*MockOrderRepository)(nil)

// Test helpers

var testUserID = uuid.New()

// testAuth sets the JWT context values the way the auth middleware would
func testAuth(userID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, userID.String())
		c.Set(middleware.JWTUsernameKey, "jordan")
		c.Set(middleware.JWTRoleKey, role)
		c.Next()
	}
}

func setupOrderTestRouter(userID uuid.UUID, role string) (*gin.Engine, *MockOrderRepository, *OrderHandler) {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	mockRepo := new(MockOrderRepository)
	service := orderapp.NewLifecycleService(mockRepo)
	handler := NewOrderHandler(service)

	router := gin.New()
	router.Use(testAuth(userID, role))

	return router, mockRepo, handler
}

func createTestOrder(t *testing.T, userID uuid.UUID) *order.Order {
	t.Helper()

	shipping := order.ShippingAddress{
		Name:    "Jordan Wu",
		Phone:   "+8613800000000",
		Address: "88 Nanjing Road",
		City:    "Shanghai",
		Country: "CN",
	}
	o, err := order.NewOrder(userID, "ORD-1705300000-000042", "CNY", shipping,
		order.PaymentMethodAlipay, decimal.NewFromInt(10), decimal.NewFromInt(5))
	require.NoError(t, err)
	_, err = o.AddItem(uuid.New(), "Mechanical Keyboard", "", decimal.NewFromInt(300), 2)
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}

func checkoutBody() map[string]interface{} {
	return map[string]interface{}{
		"currency":       "CNY",
		"payment_method": "ALIPAY",
		"shipping_fee":   "10",
		"shipping": map[string]interface{}{
			"name":    "Jordan Wu",
			"phone":   "+8613800000000",
			"address": "88 Nanjing Road",
			"city":    "Shanghai",
			"country": "CN",
		},
		"items": []map[string]interface{}{
			{
				"product_id":   uuid.New().String(),
				"product_name": "Mechanical Keyboard",
				"unit_price":   "300",
				"quantity":     2,
			},
		},
	}
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// Tests

func TestOrderHandler_Create(t *testing.T) {
	t.Run("creates order for authenticated user", func(t *testing.T) {
		router, mockRepo, handler := setupOrderTestRouter(testUserID, auth.RoleCustomer)
		router.POST("/orders", handler.Create)

		mockRepo.On("GenerateOrderNumber", mock.Anything).Return("ORD-1705300000-000042", nil)
		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)

		w := doJSON(router, http.MethodPost, "/orders", checkoutBody())

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response["success"].(bool))

		data := response["data"].(map[string]interface{})
		assert.Equal(t, testUserID.String(), data["user_id"])
		assert.Equal(t, "PENDING", data["status"])

		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects missing items", func(t *testing.T) {
		router, mockRepo, handler := setupOrderTestRouter(testUserID, auth.RoleCustomer)
		router.POST("/orders", handler.Create)

		body := checkoutBody()
		delete(body, "items")
		w := doJSON(router, http.MethodPost, "/orders", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_VALIDATION")
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown payment method", func(t *testing.T) {
		router, mockRepo, handler := setupOrderTestRouter(testUserID, auth.RoleCustomer)
		router.POST("/orders", handler.Create)

		body := checkoutBody()
		body["payment_method"] = "BARTER"
		w := doJSON(router, http.MethodPost, "/orders", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_INVALID_INPUT")
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestOrderHandler_GetByID(t *testing.T) {
	t.Run("returns own order", func(t *testing.T) {
		router, mockRepo, handler := setupOrderTestRouter(testUserID, auth.RoleCustomer)
		router.GET("/orders/:id", handler.GetByID)

		o := createTestOrder(t, testUserID)
		mockRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		w := doJSON(router, http.MethodGet, "/orders/"+o.ID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), o.OrderNumber)
	})

	t.Run("hides foreign order as not found", func(t *testing.T) {
		router, mockRepo, handler := setupOrderTestRouter(testUserID, auth.RoleCustomer)
		router.GET("/orders/:id", handler.GetByID)

		o := createTestOrder(t, uuid.New())
		mockRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		w := doJSON(router, http.MethodGet, "/orders/"+o.ID.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("admin can read any order", func(t *testing.T) {
		router, mockRepo, handler := setupOrderTestRouter(testUserID, auth.RoleAdmin)
		router.GET("/orders/:id", handler.GetByID)

		o := createTestOrder(t, uuid.New())
		mockRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		w := doJSON(router, http.MethodGet, "/orders/"+o.ID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("returns 404 for missing order", func(t *testing.T) {
		router, mockRepo, handler := setupOrderTestRouter(testUserID, auth.RoleCustomer)
		router.GET("/orders/:id", handler.GetByID)

		orderID := uuid.New()
		mockRepo.On("FindByID", mock.Anything, orderID).Return(nil, shared.ErrNotFound)

		w := doJSON(router, http.MethodGet, "/orders/"+orderID.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
	})

	t.Run("returns 400 for malformed ID", func(t *testing.T) {
		router, _, handler := setupOrderTestRouter(testUserID, auth.RoleCustomer)
		router.GET("/orders/:id", handler.GetByID)

		w := doJSON(router, http.MethodGet, "/orders/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_List(t *testing.T) {
	router, mockRepo, handler := setupOrderTestRouter(testUserID, auth.RoleCustomer)
	router.GET("/orders", handler.List)

	o := createTestOrder(t, testUserID)
	mockRepo.On("FindByUser", mock.Anything, testUserID, mock.AnythingOfType("shared.Filter")).
		Return([]order.Order{*o}, nil)
	mockRepo.On("CountByUser", mock.Anything, testUserID, mock.AnythingOfType("shared.Filter")).
		Return(int64(1), nil)

	w := doJSON(router, http.MethodGet, "/orders?page=1&page_size=10", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	meta := response["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["total"])
	assert.Equal(t, float64(10), meta["page_size"])
}

func TestOrderHandler_Cancel(t *testing.T) {
	t.Run("cancels own pending order", func(t *testing.T) {
		router, mockRepo, handler := setupOrderTestRouter(testUserID, auth.RoleCustomer)
		router.POST("/orders/:id/cancel", handler.Cancel)

		o := createTestOrder(t, testUserID)
		mockRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		mockRepo.On("SaveWithLock", mock.Anything, o).Return(nil)

		w := doJSON(router, http.MethodPost, "/orders/"+o.ID.String()+"/cancel",
			map[string]string{"reason": "changed my mind"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "CANCELLED")
		mockRepo.AssertExpectations(t)
	})

	t.Run("cannot cancel foreign order", func(t *testing.T) {
		router, mockRepo, handler := setupOrderTestRouter(testUserID, auth.RoleCustomer)
		router.POST("/orders/:id/cancel", handler.Cancel)

		o := createTestOrder(t, uuid.New())
		mockRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		w := doJSON(router, http.MethodPost, "/orders/"+o.ID.String()+"/cancel",
			map[string]string{"reason": "not mine"})

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestOrderHandler_NextTransitions(t *testing.T) {
	router, mockRepo, handler := setupOrderTestRouter(testUserID, auth.RoleCustomer)
	router.GET("/orders/:id/transitions", handler.NextTransitions)

	o := createTestOrder(t, testUserID)
	mockRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	w := doJSON(router, http.MethodGet, "/orders/"+o.ID.String()+"/transitions", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "PROCESSING")
	assert.Contains(t, w.Body.String(), "CANCELLED")
}
