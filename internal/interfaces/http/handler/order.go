package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	orderapp "github.com/tradecraft/backend/internal/application/order"
	"github.com/tradecraft/backend/internal/domain/order"
	"github.com/tradecraft/backend/internal/infrastructure/auth"
	"github.com/tradecraft/backend/internal/interfaces/http/middleware"
)

// OrderHandler handles customer-facing order endpoints
type OrderHandler struct {
	BaseHandler
	orderService *orderapp.LifecycleService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderapp.LifecycleService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// actorFromContext maps the authenticated role to the lifecycle actor
func actorFromContext(c *gin.Context) order.Actor {
	switch middleware.GetJWTRole(c) {
	case auth.RoleAdmin:
		return order.ActorAdmin
	case auth.RoleCustomer:
		return order.ActorCustomer
	default:
		return order.ActorSystem
	}
}

// Create places a new order for the authenticated user
func (h *OrderHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req orderapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.UserID = userID

	resp, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByID retrieves one of the authenticated user's orders
func (h *OrderHandler) GetByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	resp, err := h.orderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// Customers can only see their own orders; a foreign ID looks like a miss
	if resp.UserID != userID && middleware.GetJWTRole(c) != auth.RoleAdmin {
		h.NotFound(c, "Order not found")
		return
	}

	h.Success(c, resp)
}

// GetByOrderNumber retrieves one of the authenticated user's orders by number
func (h *OrderHandler) GetByOrderNumber(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderNumber := c.Param("order_number")
	if orderNumber == "" {
		h.BadRequest(c, "Order number is required")
		return
	}

	resp, err := h.orderService.GetByOrderNumber(c.Request.Context(), orderNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if resp.UserID != userID && middleware.GetJWTRole(c) != auth.RoleAdmin {
		h.NotFound(c, "Order not found")
		return
	}

	h.Success(c, resp)
}

// List retrieves the authenticated user's orders
func (h *OrderHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter orderapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	orders, total, err := h.orderService.ListByUser(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// Cancel cancels one of the authenticated user's orders
func (h *OrderHandler) Cancel(c *gin.Context) {
	resp, ok := h.loadOwnOrder(c)
	if !ok {
		return
	}

	var req orderapp.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.orderService.Cancel(c.Request.Context(), resp.ID, req, actorFromContext(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RequestRefund starts a refund for one of the authenticated user's orders
func (h *OrderHandler) RequestRefund(c *gin.Context) {
	resp, ok := h.loadOwnOrder(c)
	if !ok {
		return
	}

	result, err := h.orderService.RequestRefund(c.Request.Context(), resp.ID, actorFromContext(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// NextTransitions lists the statuses the order can move to next
func (h *OrderHandler) NextTransitions(c *gin.Context) {
	resp, ok := h.loadOwnOrder(c)
	if !ok {
		return
	}

	result, err := h.orderService.NextTransitions(c.Request.Context(), resp.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// loadOwnOrder resolves the :id parameter to an order owned by the caller.
// Writes the error response and returns ok=false when that fails.
func (h *OrderHandler) loadOwnOrder(c *gin.Context) (*orderapp.OrderResponse, bool) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return nil, false
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return nil, false
	}

	resp, err := h.orderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}

	if resp.UserID != userID && middleware.GetJWTRole(c) != auth.RoleAdmin {
		h.NotFound(c, "Order not found")
		return nil, false
	}

	return resp, true
}
