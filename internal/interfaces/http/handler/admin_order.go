package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	orderapp "github.com/tradecraft/backend/internal/application/order"
	"github.com/tradecraft/backend/internal/domain/order"
	"github.com/tradecraft/backend/internal/interfaces/http/middleware"
)

// AdminOrderHandler handles back-office order management endpoints
type AdminOrderHandler struct {
	BaseHandler
	orderService *orderapp.LifecycleService
}

// NewAdminOrderHandler creates a new AdminOrderHandler
func NewAdminOrderHandler(orderService *orderapp.LifecycleService) *AdminOrderHandler {
	return &AdminOrderHandler{
		orderService: orderService,
	}
}

// List retrieves a paginated list of all orders with optional filtering
func (h *AdminOrderHandler) List(c *gin.Context) {
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

	orders, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// GetByID retrieves any order by ID
func (h *AdminOrderHandler) GetByID(c *gin.Context) {
	orderID, ok := h.orderIDParam(c)
	if !ok {
		return
	}

	resp, err := h.orderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// StatusSummary returns order counts grouped by fulfillment status
func (h *AdminOrderHandler) StatusSummary(c *gin.Context) {
	summary, err := h.orderService.GetStatusSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// Transition moves an order to a requested status, guarded by the status the
// caller last observed
func (h *AdminOrderHandler) Transition(c *gin.Context) {
	orderID, ok := h.orderIDParam(c)
	if !ok {
		return
	}

	var req orderapp.TransitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.orderService.ApplyTransition(c.Request.Context(), orderID, req, order.ActorAdmin)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Ship marks an order as shipped with a tracking number
func (h *AdminOrderHandler) Ship(c *gin.Context) {
	orderID, ok := h.orderIDParam(c)
	if !ok {
		return
	}

	var req orderapp.ShipOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.orderService.Ship(c.Request.Context(), orderID, req, order.ActorAdmin)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Deliver marks a shipped order as delivered
func (h *AdminOrderHandler) Deliver(c *gin.Context) {
	orderID, ok := h.orderIDParam(c)
	if !ok {
		return
	}

	resp, err := h.orderService.Deliver(c.Request.Context(), orderID, order.ActorAdmin)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Cancel cancels an order on behalf of the back office
func (h *AdminOrderHandler) Cancel(c *gin.Context) {
	orderID, ok := h.orderIDParam(c)
	if !ok {
		return
	}

	var req orderapp.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.orderService.Cancel(c.Request.Context(), orderID, req, order.ActorAdmin)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// CompleteRefund finishes the refund flow for an order
func (h *AdminOrderHandler) CompleteRefund(c *gin.Context) {
	orderID, ok := h.orderIDParam(c)
	if !ok {
		return
	}

	resp, err := h.orderService.CompleteRefund(c.Request.Context(), orderID, order.ActorAdmin)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// History returns the order's fulfillment audit trail, oldest transition first
func (h *AdminOrderHandler) History(c *gin.Context) {
	orderID, ok := h.orderIDParam(c)
	if !ok {
		return
	}

	entries, err := h.orderService.History(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

// NextTransitions lists the statuses an order can move to next
func (h *AdminOrderHandler) NextTransitions(c *gin.Context) {
	orderID, ok := h.orderIDParam(c)
	if !ok {
		return
	}

	resp, err := h.orderService.NextTransitions(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// orderIDParam parses the :id path parameter, writing a 400 on failure
func (h *AdminOrderHandler) orderIDParam(c *gin.Context) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return uuid.Nil, false
	}
	return orderID, true
}
