package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	orderapp "github.com/tradecraft/backend/internal/application/order"
	"github.com/tradecraft/backend/internal/interfaces/http/middleware"
)

// PaymentCallbackHandler handles payment gateway callback endpoints.
// These endpoints are called by external payment gateways and carry the
// system actor rather than an authenticated user.
type PaymentCallbackHandler struct {
	BaseHandler
	orderService *orderapp.LifecycleService
}

// NewPaymentCallbackHandler creates a new PaymentCallbackHandler
func NewPaymentCallbackHandler(orderService *orderapp.LifecycleService) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{
		orderService: orderService,
	}
}

// Confirm records a successful payment for an order
func (h *PaymentCallbackHandler) Confirm(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req orderapp.PayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.orderService.Pay(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Fail records a failed payment attempt for an order
func (h *PaymentCallbackHandler) Fail(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	resp, err := h.orderService.FailPayment(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
