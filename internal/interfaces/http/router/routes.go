package router

import (
	"github.com/gin-gonic/gin"
	"github.com/tradecraft/backend/internal/interfaces/http/handler"
	"github.com/tradecraft/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the handlers the route table needs
type Handlers struct {
	Order           *handler.OrderHandler
	AdminOrder      *handler.AdminOrderHandler
	PaymentCallback *handler.PaymentCallbackHandler
	System          *handler.SystemHandler
}

// OrderRoutes builds the customer-facing order route group
func OrderRoutes(h *handler.OrderHandler) *DomainGroup {
	g := NewDomainGroup("orders", "/orders")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.GET("/:id/transitions", h.NextTransitions)
	g.GET("/number/:order_number", h.GetByOrderNumber)
	g.POST("/:id/cancel", h.Cancel)
	g.POST("/:id/refund", h.RequestRefund)
	return g
}

// AdminOrderRoutes builds the back-office order route group
func AdminOrderRoutes(h *handler.AdminOrderHandler) *DomainGroup {
	g := NewDomainGroup("admin-orders", "/admin/orders")
	g.Use(middleware.RequireAdmin())
	g.GET("", h.List)
	g.GET("/summary", h.StatusSummary)
	g.GET("/:id", h.GetByID)
	g.GET("/:id/transitions", h.NextTransitions)
	g.GET("/:id/history", h.History)
	g.POST("/:id/transition", h.Transition)
	g.POST("/:id/ship", h.Ship)
	g.POST("/:id/deliver", h.Deliver)
	g.POST("/:id/cancel", h.Cancel)
	g.POST("/:id/refund/complete", h.CompleteRefund)
	return g
}

// PaymentCallbackRoutes builds the gateway callback route group.
// These paths must be listed in the JWT middleware skip list.
func PaymentCallbackRoutes(h *handler.PaymentCallbackHandler) *DomainGroup {
	g := NewDomainGroup("payment-callbacks", "/payments/callback")
	g.POST("/:id/paid", h.Confirm)
	g.POST("/:id/failed", h.Fail)
	return g
}

// SystemRoutes builds the system information route group
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.GET("/info", h.GetSystemInfo)
	return g
}

// SetupRoutes wires the full API route table onto the engine.
// Health probes live outside the versioned API group.
func SetupRoutes(engine *gin.Engine, h Handlers) {
	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(OrderRoutes(h.Order))
	r.Register(AdminOrderRoutes(h.AdminOrder))
	r.Register(PaymentCallbackRoutes(h.PaymentCallback))
	r.Register(SystemRoutes(h.System))
	r.Setup()
}
