package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradecraft/backend/internal/domain/order"
)

// ==================== Order DTOs ====================

// CreateOrderRequest represents a checkout request to create an order.
// UserID is filled from the authenticated session, not from the request body.
type CreateOrderRequest struct {
	UserID        uuid.UUID              `json:"-"`
	Currency      string                 `json:"currency" binding:"required,len=3"`
	PaymentMethod string                 `json:"payment_method" binding:"required"`
	ShippingFee   decimal.Decimal        `json:"shipping_fee"`
	TaxAmount     decimal.Decimal        `json:"tax_amount"`
	Shipping      ShippingAddressInput   `json:"shipping" binding:"required"`
	Items         []CreateOrderItemInput `json:"items" binding:"required,min=1"`
	Notes         string                 `json:"notes" binding:"max=500"`
}

// ShippingAddressInput represents the delivery destination in requests
type ShippingAddressInput struct {
	Name       string `json:"name" binding:"required,min=1,max=100"`
	Phone      string `json:"phone" binding:"required,min=1,max=30"`
	Address    string `json:"address" binding:"required,min=1,max=300"`
	City       string `json:"city" binding:"required,min=1,max=100"`
	State      string `json:"state" binding:"max=100"`
	Country    string `json:"country" binding:"required,min=1,max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
}

// CreateOrderItemInput represents a line item in the create order request
type CreateOrderItemInput struct {
	ProductID    uuid.UUID       `json:"product_id" binding:"required"`
	ProductName  string          `json:"product_name" binding:"required,min=1,max=200"`
	ProductImage string          `json:"product_image"`
	UnitPrice    decimal.Decimal `json:"unit_price" binding:"required"`
	Quantity     int             `json:"quantity" binding:"required,min=1"`
}

// TransitionOrderRequest represents a request to move an order to a new
// fulfillment status. ExpectedStatus is the status the caller last observed;
// a mismatch means the caller lost a race and must re-read the order.
type TransitionOrderRequest struct {
	ExpectedStatus  string `json:"expected_status" binding:"required"`
	RequestedStatus string `json:"requested_status" binding:"required"`
	TrackingNumber  string `json:"tracking_number" binding:"max=100"`
	CancelReason    string `json:"cancel_reason" binding:"max=500"`
}

// ShipOrderRequest represents a request to ship an order
type ShipOrderRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required,min=1,max=100"`
}

// CancelOrderRequest represents a request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// PayOrderRequest represents a payment confirmation callback
type PayOrderRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,min=1,max=100"`
}

// OrderListFilter represents filter options for order list
type OrderListFilter struct {
	Search        string               `form:"search"`
	UserID        *uuid.UUID           `form:"user_id"`
	Status        *order.OrderStatus   `form:"status"`
	PaymentStatus *order.PaymentStatus `form:"payment_status"`
	StartDate     *time.Time           `form:"start_date"`
	EndDate       *time.Time           `form:"end_date"`
	Page          int                  `form:"page" binding:"min=0"`
	PageSize      int                  `form:"page_size" binding:"min=0,max=100"`
	OrderBy       string               `form:"order_by"`
	OrderDir      string               `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderItemResponse represents an order line item in API responses
type OrderItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// ShippingAddressResponse represents the delivery destination in API responses
type ShippingAddressResponse struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code,omitempty"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                   uuid.UUID               `json:"id"`
	OrderNumber          string                  `json:"order_number"`
	UserID               uuid.UUID               `json:"user_id"`
	Items                []OrderItemResponse     `json:"items"`
	ItemCount            int                     `json:"item_count"`
	Status               string                  `json:"status"`
	NextStatuses         []string                `json:"next_statuses"`
	TotalAmount          decimal.Decimal         `json:"total_amount"`
	Currency             string                  `json:"currency"`
	ShippingFee          decimal.Decimal         `json:"shipping_fee"`
	TaxAmount            decimal.Decimal         `json:"tax_amount"`
	Shipping             ShippingAddressResponse `json:"shipping"`
	PaymentMethod        string                  `json:"payment_method"`
	PaymentStatus        string                  `json:"payment_status"`
	PaymentTransactionID string                  `json:"payment_transaction_id,omitempty"`
	PaidAt               *time.Time              `json:"paid_at,omitempty"`
	TrackingNumber       string                  `json:"tracking_number,omitempty"`
	ShippedAt            *time.Time              `json:"shipped_at,omitempty"`
	DeliveredAt          *time.Time              `json:"delivered_at,omitempty"`
	Notes                string                  `json:"notes,omitempty"`
	CancelReason         string                  `json:"cancel_reason,omitempty"`
	CreatedAt            time.Time               `json:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at"`
	Version              int                     `json:"version"`
}

// OrderListItemResponse represents an order in list responses (less detail)
type OrderListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"order_number"`
	UserID        uuid.UUID       `json:"user_id"`
	ItemCount     int             `json:"item_count"`
	Status        string          `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	PaymentStatus string          `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NextTransitionsResponse lists the legal next statuses for an order
type NextTransitionsResponse struct {
	OrderID      uuid.UUID `json:"order_id"`
	Status       string    `json:"status"`
	NextStatuses []string  `json:"next_statuses"`
	Terminal     bool      `json:"terminal"`
}

// StatusHistoryEntryResponse represents one fulfillment transition in the
// order's audit trail
type StatusHistoryEntryResponse struct {
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Actor      string    `json:"actor"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// OrderStatusSummary represents order counts grouped by fulfillment status
type OrderStatusSummary struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Shipped    int64 `json:"shipped"`
	Delivered  int64 `json:"delivered"`
	Cancelled  int64 `json:"cancelled"`
	Refunding  int64 `json:"refunding"`
	Refunded   int64 `json:"refunded"`
	Total      int64 `json:"total"`
}

// ToOrderItemResponse converts a domain order item to a response DTO
func ToOrderItemResponse(item order.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:           item.ID,
		ProductID:    item.ProductID,
		ProductName:  item.ProductName,
		ProductImage: item.ProductImage,
		UnitPrice:    item.UnitPrice,
		Quantity:     item.Quantity,
		Subtotal:     item.Subtotal,
	}
}

// ToOrderResponse converts a domain order to a response DTO
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ToOrderItemResponse(item))
	}

	next := o.NextTransitions()
	nextStatuses := make([]string, 0, len(next))
	for _, status := range next {
		nextStatuses = append(nextStatuses, status.String())
	}

	return OrderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		UserID:       o.UserID,
		Items:        items,
		ItemCount:    o.ItemCount(),
		Status:       o.Status.String(),
		NextStatuses: nextStatuses,
		TotalAmount:  o.TotalAmount,
		Currency:     o.Currency,
		ShippingFee:  o.ShippingFee,
		TaxAmount:    o.TaxAmount,
		Shipping: ShippingAddressResponse{
			Name:       o.Shipping.Name,
			Phone:      o.Shipping.Phone,
			Address:    o.Shipping.Address,
			City:       o.Shipping.City,
			State:      o.Shipping.State,
			Country:    o.Shipping.Country,
			PostalCode: o.Shipping.PostalCode,
		},
		PaymentMethod:        string(o.PaymentMethod),
		PaymentStatus:        o.PaymentStatus.String(),
		PaymentTransactionID: o.PaymentTransactionID,
		PaidAt:               o.PaidAt,
		TrackingNumber:       o.TrackingNumber,
		ShippedAt:            o.ShippedAt,
		DeliveredAt:          o.DeliveredAt,
		Notes:                o.Notes,
		CancelReason:         o.CancelReason,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		Version:              o.Version,
	}
}

// ToOrderListItemResponse converts a domain order to a list item DTO
func ToOrderListItemResponse(o *order.Order) OrderListItemResponse {
	return OrderListItemResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		ItemCount:     o.ItemCount(),
		Status:        o.Status.String(),
		TotalAmount:   o.TotalAmount,
		Currency:      o.Currency,
		PaymentStatus: o.PaymentStatus.String(),
		CreatedAt:     o.CreatedAt,
	}
}

// ToOrderListItemResponses converts a slice of domain orders to list item DTOs
func ToOrderListItemResponses(orders []order.Order) []OrderListItemResponse {
	responses := make([]OrderListItemResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, ToOrderListItemResponse(&orders[i]))
	}
	return responses
}

// ToStatusHistoryEntryResponses converts audit trail entries to response DTOs
func ToStatusHistoryEntryResponses(entries []order.StatusHistoryEntry) []StatusHistoryEntryResponse {
	responses := make([]StatusHistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, StatusHistoryEntryResponse{
			FromStatus: entry.FromStatus.String(),
			ToStatus:   entry.ToStatus.String(),
			Actor:      string(entry.Actor),
			Note:       entry.Note,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return responses
}
