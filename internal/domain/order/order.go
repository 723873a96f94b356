package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradecraft/backend/internal/domain/shared"
)

// TransitionPayload carries transition-specific data for ApplyTransition.
// Shipping requires a tracking number; cancellation carries an optional reason.
type TransitionPayload struct {
	TrackingNumber string
	CancelReason   string
}

// OrderItem represents a line item in an order
// Line items are read-only inputs to the lifecycle; transitions never mutate them
type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ProductID    uuid.UUID
	ProductName  string
	ProductImage string
	UnitPrice    decimal.Decimal
	Quantity     int
	Subtotal     decimal.Decimal // UnitPrice * Quantity
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewOrderItem creates a new order line item
func NewOrderItem(orderID, productID uuid.UUID, productName, productImage string, unitPrice decimal.Decimal, quantity int) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &OrderItem{
		ID:           uuid.New(),
		OrderID:      orderID,
		ProductID:    productID,
		ProductName:  productName,
		ProductImage: productImage,
		UnitPrice:    unitPrice,
		Quantity:     quantity,
		Subtotal:     unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ShippingAddress holds the delivery destination for an order
type ShippingAddress struct {
	Name       string
	Phone      string
	Address    string
	City       string
	State      string
	Country    string
	PostalCode string
}

// Validate checks the required address fields
func (a ShippingAddress) Validate() error {
	if a.Name == "" || a.Phone == "" || a.Address == "" || a.City == "" || a.Country == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Shipping name, phone, address, city and country are required")
	}
	return nil
}

// Order represents a customer order aggregate root.
// Its lifecycle runs on two independent axes: the fulfillment status and the
// payment status. All mutations go through the transition methods below so the
// transition tables in status.go stay the single source of truth.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber string
	UserID      uuid.UUID
	Items       []OrderItem `gorm:"foreignKey:OrderID"`
	Status      OrderStatus
	TotalAmount decimal.Decimal
	Currency    string
	ShippingFee decimal.Decimal
	TaxAmount   decimal.Decimal

	Shipping ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_"`

	PaymentMethod        PaymentMethod
	PaymentStatus        PaymentStatus
	PaymentTransactionID string
	PaidAt               *time.Time

	TrackingNumber string
	ShippedAt      *time.Time
	DeliveredAt    *time.Time

	Notes        string
	CancelReason string
}

// NewOrder creates a new order in PENDING/PENDING state.
// Totals are the sum of item subtotals plus shipping fee and tax; the core
// does not price items, it only sums what checkout provides.
func NewOrder(userID uuid.UUID, orderNumber, currency string, shipping ShippingAddress, method PaymentMethod, shippingFee, taxAmount decimal.Decimal) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter code")
	}
	if err := shipping.Validate(); err != nil {
		return nil, err
	}
	if shippingFee.IsNegative() || taxAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Shipping fee and tax cannot be negative")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		UserID:            userID,
		Items:             make([]OrderItem, 0),
		Status:            OrderStatusPending,
		TotalAmount:       decimal.Zero,
		Currency:          currency,
		ShippingFee:       shippingFee,
		TaxAmount:         taxAmount,
		Shipping:          shipping,
		PaymentMethod:     method,
		PaymentStatus:     PaymentStatusPending,
	}

	o.AddDomainEvent(NewOrderCreatedEvent(o))

	return o, nil
}

// AddItem adds a line item; only allowed before the order leaves PENDING
func (o *Order) AddItem(productID uuid.UUID, productName, productImage string, unitPrice decimal.Decimal, quantity int) (*OrderItem, error) {
	if o.Status != OrderStatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to an order that left pending status")
	}

	item, err := NewOrderItem(o.ID, productID, productName, productImage, unitPrice, quantity)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotal()
	o.UpdatedAt = time.Now()

	return item, nil
}

// ApplyTransition applies a requested fulfillment transition.
// expectedStatus is the caller's optimistic-concurrency token: when the stored
// status no longer matches, the caller lost a race and must re-read.
// The already-in-state check runs before the token check so a retried request
// whose first attempt landed reports ALREADY_IN_STATE, not a lost race.
// On success exactly one lifecycle event is recorded for publication.
func (o *Order) ApplyTransition(expected, requested OrderStatus, payload TransitionPayload, actor Actor) error {
	if !requested.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Unknown order status: "+requested.String())
	}
	if requested == o.Status {
		return shared.ErrTransitionApplied
	}
	if o.Status != expected {
		return shared.ErrConcurrentUpdate
	}

	switch requested {
	case OrderStatusProcessing:
		return o.Process(actor)
	case OrderStatusShipped:
		return o.Ship(payload.TrackingNumber, actor)
	case OrderStatusDelivered:
		return o.Deliver(actor)
	case OrderStatusCancelled:
		return o.Cancel(payload.CancelReason, actor)
	case OrderStatusRefunding:
		return o.RequestRefund(actor)
	case OrderStatusRefunded:
		return o.CompleteRefund(actor)
	default:
		// PENDING has no inbound edges
		return shared.NewInvalidTransitionError(o.Status, requested)
	}
}

// Process moves the order from PENDING to PROCESSING.
// No timestamp is stamped here: paidAt belongs to the payment axis.
func (o *Order) Process(actor Actor) error {
	if err := o.checkTransition(OrderStatusProcessing); err != nil {
		return err
	}

	from := o.Status
	o.Status = OrderStatusProcessing
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewOrderTransitionedEvent(o, from, actor))

	return nil
}

// Ship marks the order as shipped, recording the tracking number and stamping
// shippedAt exactly once
func (o *Order) Ship(trackingNumber string, actor Actor) error {
	if err := o.checkTransition(OrderStatusShipped); err != nil {
		return err
	}
	if trackingNumber == "" {
		return shared.ErrMissingTracking
	}
	if o.ShippedAt != nil {
		return shared.ErrTransitionApplied
	}

	from := o.Status
	now := time.Now()
	o.Status = OrderStatusShipped
	o.TrackingNumber = trackingNumber
	o.ShippedAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderTransitionedEvent(o, from, actor))

	return nil
}

// Deliver marks the order as delivered, stamping deliveredAt exactly once
func (o *Order) Deliver(actor Actor) error {
	if err := o.checkTransition(OrderStatusDelivered); err != nil {
		return err
	}
	if o.DeliveredAt != nil {
		return shared.ErrTransitionApplied
	}

	from := o.Status
	now := time.Now()
	o.Status = OrderStatusDelivered
	o.DeliveredAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderTransitionedEvent(o, from, actor))

	return nil
}

// Cancel cancels an order that has not shipped yet.
// Shipped or delivered orders must go through the refund flow instead.
func (o *Order) Cancel(reason string, actor Actor) error {
	if err := o.checkTransition(OrderStatusCancelled); err != nil {
		return err
	}

	from := o.Status
	o.Status = OrderStatusCancelled
	o.CancelReason = reason
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewOrderTransitionedEvent(o, from, actor))

	return nil
}

// RequestRefund moves a shipped or delivered order into REFUNDING
func (o *Order) RequestRefund(actor Actor) error {
	if err := o.checkTransition(OrderStatusRefunding); err != nil {
		return err
	}

	from := o.Status
	o.Status = OrderStatusRefunding
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewOrderTransitionedEvent(o, from, actor))

	return nil
}

// CompleteRefund closes the refund flow.
// Post-condition of the two-axis coupling: the payment axis must already be
// REFUNDED, so both axes reach REFUNDED together.
func (o *Order) CompleteRefund(actor Actor) error {
	if err := o.checkTransition(OrderStatusRefunded); err != nil {
		return err
	}
	if o.PaymentStatus != PaymentStatusRefunded {
		return shared.NewDomainError("INVALID_STATE", "Payment must be refunded before the order can be marked refunded")
	}

	from := o.Status
	o.Status = OrderStatusRefunded
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewOrderTransitionedEvent(o, from, actor))

	return nil
}

// MarkPaid records a successful payment: payment axis PENDING→PAID, paidAt
// stamped exactly once. Per the checkout flow a freshly paid order also moves
// to PROCESSING on the fulfillment axis.
func (o *Order) MarkPaid(transactionID string) error {
	if !o.PaymentStatus.CanTransitionTo(PaymentStatusPaid) {
		return shared.NewInvalidPaymentTransitionError(o.PaymentStatus, PaymentStatusPaid)
	}
	if o.PaidAt != nil {
		return shared.ErrTransitionApplied
	}

	now := time.Now()
	o.PaymentStatus = PaymentStatusPaid
	o.PaymentTransactionID = transactionID
	o.PaidAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderPaidEvent(o))

	if o.Status == OrderStatusPending {
		if err := o.Process(ActorSystem); err != nil {
			return err
		}
	}

	return nil
}

// FailPayment records a failed payment attempt (payment axis PENDING→FAILED)
func (o *Order) FailPayment() error {
	if !o.PaymentStatus.CanTransitionTo(PaymentStatusFailed) {
		return shared.NewInvalidPaymentTransitionError(o.PaymentStatus, PaymentStatusFailed)
	}

	o.PaymentStatus = PaymentStatusFailed
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewPaymentFailedEvent(o))

	return nil
}

// RefundPayment moves the payment axis PAID→REFUNDED.
// The fulfillment axis must already be REFUNDING (or CANCELLED for paid
// orders cancelled before shipment); otherwise the caller must first drive
// fulfillment to REFUNDING.
func (o *Order) RefundPayment() error {
	if !o.PaymentStatus.CanTransitionTo(PaymentStatusRefunded) {
		return shared.NewInvalidPaymentTransitionError(o.PaymentStatus, PaymentStatusRefunded)
	}
	if o.Status != OrderStatusRefunding && o.Status != OrderStatusCancelled {
		return shared.NewDomainError(shared.CodeInvalidPaymentTransition,
			"Order must be in refunding status before the payment can be refunded")
	}

	o.PaymentStatus = PaymentStatusRefunded
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewPaymentRefundedEvent(o))

	return nil
}

// NextTransitions returns the legal next statuses for the current state
func (o *Order) NextTransitions() []OrderStatus {
	return o.Status.NextStatuses()
}

// IsTerminal returns true if the order reached CANCELLED or REFUNDED
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// ItemCount returns the number of line items
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// checkTransition maps an illegal move to the right error kind: retrying the
// current status is ALREADY_IN_STATE, everything else off the table is
// INVALID_TRANSITION
func (o *Order) checkTransition(target OrderStatus) error {
	if o.Status == target {
		return shared.ErrTransitionApplied
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError(o.Status, target)
	}
	return nil
}

// recalculateTotal sums item subtotals plus shipping fee and tax
func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	o.TotalAmount = total.Add(o.ShippingFee).Add(o.TaxAmount)
}
