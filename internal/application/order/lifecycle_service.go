package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tradecraft/backend/internal/domain/order"
	"github.com/tradecraft/backend/internal/domain/shared"
	"github.com/tradecraft/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// LifecycleService drives order fulfillment and payment state changes.
// Every mutation loads the aggregate, applies a domain transition and saves
// with optimistic locking, so concurrent writers fail fast instead of
// overwriting each other.
type LifecycleService struct {
	orderRepo      order.Repository
	historyRepo    order.StatusHistoryRepository
	eventPublisher shared.EventPublisher
	metrics        *telemetry.OrderMetrics
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(orderRepo order.Repository) *LifecycleService {
	return &LifecycleService{
		orderRepo: orderRepo,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *LifecycleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the order lifecycle metrics recorder
func (s *LifecycleService) SetMetrics(metrics *telemetry.OrderMetrics) {
	s.metrics = metrics
}

// SetStatusHistory sets the repository backing the fulfillment audit trail
func (s *LifecycleService) SetStatusHistory(historyRepo order.StatusHistoryRepository) {
	s.historyRepo = historyRepo
}

// Create creates a new order from a checkout request
func (s *LifecycleService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create",
		telemetry.WithAttribute(telemetry.SpanAttrUserID, req.UserID.String()),
	)
	defer span.End()

	if req.UserID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order must belong to a user")
	}
	method := order.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown payment method: "+req.PaymentMethod)
	}
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order must have at least one item")
	}

	orderNumber, err := s.orderRepo.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	shipping := order.ShippingAddress{
		Name:       req.Shipping.Name,
		Phone:      req.Shipping.Phone,
		Address:    req.Shipping.Address,
		City:       req.Shipping.City,
		State:      req.Shipping.State,
		Country:    req.Shipping.Country,
		PostalCode: req.Shipping.PostalCode,
	}

	o, err := order.NewOrder(req.UserID, orderNumber, req.Currency, shipping, method, req.ShippingFee, req.TaxAmount)
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		if _, err := o.AddItem(item.ProductID, item.ProductName, item.ProductImage, item.UnitPrice, item.Quantity); err != nil {
			return nil, err
		}
	}

	if req.Notes != "" {
		o.Notes = req.Notes
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrOrderNumber, o.OrderNumber)
	if s.metrics != nil {
		s.metrics.RecordOrderCreated(ctx)
	}

	s.publishEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// GetByID retrieves an order by ID
func (s *LifecycleService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// GetByOrderNumber retrieves an order by order number
func (s *LifecycleService) GetByOrderNumber(ctx context.Context, orderNumber string) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// List retrieves a list of orders with filtering and pagination
func (s *LifecycleService) List(ctx context.Context, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	domainFilter := buildDomainFilter(filter)

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToOrderListItemResponses(orders), total, nil
}

// ListByUser retrieves orders placed by a specific user
func (s *LifecycleService) ListByUser(ctx context.Context, userID uuid.UUID, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	domainFilter := buildDomainFilter(filter)

	orders, err := s.orderRepo.FindByUser(ctx, userID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.orderRepo.CountByUser(ctx, userID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToOrderListItemResponses(orders), total, nil
}

// buildDomainFilter applies paging defaults and maps filter fields into a
// repository filter
func buildDomainFilter(filter OrderListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	if filter.UserID != nil {
		domainFilter.Filters["user_id"] = *filter.UserID
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if filter.PaymentStatus != nil {
		domainFilter.Filters["payment_status"] = string(*filter.PaymentStatus)
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}

	return domainFilter
}

// ApplyTransition applies a requested fulfillment transition to an order.
// The request carries the status the caller last observed; a stale value is
// rejected as a concurrent modification before any state changes.
func (s *LifecycleService) ApplyTransition(ctx context.Context, orderID uuid.UUID, req TransitionOrderRequest, actor order.Actor) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "apply_transition",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrToStatus, req.RequestedStatus),
		telemetry.WithAttribute(telemetry.SpanAttrActor, string(actor)),
	)
	defer span.End()

	expected := order.OrderStatus(req.ExpectedStatus)
	requested := order.OrderStatus(req.RequestedStatus)
	if !expected.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown order status: "+req.ExpectedStatus)
	}

	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := o.Status
	payload := order.TransitionPayload{
		TrackingNumber: req.TrackingNumber,
		CancelReason:   req.CancelReason,
	}

	if err := o.ApplyTransition(expected, requested, payload, actor); err != nil {
		s.recordRejection(ctx, span, from, requested, err)
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(ctx, from.String(), o.Status.String(), string(actor))
	}

	s.publishEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// Ship marks an order as shipped with the given tracking number
func (s *LifecycleService) Ship(ctx context.Context, orderID uuid.UUID, req ShipOrderRequest, actor order.Actor) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, "ship", actor, func(o *order.Order) error {
		return o.Ship(req.TrackingNumber, actor)
	})
}

// Deliver marks an order as delivered
func (s *LifecycleService) Deliver(ctx context.Context, orderID uuid.UUID, actor order.Actor) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, "deliver", actor, func(o *order.Order) error {
		return o.Deliver(actor)
	})
}

// Cancel cancels an order that has not shipped yet
func (s *LifecycleService) Cancel(ctx context.Context, orderID uuid.UUID, req CancelOrderRequest, actor order.Actor) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, "cancel", actor, func(o *order.Order) error {
		return o.Cancel(req.Reason, actor)
	})
}

// RequestRefund moves a shipped or delivered order into the refund flow
func (s *LifecycleService) RequestRefund(ctx context.Context, orderID uuid.UUID, actor order.Actor) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, "request_refund", actor, func(o *order.Order) error {
		return o.RequestRefund(actor)
	})
}

// CompleteRefund refunds the payment and closes the refund flow in one unit
// of work. For cancelled orders that were already paid only the payment axis
// moves; the fulfillment status stays CANCELLED.
func (s *LifecycleService) CompleteRefund(ctx context.Context, orderID uuid.UUID, actor order.Actor) (*OrderResponse, error) {
	response, err := s.mutate(ctx, orderID, "complete_refund", actor, func(o *order.Order) error {
		if err := o.RefundPayment(); err != nil {
			return err
		}
		if o.Status == order.OrderStatusRefunding {
			return o.CompleteRefund(actor)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordPaymentStatusChange(ctx, order.PaymentStatusRefunded.String())
	}

	return response, nil
}

// Pay records a successful payment. A freshly paid pending order also moves
// to PROCESSING on the fulfillment axis.
func (s *LifecycleService) Pay(ctx context.Context, orderID uuid.UUID, req PayOrderRequest) (*OrderResponse, error) {
	response, err := s.mutate(ctx, orderID, "pay", order.ActorSystem, func(o *order.Order) error {
		return o.MarkPaid(req.TransactionID)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordPaymentStatusChange(ctx, order.PaymentStatusPaid.String())
	}

	return response, nil
}

// FailPayment records a failed payment attempt
func (s *LifecycleService) FailPayment(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	response, err := s.mutate(ctx, orderID, "fail_payment", order.ActorSystem, func(o *order.Order) error {
		return o.FailPayment()
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordPaymentStatusChange(ctx, order.PaymentStatusFailed.String())
	}

	return response, nil
}

// NextTransitions returns the legal next statuses for an order
func (s *LifecycleService) NextTransitions(ctx context.Context, orderID uuid.UUID) (*NextTransitionsResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next := o.NextTransitions()
	nextStatuses := make([]string, 0, len(next))
	for _, status := range next {
		nextStatuses = append(nextStatuses, status.String())
	}

	return &NextTransitionsResponse{
		OrderID:      o.ID,
		Status:       o.Status.String(),
		NextStatuses: nextStatuses,
		Terminal:     o.IsTerminal(),
	}, nil
}

// History returns the fulfillment audit trail for an order, oldest first.
// The order is loaded first so an unknown id fails with NOT_FOUND instead of
// an empty trail.
func (s *LifecycleService) History(ctx context.Context, orderID uuid.UUID) ([]StatusHistoryEntryResponse, error) {
	if s.historyRepo == nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Status history is not configured")
	}

	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return nil, err
	}

	entries, err := s.historyRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return ToStatusHistoryEntryResponses(entries), nil
}

// GetStatusSummary retrieves order counts grouped by fulfillment status
func (s *LifecycleService) GetStatusSummary(ctx context.Context) (*OrderStatusSummary, error) {
	summary := &OrderStatusSummary{}

	counts := []struct {
		status order.OrderStatus
		target *int64
	}{
		{order.OrderStatusPending, &summary.Pending},
		{order.OrderStatusProcessing, &summary.Processing},
		{order.OrderStatusShipped, &summary.Shipped},
		{order.OrderStatusDelivered, &summary.Delivered},
		{order.OrderStatusCancelled, &summary.Cancelled},
		{order.OrderStatusRefunding, &summary.Refunding},
		{order.OrderStatusRefunded, &summary.Refunded},
	}

	for _, c := range counts {
		count, err := s.orderRepo.CountByStatus(ctx, c.status)
		if err != nil {
			return nil, err
		}
		*c.target = count
		summary.Total += count
	}

	return summary, nil
}

// mutate runs a domain mutation against a freshly loaded order and saves the
// result with optimistic locking
func (s *LifecycleService) mutate(ctx context.Context, orderID uuid.UUID, operation string, actor order.Actor, fn func(o *order.Order) error) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", operation,
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrActor, string(actor)),
	)
	defer span.End()

	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := o.Status

	if err := fn(o); err != nil {
		s.recordRejection(ctx, span, from, o.Status, err)
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	if s.metrics != nil && o.Status != from {
		s.metrics.RecordTransition(ctx, from.String(), o.Status.String(), string(actor))
	}

	s.publishEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// publishEvents publishes the order's recorded domain events.
// Publish failures do not fail the operation; handlers are decoupled from the
// write path.
func (s *LifecycleService) publishEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil {
		return
	}

	events := o.GetDomainEvents()
	for _, event := range events {
		// Best-effort: the state change already committed, handlers are
		// decoupled from the write path
		_ = s.eventPublisher.Publish(ctx, event)
	}
	o.ClearDomainEvents()
}

// recordRejection marks the span and the rejection counter for a transition
// the domain refused
func (s *LifecycleService) recordRejection(ctx context.Context, span trace.Span, from, to order.OrderStatus, err error) {
	telemetry.RecordError(span, err)

	if s.metrics == nil {
		return
	}

	code := "DOMAIN_ERROR"
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code = domainErr.Code
	}
	s.metrics.RecordTransitionRejected(ctx, from.String(), to.String(), code)
}
