package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a nil meter is passed to NewOrderMetrics
var ErrMeterNil = errors.New("meter must not be nil")

// Metric attribute keys
var (
	AttrFromStatus    = attribute.Key("from_status")
	AttrToStatus      = attribute.Key("to_status")
	AttrActor         = attribute.Key("actor")
	AttrErrorCode     = attribute.Key("error_code")
	AttrPaymentStatus = attribute.Key("payment_status")
)

// OrderMetrics tracks order lifecycle activity: creations, transitions,
// rejected transitions and payment events.
type OrderMetrics struct {
	ordersCreated        metric.Int64Counter
	transitions          metric.Int64Counter
	transitionsRejected  metric.Int64Counter
	paymentStatusChanges metric.Int64Counter
}

// NewOrderMetrics creates the order lifecycle instruments on the given meter
func NewOrderMetrics(meter metric.Meter) (*OrderMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	om := &OrderMetrics{}
	var err error

	om.ordersCreated, err = meter.Int64Counter(
		"tradecraft_orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{orders}"),
	)
	if err != nil {
		return nil, err
	}

	om.transitions, err = meter.Int64Counter(
		"tradecraft_order_transitions_total",
		metric.WithDescription("Total number of applied fulfillment transitions"),
		metric.WithUnit("{transitions}"),
	)
	if err != nil {
		return nil, err
	}

	om.transitionsRejected, err = meter.Int64Counter(
		"tradecraft_order_transitions_rejected_total",
		metric.WithDescription("Total number of rejected fulfillment transitions"),
		metric.WithUnit("{transitions}"),
	)
	if err != nil {
		return nil, err
	}

	om.paymentStatusChanges, err = meter.Int64Counter(
		"tradecraft_payment_status_changes_total",
		metric.WithDescription("Total number of payment status changes"),
		metric.WithUnit("{changes}"),
	)
	if err != nil {
		return nil, err
	}

	return om, nil
}

// RecordOrderCreated records an order creation
func (om *OrderMetrics) RecordOrderCreated(ctx context.Context) {
	om.ordersCreated.Add(ctx, 1)
}

// RecordTransition records an applied fulfillment transition
func (om *OrderMetrics) RecordTransition(ctx context.Context, from, to, actor string) {
	om.transitions.Add(ctx, 1, metric.WithAttributes(
		AttrFromStatus.String(from),
		AttrToStatus.String(to),
		AttrActor.String(actor),
	))
}

// RecordTransitionRejected records a rejected transition with its error code
func (om *OrderMetrics) RecordTransitionRejected(ctx context.Context, from, to, errorCode string) {
	om.transitionsRejected.Add(ctx, 1, metric.WithAttributes(
		AttrFromStatus.String(from),
		AttrToStatus.String(to),
		AttrErrorCode.String(errorCode),
	))
}

// RecordPaymentStatusChange records a payment axis change (PAID, FAILED, REFUNDED)
func (om *OrderMetrics) RecordPaymentStatusChange(ctx context.Context, status string) {
	om.paymentStatusChanges.Add(ctx, 1, metric.WithAttributes(
		AttrPaymentStatus.String(status),
	))
}
