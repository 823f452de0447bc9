package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder      OutboxAggregateType = "order"
	AggregatePayment    OutboxAggregateType = "payment"
	AggregateRefund     OutboxAggregateType = "refund"
	AggregateShipment   OutboxAggregateType = "shipment"
	AggregatePayout     OutboxAggregateType = "payout"
	AggregateSettlement OutboxAggregateType = "settlement"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregatePayment,
	AggregateRefund,
	AggregateShipment,
	AggregatePayout,
	AggregateSettlement,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated          OutboxEventType = "order_created"
	EventOrderPaid             OutboxEventType = "order_paid"
	EventOrderConfirmed        OutboxEventType = "order_confirmed"
	EventOrderCancelled        OutboxEventType = "order_cancelled"
	EventOrderDelivered        OutboxEventType = "order_delivered"
	EventOrderRefunded         OutboxEventType = "order_refunded"
	EventOrderStatusChanged    OutboxEventType = "order_status_changed"
	EventPaymentCompleted      OutboxEventType = "payment_completed"
	EventPaymentFailed         OutboxEventType = "payment_failed"
	EventRefundCompleted       OutboxEventType = "refund_completed"
	EventSettlementProcessed   OutboxEventType = "settlement_processed"
	EventPayoutRequested       OutboxEventType = "payout_requested"
	EventPayoutCompleted       OutboxEventType = "payout_completed"
	EventShipmentStatusChanged OutboxEventType = "shipment_status_changed"
	EventNotificationRequested OutboxEventType = "notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderPaid,
	EventOrderConfirmed,
	EventOrderCancelled,
	EventOrderDelivered,
	EventOrderRefunded,
	EventOrderStatusChanged,
	EventPaymentCompleted,
	EventPaymentFailed,
	EventRefundCompleted,
	EventSettlementProcessed,
	EventPayoutRequested,
	EventPayoutCompleted,
	EventShipmentStatusChanged,
	EventNotificationRequested,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
