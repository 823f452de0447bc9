package outbox

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderEventData rides on order lifecycle events.
type OrderEventData struct {
	OrderID     uuid.UUID       `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	UserID      uuid.UUID       `json:"userId"`
	ShopID      uuid.UUID       `json:"shopId"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// PaymentEventData rides on payment_completed / payment_failed.
type PaymentEventData struct {
	PaymentID         uuid.UUID       `json:"paymentId"`
	OrderID           uuid.UUID       `json:"orderId"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status"`
	ProviderReference string          `json:"providerReference,omitempty"`
}

// SettlementEventData rides on settlement_processed.
type SettlementEventData struct {
	SettlementID     uuid.UUID       `json:"settlementId"`
	PaymentID        uuid.UUID       `json:"paymentId"`
	OrderID          uuid.UUID       `json:"orderId"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	CommissionAmount decimal.Decimal `json:"commissionAmount"`
	Beneficiaries    int             `json:"beneficiaries"`
}

// PayoutEventData rides on payout_requested / payout_completed.
type PayoutEventData struct {
	PayoutRequestID uuid.UUID       `json:"payoutRequestId"`
	UserID          uuid.UUID       `json:"userId"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
}

// RefundEventData rides on refund_completed.
type RefundEventData struct {
	RefundID  uuid.UUID       `json:"refundId"`
	PaymentID uuid.UUID       `json:"paymentId"`
	OrderID   uuid.UUID       `json:"orderId"`
	Amount    decimal.Decimal `json:"amount"`
}

// ShipmentEventData rides on shipment_status_changed.
type ShipmentEventData struct {
	ShipmentID uuid.UUID `json:"shipmentId"`
	OrderID    uuid.UUID `json:"orderId"`
	Status     string    `json:"status"`
	LastEvent  string    `json:"lastEvent,omitempty"`
}
