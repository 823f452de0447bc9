package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sooqly/sooqly-backend/pkg/enums"
)

// Refund reverses part or all of a completed payment.
type Refund struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID         uuid.UUID          `gorm:"column:payment_id;type:uuid;not null;index"`
	Amount            decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Reason            string             `gorm:"column:reason;not null"`
	Status            enums.RefundStatus `gorm:"column:status;type:refund_status;not null;default:'REQUESTED'"`
	ProviderReference *string            `gorm:"column:provider_reference;index"`
	RequestedBy       uuid.UUID          `gorm:"column:requested_by;type:uuid;not null"`
	Payment           *Payment           `gorm:"foreignKey:PaymentID"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
