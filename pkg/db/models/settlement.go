package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sooqly/sooqly-backend/pkg/enums"
	"github.com/sooqly/sooqly-backend/pkg/types"
)

// Settlement is the durable record of how one completed payment splits
// between the platform, supplier, marketer and shop owner. Exactly one
// settlement exists per payment; the state ladder only moves forward.
type Settlement struct {
	ID                uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID         uuid.UUID                   `gorm:"column:payment_id;type:uuid;not null;uniqueIndex"`
	OrderID           uuid.UUID                   `gorm:"column:order_id;type:uuid;not null;index"`
	State             enums.SettlementState       `gorm:"column:state;type:settlement_state;not null;default:'prepared'"`
	CommissionRate    decimal.Decimal             `gorm:"column:commission_rate;type:numeric(6,4);not null"`
	TotalAmount       decimal.Decimal             `gorm:"column:total_amount;type:numeric(12,2);not null"`
	CommissionAmount  decimal.Decimal             `gorm:"column:commission_amount;type:numeric(12,2);not null"`
	SupplierAmount    decimal.Decimal             `gorm:"column:supplier_amount;type:numeric(12,2);not null"`
	MarketerAmount    decimal.Decimal             `gorm:"column:marketer_amount;type:numeric(12,2);not null"`
	DropshipperAmount decimal.Decimal             `gorm:"column:dropshipper_amount;type:numeric(12,2);not null"`
	Allocations       types.SettlementAllocations `gorm:"column:allocations;type:jsonb"`
	Payment           *Payment                    `gorm:"foreignKey:PaymentID"`
	CreatedAt         time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}
