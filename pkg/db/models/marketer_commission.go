package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sooqly/sooqly-backend/pkg/enums"
)

// MarketerCommission accrues per promoted order item. Created pending at
// order creation and approved when the order is delivered.
type MarketerCommission struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ContractID  uuid.UUID              `gorm:"column:contract_id;type:uuid;not null;index"`
	OrderID     uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	OrderItemID uuid.UUID              `gorm:"column:order_item_id;type:uuid;not null;uniqueIndex"`
	Rate        decimal.Decimal        `gorm:"column:rate;type:numeric(8,4);not null"`
	Amount      decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null"`
	Status      enums.CommissionStatus `gorm:"column:status;type:commission_status;not null;default:'PENDING'"`
	Contract    *MarketerContract      `gorm:"foreignKey:ContractID"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
