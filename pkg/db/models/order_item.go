package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is an immutable snapshot of a cart line at checkout time.
// Name, SKU and prices are copied so later catalog edits cannot change
// what the buyer agreed to.
type OrderItem struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID            uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID          uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID          *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	MarketerContractID *uuid.UUID      `gorm:"column:marketer_contract_id;type:uuid"`
	ProductName        string          `gorm:"column:product_name;not null"`
	SKU                string          `gorm:"column:sku;not null"`
	Price              decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity           int             `gorm:"column:quantity;not null"`
	Total              decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
}
