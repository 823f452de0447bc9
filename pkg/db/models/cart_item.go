package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line in a cart. VariantID is optional; order creation
// resolves a nil variant to the product's oldest variant when one exists.
type CartItem struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID             uuid.UUID         `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID          uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	VariantID          *uuid.UUID        `gorm:"column:variant_id;type:uuid"`
	MarketerContractID *uuid.UUID        `gorm:"column:marketer_contract_id;type:uuid"`
	Quantity           int               `gorm:"column:quantity;not null"`
	Product            *Product          `gorm:"foreignKey:ProductID"`
	Variant            *ProductVariant   `gorm:"foreignKey:VariantID"`
	MarketerContract   *MarketerContract `gorm:"foreignKey:MarketerContractID"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
