package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a listed item. Buyers are charged the variant price when
// one applies, else Price. SupplierPrice is the supplier's per-unit cut
// when the product is dropshipped; ShopOwnerPrice records the shop
// owner's expected take. Both are advisory and may be unset.
type Product struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID         uuid.UUID        `gorm:"column:shop_id;type:uuid;not null;index"`
	SupplierID     *uuid.UUID       `gorm:"column:supplier_id;type:uuid"`
	Name           string           `gorm:"column:name;not null"`
	SKU            string           `gorm:"column:sku;not null"`
	Price          decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	SupplierPrice  *decimal.Decimal `gorm:"column:supplier_price;type:numeric(12,2)"`
	ShopOwnerPrice *decimal.Decimal `gorm:"column:shop_owner_price;type:numeric(12,2)"`
	IsActive       bool             `gorm:"column:is_active;not null;default:true"`
	Shop           *Shop            `gorm:"foreignKey:ShopID"`
	Supplier       *User            `gorm:"foreignKey:SupplierID"`
	Variants       []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
