package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductVariant is a sellable variation of a product. A nil price falls
// back to the parent product's price. Variant resolution picks the oldest
// variant first when the buyer does not name one.
type ProductVariant struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index"`
	VariantName string           `gorm:"column:variant_name;not null"`
	Price       *decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Product     *Product         `gorm:"foreignKey:ProductID"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// UnitPrice resolves the variant price, falling back to the product's
// base price.
func (v ProductVariant) UnitPrice(product Product) decimal.Decimal {
	if v.Price != nil {
		return *v.Price
	}
	return product.Price
}
