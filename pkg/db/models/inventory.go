package models

import (
	"time"

	"github.com/google/uuid"
)

// Inventory is a stock pool for one variant at one location. Both counters
// stay non-negative; every mutation happens under a row lock and writes a
// StockMovement.
type Inventory struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID         uuid.UUID       `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:idx_inventory_variant_location"`
	LocationID        uuid.UUID       `gorm:"column:location_id;type:uuid;not null;uniqueIndex:idx_inventory_variant_location"`
	QuantityAvailable int             `gorm:"column:quantity_available;not null;default:0"`
	QuantityReserved  int             `gorm:"column:quantity_reserved;not null;default:0"`
	Variant           *ProductVariant `gorm:"foreignKey:VariantID"`
	Location          *Location       `gorm:"foreignKey:LocationID"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
