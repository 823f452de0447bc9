package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sooqly/sooqly-backend/pkg/enums"
)

// StockMovement is an append-only audit row for an inventory mutation.
// Quantity is signed: reservations and confirms subtract, releases and
// restocks add.
type StockMovement struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InventoryID uuid.UUID               `gorm:"column:inventory_id;type:uuid;not null;index"`
	Type        enums.StockMovementType `gorm:"column:type;type:stock_movement_type;not null"`
	Quantity    int                     `gorm:"column:quantity;not null"`
	Reason      string                  `gorm:"column:reason;not null"`
	OrderID     *uuid.UUID              `gorm:"column:order_id;type:uuid"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
}
