package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sooqly/sooqly-backend/pkg/enums"
)

// Cart holds a buyer's pending items for one shop. At most one active cart
// exists per (user, shop); checkout flips the status to checked_out.
type Cart struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	ShopID    uuid.UUID        `gorm:"column:shop_id;type:uuid;not null;index"`
	Status    enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'active'"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
