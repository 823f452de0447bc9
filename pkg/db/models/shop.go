package models

import (
	"time"

	"github.com/google/uuid"
)

// Shop is a storefront owned by a dropshipper (shop owner).
type Shop struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID   uuid.UUID `gorm:"column:owner_id;type:uuid;not null"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	Owner     *User     `gorm:"foreignKey:OwnerID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
