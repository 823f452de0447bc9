package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sooqly/sooqly-backend/pkg/enums"
)

// Location is a stockholding site, either a platform warehouse or a
// supplier's own storage.
type Location struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string             `gorm:"column:name;not null"`
	Kind      enums.LocationKind `gorm:"column:kind;type:location_kind;not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
