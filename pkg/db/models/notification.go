package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sooqly/sooqly-backend/pkg/enums"
	"github.com/sooqly/sooqly-backend/pkg/types"
)

// Notification stores in-app notification payloads scoped to users.
// Delivery is fire-and-forget; the row is the durable record.
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	Type      enums.NotificationType `gorm:"type:notification_type;not null"`
	Title     string                 `gorm:"type:text;not null"`
	Message   string                 `gorm:"type:text;not null"`
	Payload   types.JSONMap          `gorm:"type:jsonb;serializer:json"`
	ReadAt    *time.Time             `gorm:"type:timestamptz"`
	CreatedAt time.Time              `gorm:"type:timestamptz;default:now()"`
}
