package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sooqly/sooqly-backend/pkg/types"
)

// WebhookLog records every inbound provider callback, processed or not,
// so failed deliveries can be replayed by hand.
type WebhookLog struct {
	ID                 uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Provider           string        `gorm:"column:provider;not null"`
	EventType          string        `gorm:"column:event_type;not null"`
	Reference          string        `gorm:"column:reference;index;not null"`
	Payload            types.JSONMap `gorm:"column:payload;type:jsonb;serializer:json"`
	Processed          bool          `gorm:"column:processed;not null;default:false"`
	ProcessingAttempts int           `gorm:"column:processing_attempts;not null;default:0"`
	LastError          *string       `gorm:"column:last_error"`
	CreatedAt          time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
