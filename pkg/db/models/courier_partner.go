package models

import (
	"time"

	"github.com/google/uuid"
)

// CourierPartner is a delivery provider integration. Priority orders
// partner selection when several are active.
type CourierPartner struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	ProviderCode  string    `gorm:"column:provider_code;uniqueIndex;not null"`
	APIBaseURL    string    `gorm:"column:api_base_url;not null"`
	APIKey        string    `gorm:"column:api_key;not null"`
	WebhookSecret string    `gorm:"column:webhook_secret;not null"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true"`
	Priority      int       `gorm:"column:priority;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
