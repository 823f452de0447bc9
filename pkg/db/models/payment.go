package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sooqly/sooqly-backend/pkg/enums"
	"github.com/sooqly/sooqly-backend/pkg/types"
)

// Payment is one attempt to collect an order's total. An order can carry
// several attempts; at most one ends COMPLETED. ProviderReference is the
// key webhooks use to find the payment.
type Payment struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Amount            decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency          string              `gorm:"column:currency;not null;default:'ETB'"`
	Status            enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'PENDING'"`
	Provider          string              `gorm:"column:provider;not null"`
	ProviderReference *string             `gorm:"column:provider_reference;index"`
	Metadata          types.JSONMap       `gorm:"column:metadata;type:jsonb;serializer:json"`
	Order             *Order              `gorm:"foreignKey:OrderID"`
	User              *User               `gorm:"foreignKey:UserID"`
	CompletedAt       *time.Time          `gorm:"column:completed_at"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
