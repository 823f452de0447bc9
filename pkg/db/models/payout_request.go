package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sooqly/sooqly-backend/pkg/enums"
	"github.com/sooqly/sooqly-backend/pkg/types"
)

// PayoutRequest moves a beneficiary's earnings out through the gateway.
// PaymentID is nil when a request aggregates several payments' earnings.
type PayoutRequest struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	PaymentID         *uuid.UUID             `gorm:"column:payment_id;type:uuid"`
	OrderID           *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Amount            decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null"`
	Status            enums.PayoutStatus     `gorm:"column:status;type:payout_status;not null;default:'REQUESTED'"`
	PayoutMethod      enums.PayoutMethodType `gorm:"column:payout_method;type:payout_method_type;not null"`
	PayoutAccount     string                 `gorm:"column:payout_account;not null"`
	ProviderReference *string                `gorm:"column:provider_reference;index"`
	Metadata          types.JSONMap          `gorm:"column:metadata;type:jsonb;serializer:json"`
	User              *User                  `gorm:"foreignKey:UserID"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
