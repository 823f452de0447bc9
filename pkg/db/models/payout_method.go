package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sooqly/sooqly-backend/pkg/enums"
)

// PayoutMethod is a saved payout destination for a user. Destination
// resolution prefers bank methods over mobile wallets, oldest first.
type PayoutMethod struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Type          enums.PayoutMethodType `gorm:"column:type;type:payout_method_type;not null"`
	AccountNumber *string                `gorm:"column:account_number"`
	PhoneNumber   *string                `gorm:"column:phone_number"`
	User          *User                  `gorm:"foreignKey:UserID"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
