package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sooqly/sooqly-backend/pkg/enums"
)

// Earning is one user's claimable share of a settled payment. The unique
// (user, payment) pair makes settlement replays upsert instead of
// duplicating. MerchantIDSnapshot freezes the payout account known at
// settlement time.
type Earning struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID           `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_earning_user_payment"`
	PaymentID          uuid.UUID           `gorm:"column:payment_id;type:uuid;not null;uniqueIndex:idx_earning_user_payment"`
	OrderID            uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Amount             decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Roles              string              `gorm:"column:roles;not null"`
	MerchantIDSnapshot *string             `gorm:"column:merchant_id_snapshot"`
	Status             enums.EarningStatus `gorm:"column:status;type:earning_status;not null;default:'AVAILABLE'"`
	PayoutRequestID    *uuid.UUID          `gorm:"column:payout_request_id;type:uuid"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
