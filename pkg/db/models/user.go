package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sooqly/sooqly-backend/pkg/enums"
)

// User is a marketplace actor. The role decides how settlement treats them.
type User struct {
	ID                uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string         `gorm:"column:name;not null"`
	Email             string         `gorm:"column:email;uniqueIndex;not null"`
	Phone             *string        `gorm:"column:phone"`
	Role              enums.UserRole `gorm:"column:role;type:user_role;not null;default:'customer'"`
	MerchantID        *string        `gorm:"column:merchant_id"`
	BankAccountNumber *string        `gorm:"column:bank_account_number"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
