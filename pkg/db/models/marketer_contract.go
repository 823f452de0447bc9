package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MarketerContract grants a marketer a commission rate on the products it
// explicitly lists for one shop. Rates above 1 are read as percentages.
type MarketerContract struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID         uuid.UUID                 `gorm:"column:shop_id;type:uuid;not null;index"`
	MarketerID     uuid.UUID                 `gorm:"column:marketer_id;type:uuid;not null;index"`
	CommissionRate decimal.Decimal           `gorm:"column:commission_rate;type:numeric(8,4);not null"`
	IsActive       bool                      `gorm:"column:is_active;not null;default:true"`
	StartsAt       *time.Time                `gorm:"column:starts_at"`
	EndsAt         *time.Time                `gorm:"column:ends_at"`
	Marketer       *User                     `gorm:"foreignKey:MarketerID"`
	Products       []MarketerContractProduct `gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// MarketerContractProduct links a contract to one covered product.
type MarketerContractProduct struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ContractID uuid.UUID `gorm:"column:contract_id;type:uuid;not null;uniqueIndex:idx_contract_product"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_contract_product"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
