package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sooqly/sooqly-backend/pkg/enums"
)

// Order is the buyer-facing aggregate created at checkout. TotalAmount is
// immutable after creation; payment rows carry the settled amounts.
type Order struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber      string               `gorm:"column:order_number;uniqueIndex;not null"`
	UserID           uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	ShopID           uuid.UUID            `gorm:"column:shop_id;type:uuid;not null;index"`
	Status           enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Subtotal         decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryFee      decimal.Decimal      `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	TotalAmount      decimal.Decimal      `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaymentMethod    *string              `gorm:"column:payment_method"`
	PaymentReference *string              `gorm:"column:payment_reference;index"`
	DeliveryMethod   enums.DeliveryMethod `gorm:"column:delivery_method;type:delivery_method;not null;default:'courier'"`
	DeliveryAddress  *string              `gorm:"column:delivery_address"`
	User             *User                `gorm:"foreignKey:UserID"`
	Shop             *Shop                `gorm:"foreignKey:ShopID"`
	Items            []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments         []Payment            `gorm:"foreignKey:OrderID"`
	CancelledAt      *time.Time           `gorm:"column:cancelled_at"`
	DeliveredAt      *time.Time           `gorm:"column:delivered_at"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
