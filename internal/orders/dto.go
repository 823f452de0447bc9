package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sooqly/sooqly-backend/pkg/enums"
)

// OrderLineInput is one requested line before variant resolution.
type OrderLineInput struct {
	ProductID          uuid.UUID  `json:"product_id" validate:"required"`
	VariantID          *uuid.UUID `json:"variant_id"`
	MarketerContractID *uuid.UUID `json:"marketer_contract_id"`
	Quantity           int        `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput is the buy-now path: explicit lines, no cart involved.
type CreateOrderInput struct {
	UserID          uuid.UUID            `json:"-"`
	ShopID          uuid.UUID            `json:"shop_id" validate:"required"`
	Lines           []OrderLineInput     `json:"items" validate:"required,min=1,dive"`
	DeliveryMethod  enums.DeliveryMethod `json:"delivery_method"`
	DeliveryAddress *string              `json:"delivery_address"`
	DeliveryFee     *decimal.Decimal     `json:"delivery_fee"`
}

// CheckoutCartInput converts the buyer's active cart into an order.
type CheckoutCartInput struct {
	ShopID          uuid.UUID            `json:"shop_id" validate:"required"`
	DeliveryMethod  enums.DeliveryMethod `json:"delivery_method"`
	DeliveryAddress *string              `json:"delivery_address"`
	DeliveryFee     *decimal.Decimal     `json:"delivery_fee"`
}

// ListOrdersFilter narrows buyer/shop order listings.
type ListOrdersFilter struct {
	UserID *uuid.UUID
	ShopID *uuid.UUID
	Status *enums.OrderStatus
	Limit  int
	Offset int
}
