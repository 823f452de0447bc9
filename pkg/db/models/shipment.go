package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sooqly/sooqly-backend/pkg/enums"
	"github.com/sooqly/sooqly-backend/pkg/types"
)

// Shipment is the one-to-one courier leg of an order. External IDs come
// from the courier; tracking webhooks match on ExternalTrackingID.
type Shipment struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID            uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	CourierID          uuid.UUID            `gorm:"column:courier_id;type:uuid;not null"`
	Status             enums.ShipmentStatus `gorm:"column:status;type:shipment_status;not null;default:'PENDING'"`
	ExternalShipmentID *string              `gorm:"column:external_shipment_id"`
	ExternalTrackingID *string              `gorm:"column:external_tracking_id;index"`
	LastEvent          *string              `gorm:"column:last_event"`
	LastPayload        types.JSONMap        `gorm:"column:last_payload;type:jsonb;serializer:json"`
	Order              *Order               `gorm:"foreignKey:OrderID"`
	Courier            *CourierPartner      `gorm:"foreignKey:CourierID"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
