package enums

import "strings"

// ShipmentStatus mirrors the courier lifecycle.
type ShipmentStatus string

const (
	ShipmentStatusPending        ShipmentStatus = "PENDING"
	ShipmentStatusCreated        ShipmentStatus = "CREATED"
	ShipmentStatusPickedUp       ShipmentStatus = "PICKED_UP"
	ShipmentStatusInTransit      ShipmentStatus = "IN_TRANSIT"
	ShipmentStatusOutForDelivery ShipmentStatus = "OUT_FOR_DELIVERY"
	ShipmentStatusDelivered      ShipmentStatus = "DELIVERED"
	ShipmentStatusFailed         ShipmentStatus = "FAILED"
	ShipmentStatusCancelled      ShipmentStatus = "CANCELLED"
)

// NormalizeShipmentStatus maps raw provider vocabulary onto the canonical enum.
// Unknown values normalize to PENDING.
func NormalizeShipmentStatus(raw string) ShipmentStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CREATED":
		return ShipmentStatusCreated
	case "PICKED_UP", "PICKUP":
		return ShipmentStatusPickedUp
	case "IN_TRANSIT", "TRANSIT":
		return ShipmentStatusInTransit
	case "OUT_FOR_DELIVERY":
		return ShipmentStatusOutForDelivery
	case "DELIVERED":
		return ShipmentStatusDelivered
	case "FAILED":
		return ShipmentStatusFailed
	case "CANCELLED":
		return ShipmentStatusCancelled
	default:
		return ShipmentStatusPending
	}
}
