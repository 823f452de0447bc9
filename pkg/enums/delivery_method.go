package enums

import "fmt"

// DeliveryMethod is how an order reaches the buyer.
type DeliveryMethod string

const (
	DeliveryMethodCourier DeliveryMethod = "courier"
	DeliveryMethodSeller  DeliveryMethod = "seller"
	DeliveryMethodPickup  DeliveryMethod = "pickup"
)

var validDeliveryMethods = []DeliveryMethod{
	DeliveryMethodCourier,
	DeliveryMethodSeller,
	DeliveryMethodPickup,
}

func (m DeliveryMethod) IsValid() bool {
	for _, candidate := range validDeliveryMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseDeliveryMethod converts raw input into DeliveryMethod.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	for _, candidate := range validDeliveryMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}
