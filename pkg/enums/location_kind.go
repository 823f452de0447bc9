package enums

import "fmt"

// LocationKind distinguishes platform warehouses from supplier-held stock.
type LocationKind string

const (
	LocationKindWarehouse LocationKind = "WAREHOUSE"
	LocationKindSupplier  LocationKind = "SUPPLIER"
)

var validLocationKinds = []LocationKind{
	LocationKindWarehouse,
	LocationKindSupplier,
}

func (k LocationKind) IsValid() bool {
	for _, candidate := range validLocationKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseLocationKind converts raw input into LocationKind.
func ParseLocationKind(value string) (LocationKind, error) {
	for _, candidate := range validLocationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid location kind %q", value)
}
