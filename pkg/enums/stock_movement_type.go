package enums

import "fmt"

// StockMovementType maps to the stock_movement_type enum in Postgres. Every
// quantity change on an inventory pool records exactly one movement row.
type StockMovementType string

const (
	StockMovementReserve StockMovementType = "RESERVE"
	StockMovementRelease StockMovementType = "RELEASE"
	StockMovementConfirm StockMovementType = "CONFIRM"
	StockMovementRestock StockMovementType = "RESTOCK"
	StockMovementAdjust  StockMovementType = "ADJUST"
)

var validStockMovementTypes = []StockMovementType{
	StockMovementReserve,
	StockMovementRelease,
	StockMovementConfirm,
	StockMovementRestock,
	StockMovementAdjust,
}

func (t StockMovementType) IsValid() bool {
	for _, candidate := range validStockMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseStockMovementType converts raw input into StockMovementType.
func ParseStockMovementType(value string) (StockMovementType, error) {
	for _, candidate := range validStockMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement type %q", value)
}
