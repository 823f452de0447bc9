package types

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementAllocation is one beneficiary's share of a settled payment.
// Roles accumulate when the same user earns under several hats on the
// same order.
type SettlementAllocation struct {
	UserID          uuid.UUID       `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	Roles           []string        `json:"roles"`
	Status          string          `json:"status"`
	PayoutRequestID *uuid.UUID      `json:"payout_request_id,omitempty"`
}

// SettlementAllocations is the jsonb column payload on a settlement row.
// It implements driver.Valuer and sql.Scanner so the slice survives both
// struct-based writes and map-based Updates.
type SettlementAllocations []SettlementAllocation

// Value serializes the allocations to JSON.
func (a SettlementAllocations) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan decodes JSONB into the slice.
func (a *SettlementAllocations) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded SettlementAllocations
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*a = decoded
	return nil
}
