package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sooqly/sooqly-backend/pkg/enums"
)

// LedgerEntry is an append-only accounting row. The unique index makes
// get-or-create the natural write path, so settlement replays never
// duplicate entries.
type LedgerEntry struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID             `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_ledger_entry_natural"`
	PaymentID   uuid.UUID             `gorm:"column:payment_id;type:uuid;not null;uniqueIndex:idx_ledger_entry_natural"`
	EntryType   enums.LedgerEntryType `gorm:"column:entry_type;type:ledger_entry_type;not null;uniqueIndex:idx_ledger_entry_natural"`
	Description string                `gorm:"column:description;not null;uniqueIndex:idx_ledger_entry_natural"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	UserID      *uuid.UUID            `gorm:"column:user_id;type:uuid"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
