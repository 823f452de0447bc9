package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
)

// Repository persists append-only accounting entries. GetOrCreate keyed on
// the natural (order, payment, type, description) tuple keeps settlement
// replays from duplicating rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetOrCreate(ctx context.Context, entry *models.LedgerEntry) (created bool, err error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.LedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetOrCreate(ctx context.Context, entry *models.LedgerEntry) (bool, error) {
	var existing models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND payment_id = ? AND entry_type = ? AND description = ?",
			entry.OrderID, entry.PaymentID, entry.EntryType, entry.Description).
		First(&existing).Error
	if err == nil {
		*entry = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}
