package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
)

// Repository is the storage surface for stock pools and movements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockPoolsByVariant(ctx context.Context, variantID uuid.UUID) ([]models.Inventory, error)
	LockPoolByID(ctx context.Context, id uuid.UUID) (*models.Inventory, error)
	UpdateCounts(ctx context.Context, id uuid.UUID, available, reserved int) error
	RecordMovement(ctx context.Context, movement *models.StockMovement) error
	FindPoolsByVariant(ctx context.Context, variantID uuid.UUID) ([]models.Inventory, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// lockForUpdate applies SELECT ... FOR UPDATE on engines that support it.
// The sqlite driver used in tests serializes writers at the file level.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func (r *repository) LockPoolsByVariant(ctx context.Context, variantID uuid.UUID) ([]models.Inventory, error) {
	var pools []models.Inventory
	err := lockForUpdate(r.db.WithContext(ctx)).
		Where("variant_id = ?", variantID).
		Order("quantity_available ASC").
		Order("id ASC").
		Find(&pools).Error
	return pools, err
}

func (r *repository) LockPoolByID(ctx context.Context, id uuid.UUID) (*models.Inventory, error) {
	var pool models.Inventory
	err := lockForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&pool).Error
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

func (r *repository) UpdateCounts(ctx context.Context, id uuid.UUID, available, reserved int) error {
	return r.db.WithContext(ctx).Model(&models.Inventory{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity_available": available,
			"quantity_reserved":  reserved,
		}).Error
}

func (r *repository) RecordMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) FindPoolsByVariant(ctx context.Context, variantID uuid.UUID) ([]models.Inventory, error) {
	var pools []models.Inventory
	err := r.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Order("created_at ASC").
		Find(&pools).Error
	return pools, err
}
