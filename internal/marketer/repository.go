package marketer

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
)

// Repository is the storage surface for marketer contracts and commissions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindContract(ctx context.Context, id uuid.UUID) (*models.MarketerContract, error)
	ContractCoversProduct(ctx context.Context, contractID, productID uuid.UUID) (bool, error)
	CreateCommission(ctx context.Context, commission *models.MarketerCommission) error
	FindCommissionsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.MarketerCommission, error)
	UpdateCommissionStatus(ctx context.Context, id uuid.UUID, status enums.CommissionStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a marketer repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindContract(ctx context.Context, id uuid.UUID) (*models.MarketerContract, error) {
	var contract models.MarketerContract
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *repository) ContractCoversProduct(ctx context.Context, contractID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MarketerContractProduct{}).
		Where("contract_id = ? AND product_id = ?", contractID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateCommission(ctx context.Context, commission *models.MarketerCommission) error {
	return r.db.WithContext(ctx).Create(commission).Error
}

func (r *repository) FindCommissionsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.MarketerCommission, error) {
	var commissions []models.MarketerCommission
	err := r.db.WithContext(ctx).
		Preload("Contract").
		Where("order_id = ?", orderID).
		Find(&commissions).Error
	return commissions, err
}

func (r *repository) UpdateCommissionStatus(ctx context.Context, id uuid.UUID, status enums.CommissionStatus) error {
	return r.db.WithContext(ctx).Model(&models.MarketerCommission{}).
		Where("id = ?", id).
		Update("status", status).Error
}
