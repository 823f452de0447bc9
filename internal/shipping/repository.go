package shipping

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
)

// Repository is the storage surface for shipments and courier partners.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateShipment(ctx context.Context, shipment *models.Shipment) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error)
	FindByTrackingID(ctx context.Context, trackingID string) (*models.Shipment, error)
	FindByExternalShipmentID(ctx context.Context, externalID string) (*models.Shipment, error)
	FindShipmentLocked(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	UpdateShipment(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindActivePartner(ctx context.Context) (*models.CourierPartner, error)
	FindPartnerByCode(ctx context.Context, providerCode string) (*models.CourierPartner, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a shipping repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func (r *repository) CreateShipment(ctx context.Context, shipment *models.Shipment) error {
	return r.db.WithContext(ctx).Omit("Order", "Courier").Create(shipment).Error
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	return r.one(r.db.WithContext(ctx).Where("order_id = ?", orderID))
}

func (r *repository) FindByTrackingID(ctx context.Context, trackingID string) (*models.Shipment, error) {
	return r.one(r.db.WithContext(ctx).Where("external_tracking_id = ?", trackingID))
}

func (r *repository) FindByExternalShipmentID(ctx context.Context, externalID string) (*models.Shipment, error) {
	return r.one(r.db.WithContext(ctx).Where("external_shipment_id = ?", externalID))
}

func (r *repository) FindShipmentLocked(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	return r.one(lockForUpdate(r.db.WithContext(ctx)).Where("id = ?", id))
}

func (r *repository) one(query *gorm.DB) (*models.Shipment, error) {
	var shipment models.Shipment
	err := query.First(&shipment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) UpdateShipment(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Shipment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) FindActivePartner(ctx context.Context) (*models.CourierPartner, error) {
	var partner models.CourierPartner
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority DESC").
		Order("created_at ASC").
		First(&partner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *repository) FindPartnerByCode(ctx context.Context, providerCode string) (*models.CourierPartner, error) {
	var partner models.CourierPartner
	err := r.db.WithContext(ctx).
		Where("provider_code = ?", providerCode).
		First(&partner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &partner, nil
}
