package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
)

// Repository is the storage surface for carts and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveCart(ctx context.Context, userID, shopID uuid.UUID) (*models.Cart, error)
	FindActiveCartLocked(ctx context.Context, userID, shopID uuid.UUID) (*models.Cart, error)
	CreateCart(ctx context.Context, cart *models.Cart) error
	ListActiveCarts(ctx context.Context, userID uuid.UUID) ([]models.Cart, error)
	FindItem(ctx context.Context, cartID, productID uuid.UUID, variantID *uuid.UUID) (*models.CartItem, error)
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
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

func (r *repository) FindActiveCart(ctx context.Context, userID, shopID uuid.UUID) (*models.Cart, error) {
	return r.findActive(r.db.WithContext(ctx), userID, shopID)
}

func (r *repository) FindActiveCartLocked(ctx context.Context, userID, shopID uuid.UUID) (*models.Cart, error) {
	return r.findActive(lockForUpdate(r.db.WithContext(ctx)), userID, shopID)
}

func (r *repository) findActive(db *gorm.DB, userID, shopID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := db.
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Variant").
		Where("user_id = ? AND shop_id = ? AND status = ?", userID, shopID, enums.CartStatusActive).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) CreateCart(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *repository) ListActiveCarts(ctx context.Context, userID uuid.UUID) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("user_id = ? AND status = ?", userID, enums.CartStatusActive).
		Order("updated_at DESC").
		Find(&carts).Error
	return carts, err
}

func (r *repository) FindItem(ctx context.Context, cartID, productID uuid.UUID, variantID *uuid.UUID) (*models.CartItem, error) {
	query := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID)
	if variantID != nil {
		query = query.Where("variant_id = ?", *variantID)
	} else {
		query = query.Where("variant_id IS NULL")
	}
	var item models.CartItem
	err := query.First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", itemID).
		Delete(&models.CartItem{}).Error
}

func (r *repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

func (r *repository) UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error {
	return r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("status", status).Error
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&variant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &variant, nil
}
