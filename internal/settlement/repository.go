package settlement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
)

// Repository is the storage surface for settlements, earnings and payouts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	FindByPayment(ctx context.Context, paymentID uuid.UUID) (*models.Settlement, error)
	FindByPaymentLocked(ctx context.Context, paymentID uuid.UUID) (*models.Settlement, error)
	UpdateSettlement(ctx context.Context, id uuid.UUID, updates map[string]any) error

	FindEarning(ctx context.Context, userID, paymentID uuid.UUID) (*models.Earning, error)
	SaveEarning(ctx context.Context, earning *models.Earning) error
	ListEarningsByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.Earning, error)
	LockAvailableEarnings(ctx context.Context, userID uuid.UUID, paymentID *uuid.UUID) ([]models.Earning, error)
	UpdateEarnings(ctx context.Context, ids []uuid.UUID, updates map[string]any) error

	CreatePayoutRequest(ctx context.Context, request *models.PayoutRequest) error
	UpdatePayoutRequest(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindPayoutRequest(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
	ListPayoutRequests(ctx context.Context, userID uuid.UUID) ([]models.PayoutRequest, error)

	ListPayoutMethods(ctx context.Context, userID uuid.UUID) ([]models.PayoutMethod, error)
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindOrderWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	FindContract(ctx context.Context, id uuid.UUID) (*models.MarketerContract, error)
	FindShop(ctx context.Context, id uuid.UUID) (*models.Shop, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settlement repository bound to the provided DB.
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

func (r *repository) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	return r.db.WithContext(ctx).Omit("Payment").Create(settlement).Error
}

func (r *repository) FindByPayment(ctx context.Context, paymentID uuid.UUID) (*models.Settlement, error) {
	return r.one(r.db.WithContext(ctx).Where("payment_id = ?", paymentID))
}

func (r *repository) FindByPaymentLocked(ctx context.Context, paymentID uuid.UUID) (*models.Settlement, error) {
	return r.one(lockForUpdate(r.db.WithContext(ctx)).Where("payment_id = ?", paymentID))
}

func (r *repository) one(query *gorm.DB) (*models.Settlement, error) {
	var settlement models.Settlement
	err := query.First(&settlement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

func (r *repository) UpdateSettlement(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Settlement{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) FindEarning(ctx context.Context, userID, paymentID uuid.UUID) (*models.Earning, error) {
	var earning models.Earning
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND payment_id = ?", userID, paymentID).
		First(&earning).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &earning, nil
}

func (r *repository) SaveEarning(ctx context.Context, earning *models.Earning) error {
	return r.db.WithContext(ctx).Save(earning).Error
}

func (r *repository) ListEarningsByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.Earning, error) {
	var earnings []models.Earning
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&earnings).Error
	return earnings, err
}

// LockAvailableEarnings takes row locks on the user's unclaimed earnings,
// optionally narrowed to one payment.
func (r *repository) LockAvailableEarnings(ctx context.Context, userID uuid.UUID, paymentID *uuid.UUID) ([]models.Earning, error) {
	query := lockForUpdate(r.db.WithContext(ctx)).
		Where("user_id = ? AND status = ? AND payout_request_id IS NULL", userID, enums.EarningStatusAvailable)
	if paymentID != nil {
		query = query.Where("payment_id = ?", *paymentID)
	}
	var earnings []models.Earning
	err := query.Order("created_at ASC").Find(&earnings).Error
	return earnings, err
}

func (r *repository) UpdateEarnings(ctx context.Context, ids []uuid.UUID, updates map[string]any) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Earning{}).
		Where("id IN ?", ids).
		Updates(updates).Error
}

func (r *repository) CreatePayoutRequest(ctx context.Context, request *models.PayoutRequest) error {
	return r.db.WithContext(ctx).Omit("User").Create(request).Error
}

func (r *repository) UpdatePayoutRequest(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.PayoutRequest{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) FindPayoutRequest(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	var request models.PayoutRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListPayoutRequests(ctx context.Context, userID uuid.UUID) ([]models.PayoutRequest, error) {
	var requests []models.PayoutRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) ListPayoutMethods(ctx context.Context, userID uuid.UUID) ([]models.PayoutMethod, error) {
	var methods []models.PayoutMethod
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&methods).Error
	return methods, err
}

func (r *repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindOrderWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	result := map[uuid.UUID]models.Product{}
	if len(ids) == 0 {
		return result, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	if err != nil {
		return nil, err
	}
	for _, product := range products {
		result[product.ID] = product
	}
	return result, nil
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

func (r *repository) FindShop(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&shop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}
