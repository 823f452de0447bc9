package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
)

// Repository is the storage surface for payments and refunds.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePayment(ctx context.Context, payment *models.Payment) error
	FindPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindPaymentLocked(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreateRefund(ctx context.Context, refund *models.Refund) error
	FindRefund(ctx context.Context, id uuid.UUID) (*models.Refund, error)
	FindRefundLocked(ctx context.Context, id uuid.UUID) (*models.Refund, error)
	FindRefundByReference(ctx context.Context, reference string) (*models.Refund, error)
	ListRefundsByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.Refund, error)
	UpdateRefund(ctx context.Context, id uuid.UUID, updates map[string]any) error
	SumCompletedRefunds(ctx context.Context, paymentID uuid.UUID) (decimal.Decimal, error)
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
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

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Omit("Order", "User").Create(payment).Error
}

func (r *repository) FindPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return r.onePayment(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *repository) FindPaymentLocked(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return r.onePayment(lockForUpdate(r.db.WithContext(ctx)).Where("id = ?", id))
}

func (r *repository) FindPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	return r.onePayment(r.db.WithContext(ctx).Where("provider_reference = ?", reference))
}

func (r *repository) onePayment(query *gorm.DB) (*models.Payment, error) {
	var payment models.Payment
	err := query.First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *repository) UpdatePayment(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreateRefund(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Omit("Payment").Create(refund).Error
}

func (r *repository) FindRefund(ctx context.Context, id uuid.UUID) (*models.Refund, error) {
	return r.oneRefund(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *repository) FindRefundLocked(ctx context.Context, id uuid.UUID) (*models.Refund, error) {
	return r.oneRefund(lockForUpdate(r.db.WithContext(ctx)).Where("id = ?", id))
}

func (r *repository) FindRefundByReference(ctx context.Context, reference string) (*models.Refund, error) {
	return r.oneRefund(r.db.WithContext(ctx).Where("provider_reference = ?", reference))
}

func (r *repository) oneRefund(query *gorm.DB) (*models.Refund, error) {
	var refund models.Refund
	err := query.First(&refund).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *repository) ListRefundsByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.Refund, error) {
	var refunds []models.Refund
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&refunds).Error
	return refunds, err
}

func (r *repository) UpdateRefund(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Refund{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) SumCompletedRefunds(ctx context.Context, paymentID uuid.UUID) (decimal.Decimal, error) {
	var raw string
	err := r.db.WithContext(ctx).Model(&models.Refund{}).
		Where("payment_id = ? AND status = ?", paymentID, enums.RefundStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
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
