package marketer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
	"github.com/sooqly/sooqly-backend/pkg/money"
)

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// NormalizeRate reads a contract's commission rate as a fraction. Values
// above 1 are treated as percentages; values above 100 clamp to 1.
func NormalizeRate(rate decimal.Decimal) decimal.Decimal {
	if rate.LessThanOrEqual(one) {
		return rate
	}
	if rate.LessThanOrEqual(hundred) {
		return rate.Div(hundred)
	}
	return one
}

// Service validates contracts at checkout and materializes commissions.
type Service interface {
	ValidateContract(ctx context.Context, tx *gorm.DB, contractID, shopID, productID uuid.UUID) (*models.MarketerContract, error)
	CreatePendingForItem(ctx context.Context, tx *gorm.DB, contract *models.MarketerContract, item *models.OrderItem) error
	ApproveForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the marketer service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("marketer repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// ValidateContract checks that the referenced contract is usable for the
// product: active, within its window, same shop, and covering the product.
func (s *service) ValidateContract(ctx context.Context, tx *gorm.DB, contractID, shopID, productID uuid.UUID) (*models.MarketerContract, error) {
	repo := s.repo.WithTx(tx)

	contract, err := repo.FindContract(ctx, contractID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load marketer contract")
	}
	if contract == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "marketer contract not found")
	}
	if !contract.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "marketer contract is inactive")
	}
	now := time.Now()
	if contract.StartsAt != nil && now.Before(*contract.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "marketer contract not started")
	}
	if contract.EndsAt != nil && now.After(*contract.EndsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "marketer contract expired")
	}
	if contract.ShopID != shopID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "marketer contract does not cover shop")
	}
	covered, err := repo.ContractCoversProduct(ctx, contractID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check contract products")
	}
	if !covered {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "marketer contract does not cover product")
	}
	return contract, nil
}

// CreatePendingForItem records a pending commission for one order item.
func (s *service) CreatePendingForItem(ctx context.Context, tx *gorm.DB, contract *models.MarketerContract, item *models.OrderItem) error {
	if contract == nil || item == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "contract and order item required")
	}
	rate := NormalizeRate(contract.CommissionRate)
	commission := &models.MarketerCommission{
		ID:          uuid.New(),
		ContractID:  contract.ID,
		OrderID:     item.OrderID,
		OrderItemID: item.ID,
		Rate:        rate,
		Amount:      money.ApplyRate(item.Total, rate),
		Status:      enums.CommissionStatusPending,
	}
	if err := s.repo.WithTx(tx).CreateCommission(ctx, commission); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create marketer commission")
	}
	return nil
}

// ApproveForOrder flips the order's pending commissions to approved. It
// returns how many rows changed so callers can log the delivery fan-out.
func (s *service) ApproveForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error) {
	repo := s.repo.WithTx(tx)
	commissions, err := repo.FindCommissionsByOrder(ctx, orderID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commissions")
	}
	approved := 0
	for _, commission := range commissions {
		if commission.Status != enums.CommissionStatusPending {
			continue
		}
		if err := repo.UpdateCommissionStatus(ctx, commission.ID, enums.CommissionStatusApproved); err != nil {
			return approved, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve commission")
		}
		approved++
	}
	return approved, nil
}
