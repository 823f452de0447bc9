package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
)

// Service mutates stock pools. Every method expects to run inside the
// caller's transaction so order creation, payment failure and refund flows
// stay atomic with their own writes.
type Service interface {
	Reserve(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID *uuid.UUID) error
	Release(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID *uuid.UUID) error
	Confirm(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID *uuid.UUID) error
	Restock(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID *uuid.UUID) error
	Adjust(ctx context.Context, tx *gorm.DB, inventoryID uuid.UUID, delta int, reason string) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the inventory service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Reserve moves qty units from available to reserved, draining the
// smallest pools first so partial pools empty out before large ones split.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID *uuid.UUID) error {
	if err := validateArgs(tx, variantID, qty); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)

	pools, err := repo.LockPoolsByVariant(ctx, variantID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock stock pools")
	}

	total := 0
	for _, pool := range pools {
		total += pool.QuantityAvailable
	}
	if total < qty {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{
				"variant_id": variantID.String(),
				"requested":  qty,
				"available":  total,
			})
	}

	remaining := qty
	for _, pool := range pools {
		if remaining == 0 {
			break
		}
		take := pool.QuantityAvailable
		if take > remaining {
			take = remaining
		}
		if take == 0 {
			continue
		}
		if err := repo.UpdateCounts(ctx, pool.ID, pool.QuantityAvailable-take, pool.QuantityReserved+take); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock pool")
		}
		if err := repo.RecordMovement(ctx, &models.StockMovement{
			InventoryID: pool.ID,
			Type:        enums.StockMovementReserve,
			Quantity:    -take,
			Reason:      "reserved for order",
			OrderID:     orderID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
		}
		remaining -= take
	}
	return nil
}

// Release returns qty reserved units back to available, e.g. after a
// failed payment or an order cancellation.
func (s *service) Release(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID *uuid.UUID) error {
	if err := validateArgs(tx, variantID, qty); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)

	pools, err := repo.LockPoolsByVariant(ctx, variantID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock stock pools")
	}

	totalReserved := 0
	for _, pool := range pools {
		totalReserved += pool.QuantityReserved
	}
	if totalReserved < qty {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "release exceeds reserved stock").
			WithDetails(map[string]any{
				"variant_id": variantID.String(),
				"requested":  qty,
				"reserved":   totalReserved,
			})
	}

	remaining := qty
	for _, pool := range pools {
		if remaining == 0 {
			break
		}
		give := pool.QuantityReserved
		if give > remaining {
			give = remaining
		}
		if give == 0 {
			continue
		}
		if err := repo.UpdateCounts(ctx, pool.ID, pool.QuantityAvailable+give, pool.QuantityReserved-give); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock pool")
		}
		if err := repo.RecordMovement(ctx, &models.StockMovement{
			InventoryID: pool.ID,
			Type:        enums.StockMovementRelease,
			Quantity:    give,
			Reason:      "reservation released",
			OrderID:     orderID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
		}
		remaining -= give
	}
	return nil
}

// Confirm burns qty reserved units when payment completes; the stock has
// left the building.
func (s *service) Confirm(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID *uuid.UUID) error {
	if err := validateArgs(tx, variantID, qty); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)

	pools, err := repo.LockPoolsByVariant(ctx, variantID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock stock pools")
	}

	totalReserved := 0
	for _, pool := range pools {
		totalReserved += pool.QuantityReserved
	}
	if totalReserved < qty {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "confirm exceeds reserved stock").
			WithDetails(map[string]any{
				"variant_id": variantID.String(),
				"requested":  qty,
				"reserved":   totalReserved,
			})
	}

	remaining := qty
	for _, pool := range pools {
		if remaining == 0 {
			break
		}
		take := pool.QuantityReserved
		if take > remaining {
			take = remaining
		}
		if take == 0 {
			continue
		}
		if err := repo.UpdateCounts(ctx, pool.ID, pool.QuantityAvailable, pool.QuantityReserved-take); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock pool")
		}
		if err := repo.RecordMovement(ctx, &models.StockMovement{
			InventoryID: pool.ID,
			Type:        enums.StockMovementConfirm,
			Quantity:    -take,
			Reason:      "reservation confirmed",
			OrderID:     orderID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
		}
		remaining -= take
	}
	return nil
}

// Restock adds qty units back after a refund, refilling the emptiest pool.
func (s *service) Restock(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID *uuid.UUID) error {
	if err := validateArgs(tx, variantID, qty); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)

	pools, err := repo.LockPoolsByVariant(ctx, variantID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock stock pools")
	}
	if len(pools) == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no stock pool for variant").
			WithDetails(map[string]any{"variant_id": variantID.String()})
	}

	pool := pools[0]
	if err := repo.UpdateCounts(ctx, pool.ID, pool.QuantityAvailable+qty, pool.QuantityReserved); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock pool")
	}
	if err := repo.RecordMovement(ctx, &models.StockMovement{
		InventoryID: pool.ID,
		Type:        enums.StockMovementRestock,
		Quantity:    qty,
		Reason:      "restocked",
		OrderID:     orderID,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}
	return nil
}

// Adjust applies a signed manual correction to one pool.
func (s *service) Adjust(ctx context.Context, tx *gorm.DB, inventoryID uuid.UUID, delta int, reason string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if inventoryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "inventory id required")
	}
	if delta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "adjustment delta must be non-zero")
	}
	if reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "adjustment reason required")
	}
	repo := s.repo.WithTx(tx)

	pool, err := repo.LockPoolByID(ctx, inventoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "stock pool not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock stock pool")
	}

	next := pool.QuantityAvailable + delta
	if next < 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "adjustment would make stock negative").
			WithDetails(map[string]any{
				"inventory_id": inventoryID.String(),
				"available":    pool.QuantityAvailable,
				"delta":        delta,
			})
	}

	if err := repo.UpdateCounts(ctx, pool.ID, next, pool.QuantityReserved); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock pool")
	}
	if err := repo.RecordMovement(ctx, &models.StockMovement{
		InventoryID: pool.ID,
		Type:        enums.StockMovementAdjust,
		Quantity:    delta,
		Reason:      reason,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}
	return nil
}

func validateArgs(tx *gorm.DB, variantID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if variantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}
