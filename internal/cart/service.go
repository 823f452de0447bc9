package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddItemInput is one line to merge into the buyer's active cart.
type AddItemInput struct {
	ShopID             uuid.UUID  `json:"shop_id" validate:"required"`
	ProductID          uuid.UUID  `json:"product_id" validate:"required"`
	VariantID          *uuid.UUID `json:"variant_id"`
	MarketerContractID *uuid.UUID `json:"marketer_contract_id"`
	Quantity           int        `json:"quantity" validate:"required,gt=0"`
}

// Service manages the buyer's active carts. A cart is scoped to one shop;
// adding an item for a new shop opens a fresh cart.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.Cart, error)
	GetActiveCart(ctx context.Context, userID, shopID uuid.UUID) (*models.Cart, error)
	ListCarts(ctx context.Context, userID uuid.UUID) ([]models.Cart, error)
	RemoveItem(ctx context.Context, userID, shopID, itemID uuid.UUID) (*models.Cart, error)
}

type service struct {
	runner txRunner
	repo   Repository
	logg   *logger.Logger
}

// NewService builds the cart service.
func NewService(runner txRunner, repo Repository, logg *logger.Logger) (Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &service{runner: runner, repo: repo, logg: logg}, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.repo.FindProduct(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product == nil || !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if product.ShopID != input.ShopID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product does not belong to shop")
	}
	if input.VariantID != nil {
		variant, err := s.repo.FindVariant(ctx, *input.VariantID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}
		if variant == nil || variant.ProductID != product.ID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
	}

	var cartID uuid.UUID
	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		active, err := repo.FindActiveCartLocked(ctx, userID, input.ShopID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
		}
		if active == nil {
			active = &models.Cart{
				ID:     uuid.New(),
				UserID: userID,
				ShopID: input.ShopID,
				Status: enums.CartStatusActive,
			}
			if err := repo.CreateCart(ctx, active); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			}
		}
		cartID = active.ID

		existing, err := repo.FindItem(ctx, active.ID, input.ProductID, input.VariantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		if existing != nil {
			existing.Quantity += input.Quantity
			if input.MarketerContractID != nil {
				existing.MarketerContractID = input.MarketerContractID
			}
			return repo.SaveItem(ctx, existing)
		}
		item := &models.CartItem{
			ID:                 uuid.New(),
			CartID:             active.ID,
			ProductID:          input.ProductID,
			VariantID:          input.VariantID,
			MarketerContractID: input.MarketerContractID,
			Quantity:           input.Quantity,
		}
		return repo.SaveItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	cart, err := s.repo.FindActiveCart(ctx, userID, input.ShopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart vanished after write").
			WithDetails(map[string]any{"cart_id": cartID.String()})
	}
	return cart, nil
}

func (s *service) GetActiveCart(ctx context.Context, userID, shopID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindActiveCart(ctx, userID, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
	}
	return cart, nil
}

func (s *service) ListCarts(ctx context.Context, userID uuid.UUID) ([]models.Cart, error) {
	carts, err := s.repo.ListActiveCarts(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list carts")
	}
	return carts, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, shopID, itemID uuid.UUID) (*models.Cart, error) {
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		active, err := repo.FindActiveCartLocked(ctx, userID, shopID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
		}
		if active == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
		}
		for _, item := range active.Items {
			if item.ID == itemID {
				return repo.DeleteItem(ctx, itemID)
			}
		}
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindActiveCart(ctx, userID, shopID)
}
