package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/internal/cart"
	"github.com/sooqly/sooqly-backend/internal/marketer"
	dbpkg "github.com/sooqly/sooqly-backend/pkg/db"
	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
	"github.com/sooqly/sooqly-backend/pkg/money"
	"github.com/sooqly/sooqly-backend/pkg/outbox"
)

const orderNumberAttempts = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StockKeeper is the slice of the inventory service order creation needs.
type StockKeeper interface {
	Reserve(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID *uuid.UUID) error
	Release(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID *uuid.UUID) error
}

// Notifier delivers best-effort user notifications. Failures never abort
// the order flow.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, payload map[string]any)
}

// Service creates and cancels orders.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	CheckoutCart(ctx context.Context, userID uuid.UUID, input CheckoutCartInput) (*models.Order, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, filter ListOrdersFilter) ([]models.Order, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	stock    StockKeeper
	carts    cart.Repository
	marketer marketer.Service
	notifier Notifier
	logg     *logger.Logger
}

// NewService builds the order service.
func NewService(
	repo Repository,
	tx txRunner,
	ob outboxPublisher,
	stock StockKeeper,
	carts cart.Repository,
	marketerSvc marketer.Service,
	notifier Notifier,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock keeper required")
	}
	if marketerSvc == nil {
		return nil, fmt.Errorf("marketer service required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   ob,
		stock:    stock,
		carts:    carts,
		marketer: marketerSvc,
		notifier: notifier,
		logg:     logg,
	}, nil
}

// resolvedLine is an order line after product, price and variant resolution.
type resolvedLine struct {
	product  *models.Product
	variant  *models.ProductVariant
	contract *models.MarketerContract
	qty      int
	unit     decimal.Decimal
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ShopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
	}
	method := input.DeliveryMethod
	if method == "" {
		method = enums.DeliveryMethodCourier
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery method")
	}

	shop, err := s.repo.FindShop(ctx, input.ShopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	if shop == nil || !shop.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.createOrderTx(ctx, tx, input, method)
		if err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyShopOwner(ctx, shop, created)
	return created, nil
}

// createOrderTx runs the whole aggregation inside the caller's transaction
// so checkout can clear the cart atomically with the order insert.
func (s *service) createOrderTx(ctx context.Context, tx *gorm.DB, input CreateOrderInput, method enums.DeliveryMethod) (*models.Order, error) {
	repo := s.repo.WithTx(tx)

	lines := make([]resolvedLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		resolved, err := s.resolveLine(ctx, repo, tx, input.ShopID, line)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *resolved)
	}

	// Aggregate quantities per variant, then reserve in uuid order so
	// concurrent checkouts lock pools in a stable sequence.
	needed := map[uuid.UUID]int{}
	for _, line := range lines {
		needed[line.variant.ID] += line.qty
	}
	variantIDs := make([]uuid.UUID, 0, len(needed))
	for id := range needed {
		variantIDs = append(variantIDs, id)
	}
	sort.Slice(variantIDs, func(i, j int) bool {
		return variantIDs[i].String() < variantIDs[j].String()
	})

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          input.UserID,
		ShopID:          input.ShopID,
		Status:          enums.OrderStatusPending,
		DeliveryMethod:  method,
		DeliveryAddress: input.DeliveryAddress,
	}
	if input.DeliveryFee != nil {
		order.DeliveryFee = money.Round(*input.DeliveryFee)
	} else {
		order.DeliveryFee = decimal.Zero
	}

	for _, variantID := range variantIDs {
		if err := s.stock.Reserve(ctx, tx, variantID, needed[variantID], &order.ID); err != nil {
			return nil, err
		}
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		total := money.Mul(line.unit, line.qty)
		subtotal = subtotal.Add(total)
		variantID := line.variant.ID
		item := models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   line.product.ID,
			VariantID:   &variantID,
			ProductName: line.product.Name,
			SKU:         line.product.SKU,
			Price:       line.unit,
			Quantity:    line.qty,
			Total:       total,
		}
		if line.contract != nil {
			contractID := line.contract.ID
			item.MarketerContractID = &contractID
		}
		items = append(items, item)
	}
	order.Subtotal = money.Round(subtotal)
	order.TotalAmount = money.Sum(order.Subtotal, order.DeliveryFee)

	if err := s.insertWithOrderNumber(ctx, repo, order); err != nil {
		return nil, err
	}
	if err := repo.CreateItems(ctx, items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
	}

	for i := range items {
		line := lines[i]
		if line.contract == nil {
			continue
		}
		if err := s.marketer.CreatePendingForItem(ctx, tx, line.contract, &items[i]); err != nil {
			return nil, err
		}
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: input.UserID, ShopID: &order.ShopID, Role: string(enums.UserRoleCustomer)},
		Data: outbox.OrderEventData{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			ShopID:      order.ShopID,
			Status:      string(order.Status),
			TotalAmount: order.TotalAmount,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order event")
	}

	order.Items = items
	return order, nil
}

func (s *service) resolveLine(ctx context.Context, repo Repository, tx *gorm.DB, shopID uuid.UUID, line OrderLineInput) (*resolvedLine, error) {
	product, err := repo.FindProduct(ctx, line.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product == nil || !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": line.ProductID.String()})
	}
	if product.ShopID != shopID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product does not belong to shop")
	}

	var variant *models.ProductVariant
	if line.VariantID != nil {
		variant, err = repo.FindVariant(ctx, *line.VariantID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}
		if variant == nil || variant.ProductID != product.ID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
	} else {
		variant, err = s.oldestVariantWithStock(ctx, repo, product.ID)
		if err != nil {
			return nil, err
		}
	}

	var contract *models.MarketerContract
	if line.MarketerContractID != nil {
		contract, err = s.marketer.ValidateContract(ctx, tx, *line.MarketerContractID, shopID, product.ID)
		if err != nil {
			return nil, err
		}
	}

	return &resolvedLine{
		product:  product,
		variant:  variant,
		contract: contract,
		qty:      line.Quantity,
		unit:     variant.UnitPrice(*product),
	}, nil
}

// oldestVariantWithStock picks the first variant by creation order that
// still has available units, falling back to the oldest variant so the
// reserve step reports the shortage instead of a missing variant.
func (s *service) oldestVariantWithStock(ctx context.Context, repo Repository, productID uuid.UUID) (*models.ProductVariant, error) {
	variants, err := repo.ListVariantsByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list variants")
	}
	if len(variants) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product has no variants")
	}
	for i := range variants {
		available, err := repo.VariantAvailability(ctx, variants[i].ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check variant stock")
		}
		if available > 0 {
			return &variants[i], nil
		}
	}
	return &variants[0], nil
}

func (s *service) insertWithOrderNumber(ctx context.Context, repo Repository, order *models.Order) error {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = generateOrderNumber()
		err := repo.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if !dbpkg.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
	}
	return pkgerrors.New(pkgerrors.CodeInternal, "could not allocate unique order number")
}

func generateOrderNumber() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// Collisions on the fallback are caught by the unique index.
		return fmt.Sprintf("ORD-%012X", time.Now().UnixNano()&0xFFFFFFFFFFFF)
	}
	return "ORD-" + hex.EncodeToString(buf)
}

func (s *service) CheckoutCart(ctx context.Context, userID uuid.UUID, input CheckoutCartInput) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if s.carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repository not configured")
	}

	shop, err := s.repo.FindShop(ctx, input.ShopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	if shop == nil || !shop.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
	}

	method := input.DeliveryMethod
	if method == "" {
		method = enums.DeliveryMethodCourier
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		active, err := carts.FindActiveCartLocked(ctx, userID, input.ShopID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
		}
		if active == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
		}
		if len(active.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		lines := make([]OrderLineInput, 0, len(active.Items))
		for _, item := range active.Items {
			lines = append(lines, OrderLineInput{
				ProductID:          item.ProductID,
				VariantID:          item.VariantID,
				MarketerContractID: item.MarketerContractID,
				Quantity:           item.Quantity,
			})
		}

		order, err := s.createOrderTx(ctx, tx, CreateOrderInput{
			UserID:          userID,
			ShopID:          input.ShopID,
			Lines:           lines,
			DeliveryMethod:  method,
			DeliveryAddress: input.DeliveryAddress,
			DeliveryFee:     input.DeliveryFee,
		}, method)
		if err != nil {
			return err
		}

		if err := carts.DeleteItems(ctx, active.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		if err := carts.UpdateStatus(ctx, active.ID, enums.CartStatusCheckedOut); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close cart")
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyShopOwner(ctx, shop, created)
	return created, nil
}

// CancelOrder lets the buyer abandon an unpaid order. Reserved stock goes
// back to the pools; payments in flight are resolved by the webhook path.
func (s *service) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByIDLocked(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if userID != uuid.Nil && order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		if order.Status == enums.OrderStatusCancelled {
			cancelled = order
			return nil
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be cancelled")
		}

		full, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
		}

		if err := s.releaseOrderStock(ctx, tx, full); err != nil {
			return err
		}

		now := time.Now()
		updates := map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: userID, ShopID: &order.ShopID},
			Data: outbox.OrderEventData{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				ShopID:      order.ShopID,
				Status:      string(order.Status),
				TotalAmount: order.TotalAmount,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order event")
		}

		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// releaseOrderStock returns reserved units per variant. Items whose variant
// row has disappeared are logged and skipped rather than failing the cancel.
func (s *service) releaseOrderStock(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	repo := s.repo.WithTx(tx)
	perVariant := map[uuid.UUID]int{}
	for _, item := range order.Items {
		if item.VariantID == nil {
			continue
		}
		perVariant[*item.VariantID] += item.Quantity
	}
	variantIDs := make([]uuid.UUID, 0, len(perVariant))
	for id := range perVariant {
		variantIDs = append(variantIDs, id)
	}
	sort.Slice(variantIDs, func(i, j int) bool {
		return variantIDs[i].String() < variantIDs[j].String()
	})
	for _, variantID := range variantIDs {
		variant, err := repo.FindVariant(ctx, variantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}
		if variant == nil {
			if s.logg != nil {
				warnCtx := s.logg.WithFields(ctx, map[string]any{
					"order_id":   order.ID.String(),
					"variant_id": variantID.String(),
				})
				s.logg.Warn(warnCtx, "skipping stock release for deleted variant")
			}
			continue
		}
		if err := s.stock.Release(ctx, tx, variantID, perVariant[variantID], &order.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListOrdersFilter) ([]models.Order, error) {
	orders, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

func (s *service) notifyShopOwner(ctx context.Context, shop *models.Shop, order *models.Order) {
	if s.notifier == nil || shop == nil || order == nil {
		return
	}
	s.notifier.Notify(ctx, shop.OwnerID, enums.NotificationTypeOrderUpdate,
		"New order received",
		fmt.Sprintf("Order %s was placed for %s", order.OrderNumber, order.TotalAmount.StringFixed(2)),
		map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
		})
}
