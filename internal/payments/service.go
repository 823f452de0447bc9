package payments

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/internal/orders"
	"github.com/sooqly/sooqly-backend/pkg/config"
	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
	"github.com/sooqly/sooqly-backend/pkg/outbox"
	"github.com/sooqly/sooqly-backend/pkg/santimpay"
	"github.com/sooqly/sooqly-backend/pkg/types"
)

// ProviderSantimPay is the provider tag stored on payment rows.
const ProviderSantimPay = "santimpay"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Gateway is the slice of the SantimPay client the lifecycle needs.
type Gateway interface {
	GeneratePaymentURL(ctx context.Context, req santimpay.CheckoutRequest) (string, error)
	DirectPayment(ctx context.Context, req santimpay.DirectPaymentRequest) (santimpay.TransactionResult, error)
	SendToCustomer(ctx context.Context, req santimpay.TransferRequest) (santimpay.TransactionResult, error)
	CheckTransactionStatus(ctx context.Context, txID string) (santimpay.TransactionResult, error)
}

// StockKeeper confirms or releases an order's reserved units.
type StockKeeper interface {
	Release(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID *uuid.UUID) error
	Confirm(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID *uuid.UUID) error
}

// InitiatePaymentInput starts a hosted checkout for an order.
type InitiatePaymentInput struct {
	OrderID     uuid.UUID `json:"order_id" validate:"required"`
	PhoneNumber string    `json:"phone_number"`
}

// DirectPaymentInput pushes a wallet debit without the hosted page.
type DirectPaymentInput struct {
	OrderID       uuid.UUID `json:"order_id" validate:"required"`
	PhoneNumber   string    `json:"phone_number" validate:"required"`
	PaymentMethod string    `json:"payment_method" validate:"required"`
}

// PaymentInitiation is what the API hands back to redirect the buyer.
type PaymentInitiation struct {
	Payment     *models.Payment `json:"payment"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
}

// RequestRefundInput opens a refund case against a completed payment.
type RequestRefundInput struct {
	PaymentID uuid.UUID       `json:"payment_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Reason    string          `json:"reason" validate:"required"`
}

// Service drives the payment and refund lifecycle.
type Service interface {
	InitiateOrderPayment(ctx context.Context, userID uuid.UUID, input InitiatePaymentInput) (*PaymentInitiation, error)
	DirectPayment(ctx context.Context, userID uuid.UUID, input DirectPaymentInput) (*PaymentInitiation, error)
	SyncOrderStatus(ctx context.Context, orderID uuid.UUID, txID string) (*models.Payment, error)
	ApplyGatewayStatus(ctx context.Context, paymentID uuid.UUID, gatewayStatus string, raw map[string]any) (*models.Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)

	RequestRefund(ctx context.Context, userID uuid.UUID, input RequestRefundInput) (*models.Refund, error)
	ApproveRefund(ctx context.Context, refundID uuid.UUID) (*models.Refund, error)
	RejectRefund(ctx context.Context, refundID uuid.UUID) (*models.Refund, error)
	ExecuteRefund(ctx context.Context, refundID uuid.UUID) (*models.Refund, error)
	SyncRefundStatus(ctx context.Context, refundID uuid.UUID, gatewayStatus string) (*models.Refund, error)
	FindRefundByReference(ctx context.Context, reference string) (*models.Refund, error)
	ListRefunds(ctx context.Context, paymentID uuid.UUID) ([]models.Refund, error)
}

type service struct {
	repo    Repository
	orders  orders.Repository
	tx      txRunner
	outbox  outboxPublisher
	gateway Gateway
	stock   StockKeeper
	cfg     config.SantimPayConfig
	logg    *logger.Logger
}

// NewService builds the payment lifecycle service.
func NewService(
	repo Repository,
	orderRepo orders.Repository,
	tx txRunner,
	ob outboxPublisher,
	gateway Gateway,
	stock StockKeeper,
	cfg config.SantimPayConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock keeper required")
	}
	return &service{
		repo:    repo,
		orders:  orderRepo,
		tx:      tx,
		outbox:  ob,
		gateway: gateway,
		stock:   stock,
		cfg:     cfg,
		logg:    logg,
	}, nil
}

func (s *service) InitiateOrderPayment(ctx context.Context, userID uuid.UUID, input InitiatePaymentInput) (*PaymentInitiation, error) {
	order, err := s.loadPayableOrder(ctx, userID, input.OrderID)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:       uuid.New(),
		OrderID:  order.ID,
		UserID:   order.UserID,
		Amount:   order.TotalAmount,
		Currency: "ETB",
		Status:   enums.PaymentStatusPending,
		Provider: ProviderSantimPay,
	}
	reference := payment.ID.String()
	payment.ProviderReference = &reference

	// The pending row goes in before the gateway is called so a webhook
	// always finds a payment to attach to. A failed call leaves a stale
	// PENDING row the buyer can simply retry past.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		return s.orders.WithTx(tx).UpdateOrder(ctx, order.ID, map[string]any{
			"payment_method":    ProviderSantimPay,
			"payment_reference": reference,
		})
	})
	if err != nil {
		return nil, err
	}

	checkoutURL, err := s.gateway.GeneratePaymentURL(ctx, santimpay.CheckoutRequest{
		TransactionID: reference,
		Amount:        order.TotalAmount,
		Reason:        fmt.Sprintf("Order %s", order.OrderNumber),
		SuccessURL:    s.cfg.SuccessURL,
		FailureURL:    s.cfg.FailureURL,
		CancelURL:     s.cfg.FailureURL,
		NotifyURL:     s.cfg.NotifyURL,
		PhoneNumber:   input.PhoneNumber,
	})
	if err != nil {
		return nil, err
	}

	return &PaymentInitiation{Payment: payment, CheckoutURL: checkoutURL}, nil
}

func (s *service) DirectPayment(ctx context.Context, userID uuid.UUID, input DirectPaymentInput) (*PaymentInitiation, error) {
	if input.PhoneNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number required")
	}
	if input.PaymentMethod == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method required")
	}
	order, err := s.loadPayableOrder(ctx, userID, input.OrderID)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:       uuid.New(),
		OrderID:  order.ID,
		UserID:   order.UserID,
		Amount:   order.TotalAmount,
		Currency: "ETB",
		Status:   enums.PaymentStatusPending,
		Provider: ProviderSantimPay,
		Metadata: types.JSONMap{
			"payment_method": input.PaymentMethod,
			"phone_number":   input.PhoneNumber,
		},
	}
	reference := payment.ID.String()
	payment.ProviderReference = &reference

	// Same ordering as the hosted flow: the row exists before the wallet
	// is debited, so a dropped response still leaves a payment the
	// webhook can resolve.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		return s.orders.WithTx(tx).UpdateOrder(ctx, order.ID, map[string]any{
			"payment_method":    ProviderSantimPay,
			"payment_reference": reference,
		})
	})
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.DirectPayment(ctx, santimpay.DirectPaymentRequest{
		TransactionID: reference,
		Amount:        order.TotalAmount,
		Reason:        fmt.Sprintf("Order %s", order.OrderNumber),
		PhoneNumber:   input.PhoneNumber,
		PaymentMethod: input.PaymentMethod,
		NotifyURL:     s.cfg.NotifyURL,
	})
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"status": enums.PaymentStatusProcessing}
	if result.RefID != "" {
		payment.Metadata["provider_ref_id"] = result.RefID
		updates["metadata"] = payment.Metadata
	}
	if err := s.repo.UpdatePayment(ctx, payment.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
	}
	payment.Status = enums.PaymentStatusProcessing
	return &PaymentInitiation{Payment: payment}, nil
}

func (s *service) loadPayableOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if userID != uuid.Nil && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}
	return order, nil
}

// SyncOrderStatus asks the gateway for the transaction's current state and
// folds the answer into the payment and order rows.
func (s *service) SyncOrderStatus(ctx context.Context, orderID uuid.UUID, txID string) (*models.Payment, error) {
	if txID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	payment, err := s.repo.FindPaymentByReference(ctx, txID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if orderID != uuid.Nil && payment.OrderID != orderID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction does not belong to order")
	}

	result, err := s.gateway.CheckTransactionStatus(ctx, txID)
	if err != nil {
		return nil, err
	}
	return s.ApplyGatewayStatus(ctx, payment.ID, result.Status, result.Raw)
}

// ApplyGatewayStatus folds a provider status report into the payment state
// machine. Unknown vocabulary and transitions outside the table are dropped
// silently so webhook redeliveries stay idempotent.
func (s *service) ApplyGatewayStatus(ctx context.Context, paymentID uuid.UUID, gatewayStatus string, raw map[string]any) (*models.Payment, error) {
	target, known := enums.NormalizeGatewayPaymentStatus(gatewayStatus)
	if !known {
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("ignoring unrecognized gateway status %q", gatewayStatus))
		}
		return s.GetPayment(ctx, paymentID)
	}

	var applied *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payment, err := repo.FindPaymentLocked(ctx, paymentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if payment == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		applied = payment

		if payment.Status == target || !payment.Status.CanTransitionTo(target) {
			return nil
		}

		updates := map[string]any{"status": target}
		if target == enums.PaymentStatusCompleted {
			now := time.Now()
			updates["completed_at"] = now
			payment.CompletedAt = &now
		}
		if err := repo.UpdatePayment(ctx, payment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}
		payment.Status = target

		switch target {
		case enums.PaymentStatusCompleted:
			if err := s.emitPaymentEvent(ctx, tx, payment, enums.EventPaymentCompleted); err != nil {
				return err
			}
			return s.markOrderPaid(ctx, tx, payment)
		case enums.PaymentStatusFailed:
			if err := s.emitPaymentEvent(ctx, tx, payment, enums.EventPaymentFailed); err != nil {
				return err
			}
			return s.cancelUnpaidOrder(ctx, tx, payment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// markOrderPaid flips a pending order to paid and burns its reservation.
func (s *service) markOrderPaid(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	repo := s.orders.WithTx(tx)

	order, err := repo.FindByIDLocked(ctx, payment.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusPending {
		return nil
	}

	full, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}
	per := itemsPerVariant(full.Items)
	for _, variantID := range sortedVariantIDs(per) {
		if err := s.stock.Confirm(ctx, tx, variantID, per[variantID], &order.ID); err != nil {
			return err
		}
	}

	if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"status": enums.OrderStatusPaid}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}
	order.Status = enums.OrderStatusPaid
	return s.emitOrderEvent(ctx, tx, full, enums.EventOrderPaid, enums.OrderStatusPaid)
}

// cancelUnpaidOrder releases reserved stock when the only payment attempt
// fails while the order is still pending.
func (s *service) cancelUnpaidOrder(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	repo := s.orders.WithTx(tx)

	order, err := repo.FindByIDLocked(ctx, payment.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusPending {
		return nil
	}

	full, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}
	per := itemsPerVariant(full.Items)
	for _, variantID := range sortedVariantIDs(per) {
		variant, err := repo.FindVariant(ctx, variantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}
		if variant == nil {
			if s.logg != nil {
				s.logg.Warn(ctx, "skipping stock release for deleted variant")
			}
			continue
		}
		if err := s.stock.Release(ctx, tx, variantID, per[variantID], &order.ID); err != nil {
			return err
		}
	}

	now := time.Now()
	if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
		"status":       enums.OrderStatusCancelled,
		"cancelled_at": now,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	return s.emitOrderEvent(ctx, tx, full, enums.EventOrderCancelled, enums.OrderStatusCancelled)
}

// itemsPerVariant aggregates line quantities per variant.
func itemsPerVariant(items []models.OrderItem) map[uuid.UUID]int {
	per := map[uuid.UUID]int{}
	for _, item := range items {
		if item.VariantID == nil {
			continue
		}
		per[*item.VariantID] += item.Quantity
	}
	return per
}

func sortedVariantIDs(per map[uuid.UUID]int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(per))
	for id := range per {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func (s *service) emitPaymentEvent(ctx context.Context, tx *gorm.DB, payment *models.Payment, eventType enums.OutboxEventType) error {
	reference := ""
	if payment.ProviderReference != nil {
		reference = *payment.ProviderReference
	}
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayment,
		AggregateID:   payment.ID,
		Version:       1,
		Data: outbox.PaymentEventData{
			PaymentID:         payment.ID,
			OrderID:           payment.OrderID,
			Amount:            payment.Amount,
			Currency:          payment.Currency,
			Status:            string(payment.Status),
			ProviderReference: reference,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payment event")
	}
	return nil
}

func (s *service) emitOrderEvent(ctx context.Context, tx *gorm.DB, order *models.Order, eventType enums.OutboxEventType, status enums.OrderStatus) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data: outbox.OrderEventData{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			ShopID:      order.ShopID,
			Status:      string(status),
			TotalAmount: order.TotalAmount,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order event")
	}
	return nil
}

func (s *service) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindPayment(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return payment, nil
}

func (s *service) FindPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	payment, err := s.repo.FindPaymentByReference(ctx, reference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}
