package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/outbox"
	"github.com/sooqly/sooqly-backend/pkg/santimpay"
)

// RequestRefund opens a refund case. The boundary check against the
// payment's amount happens again at execution time; this one rejects
// obviously impossible requests early.
func (s *service) RequestRefund(ctx context.Context, userID uuid.UUID, input RequestRefundInput) (*models.Refund, error) {
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund reason required")
	}

	payment, err := s.repo.FindPayment(ctx, input.PaymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if payment.Status != enums.PaymentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only completed payments can be refunded")
	}
	if err := s.checkRefundBoundary(ctx, s.repo, payment, input.Amount); err != nil {
		return nil, err
	}

	refund := &models.Refund{
		ID:          uuid.New(),
		PaymentID:   payment.ID,
		Amount:      input.Amount,
		Reason:      input.Reason,
		Status:      enums.RefundStatusRequested,
		RequestedBy: userID,
	}
	if err := s.repo.CreateRefund(ctx, refund); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund")
	}
	return refund, nil
}

func (s *service) ApproveRefund(ctx context.Context, refundID uuid.UUID) (*models.Refund, error) {
	return s.decideRefund(ctx, refundID, enums.RefundStatusApproved)
}

func (s *service) RejectRefund(ctx context.Context, refundID uuid.UUID) (*models.Refund, error) {
	return s.decideRefund(ctx, refundID, enums.RefundStatusRejected)
}

func (s *service) decideRefund(ctx context.Context, refundID uuid.UUID, target enums.RefundStatus) (*models.Refund, error) {
	var decided *models.Refund
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		refund, err := repo.FindRefundLocked(ctx, refundID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund")
		}
		if refund == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "refund not found")
		}
		if refund.Status == target {
			decided = refund
			return nil
		}
		if refund.Status != enums.RefundStatusRequested {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "refund already decided")
		}
		if err := repo.UpdateRefund(ctx, refund.ID, map[string]any{"status": target}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update refund")
		}
		refund.Status = target
		decided = refund
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decided, nil
}

// ExecuteRefund pushes an approved refund to the gateway. The transfer is
// a payout to the customer's phone; the refund sits PROCESSING until the
// provider confirms.
func (s *service) ExecuteRefund(ctx context.Context, refundID uuid.UUID) (*models.Refund, error) {
	refund, err := s.repo.FindRefund(ctx, refundID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund")
	}
	if refund == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "refund not found")
	}
	if refund.Status != enums.RefundStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "refund is not approved")
	}

	payment, err := s.repo.FindPayment(ctx, refund.PaymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if payment.Status != enums.PaymentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not refundable")
	}
	if err := s.checkRefundBoundary(ctx, s.repo, payment, refund.Amount); err != nil {
		return nil, err
	}

	user, err := s.repo.FindUser(ctx, payment.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if user == nil || user.Phone == nil || *user.Phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "customer has no refund destination")
	}

	reference := refund.ID.String()
	result, err := s.gateway.SendToCustomer(ctx, santimpay.TransferRequest{
		TransactionID: reference,
		Amount:        refund.Amount,
		Reason:        fmt.Sprintf("Refund for payment %s", payment.ID),
		AccountNumber: *user.Phone,
		PaymentMethod: "TELEBIRR",
		NotifyURL:     s.cfg.NotifyURL,
	})
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":             enums.RefundStatusProcessing,
		"provider_reference": reference,
	}
	if err := s.repo.UpdateRefund(ctx, refund.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update refund")
	}
	refund.Status = enums.RefundStatusProcessing
	refund.ProviderReference = &reference

	if s.logg != nil && result.RefID != "" {
		s.logg.Info(s.logg.WithField(ctx, "provider_ref_id", result.RefID), "refund transfer accepted")
	}
	return refund, nil
}

// SyncRefundStatus folds the gateway's answer into the refund. When the
// completed refunds reach the payment amount the payment and order flip
// to REFUNDED.
func (s *service) SyncRefundStatus(ctx context.Context, refundID uuid.UUID, gatewayStatus string) (*models.Refund, error) {
	target, known := enums.NormalizeGatewayRefundStatus(gatewayStatus)
	if !known {
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("ignoring unrecognized gateway status %q", gatewayStatus))
		}
		refund, err := s.repo.FindRefund(ctx, refundID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund")
		}
		if refund == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "refund not found")
		}
		return refund, nil
	}

	var synced *models.Refund
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		refund, err := repo.FindRefundLocked(ctx, refundID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund")
		}
		if refund == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "refund not found")
		}
		synced = refund

		if refund.Status == target || refund.Status != enums.RefundStatusProcessing {
			return nil
		}
		if target != enums.RefundStatusCompleted && target != enums.RefundStatusFailed {
			return nil
		}

		if err := repo.UpdateRefund(ctx, refund.ID, map[string]any{"status": target}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update refund")
		}
		refund.Status = target
		if target != enums.RefundStatusCompleted {
			return nil
		}

		payment, err := repo.FindPaymentLocked(ctx, refund.PaymentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if payment == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventRefundCompleted,
			AggregateType: enums.AggregateRefund,
			AggregateID:   refund.ID,
			Version:       1,
			Data: outbox.RefundEventData{
				RefundID:  refund.ID,
				PaymentID: payment.ID,
				OrderID:   payment.OrderID,
				Amount:    refund.Amount,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit refund event")
		}

		refunded, err := repo.SumCompletedRefunds(ctx, payment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum refunds")
		}
		if refunded.LessThan(payment.Amount) {
			return nil
		}
		if !payment.Status.CanTransitionTo(enums.PaymentStatusRefunded) {
			return nil
		}

		if err := repo.UpdatePayment(ctx, payment.ID, map[string]any{"status": enums.PaymentStatusRefunded}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}
		payment.Status = enums.PaymentStatusRefunded

		ordersRepo := s.orders.WithTx(tx)
		order, err := ordersRepo.FindByID(ctx, payment.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status == enums.OrderStatusRefunded {
			return nil
		}
		if err := ordersRepo.UpdateOrder(ctx, order.ID, map[string]any{"status": enums.OrderStatusRefunded}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order refunded")
		}
		return s.emitOrderEvent(ctx, tx, order, enums.EventOrderRefunded, enums.OrderStatusRefunded)
	})
	if err != nil {
		return nil, err
	}
	return synced, nil
}

// checkRefundBoundary rejects a refund that would push the payment's
// completed refunds past its collected amount.
func (s *service) checkRefundBoundary(ctx context.Context, repo Repository, payment *models.Payment, amount decimal.Decimal) error {
	refunded, err := repo.SumCompletedRefunds(ctx, payment.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum refunds")
	}
	if refunded.Add(amount).GreaterThan(payment.Amount) {
		return pkgerrors.New(pkgerrors.CodeValidation, "refund exceeds refundable amount").
			WithDetails(map[string]any{
				"payment_amount":   payment.Amount.StringFixed(2),
				"already_refunded": refunded.StringFixed(2),
				"requested":        amount.StringFixed(2),
			})
	}
	return nil
}

func (s *service) FindRefundByReference(ctx context.Context, reference string) (*models.Refund, error) {
	refund, err := s.repo.FindRefundByReference(ctx, reference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund")
	}
	return refund, nil
}

func (s *service) ListRefunds(ctx context.Context, paymentID uuid.UUID) ([]models.Refund, error) {
	refunds, err := s.repo.ListRefundsByPayment(ctx, paymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refunds")
	}
	return refunds, nil
}
