package settlement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/money"
	"github.com/sooqly/sooqly-backend/pkg/outbox"
	"github.com/sooqly/sooqly-backend/pkg/santimpay"
	"github.com/sooqly/sooqly-backend/pkg/types"
)

// RequestUserPayout pays out one beneficiary's earnings from one payment.
func (s *service) RequestUserPayout(ctx context.Context, userID, paymentID uuid.UUID) (*models.PayoutRequest, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	return s.executePayout(ctx, userID, &paymentID)
}

// RequestTotalUserPayout pays out everything the beneficiary has available
// across payments.
func (s *service) RequestTotalUserPayout(ctx context.Context, userID uuid.UUID) (*models.PayoutRequest, error) {
	return s.executePayout(ctx, userID, nil)
}

// SettleSplitPayout pays every unpaid allocation of a payment in one pass.
func (s *service) SettleSplitPayout(ctx context.Context, paymentID uuid.UUID) ([]models.PayoutRequest, error) {
	settlement, err := s.GetSettlement(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	var requests []models.PayoutRequest
	for _, allocation := range settlement.Allocations {
		if !allocation.Amount.IsPositive() || allocation.Status == "COMPLETED" {
			continue
		}
		request, err := s.RequestUserPayout(ctx, allocation.UserID, paymentID)
		if err != nil {
			return requests, err
		}
		requests = append(requests, *request)
	}
	return requests, nil
}

// executePayout claims earnings under lock, calls the gateway outside the
// lock, then records the outcome. A gateway failure marks the request
// FAILED and releases the claim so earnings stay available.
func (s *service) executePayout(ctx context.Context, userID uuid.UUID, paymentID *uuid.UUID) (*models.PayoutRequest, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var request *models.PayoutRequest
	var claimed []uuid.UUID
	claimedPayments := map[uuid.UUID]struct{}{}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		earnings, err := repo.LockAvailableEarnings(ctx, userID, paymentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock earnings")
		}
		if len(earnings) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "no available earnings")
		}

		total := decimal.Zero
		for _, earning := range earnings {
			total = total.Add(earning.Amount)
			claimed = append(claimed, earning.ID)
			claimedPayments[earning.PaymentID] = struct{}{}
		}
		total = money.Round(total)
		if !total.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "no available earnings")
		}

		user, err := repo.FindUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load beneficiary")
		}
		if user == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "beneficiary not found")
		}
		method, account, err := s.resolveDestination(ctx, repo, user)
		if err != nil {
			return err
		}

		request = &models.PayoutRequest{
			ID:            uuid.New(),
			UserID:        userID,
			PaymentID:     paymentID,
			Amount:        total,
			Status:        enums.PayoutStatusProcessing,
			PayoutMethod:  method,
			PayoutAccount: account,
			Metadata:      types.JSONMap{},
		}
		if paymentID != nil {
			if settlement, err := repo.FindByPayment(ctx, *paymentID); err == nil && settlement != nil {
				orderID := settlement.OrderID
				request.OrderID = &orderID
			}
		}
		if err := repo.CreatePayoutRequest(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout request")
		}

		// Claim the earnings so a concurrent payout cannot double-pay.
		if err := repo.UpdateEarnings(ctx, claimed, map[string]any{
			"payout_request_id": request.ID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim earnings")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPayoutRequested,
			AggregateType: enums.AggregatePayout,
			AggregateID:   request.ID,
			Version:       1,
			Data: outbox.PayoutEventData{
				PayoutRequestID: request.ID,
				UserID:          userID,
				Amount:          total,
				Status:          string(request.Status),
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	// Gateway call after the claim transaction commits; no row lock is
	// held across the network.
	result, gatewayErr := s.gateway.SendToCustomer(ctx, santimpay.TransferRequest{
		TransactionID: request.ID.String(),
		Amount:        request.Amount,
		Reason:        fmt.Sprintf("Payout for %s", request.UserID),
		AccountNumber: request.PayoutAccount,
		PaymentMethod: string(request.PayoutMethod),
	})

	if gatewayErr != nil {
		s.countPayout("failed")
		if failErr := s.failPayout(ctx, request, claimed, gatewayErr); failErr != nil && s.logg != nil {
			s.logg.Error(ctx, "recording failed payout", failErr)
		}
		return nil, gatewayErr
	}

	if err := s.completePayout(ctx, request, claimed, claimedPayments, result.RefID); err != nil {
		return nil, err
	}
	s.countPayout("completed")
	return request, nil
}

func (s *service) failPayout(ctx context.Context, request *models.PayoutRequest, claimed []uuid.UUID, cause error) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdatePayoutRequest(ctx, request.ID, map[string]any{
			"status":   enums.PayoutStatusFailed,
			"metadata": types.JSONMap{"error": cause.Error()},
		}); err != nil {
			return err
		}
		// Release the claim; the earnings go back to AVAILABLE.
		return repo.UpdateEarnings(ctx, claimed, map[string]any{
			"payout_request_id": nil,
		})
	})
}

func (s *service) completePayout(ctx context.Context, request *models.PayoutRequest, claimed []uuid.UUID, paymentIDs map[uuid.UUID]struct{}, providerRef string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		updates := map[string]any{"status": enums.PayoutStatusCompleted}
		if providerRef != "" {
			updates["provider_reference"] = providerRef
		}
		if err := repo.UpdatePayoutRequest(ctx, request.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete payout request")
		}
		request.Status = enums.PayoutStatusCompleted

		if err := repo.UpdateEarnings(ctx, claimed, map[string]any{
			"status": enums.EarningStatusPaidOut,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark earnings paid")
		}

		if err := s.markAllocationsPaid(ctx, repo, request, paymentIDs); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPayoutCompleted,
			AggregateType: enums.AggregatePayout,
			AggregateID:   request.ID,
			Version:       1,
			Data: outbox.PayoutEventData{
				PayoutRequestID: request.ID,
				UserID:          request.UserID,
				Amount:          request.Amount,
				Status:          string(enums.PayoutStatusCompleted),
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

// markAllocationsPaid updates the settlement snapshots touched by the
// payout and advances each to processed once every positive allocation
// has been paid out.
func (s *service) markAllocationsPaid(ctx context.Context, repo Repository, request *models.PayoutRequest, paymentIDs map[uuid.UUID]struct{}) error {
	for paymentID := range paymentIDs {
		settlement, err := repo.FindByPaymentLocked(ctx, paymentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settlement")
		}
		if settlement == nil {
			continue
		}

		allPaid := true
		requestID := request.ID
		for i := range settlement.Allocations {
			allocation := &settlement.Allocations[i]
			if allocation.UserID == request.UserID && allocation.Status != "COMPLETED" {
				allocation.Status = "COMPLETED"
				allocation.PayoutRequestID = &requestID
			}
			if allocation.Amount.IsPositive() && allocation.Status != "COMPLETED" {
				allPaid = false
			}
		}

		updates := map[string]any{"allocations": settlement.Allocations}
		if allPaid && !settlement.State.AtLeast(enums.SettlementStateProcessed) {
			updates["state"] = enums.SettlementStateProcessed
		}
		if err := repo.UpdateSettlement(ctx, settlement.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update settlement allocations")
		}
	}
	return nil
}

// resolveDestination picks where the money goes: saved payout methods
// (bank before mobile, oldest first), then the user's bank account, then
// their phone with the configured default wallet.
func (s *service) resolveDestination(ctx context.Context, repo Repository, user *models.User) (enums.PayoutMethodType, string, error) {
	methods, err := repo.ListPayoutMethods(ctx, user.ID)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payout methods")
	}

	pick := func(mobile bool) (enums.PayoutMethodType, string, bool) {
		for _, method := range methods {
			if method.Type.IsMobile() != mobile {
				continue
			}
			if mobile {
				if method.PhoneNumber != nil && *method.PhoneNumber != "" {
					return method.Type, *method.PhoneNumber, true
				}
				continue
			}
			if method.AccountNumber != nil && *method.AccountNumber != "" {
				return method.Type, *method.AccountNumber, true
			}
		}
		return "", "", false
	}

	if methodType, account, ok := pick(false); ok {
		return methodType, account, nil
	}
	if methodType, account, ok := pick(true); ok {
		return methodType, account, nil
	}
	if user.BankAccountNumber != nil && *user.BankAccountNumber != "" {
		return enums.PayoutMethodBank, *user.BankAccountNumber, nil
	}
	if user.Phone != nil && *user.Phone != "" {
		return s.mobile, *user.Phone, nil
	}
	return "", "", pkgerrors.New(pkgerrors.CodeConfiguration, "no payout destination configured").
		WithDetails(map[string]any{"user_id": user.ID.String()})
}
