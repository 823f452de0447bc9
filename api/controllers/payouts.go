package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sooqly/sooqly-backend/api/middleware"
	"github.com/sooqly/sooqly-backend/api/responses"
	"github.com/sooqly/sooqly-backend/api/validators"
	"github.com/sooqly/sooqly-backend/internal/settlement"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
)

// PayoutRequest pays out the caller's earnings. With a payment_id in the
// body the payout is scoped to one settlement; without it every available
// earning is swept.
func PayoutRequest(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		var input struct {
			PaymentID *uuid.UUID `json:"payment_id"`
		}
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		var (
			request any
			err     error
		)
		if input.PaymentID != nil {
			request, err = svc.RequestUserPayout(r.Context(), userID, *input.PaymentID)
		} else {
			request, err = svc.RequestTotalUserPayout(r.Context(), userID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// PayoutHistory lists the caller's payout requests, newest first.
func PayoutHistory(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		list, err := svc.ListPayoutRequests(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// SettlementDetail returns the split recorded for a payment.
func SettlementDetail(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		paymentID, err := validators.ParsePathUUID(chi.URLParam(r, "paymentId"), "payment id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetSettlement(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// SettlementPayoutAll pays every positive allocation of a settlement in
// one pass. Operations path.
func SettlementPayoutAll(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		paymentID, err := validators.ParsePathUUID(chi.URLParam(r, "paymentId"), "payment id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requests, err := svc.SettleSplitPayout(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requests)
	}
}
