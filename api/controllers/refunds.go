package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sooqly/sooqly-backend/api/middleware"
	"github.com/sooqly/sooqly-backend/api/responses"
	"github.com/sooqly/sooqly-backend/api/validators"
	"github.com/sooqly/sooqly-backend/internal/payments"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
)

// RefundRequest opens a refund case against a completed payment.
func RefundRequest(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var input payments.RequestRefundInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refund, err := svc.RequestRefund(r.Context(), middleware.UserIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, refund)
	}
}

// RefundApprove moves a requested refund to APPROVED.
func RefundApprove(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return refundDecision(svc, logg, svcApprove)
}

// RefundReject closes a requested refund without paying it.
func RefundReject(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return refundDecision(svc, logg, svcReject)
}

// RefundExecute sends an approved refund to the gateway.
func RefundExecute(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return refundDecision(svc, logg, svcExecute)
}

type refundAction int

const (
	svcApprove refundAction = iota
	svcReject
	svcExecute
)

func refundDecision(svc payments.Service, logg *logger.Logger, action refundAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		refundID, err := validators.ParsePathUUID(chi.URLParam(r, "refundId"), "refund id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var refund any
		switch action {
		case svcApprove:
			refund, err = svc.ApproveRefund(r.Context(), refundID)
		case svcReject:
			refund, err = svc.RejectRefund(r.Context(), refundID)
		case svcExecute:
			refund, err = svc.ExecuteRefund(r.Context(), refundID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, refund)
	}
}

// RefundList returns every refund recorded against a payment.
func RefundList(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		paymentID, err := validators.ParsePathUUID(chi.URLParam(r, "paymentId"), "payment id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refunds, err := svc.ListRefunds(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, refunds)
	}
}
