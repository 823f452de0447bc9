package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sooqly/sooqly-backend/api/middleware"
	"github.com/sooqly/sooqly-backend/api/responses"
	"github.com/sooqly/sooqly-backend/api/validators"
	"github.com/sooqly/sooqly-backend/internal/cart"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
)

// CartAddItem adds a product line to the caller's active cart for a shop.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var input cart.AddItemInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.AddItem(r.Context(), middleware.UserIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// CartList returns every active cart the caller holds across shops.
func CartList(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		carts, err := svc.ListCarts(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, carts)
	}
}

// CartFetch returns the active cart for one shop.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		shopID, err := validators.ParsePathUUID(chi.URLParam(r, "shopId"), "shop id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active, err := svc.GetActiveCart(r.Context(), middleware.UserIDFromContext(r.Context()), shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, active)
	}
}

// CartRemoveItem drops one line from the caller's active cart.
func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		shopID, err := validators.ParsePathUUID(chi.URLParam(r, "shopId"), "shop id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.RemoveItem(r.Context(), middleware.UserIDFromContext(r.Context()), shopID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}
