package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/api/responses"
	"github.com/sooqly/sooqly-backend/api/validators"
	"github.com/sooqly/sooqly-backend/internal/inventory"
	"github.com/sooqly/sooqly-backend/pkg/db"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
)

// InventoryRestock adds returned units back to a variant's pools.
// Operations path, used once a return is physically received.
func InventoryRestock(svc inventory.Service, tx db.TxRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || tx == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var input struct {
			VariantID uuid.UUID  `json:"variant_id" validate:"required"`
			Quantity  int        `json:"quantity" validate:"required,gt=0"`
			OrderID   *uuid.UUID `json:"order_id"`
		}
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := tx.WithTx(r.Context(), func(txDB *gorm.DB) error {
			return svc.Restock(r.Context(), txDB, input.VariantID, input.Quantity, input.OrderID)
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"variant_id": input.VariantID,
			"restocked":  input.Quantity,
		})
	}
}

// InventoryAdjust applies a signed manual correction to one pool, for
// stock counts and damage writeoffs.
func InventoryAdjust(svc inventory.Service, tx db.TxRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || tx == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var input struct {
			InventoryID uuid.UUID `json:"inventory_id" validate:"required"`
			Delta       int       `json:"delta" validate:"required"`
			Reason      string    `json:"reason" validate:"required"`
		}
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := tx.WithTx(r.Context(), func(txDB *gorm.DB) error {
			return svc.Adjust(r.Context(), txDB, input.InventoryID, input.Delta, input.Reason)
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"inventory_id": input.InventoryID,
			"delta":        input.Delta,
		})
	}
}
