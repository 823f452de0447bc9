package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sooqly/sooqly-backend/api/responses"
	"github.com/sooqly/sooqly-backend/internal/shipping"
	"github.com/sooqly/sooqly-backend/pkg/db/models"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
)

const courierSecretHeader = "X-Webhook-Secret"

type CourierWebhookService interface {
	ProcessCourierWebhook(ctx context.Context, input shipping.CourierWebhookInput) (*models.Shipment, error)
}

type courierEventBody struct {
	TrackingID string `json:"tracking_id"`
	ShipmentID string `json:"shipment_id"`
	Status     string `json:"status"`
	Event      string `json:"event"`
}

// CourierWebhook handles shipment status callbacks from logistics partners.
// The partner is identified by the provider code in the path and, when the
// partner record carries a shared secret, authenticated by header.
func CourierWebhook(svc CourierWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		providerCode := strings.TrimSpace(chi.URLParam(r, "providerCode"))
		if providerCode == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "provider code is required"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		var body courierEventBody
		if err := json.Unmarshal(payload, &body); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload"))
			return
		}
		var raw map[string]any
		if err := json.Unmarshal(payload, &raw); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload"))
			return
		}

		shipment, err := svc.ProcessCourierWebhook(ctx, shipping.CourierWebhookInput{
			ProviderCode: providerCode,
			Secret:       r.Header.Get(courierSecretHeader),
			TrackingID:   body.TrackingID,
			ShipmentID:   body.ShipmentID,
			Status:       body.Status,
			Event:        body.Event,
			Payload:      raw,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}
