package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
)

// CourierBooking is the provider's answer to a shipment creation call.
type CourierBooking struct {
	ShipmentID string
	TrackingID string
}

// CourierAdapter books shipments with a partner's API.
type CourierAdapter interface {
	Book(ctx context.Context, partner *models.CourierPartner, order *models.Order) (CourierBooking, error)
}

type httpCourierAdapter struct {
	client *http.Client
}

// NewCourierAdapter builds the HTTP adapter with a bounded timeout.
func NewCourierAdapter(timeout time.Duration) CourierAdapter {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &httpCourierAdapter{client: &http.Client{Timeout: timeout}}
}

// Book creates the shipment with the partner. Partners without an API base
// URL get a locally generated tracking id so manual couriers still work.
func (a *httpCourierAdapter) Book(ctx context.Context, partner *models.CourierPartner, order *models.Order) (CourierBooking, error) {
	if strings.TrimSpace(partner.APIBaseURL) == "" {
		return CourierBooking{
			TrackingID: fmt.Sprintf("TRK-%s", strings.ToUpper(uuid.NewString()[:12])),
		}, nil
	}

	payload := map[string]any{
		"reference":    order.OrderNumber,
		"order_id":     order.ID.String(),
		"total_amount": order.TotalAmount.StringFixed(2),
	}
	if order.DeliveryAddress != nil {
		payload["delivery_address"] = *order.DeliveryAddress
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return CourierBooking{}, err
	}

	url := strings.TrimRight(partner.APIBaseURL, "/") + "/shipments"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return CourierBooking{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+partner.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return CourierBooking{}, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "courier request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return CourierBooking{}, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "reading courier response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CourierBooking{}, pkgerrors.New(pkgerrors.CodeGateway, "courier rejected shipment").
			WithDetails(map[string]any{
				"status": resp.StatusCode,
				"body":   string(raw),
			})
	}

	var parsed struct {
		ShipmentID string `json:"shipment_id"`
		TrackingID string `json:"tracking_id"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return CourierBooking{}, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "parsing courier response")
	}
	if parsed.TrackingID == "" {
		return CourierBooking{}, pkgerrors.New(pkgerrors.CodeGateway, "courier returned no tracking id")
	}
	return CourierBooking{ShipmentID: parsed.ShipmentID, TrackingID: parsed.TrackingID}, nil
}
