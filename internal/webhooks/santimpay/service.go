package santimpaywebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
	"github.com/sooqly/sooqly-backend/pkg/metrics"
	"github.com/sooqly/sooqly-backend/pkg/santimpay"
	"github.com/sooqly/sooqly-backend/pkg/types"
)

// Event is the gateway's transaction status callback. SantimPay is not
// consistent about key casing across endpoints, so ParseEvent folds the
// known variants into one shape.
type Event struct {
	TransactionID string  `json:"txnId"`
	ThirdPartyID  string  `json:"thirdPartyId"`
	ClientRef     string  `json:"clientReference"`
	Status        string  `json:"Status"`
	RefID         string  `json:"refId"`
	Message       string  `json:"message"`
	TotalAmount   float64 `json:"totalAmount"`
	PaymentVia    string  `json:"paymentVia"`

	Raw types.JSONMap `json:"-"`
}

// Reference is the identifier the platform sent with the original gateway
// request. It matches payments.provider_reference or refunds.provider_reference.
func (e *Event) Reference() string {
	if e.TransactionID != "" {
		return e.TransactionID
	}
	if e.ClientRef != "" {
		return e.ClientRef
	}
	return e.ThirdPartyID
}

// ParseEvent decodes a raw webhook body into an Event, keeping the full
// payload for the audit log.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload")
	}
	var raw types.JSONMap
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload")
	}
	event.Raw = raw
	if event.Status == "" {
		if v, ok := raw["status"].(string); ok {
			event.Status = v
		}
	}
	return &event, nil
}

type paymentProcessor interface {
	FindPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)
	ApplyGatewayStatus(ctx context.Context, paymentID uuid.UUID, gatewayStatus string, raw map[string]any) (*models.Payment, error)
	FindRefundByReference(ctx context.Context, reference string) (*models.Refund, error)
	SyncRefundStatus(ctx context.Context, refundID uuid.UUID, gatewayStatus string) (*models.Refund, error)
}

type shipmentBooker interface {
	CreateShipmentForOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error)
}

type ServiceParams struct {
	Payments paymentProcessor
	Shipping shipmentBooker
	Logs     LogRepository
	Metrics  *metrics.WorkflowMetrics
	Logger   *logger.Logger
}

// Service folds SantimPay transaction callbacks into the payment and
// refund state machines. Redeliveries are no-ops past the state table,
// so the whole path is safe under at-least-once delivery.
type Service struct {
	payments paymentProcessor
	shipping shipmentBooker
	logs     LogRepository
	metrics  *metrics.WorkflowMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, fmt.Errorf("payment processor required")
	}
	if params.Logs == nil {
		return nil, fmt.Errorf("webhook log repository required")
	}
	return &Service{
		payments: params.Payments,
		shipping: params.Shipping,
		logs:     params.Logs,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// HandleEvent records the callback and routes it to the matching payment
// or refund. Unmatched references return NOT_FOUND so the gateway's retry
// queue drains instead of hammering a transaction this platform never made.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	start := time.Now()

	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook event required")
	}
	reference := event.Reference()
	if reference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook transaction id missing")
	}

	log := &models.WebhookLog{
		ID:        uuid.New(),
		Provider:  santimpay.ProviderName,
		EventType: "transaction_status",
		Reference: reference,
		Payload:   event.Raw,
	}
	if err := s.logs.Create(ctx, log); err != nil {
		// The audit row is best effort. Processing continues without it.
		s.logError(ctx, "recording webhook log", err)
		log = nil
	}

	outcome, err := s.route(ctx, event, reference)
	s.metrics.ObserveWebhook(santimpay.ProviderName, outcome, time.Since(start))

	if log != nil {
		if err != nil {
			if markErr := s.logs.MarkFailed(ctx, log.ID, err.Error()); markErr != nil {
				s.logError(ctx, "marking webhook log failed", markErr)
			}
		} else if markErr := s.logs.MarkProcessed(ctx, log.ID); markErr != nil {
			s.logError(ctx, "marking webhook log processed", markErr)
		}
	}
	return err
}

func (s *Service) route(ctx context.Context, event *Event, reference string) (string, error) {
	payment, err := s.payments.FindPaymentByReference(ctx, reference)
	if err != nil {
		return "failed", err
	}
	if payment != nil {
		if err := s.applyPaymentStatus(ctx, event, payment); err != nil {
			return "failed", err
		}
		return "processed", nil
	}

	refund, err := s.payments.FindRefundByReference(ctx, reference)
	if err != nil {
		return "failed", err
	}
	if refund != nil {
		if _, err := s.payments.SyncRefundStatus(ctx, refund.ID, event.Status); err != nil {
			return "failed", err
		}
		return "processed", nil
	}

	return "unmatched", pkgerrors.New(pkgerrors.CodeNotFound, "no payment or refund matches transaction")
}

func (s *Service) applyPaymentStatus(ctx context.Context, event *Event, payment *models.Payment) error {
	prior := payment.Status

	applied, err := s.payments.ApplyGatewayStatus(ctx, payment.ID, event.Status, event.Raw)
	if err != nil {
		return err
	}

	// Book logistics once, on the edge into COMPLETED. A courier outage
	// must not fail the webhook; the money movement is already recorded.
	if s.shipping != nil && prior != enums.PaymentStatusCompleted && applied.Status == enums.PaymentStatusCompleted {
		if _, shipErr := s.shipping.CreateShipmentForOrder(ctx, applied.OrderID); shipErr != nil {
			s.logError(ctx, "creating shipment after payment", shipErr)
		}
	}
	return nil
}

func (s *Service) logError(ctx context.Context, msg string, err error) {
	if s.logg != nil {
		s.logg.Error(ctx, msg, err)
	}
}
