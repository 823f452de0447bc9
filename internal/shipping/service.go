package shipping

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/internal/orders"
	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
	"github.com/sooqly/sooqly-backend/pkg/outbox"
	"github.com/sooqly/sooqly-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CourierWebhookInput is one tracking callback from a courier partner.
type CourierWebhookInput struct {
	ProviderCode string
	Secret       string
	TrackingID   string
	ShipmentID   string
	Status       string
	Event        string
	Payload      map[string]any
}

// Service books shipments and folds courier callbacks into order state.
type Service interface {
	CreateShipmentForOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error)
	ProcessCourierWebhook(ctx context.Context, input CourierWebhookInput) (*models.Shipment, error)
	GetShipmentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error)
}

type service struct {
	repo    Repository
	orders  orders.Repository
	tx      txRunner
	outbox  outboxPublisher
	adapter CourierAdapter
	logg    *logger.Logger
}

// NewService builds the shipping orchestrator.
func NewService(
	repo Repository,
	orderRepo orders.Repository,
	tx txRunner,
	ob outboxPublisher,
	adapter CourierAdapter,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping repository required")
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
	if adapter == nil {
		return nil, fmt.Errorf("courier adapter required")
	}
	return &service{
		repo:    repo,
		orders:  orderRepo,
		tx:      tx,
		outbox:  ob,
		adapter: adapter,
		logg:    logg,
	}, nil
}

// CreateShipmentForOrder books the order with the highest-priority active
// partner. Idempotent: an order that already has a shipment returns it.
func (s *service) CreateShipmentForOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	existing, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	if existing != nil {
		return existing, nil
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	partner, err := s.repo.FindActivePartner(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier partner")
	}
	if partner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "no active courier partner")
	}

	booking, err := s.adapter.Book(ctx, partner, order)
	if err != nil {
		return nil, err
	}

	shipment := &models.Shipment{
		ID:        uuid.New(),
		OrderID:   order.ID,
		CourierID: partner.ID,
		Status:    enums.ShipmentStatusCreated,
	}
	if booking.TrackingID != "" {
		trackingID := booking.TrackingID
		shipment.ExternalTrackingID = &trackingID
	}
	if booking.ShipmentID != "" {
		externalID := booking.ShipmentID
		shipment.ExternalShipmentID = &externalID
	}
	if err := s.repo.CreateShipment(ctx, shipment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment")
	}
	return shipment, nil
}

// orderStatusForShipment maps a normalized courier status onto the order
// status it implies. The bool reports whether the order should move.
func orderStatusForShipment(shipment enums.ShipmentStatus, current enums.OrderStatus) (enums.OrderStatus, bool) {
	switch shipment {
	case enums.ShipmentStatusPickedUp:
		if current == enums.OrderStatusPaid || current == enums.OrderStatusConfirmed {
			return enums.OrderStatusConfirmed, current != enums.OrderStatusConfirmed
		}
		return current, false
	case enums.ShipmentStatusInTransit:
		return enums.OrderStatusProcessing, current != enums.OrderStatusProcessing && current != enums.OrderStatusDelivered
	case enums.ShipmentStatusOutForDelivery:
		return enums.OrderStatusShipped, current != enums.OrderStatusShipped && current != enums.OrderStatusDelivered
	case enums.ShipmentStatusDelivered:
		return enums.OrderStatusDelivered, current != enums.OrderStatusDelivered
	case enums.ShipmentStatusFailed, enums.ShipmentStatusCancelled:
		if current == enums.OrderStatusDelivered {
			return current, false
		}
		return enums.OrderStatusCancelled, current != enums.OrderStatusCancelled
	default:
		return current, false
	}
}

// ProcessCourierWebhook applies one tracking callback. Redeliveries are
// no-ops because both the shipment and order transitions check current
// state first.
func (s *service) ProcessCourierWebhook(ctx context.Context, input CourierWebhookInput) (*models.Shipment, error) {
	partner, err := s.repo.FindPartnerByCode(ctx, input.ProviderCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier partner")
	}
	if partner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown courier provider")
	}
	if partner.WebhookSecret != "" {
		if subtle.ConstantTimeCompare([]byte(partner.WebhookSecret), []byte(input.Secret)) != 1 {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "courier webhook secret mismatch")
		}
	}

	shipment, err := s.findShipment(ctx, input)
	if err != nil {
		return nil, err
	}

	status := enums.NormalizeShipmentStatus(input.Status)
	var updated *models.Shipment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		locked, err := repo.FindShipmentLocked(ctx, shipment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock shipment")
		}
		if locked == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		updated = locked

		shipmentChanged := locked.Status != status
		if shipmentChanged {
			updates := map[string]any{
				"status":     status,
				"last_event": input.Event,
			}
			if len(input.Payload) > 0 {
				updates["last_payload"] = types.JSONMap(input.Payload)
			}
			if err := repo.UpdateShipment(ctx, locked.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment")
			}
			locked.Status = status
		}

		if err := s.syncOrder(ctx, tx, locked, status); err != nil {
			return err
		}

		if shipmentChanged {
			event := outbox.DomainEvent{
				EventType:     enums.EventShipmentStatusChanged,
				AggregateType: enums.AggregateShipment,
				AggregateID:   locked.ID,
				Version:       1,
				Data: outbox.ShipmentEventData{
					ShipmentID: locked.ID,
					OrderID:    locked.OrderID,
					Status:     string(status),
					LastEvent:  input.Event,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit shipment event")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) findShipment(ctx context.Context, input CourierWebhookInput) (*models.Shipment, error) {
	if input.TrackingID != "" {
		shipment, err := s.repo.FindByTrackingID(ctx, input.TrackingID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if shipment != nil {
			return shipment, nil
		}
	}
	if input.ShipmentID != "" {
		shipment, err := s.repo.FindByExternalShipmentID(ctx, input.ShipmentID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if shipment != nil {
			return shipment, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
}

func (s *service) syncOrder(ctx context.Context, tx *gorm.DB, shipment *models.Shipment, status enums.ShipmentStatus) error {
	repo := s.orders.WithTx(tx)

	order, err := repo.FindByIDLocked(ctx, shipment.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	target, move := orderStatusForShipment(status, order.Status)
	if !move {
		return nil
	}

	updates := map[string]any{"status": target}
	if target == enums.OrderStatusDelivered {
		now := time.Now()
		updates["delivered_at"] = now
	}
	if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = target

	eventType := enums.EventOrderStatusChanged
	if target == enums.OrderStatusDelivered {
		eventType = enums.EventOrderDelivered
	}
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
			Status:      string(target),
			TotalAmount: order.TotalAmount,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order event")
	}
	return nil
}

func (s *service) GetShipmentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	shipment, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	if shipment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
	}
	return shipment, nil
}
