// Package orderevents consumes order lifecycle events from Pub/Sub and
// drives the post-delivery workflow: marketer commission approval,
// settlement preparation, and customer notifications.
package orderevents

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	"github.com/sooqly/sooqly-backend/pkg/logger"
	"github.com/sooqly/sooqly-backend/pkg/outbox"
	"github.com/sooqly/sooqly-backend/pkg/outbox/idempotency"
)

const deliveryConsumerName = "order-delivery"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type commissionApprover interface {
	ApproveForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error)
}

type settlementEngine interface {
	PrepareSplitSettlement(ctx context.Context, paymentID uuid.UUID) (*models.Settlement, error)
	RecordSettlementEarnings(ctx context.Context, paymentID uuid.UUID) (*models.Settlement, error)
}

type paymentLister interface {
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, payload map[string]any)
}

// Consumer reacts to order_delivered events. Settlement preparation is
// idempotent on its own (unique settlement per payment), so a redelivered
// event past the redis guard still converges.
type Consumer struct {
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	runner       txRunner
	marketer     commissionApprover
	settlement   settlementEngine
	payments     paymentLister
	notify       notifier
	logg         *logger.Logger
}

type ConsumerParams struct {
	Subscription *pubsub.Subscriber
	Idempotency  *idempotency.Manager
	Runner       txRunner
	Marketer     commissionApprover
	Settlement   settlementEngine
	Payments     paymentLister
	Notifier     notifier
	Logger       *logger.Logger
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Subscription == nil {
		return nil, fmt.Errorf("order subscription required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Marketer == nil {
		return nil, fmt.Errorf("marketer service required")
	}
	if params.Settlement == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: params.Subscription,
		idempotency:  params.Idempotency,
		runner:       params.Runner,
		marketer:     params.Marketer,
		settlement:   params.Settlement,
		payments:     params.Payments,
		notify:       params.Notifier,
		logg:         params.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventOrderDelivered) {
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, deliveryConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload outbox.OrderEventData
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, deliveryConsumerName, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"order_id":     payload.OrderID.String(),
		"order_number": payload.OrderNumber,
	})

	if err := c.handleDelivered(ctx, payload, logCtx); err != nil {
		c.logg.Error(logCtx, "delivery workflow failed", err)
		_ = c.idempotency.Delete(ctx, deliveryConsumerName, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) handleDelivered(ctx context.Context, payload outbox.OrderEventData, logCtx context.Context) error {
	if payload.OrderID == uuid.Nil {
		return fmt.Errorf("order id missing")
	}

	err := c.runner.WithTx(ctx, func(tx *gorm.DB) error {
		approved, err := c.marketer.ApproveForOrder(ctx, tx, payload.OrderID)
		if err != nil {
			return fmt.Errorf("approve commissions: %w", err)
		}
		if approved > 0 {
			c.logg.Info(c.logg.WithField(logCtx, "approved_commissions", approved), "marketer commissions approved")
		}
		return nil
	})
	if err != nil {
		return err
	}

	payment, err := c.completedPayment(ctx, payload.OrderID)
	if err != nil {
		return err
	}
	if payment == nil {
		// Cash-free flows should never get here: delivery requires a paid
		// order. Log and ack instead of retrying forever.
		c.logg.Warn(logCtx, "delivered order has no completed payment, skipping settlement")
	} else {
		if _, err := c.settlement.PrepareSplitSettlement(ctx, payment.ID); err != nil {
			return fmt.Errorf("prepare settlement: %w", err)
		}
		if _, err := c.settlement.RecordSettlementEarnings(ctx, payment.ID); err != nil {
			return fmt.Errorf("record earnings: %w", err)
		}
	}

	if c.notify != nil && payload.UserID != uuid.Nil {
		c.notify.Notify(ctx, payload.UserID, enums.NotificationTypeOrderUpdate,
			"Order delivered",
			fmt.Sprintf("Your order %s has been delivered.", payload.OrderNumber),
			map[string]any{"order_id": payload.OrderID.String()})
	}
	return nil
}

func (c *Consumer) completedPayment(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	payments, err := c.payments.ListPaymentsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	for i := range payments {
		if payments[i].Status == enums.PaymentStatusCompleted {
			return &payments[i], nil
		}
	}
	return nil, nil
}
