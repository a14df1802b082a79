package consumers

import (
	"context"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/jkiprotich/mifugo-market-backend/internal/notifications"
	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
	"github.com/jkiprotich/mifugo-market-backend/pkg/enums"
	"github.com/jkiprotich/mifugo-market-backend/pkg/logger"
	"github.com/jkiprotich/mifugo-market-backend/pkg/outbox/payloads"
	"github.com/jkiprotich/mifugo-market-backend/pkg/outbox/registry"
	"github.com/jkiprotich/mifugo-market-backend/pkg/sms"
)

// consumerName scopes idempotency markers for this subscription.
const consumerName = "orders-consumer"

type smsSender interface {
	Send(ctx context.Context, phoneNumber, message string) (*sms.SendResult, error)
}

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type subscriber interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// OrdersConsumer reacts to order lifecycle events: it writes in-app
// notification rows and sends best-effort SMS alerts. SMS failures are logged,
// never retried; notification write failures nack the message for redelivery.
type OrdersConsumer struct {
	sub           subscriber
	reg           *registry.EventRegistry
	notifications notifications.Service
	sms           smsSender
	guard         idempotencyGuard
	logg          *logger.Logger
}

// NewOrdersConsumer builds the consumer. The SMS sender may be nil when no
// provider is configured; alerts are then skipped.
func NewOrdersConsumer(
	sub subscriber,
	reg *registry.EventRegistry,
	notificationSvc notifications.Service,
	smsClient smsSender,
	guard idempotencyGuard,
	logg *logger.Logger,
) (*OrdersConsumer, error) {
	if sub == nil {
		return nil, fmt.Errorf("subscriber required")
	}
	if reg == nil {
		return nil, fmt.Errorf("event registry required")
	}
	if notificationSvc == nil {
		return nil, fmt.Errorf("notification service required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &OrdersConsumer{
		sub:           sub,
		reg:           reg,
		notifications: notificationSvc,
		sms:           smsClient,
		guard:         guard,
		logg:          logg,
	}, nil
}

// Run blocks receiving messages until the context is cancelled.
func (c *OrdersConsumer) Run(ctx context.Context) error {
	c.logg.Info(ctx, "orders consumer started")
	return c.sub.Receive(ctx, c.handle)
}

func (c *OrdersConsumer) handle(ctx context.Context, msg *pubsub.Message) {
	row := models.OutboxEvent{
		EventType:     enums.OutboxEventType(msg.Attributes["event_type"]),
		AggregateType: enums.OutboxAggregateType(msg.Attributes["aggregate_type"]),
		Payload:       msg.Data,
	}

	resolved, err := c.reg.Resolve(row)
	if err != nil {
		// Undecodable messages can never succeed; drop them.
		logCtx := c.logg.WithFields(ctx, map[string]any{"event_type": msg.Attributes["event_type"]})
		c.logg.Error(logCtx, "dropping unresolvable event", err)
		msg.Ack()
		return
	}

	eventID, err := uuid.Parse(resolved.Envelope.EventID)
	if err != nil {
		c.logg.Error(ctx, "dropping event with malformed id", err)
		msg.Ack()
		return
	}

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   eventID.String(),
		"event_type": resolved.Descriptor.EventType,
	})

	processed, err := c.guard.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		msg.Nack()
		return
	}
	if processed {
		c.logg.Info(logCtx, "event already processed, skipping")
		msg.Ack()
		return
	}

	if err := c.dispatch(ctx, resolved.Payload); err != nil {
		// Clear the marker so redelivery is not swallowed as a duplicate.
		if delErr := c.guard.Delete(ctx, consumerName, eventID); delErr != nil {
			c.logg.Error(logCtx, "failed to clear idempotency marker", delErr)
		}
		c.logg.Error(logCtx, "event handling failed", err)
		msg.Nack()
		return
	}

	c.logg.Info(logCtx, "event processed")
	msg.Ack()
}

func (c *OrdersConsumer) dispatch(ctx context.Context, payload interface{}) error {
	switch event := payload.(type) {
	case *payloads.OrderCreatedEvent:
		return c.onOrderCreated(ctx, event)
	case *payloads.OrderPaidEvent:
		return c.onOrderPaid(ctx, event)
	case *payloads.OrderStatusChangedEvent:
		return c.onStatusChanged(ctx, event)
	case *payloads.OrderCanceledEvent:
		return c.onOrderCanceled(ctx, event)
	case *payloads.PaymentFailedEvent:
		return c.onPaymentFailed(ctx, event)
	default:
		return fmt.Errorf("no handler for payload %T", payload)
	}
}

func (c *OrdersConsumer) onOrderCreated(ctx context.Context, event *payloads.OrderCreatedEvent) error {
	link := orderLink(event.OrderID)
	return c.notifications.Create(ctx, &models.Notification{
		UserID:  event.SupplierID,
		Type:    enums.NotificationTypeOrderAlert,
		Title:   "New order received",
		Message: fmt.Sprintf("Order #%d has been placed and is awaiting payment.", event.OrderNumber),
		Link:    &link,
	})
}

func (c *OrdersConsumer) onOrderPaid(ctx context.Context, event *payloads.OrderPaidEvent) error {
	link := orderLink(event.OrderID)
	if err := c.notifications.Create(ctx, &models.Notification{
		UserID:  event.SupplierID,
		Type:    enums.NotificationTypePaymentAlert,
		Title:   "Order paid",
		Message: fmt.Sprintf("Order #%d has been paid. Total KES %d.", event.OrderNumber, event.TotalAmount),
		Link:    &link,
	}); err != nil {
		return err
	}

	c.sendSMS(ctx, event.BuyerPhone, fmt.Sprintf(
		"Your payment of KES %d for order #%d was received. Thank you for shopping with Mifugo Market.",
		event.TotalAmount, event.OrderNumber,
	))
	return nil
}

func (c *OrdersConsumer) onStatusChanged(ctx context.Context, event *payloads.OrderStatusChangedEvent) error {
	link := orderLink(event.OrderID)
	if err := c.notifications.Create(ctx, &models.Notification{
		UserID:  event.BuyerID,
		Type:    enums.NotificationTypeOrderAlert,
		Title:   "Order update",
		Message: fmt.Sprintf("Order #%d is now %s.", event.OrderNumber, event.To),
		Link:    &link,
	}); err != nil {
		return err
	}

	c.sendSMS(ctx, event.BuyerPhone, fmt.Sprintf(
		"Mifugo Market: your order #%d is now %s.", event.OrderNumber, event.To,
	))
	return nil
}

func (c *OrdersConsumer) onOrderCanceled(ctx context.Context, event *payloads.OrderCanceledEvent) error {
	link := orderLink(event.OrderID)
	return c.notifications.Create(ctx, &models.Notification{
		UserID:  event.SupplierID,
		Type:    enums.NotificationTypeOrderAlert,
		Title:   "Order cancelled",
		Message: fmt.Sprintf("Order #%d was cancelled by the buyer.", event.OrderNumber),
		Link:    &link,
	})
}

func (c *OrdersConsumer) onPaymentFailed(ctx context.Context, event *payloads.PaymentFailedEvent) error {
	link := orderLink(event.OrderID)
	return c.notifications.Create(ctx, &models.Notification{
		UserID:  event.BuyerID,
		Type:    enums.NotificationTypePaymentAlert,
		Title:   "Payment not completed",
		Message: fmt.Sprintf("Payment for order #%d did not go through. You can retry from your orders page.", event.OrderNumber),
		Link:    &link,
	})
}

// sendSMS is fire and forget: a delivery failure never fails the event.
func (c *OrdersConsumer) sendSMS(ctx context.Context, phone, message string) {
	if c.sms == nil || phone == "" {
		return
	}
	if _, err := c.sms.Send(ctx, phone, message); err != nil {
		logCtx := c.logg.WithFields(ctx, map[string]any{"recipient": phone})
		c.logg.Error(logCtx, "sms delivery failed", err)
	}
}

func orderLink(orderID uuid.UUID) string {
	return "/orders/" + orderID.String()
}
