package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkiprotich/mifugo-market-backend/internal/cart"
	"github.com/jkiprotich/mifugo-market-backend/internal/orders"
	"github.com/jkiprotich/mifugo-market-backend/internal/payments"
	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
	"github.com/jkiprotich/mifugo-market-backend/pkg/enums"
	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
	"github.com/jkiprotich/mifugo-market-backend/pkg/logger"
	"github.com/jkiprotich/mifugo-market-backend/pkg/outbox"
	"github.com/jkiprotich/mifugo-market-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor identifies the authenticated buyer driving a checkout attempt.
type Actor struct {
	UserID uuid.UUID
	Phone  string
	Email  string
}

// MobileMoneyInput carries the synchronous checkout payload.
type MobileMoneyInput struct {
	Phone string
}

// HostedInput carries the hosted-checkout initialization payload.
type HostedInput struct {
	Amount int64
	Email  string
}

// HostedCheckout is the redirect hand-off returned to the buyer.
type HostedCheckout struct {
	OrderID          uuid.UUID `json:"order_id"`
	AuthorizationURL string    `json:"authorization_url"`
	AccessCode       string    `json:"access_code,omitempty"`
	Reference        string    `json:"reference"`
}

// Service sequences cart validation, gateway initialization, verification and
// order materialization.
type Service interface {
	MobileMoneyCheckout(ctx context.Context, actor Actor, input MobileMoneyInput) (*orders.OrderDTO, error)
	InitializeHosted(ctx context.Context, actor Actor, input HostedInput) (*HostedCheckout, error)
	VerifyHosted(ctx context.Context, actor Actor, reference string) (*orders.OrderDTO, error)
	ReinitializeHosted(ctx context.Context, actor Actor, orderID uuid.UUID) (*HostedCheckout, error)
}

type service struct {
	cartRepo  cart.CartRepository
	orderRepo orders.OrderRepository
	tx        txRunner
	hosted    payments.HostedGateway
	momo      payments.MobileMoneyGateway
	events    eventEmitter
	logg      *logger.Logger
}

// NewService builds the checkout orchestrator.
func NewService(
	cartRepo cart.CartRepository,
	orderRepo orders.OrderRepository,
	tx txRunner,
	hosted payments.HostedGateway,
	momo payments.MobileMoneyGateway,
	events eventEmitter,
	logg *logger.Logger,
) (Service, error) {
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if hosted == nil {
		return nil, fmt.Errorf("hosted gateway required")
	}
	if momo == nil {
		return nil, fmt.Errorf("mobile money gateway required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		tx:        tx,
		hosted:    hosted,
		momo:      momo,
		events:    events,
		logg:      logg,
	}, nil
}

// MobileMoneyCheckout runs the synchronous path: the mocked charge settles in
// the same call, so the order materializes settled and the cart is cleared.
func (s *service) MobileMoneyCheckout(ctx context.Context, actor Actor, input MobileMoneyInput) (*orders.OrderDTO, error) {
	rows, session, err := s.enterCheckout(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := session.SelectMethod(enums.PaymentMethodMobileMoney, input.Phone); err != nil {
		return nil, err
	}

	settlement, err := s.momo.Charge(ctx, input.Phone, session.Amount())
	if err != nil {
		session.Fail()
		return nil, err
	}

	order := s.buildOrder(actor, session, rows)
	order.PaymentMethod = enums.PaymentMethodMobileMoney
	order.PaymentReference = &settlement.Reference
	order.PaidAt = settlement.PaidAt
	phone := strings.TrimSpace(input.Phone)
	order.BuyerPhone = &phone

	if err := s.materialize(ctx, actor, order, true); err != nil {
		session.Fail()
		return nil, err
	}
	if err := session.Complete(); err != nil {
		return nil, err
	}

	dto := orders.ToOrderDTO(*order)
	return &dto, nil
}

// InitializeHosted materializes a pending order, then asks the gateway for a
// redirect target. A gateway failure after materialization leaves the pending
// order recoverable through ReinitializeHosted.
func (s *service) InitializeHosted(ctx context.Context, actor Actor, input HostedInput) (*HostedCheckout, error) {
	rows, session, err := s.enterCheckout(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := session.SelectMethod(enums.PaymentMethodPaystack, input.Email); err != nil {
		return nil, err
	}
	if input.Amount > 0 && input.Amount != session.Amount() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount does not match the cart total").
			WithDetails(map[string]any{"cart_total": session.Amount()})
	}

	reference := newReference()
	order := s.buildOrder(actor, session, rows)
	order.PaymentMethod = enums.PaymentMethodPaystack
	order.PaymentReference = &reference
	email := strings.TrimSpace(input.Email)
	order.BuyerEmail = &email

	if err := s.materialize(ctx, actor, order, false); err != nil {
		session.Fail()
		return nil, err
	}

	target, err := s.hosted.InitializeHosted(ctx, payments.InitializeInput{
		Amount:     session.Amount(),
		PayerEmail: email,
		Reference:  reference,
		Metadata:   map[string]any{"order_id": order.ID.String()},
	})
	if err != nil {
		session.Fail()
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":  order.ID.String(),
			"reference": reference,
		})
		s.logg.Warn(logCtx, "hosted initialize failed, order left pending for pay-again")
		return nil, err
	}

	if err := session.AwaitExternalConfirmation(); err != nil {
		return nil, err
	}

	return &HostedCheckout{
		OrderID:          order.ID,
		AuthorizationURL: target.URL,
		AccessCode:       target.AccessCode,
		Reference:        referenceOr(target.Reference, reference),
	}, nil
}

// VerifyHosted reconciles a reference with the gateway. Repeating the call for
// an already-settled order returns it unchanged.
func (s *service) VerifyHosted(ctx context.Context, actor Actor, reference string) (*orders.OrderDTO, error) {
	trimmed := strings.TrimSpace(reference)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}

	order, err := s.orderRepo.FindByReference(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order matches the reference")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by reference")
	}
	if order.BuyerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order matches the reference")
	}
	if order.IsPaid() {
		dto := orders.ToOrderDTO(*order)
		return &dto, nil
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has been cancelled")
	}

	settlement, err := s.hosted.VerifyHosted(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	if !settlement.Settled {
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentFailed,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Data: payloads.PaymentFailedEvent{
					OrderID:     order.ID,
					OrderNumber: order.OrderNumber,
					BuyerID:     order.BuyerID,
					Reference:   trimmed,
					Reason:      settlement.Message,
				},
			})
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record failed verification")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment has not settled").
			WithDetails(map[string]any{"gateway_status": settlement.Message})
	}

	paidAt := settlement.PaidAt
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		updates := map[string]any{"paid_at": paidAt}
		if err := repo.MarkPaid(ctx, order.ID, updates); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID},
			Data: payloads.OrderPaidEvent{
				OrderID:          order.ID,
				OrderNumber:      order.OrderNumber,
				BuyerID:          order.BuyerID,
				SupplierID:       order.SupplierID,
				TotalAmount:      order.TotalAmount,
				PaymentReference: trimmed,
				PaidAt:           derefTime(paidAt),
				BuyerPhone:       stringValue(order.BuyerPhone),
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record settlement")
	}

	order.PaidAt = paidAt
	dto := orders.ToOrderDTO(*order)
	return &dto, nil
}

// ReinitializeHosted is the pay-again path for an order left pending by an
// abandoned or failed hosted checkout.
func (s *service) ReinitializeHosted(ctx context.Context, actor Actor, orderID uuid.UUID) (*HostedCheckout, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	order, err := s.orderRepo.FindByIDAndBuyer(ctx, orderID, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.IsPaid() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already settled")
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has been cancelled")
	}
	if order.PaymentMethod != enums.PaymentMethodPaystack {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order was not started on the hosted gateway")
	}

	email := stringValue(order.BuyerEmail)
	if email == "" {
		email = actor.Email
	}
	if err := payments.ValidateEmail(email); err != nil {
		return nil, err
	}

	reference := newReference()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.orderRepo.WithTx(tx).UpdateStatus(ctx, order.ID, map[string]any{
			"payment_reference": reference,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh payment reference")
	}

	target, err := s.hosted.InitializeHosted(ctx, payments.InitializeInput{
		Amount:     order.TotalAmount,
		PayerEmail: email,
		Reference:  reference,
		Metadata:   map[string]any{"order_id": order.ID.String()},
	})
	if err != nil {
		return nil, err
	}

	return &HostedCheckout{
		OrderID:          order.ID,
		AuthorizationURL: target.URL,
		AccessCode:       target.AccessCode,
		Reference:        referenceOr(target.Reference, reference),
	}, nil
}

// enterCheckout loads the cart and applies the entry guard.
func (s *service) enterCheckout(ctx context.Context, actor Actor) ([]models.CartItem, *Session, error) {
	if actor.UserID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	rows, err := s.cartRepo.ListByBuyer(ctx, actor.UserID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	session := NewSession()
	if err := session.BeginMethodSelection(rows); err != nil {
		return nil, nil, err
	}
	return rows, session, nil
}

func (s *service) buildOrder(actor Actor, session *Session, rows []models.CartItem) *models.Order {
	order := &models.Order{
		ID:          uuid.New(),
		BuyerID:     actor.UserID,
		SupplierID:  session.SupplierID(),
		Status:      enums.OrderStatusPending,
		TotalAmount: session.Amount(),
	}
	items := make([]models.OrderLineItem, 0, len(rows))
	for _, row := range rows {
		productID := row.ProductID
		items = append(items, models.OrderLineItem{
			OrderID:     order.ID,
			ProductID:   &productID,
			ProductName: row.ProductName,
			SupplierID:  row.SupplierID,
			UnitPrice:   row.UnitPrice,
			Quantity:    row.Quantity,
			LineTotal:   row.LineTotal(),
		})
	}
	order.Items = items
	return order
}

// materialize creates the order, clears the cart and emits the creation
// events inside one transaction.
func (s *service) materialize(ctx context.Context, actor Actor, order *models.Order, settled bool) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		if err := s.cartRepo.WithTx(tx).DeleteByBuyer(ctx, actor.UserID); err != nil {
			return err
		}
		created := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID},
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				BuyerID:       order.BuyerID,
				SupplierID:    order.SupplierID,
				PaymentMethod: order.PaymentMethod,
				TotalAmount:   order.TotalAmount,
				BuyerPhone:    stringValue(order.BuyerPhone),
			},
		}
		if err := s.events.Emit(ctx, tx, created); err != nil {
			return err
		}
		if !settled {
			return nil
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID},
			Data: payloads.OrderPaidEvent{
				OrderID:          order.ID,
				OrderNumber:      order.OrderNumber,
				BuyerID:          order.BuyerID,
				SupplierID:       order.SupplierID,
				TotalAmount:      order.TotalAmount,
				PaymentReference: stringValue(order.PaymentReference),
				PaidAt:           derefTime(order.PaidAt),
				BuyerPhone:       stringValue(order.BuyerPhone),
			},
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "materialize order")
	}
	return nil
}

func newReference() string {
	return "PS-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}

func referenceOr(primary, fallback string) string {
	if strings.TrimSpace(primary) != "" {
		return primary
	}
	return fallback
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func derefTime(value *time.Time) time.Time {
	if value == nil {
		return time.Time{}
	}
	return *value
}
