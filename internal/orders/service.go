package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
	"github.com/jkiprotich/mifugo-market-backend/pkg/enums"
	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
	"github.com/jkiprotich/mifugo-market-backend/pkg/logger"
	"github.com/jkiprotich/mifugo-market-backend/pkg/outbox"
	"github.com/jkiprotich/mifugo-market-backend/pkg/outbox/payloads"
	"github.com/jkiprotich/mifugo-market-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes the order lifecycle for buyers and suppliers.
type Service interface {
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]OrderDTO, string, error)
	GetForBuyer(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderDTO, error)
	Cancel(ctx context.Context, buyerID, orderID uuid.UUID, reason string) (*OrderDTO, error)
	ListForSupplier(ctx context.Context, supplierID uuid.UUID, params pagination.Params) ([]SupplierOrderDTO, string, error)
	GetForSupplier(ctx context.Context, supplierID, orderID uuid.UUID) (*SupplierOrderDTO, error)
	UpdateStatus(ctx context.Context, supplierID, orderID uuid.UUID, newStatus enums.OrderStatus) (*SupplierOrderDTO, error)
}

type service struct {
	repo   OrderRepository
	tx     txRunner
	events eventEmitter
	logg   *logger.Logger
}

// NewService builds the order lifecycle service.
func NewService(repo OrderRepository, tx txRunner, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, events: events, logg: logg}, nil
}

// ListForBuyer returns the buyer's orders newest-first.
func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]OrderDTO, string, error) {
	if buyerID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByBuyer(ctx, buyerID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	rows, nextCursor := trimPage(rows, limit)
	dtos := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, ToOrderDTO(row))
	}
	return dtos, nextCursor, nil
}

// GetForBuyer loads one of the buyer's orders.
func (s *service) GetForBuyer(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderDTO, error) {
	row, err := s.loadForBuyer(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}
	dto := ToOrderDTO(*row)
	return &dto, nil
}

// Cancel aborts an unpaid, non-terminal order on the buyer's request.
func (s *service) Cancel(ctx context.Context, buyerID, orderID uuid.UUID, reason string) (*OrderDTO, error) {
	row, err := s.loadForBuyer(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}
	if row.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "order is already finalized")
	}
	if row.IsPaid() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a settled order cannot be cancelled by the buyer")
	}

	now := time.Now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, row.ID, map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{UserID: buyerID},
			Data: payloads.OrderCanceledEvent{
				OrderID:     row.ID,
				OrderNumber: row.OrderNumber,
				BuyerID:     row.BuyerID,
				SupplierID:  row.SupplierID,
				CanceledAt:  now,
				Reason:      reason,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}

	row.Status = enums.OrderStatusCancelled
	row.CancelledAt = &now
	dto := ToOrderDTO(*row)
	return &dto, nil
}

// ListForSupplier returns the supplier's orders newest-first, vendor-scoped.
func (s *service) ListForSupplier(ctx context.Context, supplierID uuid.UUID, params pagination.Params) ([]SupplierOrderDTO, string, error) {
	if supplierID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListBySupplier(ctx, supplierID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list supplier orders")
	}

	rows, nextCursor := trimPage(rows, limit)
	dtos := make([]SupplierOrderDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, ToSupplierOrderDTO(row, supplierID))
	}
	return dtos, nextCursor, nil
}

// GetForSupplier loads one order scoped to the viewing supplier.
func (s *service) GetForSupplier(ctx context.Context, supplierID, orderID uuid.UUID) (*SupplierOrderDTO, error) {
	row, err := s.loadForSupplier(ctx, supplierID, orderID)
	if err != nil {
		return nil, err
	}
	dto := ToSupplierOrderDTO(*row, supplierID)
	return &dto, nil
}

// UpdateStatus advances the fulfillment lifecycle. Transitions are forward
// only, and anything beyond pending requires a settled payment.
func (s *service) UpdateStatus(ctx context.Context, supplierID, orderID uuid.UUID, newStatus enums.OrderStatus) (*SupplierOrderDTO, error) {
	if !newStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	row, err := s.loadForSupplier(ctx, supplierID, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(row.Status, newStatus) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "status transition is not permitted").
			WithDetails(map[string]any{"from": row.Status, "to": newStatus})
	}
	if newStatus != enums.OrderStatusCancelled && !row.IsPaid() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order must be settled before fulfillment can progress")
	}

	previous := row.Status
	updates := map[string]any{"status": newStatus}
	if newStatus == enums.OrderStatusCancelled {
		updates["cancelled_at"] = time.Now()
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, row.ID, updates); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   row.ID,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     row.ID,
				OrderNumber: row.OrderNumber,
				BuyerID:     row.BuyerID,
				SupplierID:  row.SupplierID,
				From:        previous,
				To:          newStatus,
				BuyerPhone:  stringValue(row.BuyerPhone),
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": row.ID.String(),
		"from":     previous,
		"to":       newStatus,
	})
	s.logg.Info(logCtx, "order status updated")

	row.Status = newStatus
	dto := ToSupplierOrderDTO(*row, supplierID)
	return &dto, nil
}

func (s *service) loadForBuyer(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	row, err := s.repo.FindByIDAndBuyer(ctx, orderID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return row, nil
}

func (s *service) loadForSupplier(ctx context.Context, supplierID, orderID uuid.UUID) (*models.Order, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	row, err := s.repo.FindByIDAndSupplier(ctx, orderID, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return row, nil
}

func trimPage(rows []models.Order, limit int) ([]models.Order, string) {
	if len(rows) <= limit {
		return rows, ""
	}
	rows = rows[:limit]
	last := rows[len(rows)-1]
	return rows, pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
