package receipts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
)

type orderLoader interface {
	FindByIDAndBuyer(ctx context.Context, id, buyerID uuid.UUID) (*models.Order, error)
	FindByIDAndSupplier(ctx context.Context, id, supplierID uuid.UUID) (*models.Order, error)
}

// Service renders receipts on demand from the order store.
type Service interface {
	ForBuyer(ctx context.Context, buyerID, orderID uuid.UUID) (*Document, error)
	ForSupplier(ctx context.Context, supplierID, orderID uuid.UUID) (*Document, error)
}

type service struct {
	orders   orderLoader
	currency string
}

// NewService builds the receipt service with the display currency.
func NewService(orders orderLoader, currency string) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order loader required")
	}
	if currency == "" {
		currency = "KES"
	}
	return &service{orders: orders, currency: currency}, nil
}

// ForBuyer renders the full receipt for one of the buyer's settled orders.
func (s *service) ForBuyer(ctx context.Context, buyerID, orderID uuid.UUID) (*Document, error) {
	if buyerID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id and order id are required")
	}
	row, err := s.orders.FindByIDAndBuyer(ctx, orderID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return Render(*row, s.currency, nil)
}

// ForSupplier renders the vendor-scoped receipt for one of the supplier's
// settled orders.
func (s *service) ForSupplier(ctx context.Context, supplierID, orderID uuid.UUID) (*Document, error) {
	if supplierID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id and order id are required")
	}
	row, err := s.orders.FindByIDAndSupplier(ctx, orderID, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return Render(*row, s.currency, &supplierID)
}
