package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart aggregation operations scoped to one buyer.
type Service interface {
	Get(ctx context.Context, buyerID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, buyerID uuid.UUID, input AddItemInput) (*View, error)
	UpdateQuantity(ctx context.Context, buyerID, lineItemID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, buyerID, lineItemID uuid.UUID) (*View, error)
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

type service struct {
	repo     CartRepository
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

// AddItemInput captures the add-to-cart payload.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// Get returns the buyer's cart with totals and per-supplier groups.
func (s *service) Get(ctx context.Context, buyerID uuid.UUID) (*View, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	rows, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	view := BuildView(rows)
	return &view, nil
}

// AddItem validates stock and the single-supplier invariant, then merges the
// product into the cart. A conflicting add leaves the cart untouched.
func (s *service) AddItem(ctx context.Context, buyerID uuid.UUID, input AddItemInput) (*View, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	existing, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if supplierID, ok := SingleVendor(existing); !ok || (len(existing) > 0 && supplierID != product.SupplierID) {
		return nil, pkgerrors.New(pkgerrors.CodeVendorConflict, "cart is limited to one supplier at a time")
	}

	var line *models.CartItem
	for i := range existing {
		if existing[i].ProductID == product.ID {
			line = &existing[i]
			break
		}
	}

	requested := input.Quantity
	if line != nil {
		requested += line.Quantity
	}
	if requested > product.AvailableStock {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
			WithDetails(map[string]any{"available_stock": product.AvailableStock})
	}

	if line != nil {
		line.Quantity = requested
		line.UnitPrice = product.UnitPrice
		line.AvailableStock = product.AvailableStock
		if err := s.repo.Save(ctx, line); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
		}
	} else {
		item := models.CartItem{
			BuyerID:        buyerID,
			ProductID:      product.ID,
			SupplierID:     product.SupplierID,
			SupplierName:   product.SupplierName,
			ProductName:    product.Name,
			UnitPrice:      product.UnitPrice,
			Quantity:       input.Quantity,
			AvailableStock: product.AvailableStock,
			ImageURL:       product.ImageURL,
		}
		if err := s.repo.Create(ctx, &item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
		}
	}

	return s.Get(ctx, buyerID)
}

// UpdateQuantity replaces a line's quantity. The supplier invariant is already
// satisfied by the existing line, so only the quantity is re-validated.
func (s *service) UpdateQuantity(ctx context.Context, buyerID, lineItemID uuid.UUID, quantity int) (*View, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	line, err := s.repo.FindByIDAndBuyer(ctx, lineItemID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if quantity > line.AvailableStock {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
			WithDetails(map[string]any{"available_stock": line.AvailableStock})
	}

	line.Quantity = quantity
	if err := s.repo.Save(ctx, line); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}

	return s.Get(ctx, buyerID)
}

// RemoveItem deletes one line unconditionally.
func (s *service) RemoveItem(ctx context.Context, buyerID, lineItemID uuid.UUID) (*View, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if err := s.repo.Delete(ctx, lineItemID, buyerID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	return s.Get(ctx, buyerID)
}

// Clear empties the buyer's cart unconditionally.
func (s *service) Clear(ctx context.Context, buyerID uuid.UUID) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if err := s.repo.DeleteByBuyer(ctx, buyerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
