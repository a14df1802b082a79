package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
)

func TestAddItemRejectsSecondSupplier(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	firstSupplier := uuid.New()
	secondSupplier := uuid.New()

	product := models.Product{
		ID:             uuid.New(),
		SupplierID:     secondSupplier,
		SupplierName:   "Chebet Agrovet",
		Name:           "Acaricide 1L",
		UnitPrice:      1200,
		AvailableStock: 5,
		IsActive:       true,
	}
	repo := &stubCartRepo{items: []models.CartItem{
		{ID: uuid.New(), BuyerID: buyerID, ProductID: uuid.New(), SupplierID: firstSupplier, SupplierName: "Kimani Agrovet", UnitPrice: 500, Quantity: 2, AvailableStock: 10},
	}}
	svc := newTestService(t, repo, stubProducts{product: product})

	_, err := svc.AddItem(context.Background(), buyerID, AddItemInput{ProductID: product.ID, Quantity: 1})
	if err == nil {
		t.Fatal("expected vendor conflict")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeVendorConflict {
		t.Fatalf("unexpected error code: %v", err)
	}
	if len(repo.items) != 1 {
		t.Fatalf("cart mutated on conflict: %d items", len(repo.items))
	}
	if repo.saves+repo.creates != 0 {
		t.Fatal("expected no writes on conflict")
	}
}

func TestAddItemRejectsInsufficientStock(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	product := models.Product{
		ID:             uuid.New(),
		SupplierID:     uuid.New(),
		Name:           "Calf feed 20kg",
		UnitPrice:      2300,
		AvailableStock: 3,
		IsActive:       true,
	}
	repo := &stubCartRepo{}
	svc := newTestService(t, repo, stubProducts{product: product})

	_, err := svc.AddItem(context.Background(), buyerID, AddItemInput{ProductID: product.ID, Quantity: 4})
	if err == nil {
		t.Fatal("expected stock error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error code: %v", err)
	}
}

func TestAddItemMergesExistingLine(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	supplierID := uuid.New()
	product := models.Product{
		ID:             uuid.New(),
		SupplierID:     supplierID,
		SupplierName:   "Kimani Agrovet",
		Name:           "Dewormer 100ml",
		UnitPrice:      450,
		AvailableStock: 10,
		IsActive:       true,
	}
	repo := &stubCartRepo{items: []models.CartItem{
		{ID: uuid.New(), BuyerID: buyerID, ProductID: product.ID, SupplierID: supplierID, SupplierName: product.SupplierName, ProductName: product.Name, UnitPrice: 450, Quantity: 2, AvailableStock: 10},
	}}
	svc := newTestService(t, repo, stubProducts{product: product})

	view, err := svc.AddItem(context.Background(), buyerID, AddItemInput{ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected merged single line, got %d", len(view.Items))
	}
	if view.Items[0].Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", view.Items[0].Quantity)
	}
	if repo.creates != 0 || repo.saves != 1 {
		t.Fatalf("expected one save and no create, got creates=%d saves=%d", repo.creates, repo.saves)
	}
}

func TestUpdateQuantityRejectsBelowOne(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	line := models.CartItem{ID: uuid.New(), BuyerID: buyerID, ProductID: uuid.New(), SupplierID: uuid.New(), UnitPrice: 500, Quantity: 2, AvailableStock: 10}
	repo := &stubCartRepo{items: []models.CartItem{line}}
	svc := newTestService(t, repo, stubProducts{})

	_, err := svc.UpdateQuantity(context.Background(), buyerID, line.ID, 0)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error code: %v", err)
	}
	if repo.items[0].Quantity != 2 {
		t.Fatal("cart mutated on invalid quantity")
	}
}

func TestViewTotalsMatchGroupSubtotals(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	supplierID := uuid.New()
	repo := &stubCartRepo{items: []models.CartItem{
		{ID: uuid.New(), BuyerID: buyerID, ProductID: uuid.New(), SupplierID: supplierID, SupplierName: "Kimani Agrovet", UnitPrice: 500, Quantity: 2, AvailableStock: 10},
		{ID: uuid.New(), BuyerID: buyerID, ProductID: uuid.New(), SupplierID: supplierID, SupplierName: "Kimani Agrovet", UnitPrice: 1200, Quantity: 1, AvailableStock: 4},
	}}
	svc := newTestService(t, repo, stubProducts{})

	view, err := svc.Get(context.Background(), buyerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Total != 2200 {
		t.Fatalf("expected total 2200, got %d", view.Total)
	}
	var groupSum int64
	for _, group := range view.Groups {
		groupSum += group.Subtotal
	}
	if groupSum != view.Total {
		t.Fatalf("group subtotals %d do not match total %d", groupSum, view.Total)
	}
	if view.VendorConflict {
		t.Fatal("single-supplier cart must not flag a vendor conflict")
	}
}

func TestViewFlagsVendorConflict(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	repo := &stubCartRepo{items: []models.CartItem{
		{ID: uuid.New(), BuyerID: buyerID, ProductID: uuid.New(), SupplierID: uuid.New(), SupplierName: "Kimani Agrovet", UnitPrice: 500, Quantity: 1, AvailableStock: 10},
		{ID: uuid.New(), BuyerID: buyerID, ProductID: uuid.New(), SupplierID: uuid.New(), SupplierName: "Wambui Feeds", UnitPrice: 1200, Quantity: 1, AvailableStock: 4},
	}}
	svc := newTestService(t, repo, stubProducts{})

	view, err := svc.Get(context.Background(), buyerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.VendorConflict {
		t.Fatal("mixed-supplier cart must flag a vendor conflict")
	}
	if len(view.Groups) != 2 {
		t.Fatalf("expected 2 vendor groups, got %d", len(view.Groups))
	}
}

func newTestService(t *testing.T, repo CartRepository, products productLoader) Service {
	t.Helper()
	svc, err := NewService(repo, products)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

type stubProducts struct {
	product models.Product
	err     error
}

func (s stubProducts) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.product.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	product := s.product
	return &product, nil
}

type stubCartRepo struct {
	items   []models.CartItem
	creates int
	saves   int
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) CartRepository { return s }

func (s *stubCartRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.CartItem, error) {
	rows := make([]models.CartItem, 0, len(s.items))
	for _, item := range s.items {
		if item.BuyerID == buyerID {
			rows = append(rows, item)
		}
	}
	return rows, nil
}

func (s *stubCartRepo) FindByIDAndBuyer(ctx context.Context, id, buyerID uuid.UUID) (*models.CartItem, error) {
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].BuyerID == buyerID {
			item := s.items[i]
			return &item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) FindByBuyerAndProduct(ctx context.Context, buyerID, productID uuid.UUID) (*models.CartItem, error) {
	for i := range s.items {
		if s.items[i].BuyerID == buyerID && s.items[i].ProductID == productID {
			item := s.items[i]
			return &item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) Create(ctx context.Context, item *models.CartItem) error {
	s.creates++
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.items = append(s.items, *item)
	return nil
}

func (s *stubCartRepo) Save(ctx context.Context, item *models.CartItem) error {
	s.saves++
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i] = *item
			return nil
		}
	}
	s.items = append(s.items, *item)
	return nil
}

func (s *stubCartRepo) Delete(ctx context.Context, id, buyerID uuid.UUID) error {
	kept := s.items[:0]
	for _, item := range s.items {
		if !(item.ID == id && item.BuyerID == buyerID) {
			kept = append(kept, item)
		}
	}
	s.items = kept
	return nil
}

func (s *stubCartRepo) DeleteByBuyer(ctx context.Context, buyerID uuid.UUID) error {
	kept := s.items[:0]
	for _, item := range s.items {
		if item.BuyerID != buyerID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	return nil
}
