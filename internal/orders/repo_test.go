package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
	"github.com/jkiprotich/mifugo-market-backend/pkg/enums"
	"github.com/jkiprotich/mifugo-market-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	// The random() default stands in for the postgres order_number sequence.
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL UNIQUE DEFAULT (1000 + abs(random() % 1000000)),
  buyer_id TEXT NOT NULL,
  supplier_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL,
  payment_reference TEXT,
  paid_at DATETIME,
  total_amount INTEGER NOT NULL,
  buyer_phone TEXT,
  buyer_email TEXT,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderLineItems := `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  product_name TEXT NOT NULL,
  supplier_id TEXT NOT NULL,
  unit_price INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  line_total INTEGER NOT NULL,
  created_at DATETIME
);`

	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderLineItems).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, buyerID, supplierID uuid.UUID, orderNumber int64, createdAt time.Time) models.Order {
	t.Helper()

	order := models.Order{
		ID:            uuid.New(),
		OrderNumber:   orderNumber,
		BuyerID:       buyerID,
		SupplierID:    supplierID,
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodPaystack,
		TotalAmount:   3200,
		CreatedAt:     createdAt,
		Items: []models.OrderLineItem{
			{
				ID:          uuid.New(),
				SupplierID:  supplierID,
				ProductName: "Dewormer 100ml",
				UnitPrice:   450,
				Quantity:    2,
				LineTotal:   900,
				CreatedAt:   createdAt,
			},
			{
				ID:          uuid.New(),
				SupplierID:  supplierID,
				ProductName: "Dairy Meal 50kg",
				UnitPrice:   2300,
				Quantity:    1,
				LineTotal:   2300,
				CreatedAt:   createdAt,
			},
		},
	}
	require.NoError(t, NewRepository(db).Create(context.Background(), &order))
	return order
}

func TestRepositoryCreateDrawsDistinctOrderNumbers(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	buyerID := uuid.New()
	supplierID := uuid.New()

	build := func() models.Order {
		return models.Order{
			ID:            uuid.New(),
			BuyerID:       buyerID,
			SupplierID:    supplierID,
			Status:        enums.OrderStatusPending,
			PaymentMethod: enums.PaymentMethodPaystack,
			TotalAmount:   900,
			Items: []models.OrderLineItem{
				{
					ID:          uuid.New(),
					SupplierID:  supplierID,
					ProductName: "Dewormer 100ml",
					UnitPrice:   450,
					Quantity:    2,
					LineTotal:   900,
				},
			},
		}
	}

	first := build()
	require.NoError(t, repo.Create(context.Background(), &first))
	second := build()
	require.NoError(t, repo.Create(context.Background(), &second))

	assert.NotZero(t, first.OrderNumber)
	assert.NotZero(t, second.OrderNumber)
	assert.NotEqual(t, first.OrderNumber, second.OrderNumber)

	found, err := repo.FindByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.OrderNumber, found.OrderNumber)
}

func TestRepositoryCreateAndFindPreloadsItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	buyerID := uuid.New()
	supplierID := uuid.New()

	created := seedOrder(t, db, buyerID, supplierID, 1001, time.Now().UTC())

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, int64(1001), found.OrderNumber)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "Dewormer 100ml", found.Items[0].ProductName)
	assert.Equal(t, int64(3200), found.TotalAmount)
}

func TestRepositoryScopesByOwner(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	buyerID := uuid.New()
	supplierID := uuid.New()

	created := seedOrder(t, db, buyerID, supplierID, 1002, time.Now().UTC())

	_, err := repo.FindByIDAndBuyer(context.Background(), created.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repo.FindByIDAndBuyer(context.Background(), created.ID, buyerID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByIDAndSupplier(context.Background(), created.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err = repo.FindByIDAndSupplier(context.Background(), created.ID, supplierID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestRepositoryFindByReference(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	buyerID := uuid.New()
	supplierID := uuid.New()

	created := seedOrder(t, db, buyerID, supplierID, 1003, time.Now().UTC())
	reference := "PS-TESTREF1003"
	require.NoError(t, repo.UpdateStatus(context.Background(), created.ID, map[string]any{
		"payment_reference": reference,
	}))

	found, err := repo.FindByReference(context.Background(), reference)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	require.NotNil(t, found.PaymentReference)
	assert.Equal(t, reference, *found.PaymentReference)

	_, err = repo.FindByReference(context.Background(), "PS-MISSING")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListByBuyerPagesNewestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	buyerID := uuid.New()
	supplierID := uuid.New()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	oldest := seedOrder(t, db, buyerID, supplierID, 2001, base)
	middle := seedOrder(t, db, buyerID, supplierID, 2002, base.Add(time.Minute))
	newest := seedOrder(t, db, buyerID, supplierID, 2003, base.Add(2*time.Minute))
	seedOrder(t, db, uuid.New(), supplierID, 9999, base.Add(3*time.Minute)) // other buyer

	page, err := repo.ListByBuyer(context.Background(), buyerID, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, newest.ID, page[0].ID)
	assert.Equal(t, middle.ID, page[1].ID)

	cursor := &pagination.Cursor{CreatedAt: page[1].CreatedAt, ID: page[1].ID}
	rest, err := repo.ListByBuyer(context.Background(), buyerID, cursor, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, oldest.ID, rest[0].ID)
}

func TestRepositoryMarkPaid(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	buyerID := uuid.New()
	supplierID := uuid.New()

	created := seedOrder(t, db, buyerID, supplierID, 3001, time.Now().UTC())
	paidAt := time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)
	require.NoError(t, repo.MarkPaid(context.Background(), created.ID, map[string]any{
		"paid_at":           paidAt,
		"payment_reference": "PS-SETTLED",
	}))

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.PaidAt)
	assert.True(t, found.IsPaid())
	assert.Equal(t, enums.PaymentStatusCompleted, found.PaymentView())
}
