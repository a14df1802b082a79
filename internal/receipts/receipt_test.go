package receipts

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
	"github.com/jkiprotich/mifugo-market-backend/pkg/enums"
	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
)

func settledOrder() models.Order {
	paidAt := time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)
	reference := "PS-ABCDEF0123456789"
	supplierID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return models.Order{
		ID:               uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8"),
		OrderNumber:      1042,
		BuyerID:          uuid.New(),
		SupplierID:       supplierID,
		Status:           enums.OrderStatusPending,
		PaymentMethod:    enums.PaymentMethodPaystack,
		PaymentReference: &reference,
		PaidAt:           &paidAt,
		TotalAmount:      3200,
		Items: []models.OrderLineItem{
			{ProductName: "Dewormer 100ml", SupplierID: supplierID, UnitPrice: 450, Quantity: 2, LineTotal: 900},
			{ProductName: "Dairy Meal 50kg", SupplierID: supplierID, UnitPrice: 2300, Quantity: 1, LineTotal: 2300},
		},
	}
}

func TestRenderUnpaidOrderRefused(t *testing.T) {
	t.Parallel()

	order := settledOrder()
	order.PaidAt = nil

	_, err := Render(order, "KES", nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRenderFullOrder(t *testing.T) {
	t.Parallel()

	doc, err := Render(settledOrder(), "KES", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Total != 3200 {
		t.Fatalf("expected total 3200, got %d", doc.Total)
	}
	if len(doc.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(doc.Lines))
	}
	if doc.VendorScoped {
		t.Fatal("unscoped render must not be vendor scoped")
	}
}

func TestRenderVendorScopeMismatch(t *testing.T) {
	t.Parallel()

	stranger := uuid.New()
	_, err := Render(settledOrder(), "KES", &stranger)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRenderVendorScopeFiltersStrayLines(t *testing.T) {
	t.Parallel()

	order := settledOrder()
	order.Items = append(order.Items, models.OrderLineItem{
		ProductName: "Stray Item", SupplierID: uuid.New(), UnitPrice: 999, Quantity: 1, LineTotal: 999,
	})

	scope := order.SupplierID
	doc, err := Render(order, "KES", &scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.VendorScoped {
		t.Fatal("expected vendor-scoped document")
	}
	if len(doc.Lines) != 2 || doc.Total != 3200 {
		t.Fatalf("stray line must be excluded and total recomputed, got %d lines total %d", len(doc.Lines), doc.Total)
	}
}

func TestTextIsDeterministic(t *testing.T) {
	t.Parallel()

	first, err := Render(settledOrder(), "KES", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Render(settledOrder(), "KES", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Text() != second.Text() {
		t.Fatal("identical orders must render identical receipts")
	}

	want := "" +
		"RECEIPT #1042\n" +
		"Paid 2026-03-14 09:26 UTC via paystack\n" +
		"Ref PS-ABCDEF0123456789\n" +
		"----------------------------------------\n" +
		"Dewormer 100ml           x2   KES 900.00\n" +
		"Dairy Meal 50kg          x1   KES 2300.00\n" +
		"----------------------------------------\n" +
		"TOTAL KES 3200.00\n"
	if got := first.Text(); got != want {
		t.Fatalf("receipt text drifted:\n%q\nwant:\n%q", got, want)
	}
}
