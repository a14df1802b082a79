package checkout

import (
	"testing"

	"github.com/google/uuid"

	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
	"github.com/jkiprotich/mifugo-market-backend/pkg/enums"
	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
)

func singleSupplierCart(supplierID uuid.UUID) []models.CartItem {
	return []models.CartItem{
		{ID: uuid.New(), ProductID: uuid.New(), SupplierID: supplierID, ProductName: "Dewormer", UnitPrice: 450, Quantity: 2, AvailableStock: 10},
		{ID: uuid.New(), ProductID: uuid.New(), SupplierID: supplierID, ProductName: "Feed", UnitPrice: 2300, Quantity: 1, AvailableStock: 4},
	}
}

func TestSessionHappyHostedPath(t *testing.T) {
	t.Parallel()

	supplierID := uuid.New()
	session := NewSession()
	if err := session.BeginMethodSelection(singleSupplierCart(supplierID)); err != nil {
		t.Fatalf("method selection: %v", err)
	}
	if session.Amount() != 3200 {
		t.Fatalf("expected captured total 3200, got %d", session.Amount())
	}
	if session.SupplierID() != supplierID {
		t.Fatal("supplier not captured")
	}
	if err := session.SelectMethod(enums.PaymentMethodPaystack, "buyer@example.com"); err != nil {
		t.Fatalf("select method: %v", err)
	}
	if err := session.AwaitExternalConfirmation(); err != nil {
		t.Fatalf("await confirmation: %v", err)
	}
	if err := session.BeginVerifying(); err != nil {
		t.Fatalf("begin verifying: %v", err)
	}
	if err := session.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if session.State() != enums.CheckoutStateCompleted {
		t.Fatalf("expected completed, got %s", session.State())
	}
}

func TestSessionMobileMoneyCompletesFromInitializing(t *testing.T) {
	t.Parallel()

	session := NewSession()
	if err := session.BeginMethodSelection(singleSupplierCart(uuid.New())); err != nil {
		t.Fatalf("method selection: %v", err)
	}
	if err := session.SelectMethod(enums.PaymentMethodMobileMoney, "254712345678"); err != nil {
		t.Fatalf("select method: %v", err)
	}
	if err := session.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
}

func TestSessionEmptyCartRejected(t *testing.T) {
	t.Parallel()

	session := NewSession()
	err := session.BeginMethodSelection(nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty-cart error, got %v", err)
	}
	if session.State() != enums.CheckoutStateCart {
		t.Fatal("state must not advance on a rejected entry")
	}
}

func TestSessionMixedSuppliersRejected(t *testing.T) {
	t.Parallel()

	rows := singleSupplierCart(uuid.New())
	rows = append(rows, models.CartItem{ID: uuid.New(), ProductID: uuid.New(), SupplierID: uuid.New(), UnitPrice: 100, Quantity: 1, AvailableStock: 5})

	session := NewSession()
	err := session.BeginMethodSelection(rows)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeVendorConflict {
		t.Fatalf("expected vendor-conflict error, got %v", err)
	}
}

func TestSessionStaleStockRejected(t *testing.T) {
	t.Parallel()

	rows := singleSupplierCart(uuid.New())
	rows[0].AvailableStock = 1

	session := NewSession()
	err := session.BeginMethodSelection(rows)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient-stock error, got %v", err)
	}
}

func TestSessionHostedMethodRequiresValidEmail(t *testing.T) {
	t.Parallel()

	session := NewSession()
	if err := session.BeginMethodSelection(singleSupplierCart(uuid.New())); err != nil {
		t.Fatalf("method selection: %v", err)
	}
	err := session.SelectMethod(enums.PaymentMethodPaystack, "not-an-email")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if session.State() != enums.CheckoutStateMethodSelection {
		t.Fatal("state must not advance on a rejected method")
	}
}

func TestSessionCancelWindow(t *testing.T) {
	t.Parallel()

	session := NewSession()
	if err := session.BeginMethodSelection(singleSupplierCart(uuid.New())); err != nil {
		t.Fatalf("method selection: %v", err)
	}
	if err := session.Cancel(); err != nil {
		t.Fatalf("cancel during method selection: %v", err)
	}
	if session.State() != enums.CheckoutStateCancelled {
		t.Fatalf("expected cancelled, got %s", session.State())
	}

	handedOff := NewSession()
	if err := handedOff.BeginMethodSelection(singleSupplierCart(uuid.New())); err != nil {
		t.Fatalf("method selection: %v", err)
	}
	if err := handedOff.SelectMethod(enums.PaymentMethodPaystack, "buyer@example.com"); err != nil {
		t.Fatalf("select method: %v", err)
	}
	if err := handedOff.AwaitExternalConfirmation(); err != nil {
		t.Fatalf("await confirmation: %v", err)
	}
	err := handedOff.Cancel()
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("cancel after hand-off must be refused, got %v", err)
	}
}

func TestSessionFailIsSticky(t *testing.T) {
	t.Parallel()

	session := NewSession()
	if err := session.BeginMethodSelection(singleSupplierCart(uuid.New())); err != nil {
		t.Fatalf("method selection: %v", err)
	}
	session.Fail()
	if session.State() != enums.CheckoutStateFailed {
		t.Fatalf("expected failed, got %s", session.State())
	}
	if err := session.SelectMethod(enums.PaymentMethodMobileMoney, "254712345678"); err == nil {
		t.Fatal("failed session must refuse further moves")
	}
	session.Fail()
	if session.State() != enums.CheckoutStateFailed {
		t.Fatal("terminal state must not change")
	}
}
