package checkout

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jkiprotich/mifugo-market-backend/internal/cart"
	"github.com/jkiprotich/mifugo-market-backend/internal/payments"
	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
	"github.com/jkiprotich/mifugo-market-backend/pkg/enums"
	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
)

// Session is the ephemeral checkout state machine for one buyer attempt. It
// lives for the duration of a single orchestration call and is never stored.
type Session struct {
	state        enums.CheckoutState
	method       enums.PaymentMethod
	payerContact string
	supplierID   uuid.UUID
	amount       int64
}

// NewSession starts a checkout attempt in the Cart state.
func NewSession() *Session {
	return &Session{state: enums.CheckoutStateCart}
}

// State returns the current machine state.
func (s *Session) State() enums.CheckoutState {
	return s.state
}

// Method returns the selected payment method.
func (s *Session) Method() enums.PaymentMethod {
	return s.method
}

// SupplierID returns the cart's single supplier once method selection begins.
func (s *Session) SupplierID() uuid.UUID {
	return s.supplierID
}

// Amount returns the cart total captured at method selection.
func (s *Session) Amount() int64 {
	return s.amount
}

// BeginMethodSelection is the entry guard out of Cart: the cart must be
// non-empty and single-supplier, otherwise no further state is entered.
func (s *Session) BeginMethodSelection(rows []models.CartItem) error {
	if s.state != enums.CheckoutStateCart {
		return s.invalidMove(enums.CheckoutStateMethodSelection)
	}
	if len(rows) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	supplierID, ok := cart.SingleVendor(rows)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeVendorConflict, "cart spans more than one supplier")
	}

	var total int64
	for _, row := range rows {
		if row.Quantity > row.AvailableStock {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "cart quantity exceeds available stock").
				WithDetails(map[string]any{"product_id": row.ProductID})
		}
		total += row.LineTotal()
	}

	s.supplierID = supplierID
	s.amount = total
	s.state = enums.CheckoutStateMethodSelection
	return nil
}

// SelectMethod records the payment method and its payer contact.
func (s *Session) SelectMethod(method enums.PaymentMethod, payerContact string) error {
	if s.state != enums.CheckoutStateMethodSelection {
		return s.invalidMove(enums.CheckoutStateInitializing)
	}
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	contact := strings.TrimSpace(payerContact)
	if contact == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payer contact is required")
	}
	if method == enums.PaymentMethodPaystack {
		if err := payments.ValidateEmail(contact); err != nil {
			return err
		}
	}

	s.method = method
	s.payerContact = contact
	s.state = enums.CheckoutStateInitializing
	return nil
}

// AwaitExternalConfirmation marks the hosted redirect hand-off. Control leaves
// the process here; cancellation is no longer possible.
func (s *Session) AwaitExternalConfirmation() error {
	if s.state != enums.CheckoutStateInitializing || s.method != enums.PaymentMethodPaystack {
		return s.invalidMove(enums.CheckoutStateAwaitingConfirm)
	}
	s.state = enums.CheckoutStateAwaitingConfirm
	return nil
}

// BeginVerifying starts settlement reconciliation on the buyer's return.
func (s *Session) BeginVerifying() error {
	if s.state != enums.CheckoutStateAwaitingConfirm {
		return s.invalidMove(enums.CheckoutStateVerifying)
	}
	s.state = enums.CheckoutStateVerifying
	return nil
}

// Complete finishes the attempt: directly from Initializing on the synchronous
// mobile-money path, or from Verifying on the hosted path.
func (s *Session) Complete() error {
	switch {
	case s.state == enums.CheckoutStateInitializing && s.method == enums.PaymentMethodMobileMoney:
	case s.state == enums.CheckoutStateVerifying:
	default:
		return s.invalidMove(enums.CheckoutStateCompleted)
	}
	s.state = enums.CheckoutStateCompleted
	return nil
}

// Fail moves any non-terminal state to Failed.
func (s *Session) Fail() {
	if !s.state.IsTerminal() {
		s.state = enums.CheckoutStateFailed
	}
}

// Cancel aborts the attempt. Only permitted before the external hand-off.
func (s *Session) Cancel() error {
	if s.state != enums.CheckoutStateMethodSelection && s.state != enums.CheckoutStateInitializing {
		return s.invalidMove(enums.CheckoutStateCancelled)
	}
	s.state = enums.CheckoutStateCancelled
	return nil
}

func (s *Session) invalidMove(to enums.CheckoutState) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout state does not permit this step").
		WithDetails(map[string]any{"from": s.state, "to": to})
}
