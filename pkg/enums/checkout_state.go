package enums

import "fmt"

// CheckoutState enumerates the checkout orchestration states.
type CheckoutState string

const (
	CheckoutStateCart            CheckoutState = "cart"
	CheckoutStateMethodSelection CheckoutState = "method_selection"
	CheckoutStateInitializing    CheckoutState = "initializing"
	CheckoutStateAwaitingConfirm CheckoutState = "awaiting_external_confirmation"
	CheckoutStateVerifying       CheckoutState = "verifying"
	CheckoutStateCompleted       CheckoutState = "completed"
	CheckoutStateFailed          CheckoutState = "failed"
	CheckoutStateCancelled       CheckoutState = "cancelled"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateCart,
	CheckoutStateMethodSelection,
	CheckoutStateInitializing,
	CheckoutStateAwaitingConfirm,
	CheckoutStateVerifying,
	CheckoutStateCompleted,
	CheckoutStateFailed,
	CheckoutStateCancelled,
}

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutState.
func (c CheckoutState) IsValid() bool {
	for _, candidate := range validCheckoutStates {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state admits no further transitions.
func (c CheckoutState) IsTerminal() bool {
	switch c {
	case CheckoutStateCompleted, CheckoutStateFailed, CheckoutStateCancelled:
		return true
	default:
		return false
	}
}

// ParseCheckoutState converts raw input into a CheckoutState.
func ParseCheckoutState(value string) (CheckoutState, error) {
	for _, candidate := range validCheckoutStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout state %q", value)
}
