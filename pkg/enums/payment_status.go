package enums

// PaymentStatus is the buyer-facing payment reading of an order. It is
// derived from the order's PaidAt and Status fields, never stored.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}
