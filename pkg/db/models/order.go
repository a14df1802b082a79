package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jkiprotich/mifugo-market-backend/pkg/enums"
)

// Order is a settled or pending marketplace order. One supplier per order;
// only Status, PaymentReference and PaidAt change after creation.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber      int64               `gorm:"column:order_number;not null;default:nextval('order_number_seq')"`
	BuyerID          uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null"`
	SupplierID       uuid.UUID           `gorm:"column:supplier_id;type:uuid;not null"`
	Status           enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	PaymentReference *string             `gorm:"column:payment_reference"`
	PaidAt           *time.Time          `gorm:"column:paid_at"`
	TotalAmount      int64               `gorm:"column:total_amount;not null"`
	BuyerPhone       *string             `gorm:"column:buyer_phone"`
	BuyerEmail       *string             `gorm:"column:buyer_email"`
	CancelledAt      *time.Time          `gorm:"column:cancelled_at"`
	Items            []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// PaymentView derives the buyer-facing payment status from the lifecycle
// fields. The stored Status column carries the fulfillment reading only.
func (o Order) PaymentView() enums.PaymentStatus {
	if o.Status == enums.OrderStatusCancelled {
		return enums.PaymentStatusCancelled
	}
	if o.PaidAt != nil {
		return enums.PaymentStatusCompleted
	}
	return enums.PaymentStatusPending
}

// IsPaid reports whether a settlement has been recorded for the order.
func (o Order) IsPaid() bool {
	return o.PaidAt != nil
}
