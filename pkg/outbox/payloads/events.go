package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/jkiprotich/mifugo-market-backend/pkg/enums"
)

// OrderCreatedEvent signals a newly created order awaiting settlement.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   int64               `json:"order_number"`
	BuyerID       uuid.UUID           `json:"buyer_id"`
	SupplierID    uuid.UUID           `json:"supplier_id"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	TotalAmount   int64               `json:"total_amount"`
	BuyerPhone    string              `json:"buyer_phone,omitempty"`
}

// OrderPaidEvent is emitted once a settlement is recorded for the order.
type OrderPaidEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderNumber      int64     `json:"order_number"`
	BuyerID          uuid.UUID `json:"buyer_id"`
	SupplierID       uuid.UUID `json:"supplier_id"`
	TotalAmount      int64     `json:"total_amount"`
	PaymentReference string    `json:"payment_reference,omitempty"`
	PaidAt           time.Time `json:"paid_at"`
	BuyerPhone       string    `json:"buyer_phone,omitempty"`
}

// OrderStatusChangedEvent is emitted when a supplier advances fulfillment.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber int64             `json:"order_number"`
	BuyerID     uuid.UUID         `json:"buyer_id"`
	SupplierID  uuid.UUID         `json:"supplier_id"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	BuyerPhone  string            `json:"buyer_phone,omitempty"`
}

// OrderCanceledEvent is emitted whenever a buyer cancels an unpaid order.
type OrderCanceledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber int64     `json:"order_number"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	SupplierID  uuid.UUID `json:"supplier_id"`
	CanceledAt  time.Time `json:"canceled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// PaymentFailedEvent records a gateway verification that did not settle.
type PaymentFailedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber int64     `json:"order_number"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	Reference   string    `json:"reference,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}
