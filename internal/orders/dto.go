package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
	"github.com/jkiprotich/mifugo-market-backend/pkg/enums"
)

// ItemDTO is the wire shape of one order line snapshot.
type ItemDTO struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	ProductName string     `json:"product_name"`
	ProviderID  uuid.UUID  `json:"provider_id"`
	UnitPrice   int64      `json:"unit_price"`
	Quantity    int        `json:"qty"`
	LineTotal   int64      `json:"line_total"`
}

// OrderDTO is the buyer-facing order reading.
type OrderDTO struct {
	ID               uuid.UUID           `json:"id"`
	OrderNumber      int64               `json:"order_number"`
	ProviderID       uuid.UUID           `json:"provider_id"`
	Status           enums.OrderStatus   `json:"status"`
	PaymentStatus    enums.PaymentStatus `json:"payment_status"`
	PaymentMethod    enums.PaymentMethod `json:"payment_method"`
	PaymentReference *string             `json:"payment_reference,omitempty"`
	Total            int64               `json:"total"`
	Items            []ItemDTO           `json:"items"`
	PaidAt           *time.Time          `json:"paid_at,omitempty"`
	CancelledAt      *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

// SupplierOrderDTO is the vendor-facing order reading. Items and subtotal are
// restricted to the viewing supplier's lines even if stray rows exist.
type SupplierOrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   int64               `json:"order_number"`
	BuyerID       uuid.UUID           `json:"buyer_id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Subtotal      int64               `json:"subtotal"`
	Items         []ItemDTO           `json:"items"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

func toItemDTO(row models.OrderLineItem) ItemDTO {
	return ItemDTO{
		ID:          row.ID,
		ProductID:   row.ProductID,
		ProductName: row.ProductName,
		ProviderID:  row.SupplierID,
		UnitPrice:   row.UnitPrice,
		Quantity:    row.Quantity,
		LineTotal:   row.LineTotal,
	}
}

// ToOrderDTO maps an order row to the buyer-facing shape.
func ToOrderDTO(row models.Order) OrderDTO {
	items := make([]ItemDTO, 0, len(row.Items))
	for _, item := range row.Items {
		items = append(items, toItemDTO(item))
	}
	return OrderDTO{
		ID:               row.ID,
		OrderNumber:      row.OrderNumber,
		ProviderID:       row.SupplierID,
		Status:           row.Status,
		PaymentStatus:    row.PaymentView(),
		PaymentMethod:    row.PaymentMethod,
		PaymentReference: row.PaymentReference,
		Total:            row.TotalAmount,
		Items:            items,
		PaidAt:           row.PaidAt,
		CancelledAt:      row.CancelledAt,
		CreatedAt:        row.CreatedAt,
	}
}

// ToSupplierOrderDTO maps an order row to the vendor-facing shape, keeping
// only the supplier's line items and recomputing the subtotal from them.
func ToSupplierOrderDTO(row models.Order, supplierID uuid.UUID) SupplierOrderDTO {
	items := make([]ItemDTO, 0, len(row.Items))
	var subtotal int64
	for _, item := range row.Items {
		if item.SupplierID != supplierID {
			continue
		}
		items = append(items, toItemDTO(item))
		subtotal += item.LineTotal
	}
	return SupplierOrderDTO{
		ID:            row.ID,
		OrderNumber:   row.OrderNumber,
		BuyerID:       row.BuyerID,
		Status:        row.Status,
		PaymentStatus: row.PaymentView(),
		PaymentMethod: row.PaymentMethod,
		Subtotal:      subtotal,
		Items:         items,
		PaidAt:        row.PaidAt,
		CreatedAt:     row.CreatedAt,
	}
}
