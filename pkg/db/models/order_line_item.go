package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem is a point-in-time snapshot of a cart line at order creation.
// It never changes, even when the underlying product does.
type OrderLineItem struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	ProductID   *uuid.UUID `gorm:"column:product_id;type:uuid"`
	ProductName string     `gorm:"column:product_name;not null"`
	SupplierID  uuid.UUID  `gorm:"column:supplier_id;type:uuid;not null"`
	UnitPrice   int64      `gorm:"column:unit_price;not null"`
	Quantity    int        `gorm:"column:quantity;not null"`
	LineTotal   int64      `gorm:"column:line_total;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
