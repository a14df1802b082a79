package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line of a buyer's server-side cart. Every row for the same
// buyer must reference the same supplier (single-supplier invariant); the
// cart service refuses mutations that would break that.
type CartItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID        uuid.UUID `gorm:"column:buyer_id;type:uuid;not null"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	SupplierID     uuid.UUID `gorm:"column:supplier_id;type:uuid;not null"`
	SupplierName   string    `gorm:"column:supplier_name;not null"`
	ProductName    string    `gorm:"column:product_name;not null"`
	UnitPrice      int64     `gorm:"column:unit_price;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	AvailableStock int       `gorm:"column:available_stock;not null"`
	ImageURL       *string   `gorm:"column:image_url"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// LineTotal returns unit price times quantity.
func (c CartItem) LineTotal() int64 {
	return c.UnitPrice * int64(c.Quantity)
}
