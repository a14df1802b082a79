package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a marketplace listing owned by one supplier store.
type Product struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierID     uuid.UUID `gorm:"column:supplier_id;type:uuid;not null"`
	SupplierName   string    `gorm:"column:supplier_name;not null"`
	Name           string    `gorm:"column:name;not null"`
	Category       string    `gorm:"column:category;not null"`
	Description    *string   `gorm:"column:description"`
	UnitPrice      int64     `gorm:"column:unit_price;not null"`
	AvailableStock int       `gorm:"column:available_stock;not null;default:0"`
	ImageURL       *string   `gorm:"column:image_url"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
