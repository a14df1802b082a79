package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
)

// ProductDTO is the catalog listing shape returned to clients. Suppliers are
// exposed as `provider` fields in the wire contract.
type ProductDTO struct {
	ID             uuid.UUID `json:"id"`
	ProviderID     uuid.UUID `json:"provider_id"`
	ProviderName   string    `json:"provider_name"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Description    *string   `json:"description,omitempty"`
	UnitPrice      int64     `json:"unit_price"`
	AvailableStock int       `json:"available_stock"`
	ImageURL       *string   `json:"image_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToProductDTO maps a product row to its listing shape.
func ToProductDTO(row models.Product) ProductDTO {
	return ProductDTO{
		ID:             row.ID,
		ProviderID:     row.SupplierID,
		ProviderName:   row.SupplierName,
		Name:           row.Name,
		Category:       row.Category,
		Description:    row.Description,
		UnitPrice:      row.UnitPrice,
		AvailableStock: row.AvailableStock,
		ImageURL:       row.ImageURL,
		CreatedAt:      row.CreatedAt,
	}
}
