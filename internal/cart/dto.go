package cart

import (
	"github.com/google/uuid"

	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
)

// ItemDTO is the wire shape of one cart line.
type ItemDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	ProviderID     uuid.UUID `json:"provider_id"`
	ProviderName   string    `json:"provider_name"`
	ProductName    string    `json:"product_name"`
	UnitPrice      int64     `json:"unit_price"`
	Quantity       int       `json:"qty"`
	LineTotal      int64     `json:"line_total"`
	AvailableStock int       `json:"available_stock"`
	ImageURL       *string   `json:"image_url,omitempty"`
}

// VendorGroup is a per-supplier display bucket with its own subtotal.
type VendorGroup struct {
	ProviderID   uuid.UUID `json:"provider_id"`
	ProviderName string    `json:"provider_name"`
	Subtotal     int64     `json:"subtotal"`
	Items        []ItemDTO `json:"items"`
}

// View is the full cart reading returned to buyers. VendorConflict reports a
// cart that somehow holds lines from more than one supplier; the write path
// prevents this, so the flag is a read-side consistency check.
type View struct {
	Items          []ItemDTO     `json:"items"`
	Total          int64         `json:"total"`
	Groups         []VendorGroup `json:"groups"`
	VendorConflict bool          `json:"vendor_conflict"`
}

// ToItemDTO maps one cart row to its wire shape.
func ToItemDTO(row models.CartItem) ItemDTO {
	return ItemDTO{
		ID:             row.ID,
		ProductID:      row.ProductID,
		ProviderID:     row.SupplierID,
		ProviderName:   row.SupplierName,
		ProductName:    row.ProductName,
		UnitPrice:      row.UnitPrice,
		Quantity:       row.Quantity,
		LineTotal:      row.LineTotal(),
		AvailableStock: row.AvailableStock,
		ImageURL:       row.ImageURL,
	}
}

// BuildView computes totals and per-supplier groups from the raw rows.
func BuildView(rows []models.CartItem) View {
	view := View{
		Items:  make([]ItemDTO, 0, len(rows)),
		Groups: []VendorGroup{},
	}

	groupIndex := map[uuid.UUID]int{}
	for _, row := range rows {
		dto := ToItemDTO(row)
		view.Items = append(view.Items, dto)
		view.Total += dto.LineTotal

		idx, ok := groupIndex[row.SupplierID]
		if !ok {
			idx = len(view.Groups)
			groupIndex[row.SupplierID] = idx
			view.Groups = append(view.Groups, VendorGroup{
				ProviderID:   row.SupplierID,
				ProviderName: row.SupplierName,
			})
		}
		view.Groups[idx].Subtotal += dto.LineTotal
		view.Groups[idx].Items = append(view.Groups[idx].Items, dto)
	}

	_, single := SingleVendor(rows)
	view.VendorConflict = !single

	return view
}

// SingleVendor reports whether every line shares one supplier, returning that
// supplier's ID when it does. An empty cart is trivially single-vendor.
func SingleVendor(rows []models.CartItem) (uuid.UUID, bool) {
	if len(rows) == 0 {
		return uuid.Nil, true
	}
	supplierID := rows[0].SupplierID
	for _, row := range rows[1:] {
		if row.SupplierID != supplierID {
			return uuid.Nil, false
		}
	}
	return supplierID, true
}
