package receipts

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
	"github.com/jkiprotich/mifugo-market-backend/pkg/enums"
	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
)

// Line is one rendered receipt row.
type Line struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"qty"`
	UnitPrice   int64  `json:"unit_price"`
	LineTotal   int64  `json:"line_total"`
}

// Document is the buyer- or vendor-facing receipt for a settled order. Given
// the same order the output is byte-for-byte identical, so receipts can be
// regenerated at any time instead of stored.
type Document struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   int64               `json:"order_number"`
	ProviderID    uuid.UUID           `json:"provider_id"`
	ProviderName  string              `json:"provider_name,omitempty"`
	VendorScoped  bool                `json:"vendor_scoped"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Reference     string              `json:"reference,omitempty"`
	PaidAt        time.Time           `json:"paid_at"`
	Lines         []Line              `json:"lines"`
	Total         int64               `json:"total"`
	Currency      string              `json:"currency"`
}

// Render builds a receipt from a settled order. A nil vendorScope renders the
// full order; a supplier id restricts the lines and total to that supplier.
func Render(order models.Order, currency string, vendorScope *uuid.UUID) (*Document, error) {
	if !order.IsPaid() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "receipts exist only for settled orders")
	}
	if vendorScope != nil && *vendorScope != order.SupplierID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no lines for this vendor")
	}

	doc := &Document{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		ProviderID:    order.SupplierID,
		VendorScoped:  vendorScope != nil,
		PaymentMethod: order.PaymentMethod,
		PaidAt:        order.PaidAt.UTC(),
		Currency:      currency,
	}
	if order.PaymentReference != nil {
		doc.Reference = *order.PaymentReference
	}

	lines := make([]Line, 0, len(order.Items))
	var total int64
	for _, item := range order.Items {
		if vendorScope != nil && item.SupplierID != *vendorScope {
			continue
		}
		lines = append(lines, Line{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
		total += item.LineTotal
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no lines for this vendor")
	}
	doc.Lines = lines
	doc.Total = total
	return doc, nil
}

// Text renders the document as a plain-text receipt suitable for SMS or
// download. Output depends only on the document fields.
func (d *Document) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "RECEIPT #%d\n", d.OrderNumber)
	fmt.Fprintf(&b, "Paid %s via %s\n", d.PaidAt.Format("2006-01-02 15:04 MST"), d.PaymentMethod)
	if d.Reference != "" {
		fmt.Fprintf(&b, "Ref %s\n", d.Reference)
	}
	b.WriteString("----------------------------------------\n")
	for _, line := range d.Lines {
		fmt.Fprintf(&b, "%-24s x%-3d %s %s\n", truncate(line.ProductName, 24), line.Quantity, d.Currency, formatAmount(line.LineTotal))
	}
	b.WriteString("----------------------------------------\n")
	fmt.Fprintf(&b, "TOTAL %s %s\n", d.Currency, formatAmount(d.Total))
	return b.String()
}

// Amounts are stored as whole shillings; receipts print the conventional two
// decimal places.
func formatAmount(amount int64) string {
	return decimal.NewFromInt(amount).StringFixed(2)
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-3]) + "..."
}
