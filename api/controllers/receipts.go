package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jkiprotich/mifugo-market-backend/api/responses"
	"github.com/jkiprotich/mifugo-market-backend/api/validators"
	receiptsvc "github.com/jkiprotich/mifugo-market-backend/internal/receipts"
	"github.com/jkiprotich/mifugo-market-backend/pkg/logger"
)

// BuyerOrderReceipt renders the full receipt for a settled order. Pass
// format=text for the plain-text rendering.
func BuyerOrderReceipt(svc receiptsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := svc.ForBuyer(r.Context(), buyerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeReceipt(w, r, doc)
	}
}

// VendorOrderReceipt renders the vendor-scoped receipt for a settled order.
func VendorOrderReceipt(svc receiptsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := actorSupplierID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := svc.ForSupplier(r.Context(), supplierID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeReceipt(w, r, doc)
	}
}

func writeReceipt(w http.ResponseWriter, r *http.Request, doc *receiptsvc.Document) {
	if validators.ParseQueryString(r, "format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(doc.Text()))
		return
	}
	responses.WriteSuccess(w, doc)
}
