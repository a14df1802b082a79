package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jkiprotich/mifugo-market-backend/api/responses"
	"github.com/jkiprotich/mifugo-market-backend/api/validators"
	catalogsvc "github.com/jkiprotich/mifugo-market-backend/internal/catalog"
	"github.com/jkiprotich/mifugo-market-backend/pkg/logger"
	"github.com/jkiprotich/mifugo-market-backend/pkg/pagination"
)

// ListProducts serves the public, filterable catalog page.
func ListProducts(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		providerID, err := validators.ParseQueryUUID(r, "provider_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos, total, err := svc.List(r.Context(), catalogsvc.ListInput{
			ProviderID: providerID,
			Category:   validators.ParseQueryString(r, "category"),
			Search:     validators.ParseQueryString(r, "search"),
			Page:       page,
			Limit:      limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WritePaged(w, dtos, total)
	}
}

// GetProduct serves one product by id.
func GetProduct(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productID"), "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}
