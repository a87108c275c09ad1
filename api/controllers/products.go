package controllers

import (
	"net/http"
	"strings"

	"github.com/ateliermoda/moda-backend/api/responses"
	"github.com/ateliermoda/moda-backend/api/validators"
	"github.com/ateliermoda/moda-backend/internal/catalog"
	"github.com/ateliermoda/moda-backend/pkg/logger"
	"github.com/ateliermoda/moda-backend/pkg/pagination"
	"github.com/go-chi/chi/v5"
)

// ProductsList serves the paginated catalog index.
func ProductsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		filters := catalog.ProductListFilters{
			Category: validators.SanitizeString(r.URL.Query().Get("category"), 64),
			Query:    validators.SanitizeString(r.URL.Query().Get("q"), 128),
		}

		result, err := svc.ListProducts(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProductsGet serves one product aggregate by slug.
func ProductsGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		product, err := svc.GetProduct(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
