package controllers

import (
	"net/http"

	"github.com/ateliermoda/moda-backend/api/middleware"
	"github.com/ateliermoda/moda-backend/api/responses"
	"github.com/ateliermoda/moda-backend/api/validators"
	cartsvc "github.com/ateliermoda/moda-backend/internal/cart"
	"github.com/ateliermoda/moda-backend/internal/identity"
	pkgerrors "github.com/ateliermoda/moda-backend/pkg/errors"
	"github.com/ateliermoda/moda-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type addCartItemRequest struct {
	VariationID string `json:"variation_id" validate:"required,uuid4"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// CartView returns the owner's cart, creating it on first touch.
func CartView(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerFromRequest(r, logg, w)
		if !ok {
			return
		}

		dto, err := svc.View(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CartAddItem adds units of a variation to the cart. Replies 201 when the
// line is new and 200 when it stacked onto an existing line.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerFromRequest(r, logg, w)
		if !ok {
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variationID, err := validators.ParsePathUUID(payload.VariationID, "variation_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, created, err := svc.AddItem(r.Context(), owner, variationID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, dto)
	}
}

// CartUpdateItem overwrites a line's quantity.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerFromRequest(r, logg, w)
		if !ok {
			return
		}

		variationID, err := validators.ParsePathUUID(chi.URLParam(r, "variationID"), "variationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.UpdateItem(r.Context(), owner, variationID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CartRemoveItem deletes a line from the cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerFromRequest(r, logg, w)
		if !ok {
			return
		}

		variationID, err := validators.ParsePathUUID(chi.URLParam(r, "variationID"), "variationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), owner, variationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func ownerFromRequest(r *http.Request, logg *logger.Logger, w http.ResponseWriter) (identity.Identity, bool) {
	owner := middleware.OwnerFromContext(r.Context())
	if owner.IsZero() {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart owner not resolved"))
		return identity.Identity{}, false
	}
	return owner, true
}
