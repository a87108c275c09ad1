package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ateliermoda/moda-backend/api/middleware"
	cartsvc "github.com/ateliermoda/moda-backend/internal/cart"
	"github.com/ateliermoda/moda-backend/internal/identity"
	pkgerrors "github.com/ateliermoda/moda-backend/pkg/errors"
	"github.com/ateliermoda/moda-backend/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCartService struct {
	dto       *cartsvc.CartDTO
	created   bool
	err       error
	lastOwner identity.Identity
	lastQty   int
	lastVarID uuid.UUID
	removed   bool
}

func (s *stubCartService) View(_ context.Context, owner identity.Identity) (*cartsvc.CartDTO, error) {
	s.lastOwner = owner
	return s.dto, s.err
}

func (s *stubCartService) AddItem(_ context.Context, owner identity.Identity, variationID uuid.UUID, qty int) (*cartsvc.CartDTO, bool, error) {
	s.lastOwner, s.lastVarID, s.lastQty = owner, variationID, qty
	return s.dto, s.created, s.err
}

func (s *stubCartService) UpdateItem(_ context.Context, owner identity.Identity, variationID uuid.UUID, qty int) (*cartsvc.CartDTO, error) {
	s.lastOwner, s.lastVarID, s.lastQty = owner, variationID, qty
	return s.dto, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, owner identity.Identity, variationID uuid.UUID) error {
	s.lastOwner, s.lastVarID = owner, variationID
	s.removed = true
	return s.err
}

func withOwner(owner identity.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithOwner(r.Context(), owner)))
		})
	}
}

func newCartRouter(svc cartsvc.Service, owner identity.Identity) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(withOwner(owner))
		r.Get("/", CartView(svc, nil))
		r.Post("/items", CartAddItem(svc, nil))
		r.Patch("/items/{variationID}", CartUpdateItem(svc, nil))
		r.Delete("/items/{variationID}", CartRemoveItem(svc, nil))
	})
	return r
}

func guestOwner(t *testing.T) identity.Identity {
	t.Helper()
	owner, err := identity.Guest("sess-controller")
	require.NoError(t, err)
	return owner
}

func TestCartAddItemStatusReflectsCreation(t *testing.T) {
	owner := guestOwner(t)
	variationID := uuid.New()
	svc := &stubCartService{dto: &cartsvc.CartDTO{ID: uuid.New()}, created: true}
	router := newCartRouter(svc, owner)

	body := `{"variation_id":"` + variationID.String() + `","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, owner, svc.lastOwner)
	assert.Equal(t, variationID, svc.lastVarID)
	assert.Equal(t, 2, svc.lastQty)

	// stacking onto an existing line answers 200
	svc.created = false
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCartAddItemValidatesBody(t *testing.T) {
	router := newCartRouter(&stubCartService{}, guestOwner(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"variation_id":"nope","quantity":0}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartAddItemSurfacesInsufficientStock(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.InsufficientStock(4)}
	router := newCartRouter(svc, guestOwner(t))

	body := `{"variation_id":"` + uuid.NewString() + `","quantity":9}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "INSUFFICIENT_STOCK", envelope.Error.Code)
	details, ok := envelope.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(4), details["available"])
}

func TestCartUpdateItemParsesPathParam(t *testing.T) {
	svc := &stubCartService{dto: &cartsvc.CartDTO{}}
	router := newCartRouter(svc, guestOwner(t))
	variationID := uuid.New()

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/"+variationID.String(), strings.NewReader(`{"quantity":3}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, variationID, svc.lastVarID)
	assert.Equal(t, 3, svc.lastQty)

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/not-a-uuid", strings.NewReader(`{"quantity":3}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartRemoveItemNoContent(t *testing.T) {
	svc := &stubCartService{}
	router := newCartRouter(svc, guestOwner(t))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, svc.removed)
}

func TestCartRemoveItemNotFound(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")}
	router := newCartRouter(svc, guestOwner(t))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartViewReturnsEnvelope(t *testing.T) {
	cartID := uuid.New()
	svc := &stubCartService{dto: &cartsvc.CartDTO{ID: cartID}}
	router := newCartRouter(svc, guestOwner(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data cartsvc.CartDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, cartID, envelope.Data.ID)
}
