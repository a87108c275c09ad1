package cart

import (
	"context"
	"testing"

	"github.com/ateliermoda/moda-backend/internal/catalog"
	pkgerrors "github.com/ateliermoda/moda-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubOracle struct {
	details map[uuid.UUID]*catalog.VariationDetail
}

func (o *stubOracle) GetVariationDetail(_ context.Context, variationID uuid.UUID) (*catalog.VariationDetail, error) {
	detail, ok := o.details[variationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return detail, nil
}

func (o *stubOracle) add(t *testing.T, price string, stock int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	o.details[id] = &catalog.VariationDetail{
		VariationID:   id,
		ProductItemID: uuid.New(),
		ProductID:     uuid.New(),
		ProductName:   "Linen Blazer",
		SKU:           "LB-" + id.String()[:8],
		Color:         "ecru",
		Size:          "M",
		UnitPrice:     decimal.RequireFromString(price),
		OriginalPrice: decimal.RequireFromString(price),
		QtyInStock:    stock,
		IsActive:      true,
	}
	return id
}

func newTestService(t *testing.T) (Service, *Repository, *stubOracle) {
	t.Helper()
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	oracle := &stubOracle{details: map[uuid.UUID]*catalog.VariationDetail{}}
	svc, err := NewService(repo, gormTxRunner{db: db}, oracle)
	require.NoError(t, err)
	return svc, repo, oracle
}

func TestAddItemCreatesThenStacks(t *testing.T) {
	svc, _, oracle := newTestService(t)
	ctx := context.Background()
	owner := mustGuest(t)
	variationID := oracle.add(t, "120.00", 10)

	dto, created, err := svc.AddItem(ctx, owner, variationID, 2)
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, dto.Lines, 1)
	assert.Equal(t, 2, dto.Lines[0].Quantity)

	dto, created, err = svc.AddItem(ctx, owner, variationID, 3)
	require.NoError(t, err)
	assert.False(t, created, "stacking onto an existing line is an update, not a create")
	require.Len(t, dto.Lines, 1)
	assert.Equal(t, 5, dto.Lines[0].Quantity)
	assert.Equal(t, 5, dto.TotalItems)
	assert.True(t, dto.Subtotal.Equal(decimal.RequireFromString("600.00")))
}

func TestAddItemInsufficientStockRollsBack(t *testing.T) {
	svc, repo, oracle := newTestService(t)
	ctx := context.Background()
	owner := mustGuest(t)
	variationID := oracle.add(t, "45.50", 3)

	_, _, err := svc.AddItem(ctx, owner, variationID, 2)
	require.NoError(t, err)

	_, _, err = svc.AddItem(ctx, owner, variationID, 2)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Equal(t, map[string]any{"available": 3}, typed.Details())

	// the failed increment must not stick
	cart, err := repo.FindByOwner(ctx, owner)
	require.NoError(t, err)
	line, err := repo.GetLine(ctx, cart.ID, variationID)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
}

func TestAddItemUnknownVariationIsInvalidInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	// adding a variation that does not exist is a bad request, not a 404
	_, _, err := svc.AddItem(context.Background(), mustGuest(t), uuid.New(), 1)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestAddItemInactiveVariationIsInvalidInput(t *testing.T) {
	svc, _, oracle := newTestService(t)
	variationID := oracle.add(t, "10.00", 5)
	oracle.details[variationID].IsActive = false

	_, _, err := svc.AddItem(context.Background(), mustGuest(t), variationID, 1)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestAddItemValidatesInput(t *testing.T) {
	svc, _, oracle := newTestService(t)
	variationID := oracle.add(t, "10.00", 5)

	_, _, err := svc.AddItem(context.Background(), mustGuest(t), variationID, 0)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, _, err = svc.AddItem(context.Background(), mustGuest(t), uuid.Nil, 1)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUpdateItemOverwritesQuantity(t *testing.T) {
	svc, _, oracle := newTestService(t)
	ctx := context.Background()
	owner := mustGuest(t)
	variationID := oracle.add(t, "30.00", 10)

	_, _, err := svc.AddItem(ctx, owner, variationID, 2)
	require.NoError(t, err)

	dto, err := svc.UpdateItem(ctx, owner, variationID, 7)
	require.NoError(t, err)
	require.Len(t, dto.Lines, 1)
	assert.Equal(t, 7, dto.Lines[0].Quantity)
	assert.True(t, dto.Subtotal.Equal(decimal.RequireFromString("210.00")))
}

func TestUpdateItemChecksStock(t *testing.T) {
	svc, _, oracle := newTestService(t)
	ctx := context.Background()
	owner := mustGuest(t)
	variationID := oracle.add(t, "30.00", 4)

	_, _, err := svc.AddItem(ctx, owner, variationID, 2)
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, owner, variationID, 5)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Equal(t, map[string]any{"available": 4}, typed.Details())
}

func TestUpdateItemMissingLine(t *testing.T) {
	svc, _, oracle := newTestService(t)
	ctx := context.Background()
	owner := mustGuest(t)
	inCart := oracle.add(t, "30.00", 10)
	notInCart := oracle.add(t, "30.00", 10)

	_, _, err := svc.AddItem(ctx, owner, inCart, 1)
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, owner, notInCart, 2)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateItemUnknownVariation(t *testing.T) {
	svc, _, _ := newTestService(t)

	// unlike add, updating through an unknown variation is a miss on a line
	_, err := svc.UpdateItem(context.Background(), mustGuest(t), uuid.New(), 2)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRemoveItemMissesReadTheSame(t *testing.T) {
	svc, _, oracle := newTestService(t)
	ctx := context.Background()

	ownerWithCart := mustGuest(t)
	variationID := oracle.add(t, "30.00", 10)
	_, _, err := svc.AddItem(ctx, ownerWithCart, variationID, 1)
	require.NoError(t, err)

	// a variation absent from the cart and a missing cart both come back as
	// the same not-found, so callers cannot probe other carts
	missAbsentLine := svc.RemoveItem(ctx, ownerWithCart, uuid.New())
	missNoCart := svc.RemoveItem(ctx, mustGuest(t), variationID)

	for _, err := range []error{missAbsentLine, missNoCart} {
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
		assert.Equal(t, "cart item not found", typed.Message())
	}
}

func TestRemoveItemDeletesLine(t *testing.T) {
	svc, _, oracle := newTestService(t)
	ctx := context.Background()
	owner := mustGuest(t)
	variationID := oracle.add(t, "30.00", 10)

	_, _, err := svc.AddItem(ctx, owner, variationID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(ctx, owner, variationID))

	dto, err := svc.View(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, dto.Lines)
	assert.True(t, dto.Subtotal.IsZero())
}

func TestViewCreatesCartAndPricesLive(t *testing.T) {
	svc, _, oracle := newTestService(t)
	ctx := context.Background()
	owner := mustGuest(t)

	dto, err := svc.View(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, dto.Lines)
	assert.NotEqual(t, uuid.Nil, dto.ID)

	variationID := oracle.add(t, "80.00", 10)
	_, _, err = svc.AddItem(ctx, owner, variationID, 2)
	require.NoError(t, err)

	// price drop after the item went in: the view reflects it immediately
	oracle.details[variationID].UnitPrice = decimal.RequireFromString("60.00")
	oracle.details[variationID].OnSale = true

	dto, err = svc.View(ctx, owner)
	require.NoError(t, err)
	require.Len(t, dto.Lines, 1)
	assert.True(t, dto.Lines[0].UnitPrice.Equal(decimal.RequireFromString("60.00")))
	assert.True(t, dto.Lines[0].OnSale)
	assert.True(t, dto.Subtotal.Equal(decimal.RequireFromString("120.00")))
}

func TestViewFlagsVanishedVariations(t *testing.T) {
	svc, _, oracle := newTestService(t)
	ctx := context.Background()
	owner := mustGuest(t)
	variationID := oracle.add(t, "80.00", 10)

	_, _, err := svc.AddItem(ctx, owner, variationID, 2)
	require.NoError(t, err)

	delete(oracle.details, variationID)

	dto, err := svc.View(ctx, owner)
	require.NoError(t, err)
	require.Len(t, dto.Lines, 1)
	assert.True(t, dto.Lines[0].Unavailable)
	assert.Equal(t, 2, dto.Lines[0].Quantity)
	assert.True(t, dto.Subtotal.IsZero(), "unavailable lines do not price into the subtotal")
}
