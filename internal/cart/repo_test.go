package cart

import (
	"context"
	"testing"
	"time"

	"github.com/ateliermoda/moda-backend/internal/identity"
	"github.com/ateliermoda/moda-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func mustGuest(t *testing.T) identity.Identity {
	t.Helper()
	owner, err := identity.Guest("sess-" + uuid.NewString())
	require.NoError(t, err)
	return owner
}

func mustUser(t *testing.T) identity.Identity {
	t.Helper()
	owner, err := identity.User(uuid.New())
	require.NoError(t, err)
	return owner
}

func TestGetOrCreateIsIdempotentPerOwner(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for _, owner := range []identity.Identity{mustGuest(t), mustUser(t)} {
		first, err := repo.GetOrCreate(ctx, owner)
		require.NoError(t, err)

		second, err := repo.GetOrCreate(ctx, owner)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID, "repeated GetOrCreate must return the same cart for %s", owner)
	}
}

func TestGetOrCreateKeepsOwnersSeparate(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	guest := mustGuest(t)
	user := mustUser(t)

	guestCart, err := repo.GetOrCreate(ctx, guest)
	require.NoError(t, err)
	userCart, err := repo.GetOrCreate(ctx, user)
	require.NoError(t, err)

	assert.NotEqual(t, guestCart.ID, userCart.ID)
	require.NotNil(t, guestCart.SessionKey)
	assert.Nil(t, guestCart.UserID)
	require.NotNil(t, userCart.UserID)
	assert.Nil(t, userCart.SessionKey)
}

func TestUpsertLineIncrementStacksQuantity(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cart, err := repo.GetOrCreate(ctx, mustGuest(t))
	require.NoError(t, err)
	variationID := uuid.New()

	require.NoError(t, repo.UpsertLineIncrement(ctx, cart.ID, variationID, 2))
	require.NoError(t, repo.UpsertLineIncrement(ctx, cart.ID, variationID, 3))

	line, err := repo.GetLine(ctx, cart.ID, variationID)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)

	lines, err := repo.ListLines(ctx, cart.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1, "stacking must not create a second line")
}

func TestUpsertLineIncrementRejectsNonPositive(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	err := repo.UpsertLineIncrement(context.Background(), uuid.New(), uuid.New(), 0)
	assert.Error(t, err)
}

func TestSetLineQuantityReportsMisses(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cart, err := repo.GetOrCreate(ctx, mustGuest(t))
	require.NoError(t, err)
	variationID := uuid.New()
	require.NoError(t, repo.UpsertLineIncrement(ctx, cart.ID, variationID, 1))

	affected, err := repo.SetLineQuantity(ctx, cart.ID, variationID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	line, err := repo.GetLine(ctx, cart.ID, variationID)
	require.NoError(t, err)
	assert.Equal(t, 7, line.Quantity)

	affected, err = repo.SetLineQuantity(ctx, cart.ID, uuid.New(), 7)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestDeleteLineScopedToCart(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cartA, err := repo.GetOrCreate(ctx, mustGuest(t))
	require.NoError(t, err)
	cartB, err := repo.GetOrCreate(ctx, mustGuest(t))
	require.NoError(t, err)

	variationID := uuid.New()
	require.NoError(t, repo.UpsertLineIncrement(ctx, cartA.ID, variationID, 1))

	// deleting through the wrong cart must not touch the line
	affected, err := repo.DeleteLine(ctx, cartB.ID, variationID)
	require.NoError(t, err)
	assert.Zero(t, affected)

	affected, err = repo.DeleteLine(ctx, cartA.ID, variationID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestLineMutationsBumpCartTimestamp(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cart, err := repo.GetOrCreate(ctx, mustGuest(t))
	require.NoError(t, err)
	variationID := uuid.New()

	backdate := func() time.Time {
		past := time.Now().UTC().Add(-time.Hour)
		require.NoError(t, db.Exec(`UPDATE carts SET updated_at = ? WHERE id = ?`, past, cart.ID).Error)
		return past
	}
	fetchUpdatedAt := func() time.Time {
		var row models.Cart
		require.NoError(t, db.First(&row, "id = ?", cart.ID).Error)
		return row.UpdatedAt
	}

	past := backdate()
	require.NoError(t, repo.UpsertLineIncrement(ctx, cart.ID, variationID, 2))
	assert.True(t, fetchUpdatedAt().After(past), "upsert must bump the cart timestamp")

	past = backdate()
	affected, err := repo.SetLineQuantity(ctx, cart.ID, variationID, 5)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	assert.True(t, fetchUpdatedAt().After(past), "quantity overwrite must bump the cart timestamp")

	// a miss mutates nothing and must not pretend otherwise
	past = backdate()
	affected, err = repo.SetLineQuantity(ctx, cart.ID, uuid.New(), 5)
	require.NoError(t, err)
	require.Zero(t, affected)
	assert.True(t, fetchUpdatedAt().Equal(past), "no-op writes leave the timestamp alone")

	past = backdate()
	affected, err = repo.DeleteLine(ctx, cart.ID, variationID)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	assert.True(t, fetchUpdatedAt().After(past), "line removal must bump the cart timestamp")
}

func TestReassignOwner(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	guest := mustGuest(t)
	cart, err := repo.GetOrCreate(ctx, guest)
	require.NoError(t, err)

	userID := uuid.New()
	require.NoError(t, repo.ReassignOwner(ctx, cart.ID, userID))

	user, err := identity.User(userID)
	require.NoError(t, err)
	reassigned, err := repo.FindByOwner(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, reassigned.ID)
	assert.Nil(t, reassigned.SessionKey)

	_, err = repo.FindByOwner(ctx, guest)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteCartRemovesLines(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cart, err := repo.GetOrCreate(ctx, mustGuest(t))
	require.NoError(t, err)
	require.NoError(t, repo.UpsertLineIncrement(ctx, cart.ID, uuid.New(), 2))

	require.NoError(t, repo.DeleteCart(ctx, cart.ID))

	lines, err := repo.ListLines(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
