package repository

import (
	"context"
	"testing"

	"github.com/devdazzlee/southen-sweet-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestDB(t *testing.T) (CartRepository, func()) {
	ctx := context.Background()

	// Start MongoDB container
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoRepository(db)

	mongoRepo := repo.(*mongoRepository)
	err = mongoRepo.CreateIndexes(ctx)
	require.NoError(t, err)

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func TestGetCart_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	cart, err := repo.GetCart(ctx, "nonexistent")

	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, cart)
}

func TestAddItem_NewCart(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	sessionID := "sess123"
	item := domain.CartItem{
		ProductID:    "lic-001",
		Name:         "Salted licorice",
		CurrentPrice: 4.95,
		Quantity:     3,
	}
	err := repo.AddItem(ctx, sessionID, item)
	require.NoError(t, err)

	cart, err := repo.GetCart(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, sessionID, cart.SessionID)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, "lic-001", cart.Items[0].ProductID)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestAddItem_ExistingItem_UpdatesQuantity(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	sessionID := "sess123"

	err := repo.AddItem(ctx, sessionID, domain.CartItem{ProductID: "lic-001", Quantity: 2})
	require.NoError(t, err)

	err = repo.AddItem(ctx, sessionID, domain.CartItem{ProductID: "lic-001", Quantity: 5})
	require.NoError(t, err)

	// Quantity updated, not a second line
	cart, err := repo.GetCart(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestSetItemSelected_And_SelectAll(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	sessionID := "sess123"

	require.NoError(t, repo.AddItem(ctx, sessionID, domain.CartItem{ProductID: "a", Quantity: 1}))
	require.NoError(t, repo.AddItem(ctx, sessionID, domain.CartItem{ProductID: "b", Quantity: 1}))

	err := repo.SetItemSelected(ctx, sessionID, "a", true)
	require.NoError(t, err)

	cart, err := repo.GetCart(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, cart.Items[0].Selected)
	assert.False(t, cart.Items[1].Selected)

	err = repo.SelectAll(ctx, sessionID, true)
	require.NoError(t, err)

	cart, err = repo.GetCart(ctx, sessionID)
	require.NoError(t, err)
	for _, item := range cart.Items {
		assert.True(t, item.Selected)
	}
}

func TestSetItemSelected_ItemNotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.AddItem(ctx, "sess123", domain.CartItem{ProductID: "a", Quantity: 1}))

	err := repo.SetItemSelected(ctx, "sess123", "missing", true)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveSelected(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	sessionID := "sess123"

	require.NoError(t, repo.AddItem(ctx, sessionID, domain.CartItem{ProductID: "a", Quantity: 1}))
	require.NoError(t, repo.AddItem(ctx, sessionID, domain.CartItem{ProductID: "b", Quantity: 1}))
	require.NoError(t, repo.AddItem(ctx, sessionID, domain.CartItem{ProductID: "c", Quantity: 1}))

	require.NoError(t, repo.SetItemSelected(ctx, sessionID, "a", true))
	require.NoError(t, repo.SetItemSelected(ctx, sessionID, "c", true))

	err := repo.RemoveSelected(ctx, sessionID)
	require.NoError(t, err)

	cart, err := repo.GetCart(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "b", cart.Items[0].ProductID)
}

func TestRemoveItem_And_DeleteCart(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	sessionID := "sess123"

	require.NoError(t, repo.AddItem(ctx, sessionID, domain.CartItem{ProductID: "a", Quantity: 1}))
	require.NoError(t, repo.AddItem(ctx, sessionID, domain.CartItem{ProductID: "b", Quantity: 1}))

	err := repo.RemoveItem(ctx, sessionID, "a")
	require.NoError(t, err)

	cart, err := repo.GetCart(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	err = repo.DeleteCart(ctx, sessionID)
	require.NoError(t, err)

	_, err = repo.GetCart(ctx, sessionID)
	assert.ErrorIs(t, err, ErrCartNotFound)

	err = repo.DeleteCart(ctx, sessionID)
	assert.ErrorIs(t, err, ErrCartNotFound)
}
