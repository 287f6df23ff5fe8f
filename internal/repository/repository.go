package repository

import (
	"context"

	"github.com/devdazzlee/southen-sweet-sub000/internal/domain"
)

// CartRepository defines the interface for cart persistence.
// Consumers define this interface, not the MongoDB implementation.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	AddItem(ctx context.Context, sessionID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, sessionID, productID string, quantity int) error
	SetItemSelected(ctx context.Context, sessionID, productID string, selected bool) error
	SelectAll(ctx context.Context, sessionID string, selected bool) error
	RemoveItem(ctx context.Context, sessionID, productID string) error
	RemoveSelected(ctx context.Context, sessionID string) error
	DeleteCart(ctx context.Context, sessionID string) error
}
