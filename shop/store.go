package shop

import (
	"context"

	"github.com/warp/potion-shop/ledger"
)

// CartStore persists carts and their items.
type CartStore interface {
	// CreateCart assigns c.ID and c.CreatedAt and returns the stored cart.
	CreateCart(ctx context.Context, c Cart) (Cart, error)
	// GetCart returns nil, nil when the cart does not exist.
	GetCart(ctx context.Context, id int64) (*Cart, error)
	// UpsertCartItem adds item.Quantity to the existing (cart, sku) line or
	// creates it.
	UpsertCartItem(ctx context.Context, item CartItem) error
	CartItems(ctx context.Context, cartID int64) ([]CartItem, error)
	// DeleteCart removes the cart and its items.
	DeleteCart(ctx context.Context, id int64) error
	DeleteAllCarts(ctx context.Context) error
}

// Tx is everything one unit of work can touch.
type Tx interface {
	ledger.Tx
	CartStore
}

// Store is the persistence boundary of the shop. Calls made directly on a
// Store run in their own implicit transaction; WithTx groups calls into one
// all-or-nothing unit. If fn returns an error nothing it wrote is kept.
type Store interface {
	Tx
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
