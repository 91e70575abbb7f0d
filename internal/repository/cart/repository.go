package cart

import (
	"context"

	"storefront-checkout/internal/domain"
)

type Kind string

const (
	KindLocal  Kind = "local"
	KindRemote Kind = "remote"
)

// Backend persists the entries of one cart. Implementations are bound to a single owner
// (a device for the local store, a customer for the remote store).
type Backend interface {
	Kind() Kind
	// List returns the persisted entries ordered by product id.
	List(ctx context.Context) ([]domain.CartEntry, error)
	// Upsert creates or overwrites the entry for product. quantity must be >= 1.
	Upsert(ctx context.Context, product domain.Product, quantity int) (domain.CartEntry, error)
	// Remove deletes the entry; removing an absent id is not an error.
	Remove(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
}

// Refresher swaps entry snapshots for live catalog data.
type Refresher interface {
	Refresh(ctx context.Context, entries []domain.CartEntry) ([]domain.CartEntry, error)
}
