package product

import (
	"context"

	"storefront-checkout/internal/domain"
)

// Repository is the catalog lookup the cart core reads live product data from.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}
