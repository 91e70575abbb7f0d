package seed

import (
	"context"
	"errors"
	"fmt"

	"storefront-checkout/internal/domain"
	customerrepo "storefront-checkout/internal/repository/customer"
	productrepo "storefront-checkout/internal/repository/product"
	customersvc "storefront-checkout/internal/service/customer"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DemoEmail and DemoPassword log in the seeded customer.
const (
	DemoEmail    = "reader@example.com"
	DemoPassword = "Abcdefg1"
)

var demoProducts = []domain.Product{
	{ID: "book-dune", Title: "Dune", Price: 200000, Stock: 12, Category: domain.CategoryBook, RushEligible: true},
	{ID: "book-hobbit", Title: "The Hobbit", Price: 150000, Stock: 3, Category: domain.CategoryBook, RushEligible: true},
	{ID: "cd-kind-of-blue", Title: "Kind of Blue", Price: 320000, Stock: 6, Category: domain.CategoryCD, RushEligible: true},
	{ID: "dvd-spirited-away", Title: "Spirited Away", Price: 250000, Stock: 4, Category: domain.CategoryDVD},
	{ID: "vinyl-blue-train", Title: "Blue Train", Price: 850000, Stock: 1, Category: domain.CategoryVinyl},
	{ID: "vinyl-abbey-road", Title: "Abbey Road", Price: 900000, Stock: 0, Category: domain.CategoryVinyl},
}

// Apply inserts demo catalog data and a demo customer. Safe to run repeatedly.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := productrepo.NewPostgres(pool, nil)
	for _, p := range demoProducts {
		if err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}

	customers := customersvc.New(customerrepo.NewPostgres(pool, nil))
	_, err := customers.Signup(ctx, customersvc.SignupInput{
		Email:    DemoEmail,
		Password: DemoPassword,
		FullName: "Demo Reader",
		Phone:    "0912345678",
	})
	if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		return fmt.Errorf("signup demo customer: %w", err)
	}
	return nil
}
