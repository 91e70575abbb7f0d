package cart

import (
	"context"
	"errors"
	"testing"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/pgtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteUpsertListRemove(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	pgtest.InsertProduct(t, pool, "book-1", "Dune", 100000, 10)
	pgtest.InsertProduct(t, pool, "cd-2", "Kind of Blue", 200000, 3)
	customerID := pgtest.InsertCustomer(t, pool, "a@example.com", "x")

	backend := NewPostgres(pool, nil, nil).For(customerID)
	assert.Equal(t, KindRemote, backend.Kind())

	_, err := backend.Upsert(ctx, domain.Product{ID: "cd-2"}, 1)
	require.NoError(t, err)
	entry, err := backend.Upsert(ctx, domain.Product{ID: "book-1"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "Dune", entry.Product.Title)

	entries, err := backend.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "book-1", entries[0].Product.ID)
	assert.Equal(t, 3, entries[0].Quantity)

	require.NoError(t, backend.Remove(ctx, "book-1"))
	require.NoError(t, backend.Remove(ctx, "book-1"))
	entries, err = backend.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, backend.Clear(ctx))
	entries, err = backend.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemoteUpsertShortfallKeepsStoredQuantity(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	pgtest.InsertProduct(t, pool, "book-1", "Dune", 100000, 4)
	customerID := pgtest.InsertCustomer(t, pool, "a@example.com", "x")
	backend := NewPostgres(pool, nil, nil).For(customerID)

	_, err := backend.Upsert(ctx, domain.Product{ID: "book-1"}, 2)
	require.NoError(t, err)

	_, err = backend.Upsert(ctx, domain.Product{ID: "book-1"}, 10)
	var stockErr *domain.StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 10, stockErr.Requested)
	assert.Equal(t, 4, stockErr.Available)

	entries, err := backend.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Quantity)
}

func TestRemoteUpsertUnknownProduct(t *testing.T) {
	pool := pgtest.Pool(t)
	customerID := pgtest.InsertCustomer(t, pool, "a@example.com", "x")
	_, err := NewPostgres(pool, nil, nil).For(customerID).Upsert(context.Background(), domain.Product{ID: "nope"}, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
