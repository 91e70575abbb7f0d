package inventory

import (
	"context"
	"errors"
	"testing"

	"storefront-checkout/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	res   domain.InventoryCheckResult
	err   error
	calls int
}

func (s *stubChecker) Check(_ context.Context, _ []domain.CheckItem) (domain.InventoryCheckResult, error) {
	s.calls++
	return s.res, s.err
}

type stubCart struct {
	entries  map[string]int
	reloads  int
	applied  []domain.Shortfall
	applyErr error
}

func (s *stubCart) cart() domain.Cart {
	var entries []domain.CartEntry
	for id, q := range s.entries {
		entries = append(entries, domain.CartEntry{Product: domain.Product{ID: id}, Quantity: q})
	}
	return domain.NewCart(entries)
}

func (s *stubCart) Reload(context.Context) (domain.Cart, error) {
	s.reloads++
	return s.cart(), nil
}

func (s *stubCart) ApplyShortfalls(_ context.Context, sfs []domain.Shortfall) (domain.Cart, error) {
	s.applied = append(s.applied, sfs...)
	for _, sf := range sfs {
		if sf.AvailableStock <= 0 {
			delete(s.entries, sf.Product.ID)
			continue
		}
		s.entries[sf.Product.ID] = sf.AvailableStock
	}
	return s.cart(), s.applyErr
}

func item(id string, qty int) domain.CheckItem {
	return domain.CheckItem{Product: domain.Product{ID: id, Title: "Item " + id}, Quantity: qty}
}

func TestCheckSuccess(t *testing.T) {
	checker := &stubChecker{res: domain.InventoryCheckResult{Success: true}}
	v := New(checker, nil)

	res, err := v.Check(context.Background(), []domain.CheckItem{item("p", 1)})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Shortfalls)
	assert.NoError(t, ShortfallError(res))
}

func TestCheckEmptySkipsCollaborator(t *testing.T) {
	checker := &stubChecker{}
	v := New(checker, nil)
	res, err := v.Check(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Zero(t, checker.calls)
}

func TestCheckDoesNotMutate(t *testing.T) {
	checker := &stubChecker{res: domain.InventoryCheckResult{Shortfalls: []domain.Shortfall{
		{Product: domain.Product{ID: "p"}, AvailableStock: 4},
	}}}
	v := New(checker, nil)

	res, err := v.Check(context.Background(), []domain.CheckItem{item("p", 10)})
	require.NoError(t, err)
	require.Len(t, res.Shortfalls, 1)
	assert.Equal(t, 10, res.Shortfalls[0].RequestedQuantity)
	assert.Equal(t, 4, res.Shortfalls[0].AvailableStock)
	assert.Equal(t, "Item p", res.Shortfalls[0].Product.Title)
}

func TestCheckAndReconcileClamps(t *testing.T) {
	checker := &stubChecker{res: domain.InventoryCheckResult{Shortfalls: []domain.Shortfall{
		{Product: domain.Product{ID: "book-1"}, RequestedQuantity: 5, AvailableStock: 2},
	}}}
	cart := &stubCart{entries: map[string]int{"book-1": 5, "cd-2": 1}}
	v := New(checker, nil)

	res, c, err := v.CheckAndReconcile(context.Background(), cart, []domain.CheckItem{item("book-1", 5), item("cd-2", 1)})
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.Shortfalls, 1)
	assert.Equal(t, 5, res.Shortfalls[0].RequestedQuantity)
	assert.Equal(t, 2, res.Shortfalls[0].AvailableStock)

	e, ok := c.Entry("book-1")
	require.True(t, ok)
	assert.Equal(t, 2, e.Quantity)

	var stockErr *domain.StockError
	require.ErrorAs(t, ShortfallError(res), &stockErr)
	assert.Equal(t, 2, stockErr.Available)
}

func TestCheckAndReconcileNegativeAvailabilityRemoves(t *testing.T) {
	checker := &stubChecker{res: domain.InventoryCheckResult{Shortfalls: []domain.Shortfall{
		{Product: domain.Product{ID: "p"}, RequestedQuantity: 3, AvailableStock: -1},
	}}}
	cart := &stubCart{entries: map[string]int{"p": 3}}
	v := New(checker, nil)

	res, c, err := v.CheckAndReconcile(context.Background(), cart, []domain.CheckItem{item("p", 3)})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Shortfalls[0].AvailableStock)
	assert.Empty(t, c.Entries)
}

func TestCheckAndReconcileCollaboratorFailure(t *testing.T) {
	checker := &stubChecker{err: errors.New("timeout")}
	cart := &stubCart{entries: map[string]int{"a": 2, "b": 1}}
	v := New(checker, nil)

	res, c, err := v.CheckAndReconcile(context.Background(), cart, []domain.CheckItem{item("a", 2), item("b", 1)})
	require.ErrorIs(t, err, domain.ErrUnavailable)
	assert.False(t, res.Success)
	require.Len(t, res.Shortfalls, 2)
	for _, sf := range res.Shortfalls {
		assert.Equal(t, 0, sf.AvailableStock)
	}
	assert.Equal(t, 1, cart.reloads)
	assert.Empty(t, cart.applied)
	assert.Len(t, c.Entries, 2)
	assert.Equal(t, domain.ActionRetry, domain.NextActionFor(err))
}
