package cart

import (
	"testing"

	"storefront-checkout/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestVAT(t *testing.T) {
	cases := map[int64]int64{
		0:      0,
		400000: 36364,
		110000: 10000,
		1:      0,
		6:      1,
	}
	for total, want := range cases {
		assert.Equal(t, want, VAT(total), "total=%d", total)
	}
}

func TestSummarize(t *testing.T) {
	entries := []domain.CartEntry{
		{Product: domain.Product{ID: "p1", Price: 100000, Stock: 10}, Quantity: 2},
		{Product: domain.Product{ID: "p2", Price: 200000, Stock: 10}, Quantity: 1},
	}
	s := Summarize(entries, domain.ShippingQuote{RegularFee: 30000})
	assert.Equal(t, int64(400000), s.Subtotal)
	assert.Equal(t, int64(36364), s.VAT)
	assert.Equal(t, int64(30000), s.ShippingFee)
	assert.Equal(t, int64(466364), s.Total)
	assert.Equal(t, 3, s.ItemCount)
	assert.False(t, s.Estimated)
}

func TestHasInventoryIssue(t *testing.T) {
	ok := []domain.CartEntry{{Product: domain.Product{ID: "a", Stock: 3}, Quantity: 3}}
	assert.False(t, HasInventoryIssue(ok))
	short := []domain.CartEntry{{Product: domain.Product{ID: "a", Stock: 3}, Quantity: 4}}
	assert.True(t, HasInventoryIssue(short))
	gone := []domain.CartEntry{{Product: domain.Product{ID: "a", Stock: 0}, Quantity: 1}}
	assert.True(t, HasInventoryIssue(gone))
}
