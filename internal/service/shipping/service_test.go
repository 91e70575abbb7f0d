package shipping

import (
	"context"
	"errors"
	"testing"

	"storefront-checkout/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuoter struct {
	support    domain.RushSupport
	supportErr error
	fees       domain.Fees
	feesErr    error
	rushCalls  int
	lastFee    domain.FeeRequest
}

func (s *stubQuoter) RushSupport(_ context.Context, _, _ string, _ []domain.Product) (domain.RushSupport, error) {
	s.rushCalls++
	return s.support, s.supportErr
}

func (s *stubQuoter) Fees(_ context.Context, req domain.FeeRequest) (domain.Fees, error) {
	s.lastFee = req
	return s.fees, s.feesErr
}

var districts = []string{"Hanoi/Ba Dinh", "Hanoi/Hoan Kiem", "malformed"}

func entries() []domain.CartEntry {
	return []domain.CartEntry{{Product: domain.Product{ID: "b1", Price: 100000, Stock: 5, RushEligible: true}, Quantity: 1}}
}

func TestDistrictEligible(t *testing.T) {
	c := New(&stubQuoter{}, districts, 30000, nil)
	assert.True(t, c.DistrictEligible("Hanoi", "Ba Dinh"))
	assert.True(t, c.DistrictEligible(" hanoi ", "hoan kiem"))
	assert.False(t, c.DistrictEligible("Hanoi", "Soc Son"))
	assert.False(t, c.DistrictEligible("malformed", ""))
}

func TestGateDeliveryIneligibleDistrict(t *testing.T) {
	q := &stubQuoter{support: domain.RushSupport{Supported: true}}
	c := New(q, districts, 30000, nil)

	info := domain.DeliveryInfo{City: "CityX", District: "Nowhere", IsRushOrder: true, RushTimeSlot: "14:00-16:00"}
	got, decision := c.GateDelivery(context.Background(), info, entries())
	assert.False(t, got.IsRushOrder)
	assert.Empty(t, got.RushTimeSlot)
	assert.False(t, decision.DistrictEligible)
	assert.NotEmpty(t, decision.Prompt)
	assert.Zero(t, q.rushCalls)
}

func TestGateDeliveryUnsupportedMix(t *testing.T) {
	q := &stubQuoter{support: domain.RushSupport{Supported: false, RegularItemIDs: []string{"b1"}, Prompt: "no rush for vinyl"}}
	c := New(q, districts, 30000, nil)

	got, decision := c.GateDelivery(context.Background(), domain.DeliveryInfo{City: "Hanoi", District: "Ba Dinh", IsRushOrder: true}, entries())
	assert.False(t, got.IsRushOrder)
	assert.True(t, decision.DistrictEligible)
	assert.False(t, decision.MixSupported)
	assert.Equal(t, "no rush for vinyl", decision.Prompt)
}

func TestGateDeliveryCollaboratorFailure(t *testing.T) {
	q := &stubQuoter{supportErr: errors.New("timeout")}
	c := New(q, districts, 30000, nil)

	got, decision := c.GateDelivery(context.Background(), domain.DeliveryInfo{City: "Hanoi", District: "Ba Dinh", IsRushOrder: true}, entries())
	assert.False(t, got.IsRushOrder)
	assert.False(t, decision.Allowed())
}

func TestQuoteRush(t *testing.T) {
	q := &stubQuoter{
		support: domain.RushSupport{Supported: true, RushItemIDs: []string{"b1"}},
		fees:    domain.Fees{RegularFee: 22000, RushFee: 10000},
	}
	c := New(q, districts, 30000, nil)

	quote, info := c.Quote(context.Background(), domain.DeliveryInfo{City: "Hanoi", District: "Ba Dinh", IsRushOrder: true}, entries())
	assert.True(t, info.IsRushOrder)
	assert.Equal(t, int64(22000), quote.RegularFee)
	assert.Equal(t, int64(10000), quote.RushFee)
	assert.False(t, quote.Estimated)
	require.Len(t, q.lastFee.Items, 1)
	assert.True(t, q.lastFee.Delivery.IsRushOrder)
}

func TestQuoteDropsRushFeeWhenNotRequested(t *testing.T) {
	q := &stubQuoter{fees: domain.Fees{RegularFee: 22000, RushFee: 10000}}
	c := New(q, districts, 30000, nil)

	quote, _ := c.Quote(context.Background(), domain.DeliveryInfo{City: "Danang", District: "Hai Chau"}, entries())
	assert.Equal(t, int64(0), quote.RushFee)
	assert.Equal(t, int64(22000), quote.RegularFee)
}

func TestQuoteFallback(t *testing.T) {
	q := &stubQuoter{feesErr: errors.New("503")}
	c := New(q, districts, 30000, nil)

	quote, _ := c.Quote(context.Background(), domain.DeliveryInfo{City: "Danang", District: "Hai Chau"}, entries())
	assert.True(t, quote.Estimated)
	assert.Equal(t, int64(30000), quote.RegularFee)
	assert.Zero(t, quote.RushFee)
}
