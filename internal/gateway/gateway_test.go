package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"storefront-checkout/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inventory/check", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var req inventoryCheckRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Items, 1)
		_ = json.NewEncoder(w).Encode(domain.InventoryCheckResult{Shortfalls: []domain.Shortfall{
			{Product: req.Items[0].Product, RequestedQuantity: req.Items[0].Quantity, AvailableStock: 2},
		}})
	}))
	defer srv.Close()

	g := NewInventory(NewClient("inventory", srv.URL, time.Second, nil))
	res, err := g.Check(context.Background(), []domain.CheckItem{{Product: domain.Product{ID: "book-1"}, Quantity: 5}})
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.Shortfalls, 1)
	assert.Equal(t, 5, res.Shortfalls[0].RequestedQuantity)
	assert.Equal(t, 2, res.Shortfalls[0].AvailableStock)
}

func TestShippingCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shipping/rush-eligibility":
			var req rushSupportRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Ba Dinh", req.District)
			_ = json.NewEncoder(w).Encode(domain.RushSupport{Supported: true, RushItemIDs: []string{"b1"}})
		case "/shipping/fees":
			_ = json.NewEncoder(w).Encode(domain.Fees{RegularFee: 22000, RushFee: 10000})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	g := NewShipping(NewClient("shipping", srv.URL+"/", time.Second, nil))
	ctx := context.Background()

	support, err := g.RushSupport(ctx, "Hanoi", "Ba Dinh", []domain.Product{{ID: "b1"}})
	require.NoError(t, err)
	assert.True(t, support.Supported)
	assert.Equal(t, []string{"b1"}, support.RushItemIDs)

	fees, err := g.Fees(ctx, domain.FeeRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(22000), fees.RegularFee)
	assert.Equal(t, int64(10000), fees.RushFee)
}

func TestOrdersSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req domain.OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(domain.Order{ID: "ord-" + req.CheckoutID, Status: domain.OrderPlaced})
	}))
	defer srv.Close()

	g := NewOrders(NewClient("orders", srv.URL, time.Second, nil))
	order, err := g.Submit(context.Background(), domain.OrderRequest{CheckoutID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "ord-c1", order.ID)
}

func TestOrdersSubmitMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"placed"}`))
	}))
	defer srv.Close()

	g := NewOrders(NewClient("orders", srv.URL, time.Second, nil))
	_, err := g.Submit(context.Background(), domain.OrderRequest{CheckoutID: "c1"})
	assert.ErrorIs(t, err, domain.ErrInvalidResponse)
}

func TestMalformedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	g := NewInventory(NewClient("inventory", srv.URL, time.Second, nil))
	_, err := g.Check(context.Background(), []domain.CheckItem{{Product: domain.Product{ID: "p"}, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrInvalidResponse)
}

func TestServerErrorTripsBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewOrders(NewClient("orders", srv.URL, time.Second, nil))
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := g.Submit(ctx, domain.OrderRequest{})
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusBadGateway, se.Code)
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	}
	_, err := g.Submit(ctx, domain.OrderRequest{})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, int32(5), hits.Load())
}

func TestTimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	g := NewInventory(NewClient("inventory", srv.URL, 20*time.Millisecond, nil))
	_, err := g.Check(context.Background(), []domain.CheckItem{{Product: domain.Product{ID: "p"}, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
