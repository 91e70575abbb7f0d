package product

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"storefront-checkout/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	mu        sync.Mutex
	products  map[string]domain.Product
	listErr   error
	listCalls int
	getCalls  int

	// started and gate, when set, hold GetByID until the gate closes.
	started chan struct{}
	gate    chan struct{}
	ctxErrs []error
}

func (s *stubRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if s.gate != nil {
		s.started <- struct{}{}
		select {
		case <-s.gate:
		case <-ctx.Done():
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *stubRepo) ListByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestServiceGet(t *testing.T) {
	repo := &stubRepo{products: map[string]domain.Product{"b1": {ID: "b1", Title: "Dune"}}}
	svc := New(repo)

	got, err := svc.Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)

	_, err = svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServiceGetSurvivesCancelledCaller(t *testing.T) {
	repo := &stubRepo{
		products: map[string]domain.Product{"b1": {ID: "b1", Title: "Dune"}},
		started:  make(chan struct{}, 2),
		gate:     make(chan struct{}),
	}
	svc := New(repo)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := svc.Get(ctx, "b1")
		first <- err
	}()
	<-repo.started

	second := make(chan domain.Product, 1)
	secondErr := make(chan error, 1)
	go func() {
		p, err := svc.Get(context.Background(), "b1")
		second <- p
		secondErr <- err
	}()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)
	close(repo.gate)

	require.NoError(t, <-secondErr)
	assert.Equal(t, "Dune", (<-second).Title)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, err := range repo.ctxErrs {
		assert.NoError(t, err)
	}
}

func TestServiceSnapshotsChunks(t *testing.T) {
	repo := &stubRepo{products: map[string]domain.Product{}}
	var ids []string
	for i := 0; i < 7; i++ {
		id := string(rune('a' + i))
		ids = append(ids, id)
		repo.products[id] = domain.Product{ID: id, Stock: i}
	}
	svc := New(repo)
	svc.chunkSize = 3

	got, err := svc.Snapshots(context.Background(), append(ids, "missing"))
	require.NoError(t, err)
	assert.Len(t, got, 7)
	assert.Equal(t, 3, repo.listCalls)

	keys := make([]string, 0, len(got))
	for k := range got {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, ids, keys)
}

func TestServiceRefresh(t *testing.T) {
	repo := &stubRepo{products: map[string]domain.Product{
		"b1": {ID: "b1", Title: "Dune", Price: 120000, Stock: 4},
	}}
	svc := New(repo)

	entries := []domain.CartEntry{
		{Product: domain.Product{ID: "b1", Title: "Dune", Price: 100000, Stock: 10}, Quantity: 2},
		{Product: domain.Product{ID: "gone", Title: "Old", Price: 5000, Stock: 9}, Quantity: 1},
	}
	got, err := svc.Refresh(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(120000), got[0].Product.Price)
	assert.Equal(t, 4, got[0].Product.Stock)
	assert.Equal(t, 2, got[0].Quantity)
	assert.Equal(t, "Old", got[1].Product.Title)
	assert.Equal(t, 0, got[1].Product.Stock)
}

func TestServiceRefreshError(t *testing.T) {
	repo := &stubRepo{listErr: errors.New("db down")}
	svc := New(repo)
	_, err := svc.Refresh(context.Background(), []domain.CartEntry{{Product: domain.Product{ID: "b1"}, Quantity: 1}})
	assert.ErrorContains(t, err, "db down")
}
