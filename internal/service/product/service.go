package product

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront-checkout/internal/domain"
	productrepo "storefront-checkout/internal/repository/product"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultChunkSize     = 50
	defaultMaxConcurrent = 4
	lookupTimeout        = 5 * time.Second
)

// Service resolves live product snapshots for the cart core.
type Service struct {
	repo          productrepo.Repository
	sfg           singleflight.Group
	chunkSize     int
	maxConcurrent int
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo, chunkSize: defaultChunkSize, maxConcurrent: defaultMaxConcurrent}
}

// Get returns the live snapshot of one product. Concurrent lookups of the same id share one
// query, which runs detached from any single caller; a cancelled caller stops waiting without
// failing the others.
func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	ch := s.sfg.DoChan(id, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		p, err := s.repo.GetByID(lookupCtx, id)
		if err != nil {
			return nil, err
		}
		return *p, nil
	})
	select {
	case <-ctx.Done():
		return domain.Product{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Product{}, res.Err
		}
		return res.Val.(domain.Product), nil
	}
}

// Snapshots fetches live snapshots for ids. Ids unknown to the catalog are absent from the result.
func (s *Service) Snapshots(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for start := 0; start < len(ids); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		g.Go(func() error {
			products, err := s.repo.ListByIDs(ctx, chunk)
			if err != nil {
				return fmt.Errorf("list products: %w", err)
			}
			mu.Lock()
			for _, p := range products {
				out[p.ID] = p
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Refresh replaces the product snapshot of each entry with live data. Products that left the
// catalog keep their stale snapshot with zero stock so they surface as out of stock.
func (s *Service) Refresh(ctx context.Context, entries []domain.CartEntry) ([]domain.CartEntry, error) {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Product.ID)
	}
	live, err := s.Snapshots(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CartEntry, 0, len(entries))
	for _, e := range entries {
		if p, ok := live[e.Product.ID]; ok {
			e.Product = p
		} else {
			e.Product.Stock = 0
		}
		out = append(out, e)
	}
	return out, nil
}
