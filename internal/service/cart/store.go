package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"storefront-checkout/internal/domain"
	cartrepo "storefront-checkout/internal/repository/cart"
)

// MergePolicy decides what happens to the device cart when the session authenticates.
type MergePolicy string

const (
	// MergeUnion copies device entries missing from the customer cart into it, then clears the device cart.
	// The customer cart wins when both hold the same product.
	MergeUnion MergePolicy = "union"
	// MergeDiscard leaves the device cart untouched and unused until the session logs out.
	MergeDiscard MergePolicy = "discard"
)

// ParseMergePolicy maps configuration values to a policy, defaulting to union.
func ParseMergePolicy(v string) MergePolicy {
	if MergePolicy(v) == MergeDiscard {
		return MergeDiscard
	}
	return MergeUnion
}

type refresher interface {
	Refresh(ctx context.Context) ([]domain.CartEntry, error)
}

// Store owns the cart of one session. Every mutation goes through the backend resolved at call
// time and then reloads the whole cart from it, so the in-memory cart is always a cache of
// backend truth. Mutations are serialized; a reload is applied only if no newer one has been.
type Store struct {
	selector *Selector
	policy   MergePolicy
	logger   *log.Logger

	// mu serializes backend round trips for this cart.
	mu sync.Mutex

	stateMu  sync.RWMutex
	cart     domain.Cart
	kind     cartrepo.Kind
	issued   uint64
	applied  uint64
	detached bool
}

func NewStore(selector *Selector, policy MergePolicy, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{
		selector: selector,
		policy:   policy,
		logger:   logger,
		cart:     domain.NewCart(nil),
	}
}

// Cart returns a copy of the current cart.
func (s *Store) Cart() domain.Cart {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.cart.Clone()
}

// BackendKind reports which backend produced the current cart.
func (s *Store) BackendKind() cartrepo.Kind {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.kind
}

// Reload replaces the cart with the backend's entries.
func (s *Store) Reload(ctx context.Context) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(ctx, s.selector.Resolve(), s.stamp())
}

// Refresh reloads with live product snapshots, also for the device cart.
func (s *Store) Refresh(ctx context.Context) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	backend := s.selector.Resolve()
	r, ok := backend.(refresher)
	if !ok {
		return s.reload(ctx, backend, s.stamp())
	}
	v := s.stamp()
	entries, err := r.Refresh(ctx)
	if err != nil {
		return s.Cart(), err
	}
	return s.apply(v, backend.Kind(), entries)
}

// AddItem stores product with quantity (1 when omitted). A quantity <= 0 removes the entry.
func (s *Store) AddItem(ctx context.Context, product domain.Product, quantity ...int) (domain.Cart, error) {
	qty := 1
	if len(quantity) > 0 {
		qty = quantity[0]
	}
	return s.SetItemQuantity(ctx, product, qty)
}

// SetItemQuantity overwrites the quantity of product. A quantity <= 0 removes the entry.
// When the backend reports a shortfall the requested quantity is not applied: the cart is
// reconciled to the backend and the returned error is a *domain.StockError naming the product
// and its latest available quantity.
func (s *Store) SetItemQuantity(ctx context.Context, product domain.Product, quantity int) (domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, product.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	backend := s.selector.Resolve()
	v := s.stamp()
	_, err := backend.Upsert(ctx, product, quantity)
	if err != nil {
		return s.recover(ctx, backend, v, fmt.Sprintf("set product=%s qty=%d", product.ID, quantity), err)
	}
	return s.reload(ctx, backend, v)
}

// RemoveItem deletes the entry for productID and prunes it from the selection.
func (s *Store) RemoveItem(ctx context.Context, productID string) (domain.Cart, error) {
	return s.RemoveItems(ctx, []string{productID})
}

// RemoveItems deletes several entries under one serialized mutation.
func (s *Store) RemoveItems(ctx context.Context, productIDs []string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backend := s.selector.Resolve()
	v := s.stamp()
	for _, id := range productIDs {
		if err := backend.Remove(ctx, id); err != nil {
			return s.recover(ctx, backend, v, "remove product="+id, err)
		}
	}
	return s.reload(ctx, backend, v)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backend := s.selector.Resolve()
	v := s.stamp()
	if err := backend.Clear(ctx); err != nil {
		return s.recover(ctx, backend, v, "clear", err)
	}
	return s.reload(ctx, backend, v)
}

// ApplyShortfalls clamps each shortfalled entry down to its available stock; zero availability
// removes the entry. Clamping only ever lowers a quantity: entries already at or below the
// reported stock are left alone, and ids no longer in the cart are skipped, so a verdict
// computed before a later mutation cannot undo it. The stored snapshot is kept. The cart is
// reloaded afterwards even if a clamp fails.
func (s *Store) ApplyShortfalls(ctx context.Context, shortfalls []domain.Shortfall) (domain.Cart, error) {
	if len(shortfalls) == 0 {
		return s.Cart(), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	backend := s.selector.Resolve()
	v := s.stamp()
	current, err := backend.List(ctx)
	if err != nil {
		s.logger.Printf("cart store: clamp list backend=%s error=%v", backend.Kind(), err)
		return s.Cart(), err
	}
	entries := make(map[string]domain.CartEntry, len(current))
	for _, e := range current {
		entries[e.Product.ID] = e
	}

	var errs []error
	for _, sf := range shortfalls {
		entry, ok := entries[sf.Product.ID]
		if !ok {
			continue
		}
		target := min(entry.Quantity, sf.AvailableStock)
		product := entry.Product
		if sf.AvailableStock >= 0 && sf.AvailableStock < product.Stock {
			product.Stock = sf.AvailableStock
		}
		var err error
		switch {
		case target <= 0:
			err = backend.Remove(ctx, entry.Product.ID)
		case target < entry.Quantity:
			_, err = backend.Upsert(ctx, product, target)
		default:
			continue
		}
		if err != nil {
			var stockErr *domain.StockError
			if errors.As(err, &stockErr) && stockErr.Available <= 0 {
				err = backend.Remove(ctx, entry.Product.ID)
			}
		}
		if err != nil {
			s.logger.Printf("cart store: clamp product=%s available=%d error=%v", sf.Product.ID, sf.AvailableStock, err)
			errs = append(errs, err)
		}
	}
	c, err := s.reload(ctx, backend, v)
	if err != nil {
		return c, err
	}
	return c, errors.Join(errs...)
}

// Authenticated applies the merge policy after the session logged in, then reloads from the
// customer cart. Call it after the auth state already reports the customer.
func (s *Store) Authenticated(ctx context.Context) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remote := s.selector.Resolve()
	v := s.stamp()
	if s.policy == MergeUnion && remote.Kind() == cartrepo.KindRemote {
		if err := s.merge(ctx, s.selector.Local(), remote); err != nil {
			return s.recover(ctx, remote, v, "merge", err)
		}
	}
	return s.reload(ctx, remote, v)
}

// LoggedOut reloads from the device cart after the session logged out.
func (s *Store) LoggedOut(ctx context.Context) (domain.Cart, error) {
	return s.Reload(ctx)
}

func (s *Store) merge(ctx context.Context, local, remote cartrepo.Backend) error {
	localEntries, err := local.List(ctx)
	if err != nil {
		return err
	}
	if len(localEntries) == 0 {
		return nil
	}
	remoteEntries, err := remote.List(ctx)
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(remoteEntries))
	for _, e := range remoteEntries {
		existing[e.Product.ID] = true
	}
	for _, e := range localEntries {
		if existing[e.Product.ID] {
			continue
		}
		_, err := remote.Upsert(ctx, e.Product, e.Quantity)
		var stockErr *domain.StockError
		if errors.As(err, &stockErr) {
			if stockErr.Available <= 0 {
				continue
			}
			_, err = remote.Upsert(ctx, e.Product, stockErr.Available)
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	s.logger.Printf("cart store: merged %d device entries into customer cart", len(localEntries))
	return local.Clear(ctx)
}

// Select adds productID to the checkout selection.
func (s *Store) Select(productID string) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if !s.cart.Has(productID) {
		return domain.ErrNotFound
	}
	s.cart.Selection[productID] = struct{}{}
	return nil
}

// Unselect removes productID from the checkout selection.
func (s *Store) Unselect(productID string) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	delete(s.cart.Selection, productID)
}

// SelectAll selects every entry.
func (s *Store) SelectAll() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	for _, e := range s.cart.Entries {
		s.cart.Selection[e.Product.ID] = struct{}{}
	}
}

// UnselectAll empties the selection.
func (s *Store) UnselectAll() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.cart.Selection = make(map[string]struct{})
}

// Detach stops the store from applying any further backend result.
func (s *Store) Detach() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.detached = true
}

func (s *Store) stamp() uint64 {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.issued++
	return s.issued
}

func (s *Store) reload(ctx context.Context, backend cartrepo.Backend, v uint64) (domain.Cart, error) {
	entries, err := backend.List(ctx)
	if err != nil {
		s.logger.Printf("cart store: reload backend=%s error=%v", backend.Kind(), err)
		return s.Cart(), err
	}
	return s.apply(v, backend.Kind(), entries)
}

// recover reconciles to backend truth after a failed write and returns the write error.
func (s *Store) recover(ctx context.Context, backend cartrepo.Backend, v uint64, op string, cause error) (domain.Cart, error) {
	s.logger.Printf("cart store: %s backend=%s error=%v", op, backend.Kind(), cause)
	c, err := s.reload(ctx, backend, v)
	if err != nil {
		return c, errors.Join(cause, err)
	}
	return c, cause
}

func (s *Store) apply(v uint64, kind cartrepo.Kind, entries []domain.CartEntry) (domain.Cart, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.detached {
		return s.cart.Clone(), domain.ErrStaleSession
	}
	if v <= s.applied {
		return s.cart.Clone(), nil
	}
	next := domain.NewCart(entries)
	for id := range s.cart.Selection {
		next.Selection[id] = struct{}{}
	}
	next.PruneSelection()
	next.Version = v
	s.cart = next
	s.kind = kind
	s.applied = v
	return s.cart.Clone(), nil
}
