package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"storefront-checkout/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RemoteStore keeps customer carts in Postgres next to the catalog.
type RemoteStore struct {
	pool      *pgxpool.Pool
	refresher Refresher
	logger    *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, refresher Refresher, logger *log.Logger) *RemoteStore {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &RemoteStore{pool: pool, refresher: refresher, logger: logger}
}

// For returns the backend bound to customerID.
func (s *RemoteStore) For(customerID string) *RemoteBackend {
	return &RemoteBackend{store: s, customerID: customerID}
}

// RemoteBackend is the authenticated, server-persisted cart.
type RemoteBackend struct {
	store      *RemoteStore
	customerID string
}

func (b *RemoteBackend) Kind() Kind { return KindRemote }

// List returns stored entries with live product snapshots.
func (b *RemoteBackend) List(ctx context.Context) ([]domain.CartEntry, error) {
	const q = `
SELECT product_id, quantity, snapshot, updated_at
FROM cart_entries
WHERE customer_id = $1
ORDER BY product_id ASC
`
	rows, err := b.store.pool.Query(ctx, q, b.customerID)
	if err != nil {
		return nil, b.unavailable("list", err)
	}
	defer rows.Close()

	var entries []domain.CartEntry
	for rows.Next() {
		var (
			e         domain.CartEntry
			productID string
			raw       []byte
		)
		if err := rows.Scan(&productID, &e.Quantity, &raw, &e.UpdatedAt); err != nil {
			return nil, b.unavailable("list scan", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Product); err != nil {
				return nil, fmt.Errorf("remote cart: decode snapshot product=%s: %w", productID, err)
			}
		}
		e.Product.ID = productID
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, b.unavailable("list rows", err)
	}

	if b.store.refresher == nil || len(entries) == 0 {
		return entries, nil
	}
	refreshed, err := b.store.refresher.Refresh(ctx, entries)
	if err != nil {
		return nil, b.unavailable("refresh", err)
	}
	return refreshed, nil
}

// Upsert stores quantity for product after checking it against live stock. A quantity above
// stock leaves the stored entry untouched and returns a *domain.StockError.
func (b *RemoteBackend) Upsert(ctx context.Context, product domain.Product, quantity int) (domain.CartEntry, error) {
	if quantity < 1 {
		return domain.CartEntry{}, domain.ErrInvalidQuantity
	}
	tx, err := b.store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.CartEntry{}, b.unavailable("begin", err)
	}
	defer tx.Rollback(ctx)

	var live domain.Product
	err = tx.QueryRow(ctx, `
SELECT id, title, price, stock, category, rush_eligible
FROM products
WHERE id = $1
FOR SHARE
`, product.ID).Scan(&live.ID, &live.Title, &live.Price, &live.Stock, &live.Category, &live.RushEligible)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CartEntry{}, domain.ErrNotFound
		}
		return domain.CartEntry{}, b.unavailable("lookup product", err)
	}
	live.RefreshedAt = time.Now().UTC()

	if quantity > live.Stock {
		b.store.logger.Printf("remote cart: shortfall customer=%s product=%s requested=%d available=%d",
			b.customerID, live.ID, quantity, live.Stock)
		return domain.CartEntry{}, &domain.StockError{Product: live, Requested: quantity, Available: live.Stock}
	}

	snapshot, err := json.Marshal(live)
	if err != nil {
		return domain.CartEntry{}, fmt.Errorf("remote cart: encode snapshot: %w", err)
	}
	entry := domain.CartEntry{Product: live, Quantity: quantity}
	err = tx.QueryRow(ctx, `
INSERT INTO cart_entries (customer_id, product_id, quantity, snapshot)
VALUES ($1, $2, $3, $4)
ON CONFLICT (customer_id, product_id) DO UPDATE
SET quantity = EXCLUDED.quantity,
    snapshot = EXCLUDED.snapshot,
    updated_at = now()
RETURNING updated_at
`, b.customerID, live.ID, quantity, snapshot).Scan(&entry.UpdatedAt)
	if err != nil {
		return domain.CartEntry{}, b.unavailable("upsert", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.CartEntry{}, b.unavailable("commit", err)
	}
	return entry, nil
}

func (b *RemoteBackend) Remove(ctx context.Context, productID string) error {
	if _, err := b.store.pool.Exec(ctx, `
DELETE FROM cart_entries
WHERE customer_id = $1 AND product_id = $2
`, b.customerID, productID); err != nil {
		return b.unavailable("remove", err)
	}
	return nil
}

func (b *RemoteBackend) Clear(ctx context.Context) error {
	if _, err := b.store.pool.Exec(ctx, `DELETE FROM cart_entries WHERE customer_id = $1`, b.customerID); err != nil {
		return b.unavailable("clear", err)
	}
	return nil
}

func (b *RemoteBackend) unavailable(op string, err error) error {
	b.store.logger.Printf("remote cart: %s customer=%s error=%v", op, b.customerID, err)
	return fmt.Errorf("remote cart %s: %w: %w", op, domain.ErrUnavailable, err)
}
