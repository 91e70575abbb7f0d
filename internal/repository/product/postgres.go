package product

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"storefront-checkout/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres reads and writes catalog rows.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) *Postgres {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Postgres{pool: pool, logger: logger}
}

const selectProduct = `
SELECT id, title, price, stock, category, rush_eligible
FROM products
`

func (r *Postgres) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, selectProduct+`WHERE id = $1`, id).
		Scan(&p.ID, &p.Title, &p.Price, &p.Stock, &p.Category, &p.RushEligible)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("product repo: get id=%s not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	p.RefreshedAt = time.Now().UTC()
	return &p, nil
}

func (r *Postgres) ListByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, selectProduct+`WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		r.logger.Printf("product repo: list ids=%d error=%v", len(ids), err)
		return nil, err
	}
	defer rows.Close()

	now := time.Now().UTC()
	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Price, &p.Stock, &p.Category, &p.RushEligible); err != nil {
			return nil, err
		}
		p.RefreshedAt = now
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, err
	}
	return result, nil
}

// Upsert writes catalog master data; used by the seed command.
func (r *Postgres) Upsert(ctx context.Context, p domain.Product) error {
	const q = `
INSERT INTO products (id, title, price, stock, category, rush_eligible)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    price = EXCLUDED.price,
    stock = EXCLUDED.stock,
    category = EXCLUDED.category,
    rush_eligible = EXCLUDED.rush_eligible,
    updated_at = now()
`
	if _, err := r.pool.Exec(ctx, q, p.ID, p.Title, p.Price, p.Stock, string(p.Category), p.RushEligible); err != nil {
		r.logger.Printf("product repo: upsert id=%s error=%v", p.ID, err)
		return err
	}
	r.logger.Printf("product repo: upserted id=%s stock=%d", p.ID, p.Stock)
	return nil
}
