// Package pgtest provisions a migrated Postgres pool for integration tests.
package pgtest

import (
	"context"
	"os"
	"testing"
	"time"

	"storefront-checkout/internal/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Pool returns a pool against TEST_DB_DSN when set, otherwise against a throwaway container.
// Tables are truncated before returning. Skipped under -short.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}
	ctx := context.Background()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		pgContainer, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("testdb"),
			postgres.WithUsername("testuser"),
			postgres.WithPassword("testpass"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		if err != nil {
			t.Fatalf("start postgres container: %v", err)
		}
		t.Cleanup(func() {
			if err := pgContainer.Terminate(context.Background()); err != nil {
				t.Logf("failed to terminate container: %s", err)
			}
		})
		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("connection string: %v", err)
		}
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE cart_entries, customers, products RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return pool
}

// InsertProduct writes a catalog row for tests.
func InsertProduct(t *testing.T, pool *pgxpool.Pool, id, title string, price int64, stock int) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
INSERT INTO products (id, title, price, stock, category, rush_eligible)
VALUES ($1, $2, $3, $4, 'book', TRUE)
`, id, title, price, stock)
	if err != nil {
		t.Fatalf("insert product %s: %v", id, err)
	}
}

// InsertCustomer writes a customer row and returns its id.
func InsertCustomer(t *testing.T, pool *pgxpool.Pool, email, passwordHash string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(), `
INSERT INTO customers (email, password_hash) VALUES ($1, $2) RETURNING id::text
`, email, passwordHash).Scan(&id)
	if err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	return id
}
