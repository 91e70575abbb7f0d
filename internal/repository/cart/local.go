package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"storefront-checkout/internal/domain"
)

// LocalSchemaVersion is the version written into every local cart record.
const LocalSchemaVersion = 1

// ErrUnsupportedRecord is returned for a local record written by a newer schema.
var ErrUnsupportedRecord = errors.New("unsupported local cart record version")

type localRecord struct {
	SchemaVersion int                `json:"schemaVersion"`
	Entries       []domain.CartEntry `json:"entries"`
}

// LocalStore keeps anonymous carts in the device-local sqlite database, one keyed record per device.
type LocalStore struct {
	db        *sql.DB
	refresher Refresher
	logger    *log.Logger
}

func NewLocalStore(db *sql.DB, refresher Refresher, logger *log.Logger) *LocalStore {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LocalStore{db: db, refresher: refresher, logger: logger}
}

// For returns the backend bound to deviceID.
func (s *LocalStore) For(deviceID string) *LocalBackend {
	return &LocalBackend{store: s, deviceID: deviceID}
}

// LocalBackend is the unauthenticated cart. Every mutation is committed before it returns.
type LocalBackend struct {
	store    *LocalStore
	deviceID string
}

func (b *LocalBackend) Kind() Kind { return KindLocal }

// List returns the stored snapshots as last written; call Refresh for live prices and stock.
func (b *LocalBackend) List(ctx context.Context) ([]domain.CartEntry, error) {
	rec, err := b.read(ctx, b.store.db)
	if err != nil {
		return nil, err
	}
	return rec.Entries, nil
}

// Refresh re-reads product snapshots from the catalog and persists them.
func (b *LocalBackend) Refresh(ctx context.Context) ([]domain.CartEntry, error) {
	if b.store.refresher == nil {
		return b.List(ctx)
	}
	entries, err := b.List(ctx)
	if err != nil {
		return nil, err
	}
	refreshed, err := b.store.refresher.Refresh(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("local cart refresh: %w: %w", domain.ErrUnavailable, err)
	}
	var out []domain.CartEntry
	err = b.mutate(ctx, func(rec *localRecord) error {
		live := make(map[string]domain.Product, len(refreshed))
		for _, e := range refreshed {
			live[e.Product.ID] = e.Product
		}
		for i, e := range rec.Entries {
			if p, ok := live[e.Product.ID]; ok {
				rec.Entries[i].Product = p
			}
		}
		out = append([]domain.CartEntry(nil), rec.Entries...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *LocalBackend) Upsert(ctx context.Context, product domain.Product, quantity int) (domain.CartEntry, error) {
	if quantity < 1 {
		return domain.CartEntry{}, domain.ErrInvalidQuantity
	}
	entry := domain.CartEntry{Product: product, Quantity: quantity, UpdatedAt: time.Now().UTC()}
	err := b.mutate(ctx, func(rec *localRecord) error {
		for i, e := range rec.Entries {
			if e.Product.ID == product.ID {
				rec.Entries[i] = entry
				return nil
			}
		}
		rec.Entries = append(rec.Entries, entry)
		return nil
	})
	if err != nil {
		return domain.CartEntry{}, err
	}
	b.store.logger.Printf("local cart: upsert device=%s product=%s qty=%d", b.deviceID, product.ID, quantity)
	return entry, nil
}

func (b *LocalBackend) Remove(ctx context.Context, productID string) error {
	return b.mutate(ctx, func(rec *localRecord) error {
		kept := rec.Entries[:0]
		for _, e := range rec.Entries {
			if e.Product.ID != productID {
				kept = append(kept, e)
			}
		}
		rec.Entries = kept
		return nil
	})
}

func (b *LocalBackend) Clear(ctx context.Context) error {
	return b.mutate(ctx, func(rec *localRecord) error {
		rec.Entries = nil
		return nil
	})
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (b *LocalBackend) read(ctx context.Context, q queryer) (localRecord, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT record FROM local_carts WHERE device_id = ?`, b.deviceID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return localRecord{SchemaVersion: LocalSchemaVersion}, nil
	}
	if err != nil {
		return localRecord{}, fmt.Errorf("local cart read: %w: %w", domain.ErrUnavailable, err)
	}
	var rec localRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return localRecord{}, fmt.Errorf("local cart decode: %w", err)
	}
	if rec.SchemaVersion > LocalSchemaVersion {
		return localRecord{}, fmt.Errorf("%w: %d", ErrUnsupportedRecord, rec.SchemaVersion)
	}
	rec.SchemaVersion = LocalSchemaVersion
	domain.SortEntries(rec.Entries)
	return rec, nil
}

func (b *LocalBackend) mutate(ctx context.Context, fn func(rec *localRecord) error) error {
	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("local cart begin: %w: %w", domain.ErrUnavailable, err)
	}
	defer tx.Rollback()

	rec, err := b.read(ctx, tx)
	if err != nil {
		return err
	}
	if err := fn(&rec); err != nil {
		return err
	}
	domain.SortEntries(rec.Entries)

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("local cart encode: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO local_carts (device_id, record, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (device_id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at
`, b.deviceID, string(raw))
	if err != nil {
		b.store.logger.Printf("local cart: write device=%s error=%v", b.deviceID, err)
		return fmt.Errorf("local cart write: %w: %w", domain.ErrUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("local cart commit: %w: %w", domain.ErrUnavailable, err)
	}
	return nil
}
