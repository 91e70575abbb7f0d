package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"storefront-checkout/internal/domain"
)

// Checker is the inventory-check collaborator.
type Checker interface {
	Check(ctx context.Context, items []domain.CheckItem) (domain.InventoryCheckResult, error)
}

// Reconciler is the part of the cart store the validator corrects after a check.
type Reconciler interface {
	Reload(ctx context.Context) (domain.Cart, error)
	ApplyShortfalls(ctx context.Context, shortfalls []domain.Shortfall) (domain.Cart, error)
}

// Validator runs inventory checks. Check only reports; Reconcile applies a verdict to a cart.
type Validator struct {
	checker Checker
	logger  *log.Logger
}

func New(checker Checker, logger *log.Logger) *Validator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Validator{checker: checker, logger: logger}
}

// Check asks the collaborator about items. When the collaborator fails, every item is reported
// as a shortfall with zero availability and the returned error wraps domain.ErrUnavailable.
func (v *Validator) Check(ctx context.Context, items []domain.CheckItem) (domain.InventoryCheckResult, error) {
	if len(items) == 0 {
		return domain.InventoryCheckResult{Success: true}, nil
	}
	res, err := v.checker.Check(ctx, items)
	if err != nil {
		v.logger.Printf("inventory: check items=%d error=%v", len(items), err)
		if !errors.Is(err, domain.ErrUnavailable) {
			err = fmt.Errorf("inventory check: %w: %w", domain.ErrUnavailable, err)
		}
		return failAll(items), err
	}
	if res.Success {
		return domain.InventoryCheckResult{Success: true}, nil
	}

	requested := make(map[string]domain.CheckItem, len(items))
	for _, it := range items {
		requested[it.Product.ID] = it
	}
	out := domain.InventoryCheckResult{Shortfalls: make([]domain.Shortfall, 0, len(res.Shortfalls))}
	for _, sf := range res.Shortfalls {
		if sf.AvailableStock < 0 {
			sf.AvailableStock = 0
		}
		if it, ok := requested[sf.Product.ID]; ok {
			if sf.RequestedQuantity == 0 {
				sf.RequestedQuantity = it.Quantity
			}
			sf.Product = it.Product
		}
		out.Shortfalls = append(out.Shortfalls, sf)
	}
	v.logger.Printf("inventory: check items=%d shortfalls=%d", len(items), len(out.Shortfalls))
	return out, nil
}

// Reconcile makes the cart agree with a check verdict. A failed check (err != nil) reloads the
// cart from its backend without clamping; shortfalls clamp the cart to available stock.
func (v *Validator) Reconcile(ctx context.Context, r Reconciler, res domain.InventoryCheckResult, checkErr error) (domain.Cart, error) {
	if checkErr != nil {
		c, err := r.Reload(ctx)
		if err != nil {
			return c, errors.Join(checkErr, err)
		}
		return c, checkErr
	}
	if res.Success {
		return r.Reload(ctx)
	}
	return r.ApplyShortfalls(ctx, res.Shortfalls)
}

// CheckAndReconcile runs Check on items and then Reconcile against r.
func (v *Validator) CheckAndReconcile(ctx context.Context, r Reconciler, items []domain.CheckItem) (domain.InventoryCheckResult, domain.Cart, error) {
	res, checkErr := v.Check(ctx, items)
	c, err := v.Reconcile(ctx, r, res, checkErr)
	return res, c, err
}

// ShortfallError converts a failed verdict into stock errors, one per shortfall.
func ShortfallError(res domain.InventoryCheckResult) error {
	if res.Success {
		return nil
	}
	errs := make([]error, 0, len(res.Shortfalls))
	for _, sf := range res.Shortfalls {
		errs = append(errs, &domain.StockError{
			Product:   sf.Product,
			Requested: sf.RequestedQuantity,
			Available: sf.AvailableStock,
		})
	}
	return errors.Join(errs...)
}

func failAll(items []domain.CheckItem) domain.InventoryCheckResult {
	res := domain.InventoryCheckResult{Shortfalls: make([]domain.Shortfall, 0, len(items))}
	for _, it := range items {
		res.Shortfalls = append(res.Shortfalls, domain.Shortfall{
			Product:           it.Product,
			RequestedQuantity: it.Quantity,
		})
	}
	return res
}
