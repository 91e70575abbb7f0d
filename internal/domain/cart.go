package domain

import (
	"sort"
	"time"
)

// LowStockThreshold is the available quantity at or below which an entry is flagged as low stock.
const LowStockThreshold = 5

type InventoryStatus string

const (
	StatusAvailable    InventoryStatus = "available"
	StatusLowStock     InventoryStatus = "low_stock"
	StatusInsufficient InventoryStatus = "insufficient"
	StatusOutOfStock   InventoryStatus = "out_of_stock"
)

// CartEntry is one product in a cart. Quantity is always >= 1 once stored.
type CartEntry struct {
	Product   Product   `json:"product"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// LineTotal is the tax-inclusive price of the entry.
func (e CartEntry) LineTotal() int64 {
	return e.Product.Price * int64(e.Quantity)
}

// Status classifies the entry against the product snapshot's stock.
func (e CartEntry) Status() InventoryStatus {
	switch {
	case e.Product.Stock <= 0:
		return StatusOutOfStock
	case e.Quantity > e.Product.Stock:
		return StatusInsufficient
	case e.Product.Stock <= LowStockThreshold:
		return StatusLowStock
	default:
		return StatusAvailable
	}
}

// Cart is the authoritative cart state for a session plus the checkout selection.
type Cart struct {
	Entries   []CartEntry         `json:"entries"`
	Selection map[string]struct{} `json:"-"`
	Version   uint64              `json:"version"`
}

// NewCart builds a cart from backend entries, ordered by product id.
func NewCart(entries []CartEntry) Cart {
	out := make([]CartEntry, 0, len(entries))
	for _, e := range entries {
		if e.Quantity < 1 {
			continue
		}
		out = append(out, e)
	}
	SortEntries(out)
	return Cart{Entries: out, Selection: make(map[string]struct{})}
}

// SortEntries orders entries by product id in place.
func SortEntries(entries []CartEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Product.ID < entries[j].Product.ID
	})
}

// Entry returns the entry for productID.
func (c Cart) Entry(productID string) (CartEntry, bool) {
	for _, e := range c.Entries {
		if e.Product.ID == productID {
			return e, true
		}
	}
	return CartEntry{}, false
}

// Has reports whether productID is in the cart.
func (c Cart) Has(productID string) bool {
	_, ok := c.Entry(productID)
	return ok
}

// IsSelected reports whether productID participates in the next checkout.
func (c Cart) IsSelected(productID string) bool {
	_, ok := c.Selection[productID]
	return ok
}

// SelectedIDs returns the selection ordered by product id.
func (c Cart) SelectedIDs() []string {
	ids := make([]string, 0, len(c.Selection))
	for _, e := range c.Entries {
		if c.IsSelected(e.Product.ID) {
			ids = append(ids, e.Product.ID)
		}
	}
	return ids
}

// SelectedEntries returns the entries that are part of the selection.
func (c Cart) SelectedEntries() []CartEntry {
	var out []CartEntry
	for _, e := range c.Entries {
		if c.IsSelected(e.Product.ID) {
			out = append(out, e)
		}
	}
	return out
}

// PruneSelection drops selected ids that no longer reference an entry.
func (c *Cart) PruneSelection() {
	if c.Selection == nil {
		c.Selection = make(map[string]struct{})
		return
	}
	for id := range c.Selection {
		if !c.Has(id) {
			delete(c.Selection, id)
		}
	}
}

// Clone returns a deep copy safe to hand to callers.
func (c Cart) Clone() Cart {
	out := Cart{
		Entries:   append([]CartEntry(nil), c.Entries...),
		Selection: make(map[string]struct{}, len(c.Selection)),
		Version:   c.Version,
	}
	for id := range c.Selection {
		out.Selection[id] = struct{}{}
	}
	return out
}
