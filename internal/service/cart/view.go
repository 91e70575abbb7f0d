package cart

import (
	"storefront-checkout/internal/domain"
	cartrepo "storefront-checkout/internal/repository/cart"
)

// ViewEntry is a cart entry annotated for display.
type ViewEntry struct {
	domain.CartEntry
	LineTotal int64                  `json:"lineTotal"`
	Status    domain.InventoryStatus `json:"status"`
	Selected  bool                   `json:"selected"`
}

// View is the read model returned to clients after every cart operation.
type View struct {
	Entries           []ViewEntry   `json:"entries"`
	SelectedIDs       []string      `json:"selectedIds"`
	ItemCount         int           `json:"itemCount"`
	Subtotal          int64         `json:"subtotal"`
	VAT               int64         `json:"vat"`
	HasInventoryIssue bool          `json:"hasInventoryIssue"`
	Backend           cartrepo.Kind `json:"backend"`
	Version           uint64        `json:"version"`
}

// NewView derives the read model from c.
func NewView(c domain.Cart, kind cartrepo.Kind) View {
	v := View{
		Entries:           make([]ViewEntry, 0, len(c.Entries)),
		SelectedIDs:       c.SelectedIDs(),
		ItemCount:         ItemCount(c.Entries),
		Subtotal:          Subtotal(c.Entries),
		HasInventoryIssue: HasInventoryIssue(c.Entries),
		Backend:           kind,
		Version:           c.Version,
	}
	v.VAT = VAT(v.Subtotal)
	for _, e := range c.Entries {
		v.Entries = append(v.Entries, ViewEntry{
			CartEntry: e,
			LineTotal: e.LineTotal(),
			Status:    e.Status(),
			Selected:  c.IsSelected(e.Product.ID),
		})
	}
	return v
}

// View returns the read model of the current cart.
func (s *Store) View() View {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return NewView(s.cart.Clone(), s.kind)
}
