package domain

// CheckItem is one candidate line sent to the inventory check.
type CheckItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Shortfall is a reported deficit for a product.
type Shortfall struct {
	Product           Product `json:"product"`
	RequestedQuantity int     `json:"requestedQuantity"`
	AvailableStock    int     `json:"availableStock"`
}

// InventoryCheckResult is the verdict of an inventory check.
type InventoryCheckResult struct {
	Success    bool        `json:"success"`
	Shortfalls []Shortfall `json:"shortfalls,omitempty"`
}

// CheckItemsFromEntries converts cart entries to inventory check lines.
func CheckItemsFromEntries(entries []CartEntry) []CheckItem {
	items := make([]CheckItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, CheckItem{Product: e.Product, Quantity: e.Quantity})
	}
	return items
}
