package gateway

import (
	"context"

	"storefront-checkout/internal/domain"
)

// Inventory calls the inventory-check collaborator.
type Inventory struct {
	client *Client
}

func NewInventory(client *Client) *Inventory {
	return &Inventory{client: client}
}

type inventoryCheckRequest struct {
	Items []domain.CheckItem `json:"items"`
}

func (g *Inventory) Check(ctx context.Context, items []domain.CheckItem) (domain.InventoryCheckResult, error) {
	var res domain.InventoryCheckResult
	if err := g.client.post(ctx, "/inventory/check", inventoryCheckRequest{Items: items}, &res); err != nil {
		return domain.InventoryCheckResult{}, err
	}
	return res, nil
}
