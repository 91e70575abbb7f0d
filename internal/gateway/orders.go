package gateway

import (
	"context"
	"fmt"

	"storefront-checkout/internal/domain"
)

// Orders calls the order-submission collaborator.
type Orders struct {
	client *Client
}

func NewOrders(client *Client) *Orders {
	return &Orders{client: client}
}

// Submit creates the order. A reply without an order id is an invalid response.
func (g *Orders) Submit(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	var order domain.Order
	if err := g.client.post(ctx, "/orders", req, &order); err != nil {
		return domain.Order{}, err
	}
	if order.ID == "" {
		return domain.Order{}, fmt.Errorf("orders: %w: missing order id", domain.ErrInvalidResponse)
	}
	return order, nil
}
