package gateway

import (
	"context"

	"storefront-checkout/internal/domain"
)

// Shipping calls the shipping collaborator for rush support and fees.
type Shipping struct {
	client *Client
}

func NewShipping(client *Client) *Shipping {
	return &Shipping{client: client}
}

type rushSupportRequest struct {
	City     string           `json:"city"`
	District string           `json:"district"`
	Products []domain.Product `json:"products"`
}

func (g *Shipping) RushSupport(ctx context.Context, city, district string, products []domain.Product) (domain.RushSupport, error) {
	var res domain.RushSupport
	req := rushSupportRequest{City: city, District: district, Products: products}
	if err := g.client.post(ctx, "/shipping/rush-eligibility", req, &res); err != nil {
		return domain.RushSupport{}, err
	}
	return res, nil
}

func (g *Shipping) Fees(ctx context.Context, req domain.FeeRequest) (domain.Fees, error) {
	var res domain.Fees
	if err := g.client.post(ctx, "/shipping/fees", req, &res); err != nil {
		return domain.Fees{}, err
	}
	return res, nil
}
