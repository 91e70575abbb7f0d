package shipping

import (
	"context"
	"io"
	"log"
	"strings"

	"storefront-checkout/internal/domain"
)

const (
	promptDistrict    = "Rush delivery is not available for this district."
	promptUnconfirmed = "Rush delivery could not be confirmed right now, please try again."
)

// Quoter is the shipping collaborator.
type Quoter interface {
	RushSupport(ctx context.Context, city, district string, products []domain.Product) (domain.RushSupport, error)
	Fees(ctx context.Context, req domain.FeeRequest) (domain.Fees, error)
}

// Calculator decides rush eligibility and produces shipping quotes.
type Calculator struct {
	quoter      Quoter
	districts   map[string]struct{}
	fallbackFee int64
	logger      *log.Logger
}

// New builds a calculator. districts holds "City/District" pairs eligible for rush delivery.
func New(quoter Quoter, districts []string, fallbackFee int64, logger *log.Logger) *Calculator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	set := make(map[string]struct{}, len(districts))
	for _, d := range districts {
		city, district, ok := strings.Cut(d, "/")
		if !ok {
			continue
		}
		set[districtKey(city, district)] = struct{}{}
	}
	return &Calculator{quoter: quoter, districts: set, fallbackFee: fallbackFee, logger: logger}
}

// DistrictEligible reports whether city/district is in the rush delivery area.
func (c *Calculator) DistrictEligible(city, district string) bool {
	_, ok := c.districts[districtKey(city, district)]
	return ok
}

// RushEligibility applies the rush rule: the district must be eligible and the collaborator must
// support the product mix. The collaborator is not asked when the district already fails.
func (c *Calculator) RushEligibility(ctx context.Context, city, district string, entries []domain.CartEntry) domain.RushDecision {
	if !c.DistrictEligible(city, district) {
		return domain.RushDecision{Prompt: promptDistrict}
	}
	products := make([]domain.Product, 0, len(entries))
	for _, e := range entries {
		products = append(products, e.Product)
	}
	support, err := c.quoter.RushSupport(ctx, city, district, products)
	if err != nil {
		c.logger.Printf("shipping: rush support city=%s district=%s error=%v", city, district, err)
		return domain.RushDecision{DistrictEligible: true, Prompt: promptUnconfirmed}
	}
	return domain.RushDecision{
		DistrictEligible: true,
		MixSupported:     support.Supported,
		RushItemIDs:      support.RushItemIDs,
		RegularItemIDs:   support.RegularItemIDs,
		Prompt:           support.Prompt,
	}
}

// GateDelivery forces IsRushOrder off unless rush is allowed for the address and entries.
func (c *Calculator) GateDelivery(ctx context.Context, info domain.DeliveryInfo, entries []domain.CartEntry) (domain.DeliveryInfo, domain.RushDecision) {
	decision := c.RushEligibility(ctx, info.City, info.District, entries)
	if !decision.Allowed() {
		info.IsRushOrder = false
		info.RushTimeSlot = ""
	}
	return info, decision
}

// Quote gates rush and asks the collaborator for fees. On collaborator failure it returns the
// configured fallback fee marked as estimated.
func (c *Calculator) Quote(ctx context.Context, info domain.DeliveryInfo, entries []domain.CartEntry) (domain.ShippingQuote, domain.DeliveryInfo) {
	info, decision := c.GateDelivery(ctx, info, entries)
	fees, err := c.quoter.Fees(ctx, domain.FeeRequest{
		Items:    domain.CheckItemsFromEntries(entries),
		Delivery: info,
	})
	if err != nil {
		c.logger.Printf("shipping: fees items=%d error=%v, using fallback=%d", len(entries), err, c.fallbackFee)
		return domain.ShippingQuote{RegularFee: c.fallbackFee, Rush: decision, Estimated: true}, info
	}
	q := domain.ShippingQuote{RegularFee: fees.RegularFee, Rush: decision}
	if info.IsRushOrder {
		q.RushFee = fees.RushFee
	}
	return q, info
}

func districtKey(city, district string) string {
	return strings.ToLower(strings.TrimSpace(city)) + "/" + strings.ToLower(strings.TrimSpace(district))
}
