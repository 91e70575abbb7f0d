package domain

import "time"

// ShippingQuote carries the fees for a candidate order.
type ShippingQuote struct {
	RegularFee int64        `json:"regularFee"`
	RushFee    int64        `json:"rushFee"`
	Rush       RushDecision `json:"rush"`
	// Estimated is set when the quote is the configured fallback rather than a collaborator answer.
	Estimated bool `json:"estimated"`
}

// CostSummary is the breakdown shown on the confirmation step.
type CostSummary struct {
	Subtotal    int64 `json:"subtotal"`
	ShippingFee int64 `json:"shippingFee"`
	RushFee     int64 `json:"rushFee"`
	VAT         int64 `json:"vat"`
	Total       int64 `json:"total"`
	Estimated   bool  `json:"shippingEstimated"`
	ItemCount   int   `json:"itemCount"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPlaced    OrderStatus = "placed"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderLine is captured at submission time and never changes afterwards.
type OrderLine struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

// Order is the read-only result of a successful checkout.
type Order struct {
	ID            string       `json:"id"`
	Lines         []OrderLine  `json:"lines"`
	Delivery      DeliveryInfo `json:"delivery"`
	Summary       CostSummary  `json:"summary"`
	Status        OrderStatus  `json:"status"`
	PlacedAt      time.Time    `json:"placedAt"`
	PaymentMethod string       `json:"paymentMethod,omitempty"`
}

// OrderLinesFromEntries snapshots cart entries into order lines.
func OrderLinesFromEntries(entries []CartEntry) []OrderLine {
	lines := make([]OrderLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, OrderLine{
			ProductID: e.Product.ID,
			Title:     e.Product.Title,
			UnitPrice: e.Product.Price,
			Quantity:  e.Quantity,
		})
	}
	return lines
}

// PaymentVNPay is the only payment method offered at checkout.
const PaymentVNPay = "vnpay"

// OrderRequest is what the order-submission collaborator receives.
type OrderRequest struct {
	CheckoutID    string       `json:"checkoutId"`
	CustomerID    string       `json:"customerId,omitempty"`
	Lines         []OrderLine  `json:"lines"`
	Delivery      DeliveryInfo `json:"delivery"`
	Summary       CostSummary  `json:"summary"`
	PaymentMethod string       `json:"paymentMethod"`
}
