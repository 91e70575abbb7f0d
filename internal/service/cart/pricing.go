package cart

import (
	"storefront-checkout/internal/domain"

	"github.com/shopspring/decimal"
)

// vatDivisor converts a tax-inclusive amount to its pre-tax base (10% VAT).
var vatDivisor = decimal.RequireFromString("1.1")

// Subtotal sums the tax-inclusive line totals.
func Subtotal(entries []domain.CartEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.LineTotal()
	}
	return total
}

// ItemCount sums quantities.
func ItemCount(entries []domain.CartEntry) int {
	n := 0
	for _, e := range entries {
		n += e.Quantity
	}
	return n
}

// VAT is the tax contained in a tax-inclusive total: total - total/1.1, rounded half away from zero.
func VAT(total int64) int64 {
	t := decimal.NewFromInt(total)
	return t.Sub(t.Div(vatDivisor)).Round(0).IntPart()
}

// Summarize computes the cost breakdown for entries under quote.
// The total adds the derived VAT and fees to the subtotal, matching the order totals downstream.
func Summarize(entries []domain.CartEntry, quote domain.ShippingQuote) domain.CostSummary {
	subtotal := Subtotal(entries)
	vat := VAT(subtotal)
	return domain.CostSummary{
		Subtotal:    subtotal,
		ShippingFee: quote.RegularFee,
		RushFee:     quote.RushFee,
		VAT:         vat,
		Total:       subtotal + vat + quote.RegularFee + quote.RushFee,
		Estimated:   quote.Estimated,
		ItemCount:   ItemCount(entries),
	}
}

// HasInventoryIssue reports whether any entry is out of stock or exceeds stock.
func HasInventoryIssue(entries []domain.CartEntry) bool {
	for _, e := range entries {
		switch e.Status() {
		case domain.StatusOutOfStock, domain.StatusInsufficient:
			return true
		}
	}
	return false
}
