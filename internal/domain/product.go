package domain

import "time"

// Category groups products in the storefront.
type Category string

const (
	CategoryBook  Category = "book"
	CategoryCD    Category = "cd"
	CategoryDVD   Category = "dvd"
	CategoryVinyl Category = "vinyl"
)

// Product is a snapshot of catalog master data. Prices are tax-inclusive whole currency units.
type Product struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Price        int64     `json:"price"`
	Stock        int       `json:"stock"`
	Category     Category  `json:"category"`
	RushEligible bool      `json:"rushEligible"`
	RefreshedAt  time.Time `json:"refreshedAt,omitempty"`
}
