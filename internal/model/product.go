package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is one of the three top-level steel product families.
type Category string

const (
	CategoryStructuralMaterials Category = "structural-materials"
	CategorySteelPipes          Category = "steel-pipes"
	CategorySheetsPlates        Category = "sheets-plates"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryStructuralMaterials,
	CategorySteelPipes,
	CategorySheetsPlates,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product represents a steel product in the catalogue.
type Product struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Category    Category        `json:"category" db:"category"`
	Subcategory string          `json:"subcategory" db:"subcategory"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	Description string          `json:"description" db:"description"`
	Image       string          `json:"image" db:"image"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// ProductDraft is a product that has not been assigned an identifier yet.
type ProductDraft struct {
	Name        string          `json:"name"`
	Category    Category        `json:"category"`
	Subcategory string          `json:"subcategory"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
}

// ClampPrice floors a price at zero and rounds it to cents, matching the
// NUMERIC(12,2) column.
func ClampPrice(price decimal.Decimal) decimal.Decimal {
	if price.IsNegative() {
		return decimal.Zero
	}
	return price.Round(2)
}

// ClampStock floors a stock count at zero.
func ClampStock(stock int) int {
	if stock < 0 {
		return 0
	}
	return stock
}

// UpdateStockRequest represents the request payload for a stock change.
type UpdateStockRequest struct {
	Stock *int `json:"stock"`
}

// UpdateProductPriceRequest represents the request payload for a price change.
type UpdateProductPriceRequest struct {
	Price *decimal.Decimal `json:"price"`
}

// UpdateImageRequest sets a product image by URL.
type UpdateImageRequest struct {
	Image string `json:"image"`
}
