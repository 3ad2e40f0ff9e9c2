package model

import "github.com/shopspring/decimal"

// CartItem is one product line in a user's cart. Product is a copy of the
// catalogue entry taken when the line was added.
type CartItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Product   Product `json:"product"`
}

// Subtotal returns price times quantity for the line.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartTotal sums price times quantity over items.
func CartTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// CartItemCount sums quantities over items.
func CartItemCount(items []CartItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

// ClampQuantity floors a cart quantity at one.
func ClampQuantity(quantity int) int {
	if quantity < 1 {
		return 1
	}
	return quantity
}

// CartResponse is the cart view returned to clients.
type CartResponse struct {
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

// AddToCartRequest represents the request payload for adding a product to the cart.
type AddToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartItemRequest represents the request payload for changing a line quantity.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
