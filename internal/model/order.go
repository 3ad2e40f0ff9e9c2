package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the review state of an order request.
type OrderStatus string

const (
	StatusRequested OrderStatus = "requested"
	StatusApproved  OrderStatus = "approved"
	StatusRejected  OrderStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusRequested, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Order represents a customer order request.
type Order struct {
	ID            string           `json:"id" db:"id"`
	UserID        string           `json:"userId" db:"user_id"`
	UserName      string           `json:"userName" db:"user_name"`
	Items         []CartItem       `json:"items"`
	Total         decimal.Decimal  `json:"total" db:"total"`
	OriginalTotal *decimal.Decimal `json:"originalTotal,omitempty" db:"original_total"`
	Status        OrderStatus      `json:"status" db:"status"`
	CreatedAt     time.Time        `json:"date" db:"created_at"`
}

// OrderItem represents a persisted order line. Price is captured at order time.
type OrderItem struct {
	ID        string          `json:"-" db:"id"`
	OrderID   string          `json:"-" db:"order_id"`
	ProductID string          `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
}

// DiscountPercent returns the whole-number discount an admin price override
// gave on the order, or 0 when the total was never lowered.
func DiscountPercent(o Order) int64 {
	if o.OriginalTotal == nil {
		return 0
	}
	original := *o.OriginalTotal
	if !original.IsPositive() || !original.GreaterThan(o.Total) {
		return 0
	}
	return original.Sub(o.Total).
		Mul(decimal.NewFromInt(100)).
		Div(original).
		Round(0).
		IntPart()
}

// OrderResponse represents the response payload for an order.
type OrderResponse struct {
	Order
	DiscountPercent int64 `json:"discountPercent"`
}

// NewOrderResponse wraps an order with its derived discount.
func NewOrderResponse(o Order) OrderResponse {
	return OrderResponse{Order: o, DiscountPercent: DiscountPercent(o)}
}

// UpdateStatusRequest represents the request payload for changing order status.
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// UpdatePriceRequest represents the request payload for overriding an order total.
type UpdatePriceRequest struct {
	Total *decimal.Decimal `json:"total"`
}

// OrderEvent is published whenever an order changes.
type OrderEvent struct {
	Type     string          `json:"type"` // created, status_updated, price_updated
	OrderID  string          `json:"orderId"`
	UserID   string          `json:"userId"`
	Status   OrderStatus     `json:"status"`
	Total    decimal.Decimal `json:"total"`
	Occurred time.Time       `json:"occurred"`
}
