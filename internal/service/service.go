package service

import (
	"context"

	"steel-spark/internal/model"

	"github.com/shopspring/decimal"
)

// CatalogService owns the in-memory product catalogue.
type CatalogService interface {
	// Load fetches every product, seeding the demo catalogue into an empty table when enabled.
	Load(ctx context.Context) error

	// Products returns a copy of the catalogue in insertion order.
	Products() []model.Product

	ProductsByCategory(category model.Category) []model.Product
	ProductsBySubcategory(category model.Category, subcategory string) []model.Product

	// Subcategories lists the distinct subcategories of a category in first-seen order.
	Subcategories(category model.Category) []string

	// CategoryProducts groups the catalogue by category. Every category has an entry.
	CategoryProducts() map[model.Category][]model.Product

	// AddProduct persists a new product with a generated ID and returns it.
	AddProduct(ctx context.Context, draft model.ProductDraft) (*model.Product, error)

	// UpdateProduct persists a full replacement of the product's mutable fields.
	UpdateProduct(ctx context.Context, product model.Product) (*model.Product, error)

	// DeleteProduct removes the product and then calls every OnProductDeleted hook.
	DeleteProduct(ctx context.Context, id string) error

	// OnProductDeleted registers fn to run after each successful delete.
	OnProductDeleted(fn func(productID string))

	UpdateProductImage(ctx context.Context, id, image string) error

	// UpdateProductStock persists max(0, stock).
	UpdateProductStock(ctx context.Context, id string, stock int) error

	// UpdateProductPrice persists max(0, price).
	UpdateProductPrice(ctx context.Context, id string, price decimal.Decimal) error

	// FindProductByID is a local lookup.
	FindProductByID(id string) (model.Product, bool)
}

// CartService owns the per-user carts. Every method requires a signed-in user
// and returns model.ErrUnauthenticated for a nil one.
type CartService interface {
	// Items returns a copy of the user's cart, loading it on first use.
	Items(ctx context.Context, user *model.User) ([]model.CartItem, error)

	// AddToCart merges quantity into the user's line for the product.
	AddToCart(ctx context.Context, user *model.User, productID string, quantity int) (*model.CartItem, error)

	// UpdateCartItem sets a line's quantity, floored at one.
	UpdateCartItem(ctx context.Context, user *model.User, productID string, quantity int) error

	RemoveFromCart(ctx context.Context, user *model.User, productID string) error
	ClearCart(ctx context.Context, user *model.User) error

	// CartTotal and CartItemCount reduce over the locally held cart.
	CartTotal(user *model.User) decimal.Decimal
	CartItemCount(user *model.User) int

	// Forget drops the local copy of a cart cleared elsewhere.
	Forget(userID string)

	// DropProduct removes a deleted product's lines from every held cart.
	DropProduct(productID string)
}

// OrderService owns the in-memory order list.
type OrderService interface {
	// Load fetches every order.
	Load(ctx context.Context) error

	// PlaceOrder checks out the user's cart. Returns nil, nil for an empty cart.
	PlaceOrder(ctx context.Context, user *model.User) (*model.Order, error)

	// UpdateOrderStatus sets the status. Every move to approved decrements stock.
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)

	// UpdateOrderPrice overrides the total, keeping the first pre-override total.
	UpdateOrderPrice(ctx context.Context, id string, total decimal.Decimal) (*model.Order, error)

	Orders() []model.Order
	OrdersByUser(userID string) []model.Order
	FindOrderByID(id string) (model.Order, bool)
}
