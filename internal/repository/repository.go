package repository

import (
	"context"
	"time"

	"steel-spark/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves every product in the catalogue.
	GetAll(ctx context.Context) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. Returns nil, nil when absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// Create inserts a product. The caller assigns the ID.
	Create(ctx context.Context, product *model.Product) error

	// Update replaces every mutable field of an existing product.
	Update(ctx context.Context, product *model.Product) error

	// Delete removes a product by ID.
	Delete(ctx context.Context, id string) error

	UpdateImage(ctx context.Context, id, image string) error
	UpdateStock(ctx context.Context, id string, stock int) error
	UpdatePrice(ctx context.Context, id string, price decimal.Decimal) error
}

// CartRepository defines the interface for per-user cart rows.
type CartRepository interface {
	// GetByUser retrieves the user's cart lines with the referenced product embedded.
	GetByUser(ctx context.Context, userID string) ([]model.CartItem, error)

	// AddQuantity atomically inserts the line or increments its quantity,
	// returning the stored quantity.
	AddQuantity(ctx context.Context, userID, productID string, quantity int) (int, error)

	// SetQuantity overwrites the quantity of an existing line.
	SetQuantity(ctx context.Context, userID, productID string, quantity int) error

	// Remove deletes a single line.
	Remove(ctx context.Context, userID, productID string) error

	// Clear deletes every line of the user's cart.
	Clear(ctx context.Context, userID string) error

	// ClearTx deletes every line of the user's cart within the provided
	// transaction and returns the number of deleted rows.
	ClearTx(ctx context.Context, tx pgx.Tx, userID string) (int64, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetAll retrieves every order with its lines, oldest first.
	GetAll(ctx context.Context) ([]model.Order, error)

	// UpdateStatus sets the status of an order.
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error

	// UpdateTotal overwrites the total. The pre-override total is kept in
	// original_total the first time only; the stored original total is returned.
	UpdateTotal(ctx context.Context, id string, total decimal.Decimal) (decimal.Decimal, error)
}

// ProfileRepository defines the interface for user profiles.
type ProfileRepository interface {
	// Create inserts a profile. Returns model.ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, profile *model.Profile) error

	// GetByEmail retrieves a profile with its password hash. Returns nil, nil when absent.
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)

	// GetByID retrieves a user. Returns nil, nil when absent.
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// SessionRepository defines the interface for signed-in sessions.
type SessionRepository interface {
	Create(ctx context.Context, id, userID string, expiresAt time.Time) error

	// Exists reports whether the session is present and not expired.
	Exists(ctx context.Context, id string) (bool, error)

	Delete(ctx context.Context, id string) error
}
