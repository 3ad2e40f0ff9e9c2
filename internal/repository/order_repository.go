package repository

import (
	"context"
	"errors"
	"fmt"

	"steel-spark/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, user_id, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`

	_, err := tx.Exec(ctx, query, order.ID, order.UserID, order.Total, order.Status, order.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, position, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(query, item.ID, item.OrderID, i, item.ProductID, item.Quantity, item.Price)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetAll retrieves every order with its lines. Line prices are the ones
// captured at order time; the remaining product fields reflect the current
// catalogue entry, or are empty when the product has since been deleted.
func (r *orderRepository) GetAll(ctx context.Context) ([]model.Order, error) {
	orderQuery := `
		SELECT o.id, o.user_id, COALESCE(p.name, ''), o.total, o.original_total, o.status, o.created_at
		FROM orders o
		LEFT JOIN profiles p ON p.id = o.user_id
		ORDER BY o.created_at, o.id
	`

	rows, err := r.pool.Query(ctx, orderQuery)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	index := make(map[string]int)
	for rows.Next() {
		var o model.Order
		var original decimal.NullDecimal
		err := rows.Scan(&o.ID, &o.UserID, &o.UserName, &o.Total, &original, &o.Status, &o.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if original.Valid {
			o.OriginalTotal = &original.Decimal
		}
		o.Items = []model.CartItem{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	itemsQuery := `
		SELECT oi.order_id, oi.product_id, oi.quantity, oi.price,
		       COALESCE(p.name, ''), COALESCE(p.category, ''), COALESCE(p.subcategory, ''),
		       COALESCE(p.stock, 0), COALESCE(p.description, ''), COALESCE(p.image, '')
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		ORDER BY oi.order_id, oi.position
	`

	itemRows, err := r.pool.Query(ctx, itemsQuery)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID string
		var item model.CartItem
		p := &item.Product
		err := itemRows.Scan(
			&orderID, &item.ProductID, &item.Quantity, &p.Price,
			&p.Name, &p.Category, &p.Subcategory, &p.Stock, &p.Description, &p.Image,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		p.ID = item.ProductID
		i, ok := index[orderID]
		if !ok {
			// Order inserted between the two queries.
			continue
		}
		orders[i].Items = append(orders[i].Items, item)
	}
	if err := itemRows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return orders, nil
}

// UpdateStatus sets the status of an order.
func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	query := `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

// UpdateTotal overwrites the order total, recording the pre-override total once.
func (r *orderRepository) UpdateTotal(ctx context.Context, id string, total decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE orders
		SET original_total = COALESCE(original_total, total), total = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING original_total
	`

	var original decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, id, total).Scan(&original); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, model.ErrOrderNotFound
		}
		r.logger.Error().Err(err).Str("order_id", id).Msg("failed to update order total")
		return decimal.Zero, fmt.Errorf("failed to update order total: %w", err)
	}
	return original, nil
}
