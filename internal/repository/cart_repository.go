package repository

import (
	"context"
	"fmt"

	"steel-spark/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// GetByUser retrieves the user's cart lines in the order they were first added.
func (r *cartRepository) GetByUser(ctx context.Context, userID string) ([]model.CartItem, error) {
	query := `
		SELECT ci.quantity,
		       p.id, p.name, p.category, p.subcategory, p.price, p.stock,
		       p.description, p.image, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at, p.id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		var item model.CartItem
		p := &item.Product
		err := rows.Scan(
			&item.Quantity,
			&p.ID, &p.Name, &p.Category, &p.Subcategory, &p.Price, &p.Stock,
			&p.Description, &p.Image, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart row")
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		item.ProductID = p.ID
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart rows")
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// AddQuantity inserts the line or adds to its quantity in one statement.
func (r *cartRepository) AddQuantity(ctx context.Context, userID, productID string, quantity int) (int, error) {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING quantity
	`

	var stored int
	if err := r.pool.QueryRow(ctx, query, userID, productID, quantity).Scan(&stored); err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			r.logger.Warn().Str("user_id", userID).Str("product_id", productID).Msg("cart add for unknown product")
			return 0, model.ErrProductNotFound
		}
		r.logger.Error().Err(err).
			Str("user_id", userID).
			Str("product_id", productID).
			Msg("failed to add cart item")
		return 0, fmt.Errorf("failed to add cart item: %w", err)
	}

	return stored, nil
}

// SetQuantity overwrites a line's quantity. A missing line is a no-op.
func (r *cartRepository) SetQuantity(ctx context.Context, userID, productID string, quantity int) error {
	query := `
		UPDATE cart_items SET quantity = $3, updated_at = NOW()
		WHERE user_id = $1 AND product_id = $2
	`

	if _, err := r.pool.Exec(ctx, query, userID, productID, quantity); err != nil {
		r.logger.Error().Err(err).
			Str("user_id", userID).
			Str("product_id", productID).
			Msg("failed to update cart item")
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return nil
}

// Remove deletes a line. A missing line is a no-op.
func (r *cartRepository) Remove(ctx context.Context, userID, productID string) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	if _, err := r.pool.Exec(ctx, query, userID, productID); err != nil {
		r.logger.Error().Err(err).
			Str("user_id", userID).
			Str("product_id", productID).
			Msg("failed to remove cart item")
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Clear deletes every line of the user's cart.
func (r *cartRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// ClearTx deletes every line of the user's cart within tx and reports how
// many rows went.
func (r *cartRepository) ClearTx(ctx context.Context, tx pgx.Tx, userID string) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to clear cart in transaction")
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}
	return tag.RowsAffected(), nil
}
