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

const productColumns = `id, name, category, subcategory, price, stock, description, image, created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row scanner, p *model.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Category,
		&p.Subcategory,
		&p.Price,
		&p.Stock,
		&p.Description,
		&p.Image,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

// GetAll retrieves all products in insertion order.
func (r *productRepository) GetAll(ctx context.Context) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p model.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// Create inserts a product, filling in its timestamps.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (id, name, category, subcategory, price, stock, description, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Category, p.Subcategory, p.Price, p.Stock, p.Description, p.Image,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Str("product_id", p.ID).Msg("product created successfully")
	return nil
}

// Update overwrites every mutable column of the product.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET name = $2, category = $3, subcategory = $4, price = $5, stock = $6,
		    description = $7, image = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Category, p.Subcategory, p.Price, p.Stock, p.Description, p.Image,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrProductNotFound
		}
		r.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product. Cart lines referencing it cascade.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "delete product", id, `DELETE FROM products WHERE id = $1`, id)
}

// UpdateImage sets the image reference of a product.
func (r *productRepository) UpdateImage(ctx context.Context, id, image string) error {
	return r.exec(ctx, "update product image", id,
		`UPDATE products SET image = $2, updated_at = NOW() WHERE id = $1`, id, image)
}

// UpdateStock sets the stock of a product.
func (r *productRepository) UpdateStock(ctx context.Context, id string, stock int) error {
	return r.exec(ctx, "update product stock", id,
		`UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`, id, stock)
}

// UpdatePrice sets the price of a product.
func (r *productRepository) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) error {
	return r.exec(ctx, "update product price", id,
		`UPDATE products SET price = $2, updated_at = NOW() WHERE id = $1`, id, price)
}

// exec runs a single-row statement and maps zero affected rows to ErrProductNotFound.
func (r *productRepository) exec(ctx context.Context, op, id, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msgf("failed to %s", op)
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Debug().Str("product_id", id).Msg("product not found")
		return model.ErrProductNotFound
	}
	return nil
}
