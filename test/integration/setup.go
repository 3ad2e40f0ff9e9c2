package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"steel-spark/internal/config"
	"steel-spark/internal/database"
	"steel-spark/internal/model"
	"steel-spark/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, a connection pool and the schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	pool, err := database.NewPoolFromURL(ctx, connStr, dbConfig, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedProducts inserts one product per category.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	repo := repository.NewProductRepository(pool, zerolog.Nop())

	products := []model.Product{
		{
			ID:          "P001",
			Name:        "MS Angle 50x50x5",
			Category:    model.CategoryStructuralMaterials,
			Subcategory: "Angles",
			Price:       decimal.NewFromInt(100),
			Stock:       100,
			Image:       "/placeholder.svg",
		},
		{
			ID:          "P002",
			Name:        "GI Pipe 1 inch",
			Category:    model.CategorySteelPipes,
			Subcategory: "GI Pipes",
			Price:       decimal.RequireFromString("450.50"),
			Stock:       20,
			Image:       "/placeholder.svg",
		},
		{
			ID:          "P003",
			Name:        "HR Sheet 2mm",
			Category:    model.CategorySheetsPlates,
			Subcategory: "HR Sheets",
			Price:       decimal.NewFromInt(3200),
			Stock:       5,
			Image:       "/placeholder.svg",
		},
	}

	for i := range products {
		if err := repo.Create(ctx, &products[i]); err != nil {
			t.Fatalf("failed to seed product %s: %v", products[i].ID, err)
		}
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_items", "orders", "cart_items", "sessions", "profiles", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
