package repository

import (
	"context"
	"errors"
	"fmt"

	"steel-spark/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// profileRepository implements the ProfileRepository interface using PostgreSQL.
type profileRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProfileRepository creates a new PostgreSQL-backed profile repository.
func NewProfileRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProfileRepository {
	return &profileRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "profile").Logger(),
	}
}

// Create inserts a profile. Emails are stored as given; callers normalise them.
func (r *profileRepository) Create(ctx context.Context, p *model.Profile) error {
	query := `
		INSERT INTO profiles (id, name, email, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query, p.ID, p.Name, p.Email, p.Role, p.PasswordHash).Scan(&p.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			r.logger.Debug().Str("email", p.Email).Msg("email already registered")
			return model.ErrEmailTaken
		}
		r.logger.Error().Err(err).Str("user_id", p.ID).Msg("failed to create profile")
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetByEmail retrieves a profile, including its password hash, by email.
func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	query := `
		SELECT id, name, email, role, password_hash, created_at
		FROM profiles
		WHERE email = $1
	`

	var p model.Profile
	err := r.pool.QueryRow(ctx, query, email).Scan(&p.ID, &p.Name, &p.Email, &p.Role, &p.PasswordHash, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query profile by email")
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return &p, nil
}

// GetByID retrieves a user by ID.
func (r *profileRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT id, name, email, role, created_at FROM profiles WHERE id = $1`

	var u model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", id).Msg("failed to query profile")
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return &u, nil
}
