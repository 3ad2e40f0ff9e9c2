package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// sessionRepository implements the SessionRepository interface using PostgreSQL.
type sessionRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSessionRepository creates a new PostgreSQL-backed session repository.
func NewSessionRepository(pool *pgxpool.Pool, logger zerolog.Logger) SessionRepository {
	return &sessionRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "session").Logger(),
	}
}

func (r *sessionRepository) Create(ctx context.Context, id, userID string, expiresAt time.Time) error {
	query := `INSERT INTO sessions (id, user_id, expires_at) VALUES ($1, $2, $3)`

	if _, err := r.pool.Exec(ctx, query, id, userID, expiresAt); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to create session")
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1 AND expires_at > NOW())`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		r.logger.Error().Err(err).Msg("failed to query session")
		return false, fmt.Errorf("failed to query session: %w", err)
	}
	return exists, nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		r.logger.Error().Err(err).Msg("failed to delete session")
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
