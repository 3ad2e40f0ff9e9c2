// Package identity resolves who is signed in and what role they hold.
//
// A session is a row in the sessions table plus a signed token naming it.
// Signing out deletes the row, which invalidates the token before it expires.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"steel-spark/internal/config"
	"steel-spark/internal/model"
	"steel-spark/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// ErrMissingFields is returned when registration or login lacks a required value.
var ErrMissingFields = model.NewDomainError(model.ErrCodeMissingField, "Name, email and password are required")

// Facade is the session and identity entry point.
type Facade struct {
	profiles    repository.ProfileRepository
	sessions    repository.SessionRepository
	signer      *TokenSigner
	adminDomain string
	hashCost    int
	now         func() time.Time
	logger      zerolog.Logger
}

// NewFacade creates an identity facade.
func NewFacade(
	profiles repository.ProfileRepository,
	sessions repository.SessionRepository,
	cfg config.AuthConfig,
	logger zerolog.Logger,
) *Facade {
	return &Facade{
		profiles:    profiles,
		sessions:    sessions,
		signer:      NewTokenSigner(cfg.JWTSecret, cfg.SessionTTL),
		adminDomain: cfg.AdminDomain,
		hashCost:    bcrypt.DefaultCost,
		now:         time.Now,
		logger:      logger.With().Str("component", "identity").Logger(),
	}
}

// RoleForEmail derives the role granted at registration: admin for addresses
// under domain, customer otherwise.
func RoleForEmail(email, domain string) model.Role {
	email = strings.ToLower(strings.TrimSpace(email))
	domain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "@"))
	if domain != "" && strings.HasSuffix(email, "@"+domain) {
		return model.RoleAdmin
	}
	return model.RoleCustomer
}

// IsAdmin reports whether user is a signed-in admin.
func IsAdmin(user *model.User) bool {
	return user.IsAdmin()
}

// Register creates a profile and signs it in.
func (f *Facade) Register(ctx context.Context, name, email, password string) (*model.AuthResponse, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), f.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &model.Profile{
		User: model.User{
			ID:    uuid.NewString(),
			Name:  name,
			Email: email,
			Role:  RoleForEmail(email, f.adminDomain),
		},
		PasswordHash: string(hash),
	}
	if err := f.profiles.Create(ctx, profile); err != nil {
		if !errors.Is(err, model.ErrEmailTaken) {
			f.logger.Error().Err(err).Msg("failed to register user")
		}
		return nil, err
	}

	f.logger.Info().Str("user_id", profile.ID).Str("role", string(profile.Role)).Msg("user registered")
	return f.openSession(ctx, profile.User)
}

// Login verifies the password and opens a session.
func (f *Facade) Login(ctx context.Context, email, password string) (*model.AuthResponse, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	profile, err := f.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		f.logger.Debug().Str("user_id", profile.ID).Msg("password mismatch")
		return nil, model.ErrInvalidCredentials
	}

	return f.openSession(ctx, profile.User)
}

// Logout ends the session named by token. An invalid token is already signed out.
func (f *Facade) Logout(ctx context.Context, token string) error {
	claims, err := f.signer.Parse(token)
	if err != nil {
		return nil
	}
	if err := f.sessions.Delete(ctx, claims.ID); err != nil {
		return err
	}
	f.logger.Info().Str("user_id", claims.Subject).Msg("user signed out")
	return nil
}

// Current resolves the user behind token. Returns model.ErrUnauthenticated
// for a bad, expired or signed-out token.
func (f *Facade) Current(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, model.ErrUnauthenticated
	}
	claims, err := f.signer.Parse(token)
	if err != nil {
		f.logger.Debug().Err(err).Msg("rejected session token")
		return nil, model.ErrUnauthenticated
	}

	active, err := f.sessions.Exists(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, model.ErrUnauthenticated
	}

	user, err := f.profiles.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.ErrUnauthenticated
	}
	return user, nil
}

func (f *Facade) openSession(ctx context.Context, user model.User) (*model.AuthResponse, error) {
	sessionID := uuid.NewString()
	token, expiresAt, err := f.signer.Sign(user.ID, sessionID, f.now())
	if err != nil {
		return nil, err
	}
	if err := f.sessions.Create(ctx, sessionID, user.ID, expiresAt); err != nil {
		return nil, err
	}
	return &model.AuthResponse{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
