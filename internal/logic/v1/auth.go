package v1

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/peek-service/internal/core/domain"
	"github.com/duynhne/peek-service/middleware"
)

const (
	tokenTTL          = 24 * time.Hour
	minPasswordLength = 6
	bcryptCost        = 12
)

// AuthService is the identity collaborator: it registers users, issues
// opaque bearer tokens and resolves them back to users.
// It depends on repository interfaces only.
type AuthService struct {
	users  domain.UserRepository
	tokens domain.TokenRepository
	now    func() time.Time
	cost   int
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithPasswordCost sets the bcrypt cost used for new password hashes.
func WithPasswordCost(cost int) AuthOption {
	return func(s *AuthService) { s.cost = cost }
}

// NewAuthService creates a new AuthService with the given repository dependencies.
func NewAuthService(users domain.UserRepository, tokens domain.TokenRepository, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:  users,
		tokens: tokens,
		now:    time.Now,
		cost:   bcryptCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Login verifies credentials and issues a new token.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("email", email),
	))
	defer span.End()

	row, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %q: %w", email, err)
	}
	if row == nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate user %q: %w", email, ErrUserNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(req.Password)); err != nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate user %q: %w", email, ErrInvalidCredentials)
	}

	resp, err := s.issue(ctx, row)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("user.id", row.ID),
		attribute.Bool("auth.success", true),
	)
	span.AddEvent("user.authenticated")
	return resp, nil
}

// Register creates a user and issues a token for it.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	ctx, span := middleware.StartSpan(ctx, "auth.register", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("email", email),
	))
	defer span.End()

	if email == "" || len(req.Password) < minPasswordLength {
		span.SetAttributes(attribute.Bool("registration.success", false))
		return nil, fmt.Errorf("register user %q: password must be at least %d characters: %w", email, minPasswordLength, ErrInvalidInput)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		span.SetAttributes(attribute.Bool("registration.success", false))
		return nil, fmt.Errorf("register user %q: %w", email, ErrUserExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := newUUID()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	row := &domain.UserRow{
		ID:           id,
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, row); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("insert user: %w", err)
	}

	resp, err := s.issue(ctx, row)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("user.id", row.ID),
		attribute.Bool("registration.success", true),
	)
	span.AddEvent("user.registered")
	return resp, nil
}

// issue creates and persists a token for row. A token that cannot be stored
// is useless to the client, so persistence failure fails the call.
func (s *AuthService) issue(ctx context.Context, row *domain.UserRow) (*domain.AuthResponse, error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	if err := s.tokens.Create(ctx, row.ID, token, s.now().Add(tokenTTL).UTC()); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	return &domain.AuthResponse{
		Token: token,
		User: domain.User{
			ID:        row.ID,
			Email:     row.Email,
			Name:      row.Name,
			CreatedAt: row.CreatedAt,
		},
	}, nil
}

// GetUserByToken resolves a bearer token to its user (for /auth/me and the
// auth middleware).
func (s *AuthService) GetUserByToken(ctx context.Context, token string) (*domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.get_user_by_token", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	row, err := s.tokens.GetUserByToken(ctx, token)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query token: %w", err)
	}
	if row == nil {
		span.SetAttributes(attribute.Bool("token.valid", false))
		return nil, fmt.Errorf("lookup token: %w", ErrTokenNotFound)
	}
	if s.now().After(row.ExpiresAt) {
		span.SetAttributes(attribute.Bool("token.valid", false))
		return nil, fmt.Errorf("token expired at %v: %w", row.ExpiresAt, ErrTokenExpired)
	}

	span.SetAttributes(
		attribute.String("user.id", row.UserID),
		attribute.Bool("token.valid", true),
	)
	return &domain.User{
		ID:        row.UserID,
		Email:     row.Email,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
	}, nil
}
