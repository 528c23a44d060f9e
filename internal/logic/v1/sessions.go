package v1

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/peek-service/internal/core/domain"
	"github.com/duynhne/peek-service/middleware"
)

// SessionService manages idea sessions on behalf of their owner.
type SessionService struct {
	sessions domain.SessionRepository
	now      func() time.Time
}

// NewSessionService creates a SessionService.
func NewSessionService(sessions domain.SessionRepository) *SessionService {
	return &SessionService{sessions: sessions, now: time.Now}
}

// cleanIdeas trims every idea and drops the blank ones, keeping order.
func cleanIdeas(ideas []string) []string {
	out := make([]string, 0, len(ideas))
	for _, idea := range ideas {
		if idea = strings.TrimSpace(idea); idea != "" {
			out = append(out, idea)
		}
	}
	return out
}

func validateSession(req domain.SessionRequest) (title string, err error) {
	title = strings.TrimSpace(req.Title)
	if title == "" {
		return "", fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	return title, nil
}

// List returns the owner's sessions, most recently updated first.
func (s *SessionService) List(ctx context.Context, ownerID, search string) ([]domain.Session, error) {
	ctx, span := middleware.StartSpan(ctx, "sessions.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", ownerID),
	))
	defer span.End()

	list, err := s.sessions.ListOwned(ctx, ownerID, strings.TrimSpace(search))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list sessions: %w", errors.Join(ErrStorage, err))
	}
	if list == nil {
		list = []domain.Session{}
	}
	span.SetAttributes(attribute.Int("sessions.count", len(list)))
	return list, nil
}

// Create stores a new session for ownerID.
func (s *SessionService) Create(ctx context.Context, ownerID string, req domain.SessionRequest) (*domain.Session, error) {
	ctx, span := middleware.StartSpan(ctx, "sessions.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", ownerID),
	))
	defer span.End()

	title, err := validateSession(req)
	if err != nil {
		return nil, err
	}
	id, err := newUUID()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := s.now().UTC()
	session := &domain.Session{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Ideas:       cleanIdeas(req.Ideas),
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("insert session: %w", errors.Join(ErrStorage, err))
	}

	span.SetAttributes(attribute.String("session.id", id))
	return session, nil
}

// Get returns an owned session.
func (s *SessionService) Get(ctx context.Context, id, ownerID string) (*domain.Session, error) {
	session, err := s.sessions.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", id, errors.Join(ErrStorage, err))
	}
	if session == nil {
		return nil, fmt.Errorf("load session %q: %w", id, ErrSessionNotFound)
	}
	return session, nil
}

// Update replaces title, description and ideas. The peek counter is untouched.
func (s *SessionService) Update(ctx context.Context, id, ownerID string, req domain.SessionRequest) (*domain.Session, error) {
	ctx, span := middleware.StartSpan(ctx, "sessions.update", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("session.id", id),
	))
	defer span.End()

	title, err := validateSession(req)
	if err != nil {
		return nil, err
	}

	updated, err := s.sessions.Update(ctx, &domain.Session{
		ID:          id,
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Ideas:       cleanIdeas(req.Ideas),
		UpdatedAt:   s.now().UTC(),
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update session %q: %w", id, errors.Join(ErrStorage, err))
	}
	if updated == nil {
		return nil, fmt.Errorf("update session %q: %w", id, ErrSessionNotFound)
	}
	return updated, nil
}

// Delete removes an owned session. Its audit records are kept.
func (s *SessionService) Delete(ctx context.Context, id, ownerID string) error {
	ctx, span := middleware.StartSpan(ctx, "sessions.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("session.id", id),
	))
	defer span.End()

	ok, err := s.sessions.Delete(ctx, id, ownerID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete session %q: %w", id, errors.Join(ErrStorage, err))
	}
	if !ok {
		return fmt.Errorf("delete session %q: %w", id, ErrSessionNotFound)
	}
	return nil
}
