package v1

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/peek-service/internal/core/domain"
	"github.com/duynhne/peek-service/internal/metrics"
	"github.com/duynhne/peek-service/middleware"
)

// PeekOutcome tags a committed peek by whether its audit record landed.
type PeekOutcome string

const (
	OutcomeCommittedLogged   PeekOutcome = "committed_logged"
	OutcomeCommittedUnlogged PeekOutcome = "committed_unlogged"
)

// PeekResult is the committed result of one peek.
type PeekResult struct {
	SelectedIdea string
	PeekCount    int64
	LastPeekedAt time.Time
	Outcome      PeekOutcome
	// RecordID is empty when the audit record could not be assigned an id.
	RecordID string
}

// Auditor records committed peeks.
type Auditor interface {
	Record(ctx context.Context, entry AuditEntry) (*domain.PeekRecord, error)
}

// PeekService runs the peek transaction: select an idea, commit the counter,
// then record the audit entry.
type PeekService struct {
	sessions domain.SessionRepository
	selector Selector
	audit    Auditor
	metrics  metrics.Recorder
	now      func() time.Time
}

// NewPeekService creates a PeekService. A nil selector falls back to
// RandomSelector and a nil recorder to metrics.Noop.
func NewPeekService(sessions domain.SessionRepository, selector Selector, audit Auditor, rec metrics.Recorder) *PeekService {
	if selector == nil {
		selector = NewRandomSelector()
	}
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &PeekService{
		sessions: sessions,
		selector: selector,
		audit:    audit,
		metrics:  rec,
		now:      time.Now,
	}
}

// Peek selects one idea of the actor's session uniformly at random and
// increments the session's peek counter by exactly one.
//
// No idea is returned unless the counter update committed. The counter update
// and the audit append ignore caller cancellation once started, so an
// abandoned request cannot leave a committed peek unaudited.
func (s *PeekService) Peek(ctx context.Context, sessionID string, actor domain.Actor) (*PeekResult, error) {
	ctx, span := middleware.StartSpan(ctx, "peek.peek", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("session.id", sessionID),
		attribute.String("user.id", actor.ID),
	))
	defer span.End()

	session, err := s.sessions.GetOwned(ctx, sessionID, actor.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load session %q: %w", sessionID, errors.Join(ErrStorage, err))
	}
	if session == nil {
		span.AddEvent("session.not_found")
		return nil, fmt.Errorf("peek session %q: %w", sessionID, ErrSessionNotFound)
	}
	if len(session.Ideas) == 0 {
		span.AddEvent("session.empty")
		return nil, fmt.Errorf("peek session %q: %w", sessionID, ErrNoIdeas)
	}

	idea := session.Ideas[s.selector.Select(len(session.Ideas))]

	commitCtx := context.WithoutCancel(ctx)
	counter, err := s.sessions.IncrementPeek(commitCtx, sessionID, actor.ID, s.now().UTC())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("increment peek count of %q: %w", sessionID, errors.Join(ErrStorage, err))
	}
	if counter == nil {
		span.AddEvent("session.vanished")
		return nil, fmt.Errorf("increment peek count of %q: %w", sessionID, ErrSessionNotFound)
	}

	result := &PeekResult{
		SelectedIdea: idea,
		PeekCount:    counter.PeekCount,
		LastPeekedAt: counter.LastPeekedAt,
		Outcome:      OutcomeCommittedLogged,
	}

	rec, err := s.audit.Record(commitCtx, AuditEntry{
		SessionID:    session.ID,
		SessionTitle: session.Title,
		UserID:       actor.ID,
		UserEmail:    actor.Email,
		SelectedIdea: idea,
	})
	if rec != nil {
		result.RecordID = rec.ID
	}
	if err != nil {
		result.Outcome = OutcomeCommittedUnlogged
		span.RecordError(err)
		pkgzerolog.FromContext(ctx).Warn().Err(err).
			Str("session_id", sessionID).
			Int64("peek_count", counter.PeekCount).
			Msg("Peek committed without audit record")
	}

	s.metrics.IncPeek(string(result.Outcome))
	span.SetAttributes(
		attribute.Int64("peek.count", result.PeekCount),
		attribute.String("peek.outcome", string(result.Outcome)),
	)
	span.AddEvent("peek.committed")

	return result, nil
}
