package v1

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/peek-service/internal/core/domain"
	"github.com/duynhne/peek-service/internal/metrics"
	"github.com/duynhne/peek-service/middleware"
)

// AuditEntry is what the peek transaction hands to the audit logger.
type AuditEntry struct {
	SessionID    string
	SessionTitle string
	UserID       string
	UserEmail    string
	SelectedIdea string
}

// DeadLetterJournal holds audit records that could not be committed.
// internal/journal provides the file-backed implementation.
type DeadLetterJournal interface {
	Append(rec *domain.PeekRecord) error
	Replay(ctx context.Context, fn func(context.Context, *domain.PeekRecord) error) (int, error)
}

// AuditLogger appends immutable peek records to the audit log.
type AuditLogger struct {
	records    domain.PeekRecordRepository
	deadLetter DeadLetterJournal
	metrics    metrics.Recorder

	newID          func() (string, error)
	now            func() time.Time
	maxTries       uint
	initialBackoff time.Duration
	maxElapsed     time.Duration
}

// AuditOption configures an AuditLogger.
type AuditOption func(*AuditLogger)

// WithRetry bounds append attempts by count and total elapsed time.
func WithRetry(maxTries uint, initialBackoff, maxElapsed time.Duration) AuditOption {
	return func(a *AuditLogger) {
		a.maxTries = maxTries
		a.initialBackoff = initialBackoff
		a.maxElapsed = maxElapsed
	}
}

// WithAuditClock overrides the record timestamp source.
func WithAuditClock(now func() time.Time) AuditOption {
	return func(a *AuditLogger) { a.now = now }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(newID func() (string, error)) AuditOption {
	return func(a *AuditLogger) { a.newID = newID }
}

// NewAuditLogger creates an AuditLogger. deadLetter may be nil, in which case
// records that exhaust their retries are only logged.
func NewAuditLogger(records domain.PeekRecordRepository, deadLetter DeadLetterJournal, rec metrics.Recorder, opts ...AuditOption) *AuditLogger {
	a := &AuditLogger{
		records:        records,
		deadLetter:     deadLetter,
		metrics:        rec,
		newID:          newUUID,
		now:            time.Now,
		maxTries:       3,
		initialBackoff: 50 * time.Millisecond,
		maxElapsed:     2 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = metrics.Noop{}
	}
	return a
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Record writes one audit entry. The id and timestamp are fixed before the
// first attempt so every retry and any later replay target the same record.
// On final failure the record is dead-lettered and an ErrStorage-wrapped error
// is returned together with the record.
func (a *AuditLogger) Record(ctx context.Context, entry AuditEntry) (*domain.PeekRecord, error) {
	ctx, span := middleware.StartSpan(ctx, "audit.record", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("session.id", entry.SessionID),
		attribute.String("user.id", entry.UserID),
	))
	defer span.End()

	id, err := a.newID()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("generate record id: %w", errors.Join(ErrStorage, err))
	}

	rec := &domain.PeekRecord{
		ID:           id,
		SessionID:    entry.SessionID,
		SessionTitle: entry.SessionTitle,
		UserID:       entry.UserID,
		UserEmail:    entry.UserEmail,
		SelectedIdea: entry.SelectedIdea,
		CreatedAt:    a.now().UTC(),
	}

	logger := pkgzerolog.FromContext(ctx)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = a.initialBackoff

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, a.records.Append(ctx, rec)
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(a.maxTries),
		backoff.WithMaxElapsedTime(a.maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			a.metrics.IncAuditRetry()
			span.AddEvent("audit.retry")
			logger.Warn().Err(err).Str("record_id", rec.ID).Dur("next", next).Msg("Audit append failed, retrying")
		}),
	)
	if err == nil {
		span.SetAttributes(attribute.String("record.id", rec.ID))
		return rec, nil
	}

	span.RecordError(err)
	a.metrics.IncAuditDeadLetter()

	event := logger.Error().Err(err).
		Str("record_id", rec.ID).
		Str("session_id", rec.SessionID).
		Str("user_id", rec.UserID)
	if a.deadLetter != nil {
		if dlErr := a.deadLetter.Append(rec); dlErr != nil {
			span.RecordError(dlErr)
			event = event.AnErr("dead_letter_error", dlErr)
		} else {
			span.AddEvent("audit.dead_lettered")
		}
	}
	event.Msg("Audit record could not be committed")

	return rec, fmt.Errorf("append peek record %s: %w", rec.ID, errors.Join(ErrStorage, err))
}

// Reconcile replays dead-lettered records into the audit log. Appends are
// idempotent by id, so replaying a record that did land is harmless.
func (a *AuditLogger) Reconcile(ctx context.Context) (int, error) {
	ctx, span := middleware.StartSpan(ctx, "audit.reconcile", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if a.deadLetter == nil {
		return 0, nil
	}

	n, err := a.deadLetter.Replay(ctx, a.records.Append)
	span.SetAttributes(attribute.Int("records.replayed", n))
	if err != nil {
		span.RecordError(err)
		return n, fmt.Errorf("reconcile audit log: %w", err)
	}
	return n, nil
}
