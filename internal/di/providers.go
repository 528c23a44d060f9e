// Package di assembles the service's object graph. injectors.go declares the
// graphs for wire; wire_gen.go is the generated wiring.
package di

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/duynhne/peek-service/config"
	"github.com/duynhne/peek-service/internal/core"
	"github.com/duynhne/peek-service/internal/journal"
	logicv1 "github.com/duynhne/peek-service/internal/logic/v1"
	"github.com/duynhne/peek-service/internal/metrics"
	webv1 "github.com/duynhne/peek-service/internal/web/v1"
)

// App is the assembled HTTP service.
type App struct {
	Config  *config.Config
	Store   *core.Store
	Handler *webv1.Handler
	Metrics metrics.Recorder
}

// NewApp bundles the pieces serve needs.
func NewApp(cfg *config.Config, store *core.Store, handler *webv1.Handler, rec metrics.Recorder) *App {
	return &App{Config: cfg, Store: store, Handler: handler, Metrics: rec}
}

// ProvideStore opens the configured backend; the cleanup closes it.
func ProvideStore(ctx context.Context, cfg *config.Config) (*core.Store, func(), error) {
	store, err := core.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("Database connection established")
	return store, func() {
		store.Close()
		log.Info().Msg("Database connection closed")
	}, nil
}

// ProvideRecorder returns the process-wide Prometheus recorder.
func ProvideRecorder() metrics.Recorder {
	return metrics.New(true)
}

// ProvideJournal opens the audit dead-letter journal.
func ProvideJournal(cfg *config.Config) (*journal.Journal, func(), error) {
	j, err := journal.Open(cfg.Audit.DeadLetterPath)
	if err != nil {
		return nil, nil, err
	}
	return j, func() { _ = j.Close() }, nil
}

// ProvideAuditLogger builds the audit logger with the configured retry policy.
func ProvideAuditLogger(cfg *config.Config, store *core.Store, j *journal.Journal, rec metrics.Recorder) *logicv1.AuditLogger {
	return logicv1.NewAuditLogger(store.PeekRecords, j, rec,
		logicv1.WithRetry(cfg.Audit.MaxRetries, cfg.Audit.InitialBackoff, cfg.Audit.MaxElapsed),
	)
}

// ProvideAuthService builds the identity service on the store's users and tokens.
func ProvideAuthService(store *core.Store) *logicv1.AuthService {
	return logicv1.NewAuthService(store.Users, store.Tokens)
}

// ProvideSessionService builds session CRUD on the store.
func ProvideSessionService(store *core.Store) *logicv1.SessionService {
	return logicv1.NewSessionService(store.Sessions)
}

// ProvidePeekService builds the peek transaction with a uniform random selector.
func ProvidePeekService(store *core.Store, audit *logicv1.AuditLogger, rec metrics.Recorder) *logicv1.PeekService {
	return logicv1.NewPeekService(store.Sessions, logicv1.NewRandomSelector(), audit, rec)
}

// ProvideAnalyticsService builds the admin aggregator in the configured time zone.
func ProvideAnalyticsService(cfg *config.Config, store *core.Store) (*logicv1.AnalyticsService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return logicv1.NewAnalyticsService(store.Users, store.PeekRecords, loc), nil
}

// ProvideIdempotency builds the Idempotency-Key replay layer.
func ProvideIdempotency(cfg *config.Config, rec metrics.Recorder) *webv1.Idempotency {
	return webv1.NewIdempotency(webv1.NewResponseCache(cfg.Idempotency), rec)
}

// ProvideHandler builds the API v1 handler.
func ProvideHandler(
	cfg *config.Config,
	auth *logicv1.AuthService,
	sessions *logicv1.SessionService,
	peek *logicv1.PeekService,
	analytics *logicv1.AnalyticsService,
	idem *webv1.Idempotency,
) *webv1.Handler {
	return webv1.NewHandler(auth, sessions, peek, analytics, idem, cfg.Admin.Email)
}
