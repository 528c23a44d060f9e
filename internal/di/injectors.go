//go:build wireinject
// +build wireinject

package di

import (
	"context"

	wire "github.com/google/wire"

	"github.com/duynhne/peek-service/config"
	"github.com/duynhne/peek-service/internal/core"
	logicv1 "github.com/duynhne/peek-service/internal/logic/v1"
)

func InitApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		ProvideStore,
		ProvideRecorder,
		ProvideJournal,
		ProvideAuditLogger,
		ProvideAuthService,
		ProvideSessionService,
		ProvidePeekService,
		ProvideAnalyticsService,
		ProvideIdempotency,
		ProvideHandler,
		NewApp,
	)
	return nil, nil, nil
}

func InitAuditLogger(ctx context.Context, cfg *config.Config) (*logicv1.AuditLogger, func(), error) {
	wire.Build(
		ProvideStore,
		ProvideRecorder,
		ProvideJournal,
		ProvideAuditLogger,
	)
	return nil, nil, nil
}

func InitStore(ctx context.Context, cfg *config.Config) (*core.Store, func(), error) {
	wire.Build(ProvideStore)
	return nil, nil, nil
}
