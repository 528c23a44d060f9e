// Package core wires the storage backends behind the domain repositories.
package core

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/duynhne/peek-service/config"
	"github.com/duynhne/peek-service/internal/core/domain"
	"github.com/duynhne/peek-service/internal/core/migrations"
	"github.com/duynhne/peek-service/internal/core/repository"
)

// Store bundles the repositories of one backend with its lifecycle hooks.
type Store struct {
	Users       domain.UserRepository
	Tokens      domain.TokenRepository
	Sessions    domain.SessionRepository
	PeekRecords domain.PeekRecordRepository

	ping    func(ctx context.Context) error
	migrate func(ctx context.Context) error
	close   func()
}

// Ping checks connectivity to the backing store.
func (s *Store) Ping(ctx context.Context) error { return s.ping(ctx) }

// Migrate creates tables, collections and indexes. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error { return s.migrate(ctx) }

// Close releases the underlying connections.
func (s *Store) Close() { s.close() }

// Open connects to the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := Connect(ctx, cfg.URL, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(pool), nil
	case config.DriverMongo:
		client, err := ConnectMongo(ctx, cfg.URL, uint64(cfg.MaxConns))
		if err != nil {
			return nil, err
		}
		return NewMongoStore(client, cfg.Name), nil
	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Connect creates a pgx connection pool and verifies it with a ping.
func Connect(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewPostgresStore builds a Store on an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Users:       repository.NewUserRepository(pool),
		Tokens:      repository.NewTokenRepository(pool),
		Sessions:    repository.NewSessionRepository(pool),
		PeekRecords: repository.NewPeekRecordRepository(pool),
		ping:        pool.Ping,
		migrate: func(ctx context.Context) error {
			return migratePostgres(ctx, pool)
		},
		close: pool.Close,
	}
}

func migratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	names, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		script, err := migrations.FS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(script)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// ConnectMongo creates a MongoDB client and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri string, maxPool uint64) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri)
	if maxPool > 0 {
		opts.SetMaxPoolSize(maxPool)
	}
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// NewMongoStore builds a Store on the named database.
func NewMongoStore(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		Users:       repository.NewMongoUserRepository(db),
		Tokens:      repository.NewMongoTokenRepository(db),
		Sessions:    repository.NewMongoSessionRepository(db),
		PeekRecords: repository.NewMongoPeekRecordRepository(db),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		migrate: func(ctx context.Context) error {
			return migrateMongo(ctx, db)
		},
		close: func() {
			_ = client.Disconnect(context.Background())
		},
	}
}

func migrateMongo(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		"authtokens": {
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		"sessions": {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "updatedAt", Value: -1}}},
		},
		"peeklogs": {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// OpenSQLite opens (or creates) the SQLite database at path. Writes are
// funnelled through a single connection; SQLite admits one writer anyway and
// this keeps concurrent increments from surfacing SQLITE_BUSY.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// NewSQLiteStore builds a Store on an open GORM handle.
func NewSQLiteStore(db *gorm.DB) *Store {
	return &Store{
		Users:       repository.NewGormUserRepository(db),
		Tokens:      repository.NewGormTokenRepository(db),
		Sessions:    repository.NewGormSessionRepository(db),
		PeekRecords: repository.NewGormPeekRecordRepository(db),
		ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		migrate: func(ctx context.Context) error {
			return db.WithContext(ctx).AutoMigrate(repository.GormModels()...)
		},
		close: func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	}
}
