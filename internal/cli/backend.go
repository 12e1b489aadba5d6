package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quiz-vault/internal/config"
	"quiz-vault/internal/infra/memory"
	pgkv "quiz-vault/internal/infra/postgres"
	rediskv "quiz-vault/internal/infra/redis"
	"quiz-vault/internal/infra/sqlite"
	"quiz-vault/internal/storage"
)

// loadConfig falls back to defaults when the config file does not exist.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("config %s not found, using defaults", path)
		return config.Default(), nil
	}
	return cfg, err
}

// openKV builds the configured storage backend. The returned close function
// releases its connections.
func openKV(ctx context.Context, cfg config.Config) (storage.KV, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return memory.NewKV(), func() {}, nil

	case config.DriverSQLite:
		kv, err := sqlite.Open(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil

	case config.DriverRedis:
		if cfg.Redis.Addr == "" {
			return nil, nil, fmt.Errorf("redis addr not configured")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return rediskv.NewKV(client, cfg.Redis.Prefix), func() { _ = client.Close() }, nil

	case config.DriverPostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return pgkv.NewKV(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
