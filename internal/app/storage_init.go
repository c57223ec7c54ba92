package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/iap/internal/domain"
	"github.com/vladislavdragonenkov/iap/internal/storage/memory"
	"github.com/vladislavdragonenkov/iap/internal/storage/postgres"
	redisstore "github.com/vladislavdragonenkov/iap/internal/storage/redis"
)

// initRecordStore создаёт хранилище pay-записей согласно конфигурации.
// Второй результат равен nil, если хранилище не умеет ListPending.
func initRecordStore(cfg Config, logger *log.Entry) (domain.RecordStore, domain.RecordLister, func() error, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		store := memory.NewRecordStore(cfg.Namespace)
		lister, _ := store.(domain.RecordLister)
		logger.Info("using in-memory record store")
		return store, lister, nil, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, nil, nil, fmt.Errorf("postgres storage requires IAP_POSTGRES_DSN")
		}
		pg, err := postgres.Open(context.Background(), cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := pg.EnsureSchema(context.Background()); err != nil {
				_ = pg.Close()
				return nil, nil, nil, fmt.Errorf("migrate postgres schema: %w", err)
			}
		}
		store := postgres.NewRecordStore(pg, cfg.Namespace)
		lister, _ := store.(domain.RecordLister)
		logger.Info("using postgres record store")
		return store, lister, pg.Close, nil

	case StorageDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			return nil, nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		store := redisstore.NewRecordStore(client, cfg.Namespace)
		logger.Info("using redis record store")
		return store, nil, client.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage driver: %s", cfg.StorageDriver)
	}
}
